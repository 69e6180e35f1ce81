package app

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed index.html
var indexHTML []byte

// GET /
func (a *App) indexHandler(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

// GET /health
func (a *App) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GET /version
func (a *App) versionHandler(c *gin.Context) {
	json := []byte(`{"version": "` + a.version + `" }`)
	c.Data(http.StatusOK, gin.MIMEJSON, json)
}
