package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /status/:id
func (a *App) statusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, a.jobs.Get(c.Param("id")))
}

// DELETE /status/:id
func (a *App) clearStatusHandler(c *gin.Context) {
	a.jobs.Clear(c.Param("id"))
	c.Status(http.StatusNoContent)
}
