package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/niumlaque/nablazy/internal/downloader"
	"github.com/niumlaque/nablazy/internal/fileutil"
	"github.com/niumlaque/nablazy/internal/jobstatus"
	"github.com/niumlaque/nablazy/internal/ytdlp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// POST /download
//
// Runs the whole download synchronously within the request and answers with
// the produced file as an attachment. Progress for the optional session_id
// is streamed separately via GET /progress.
func (a *App) downloadHandler(c *gin.Context) {
	rawurl := c.PostForm("url")
	format := c.PostForm("format")
	sessionID := c.PostForm("session_id")

	if rawurl == "" || format == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url and format are required"})
		return
	}

	jobID := sessionID
	if jobID == "" {
		jobID = uuid.NewString()
	}
	logger := a.logger.With("job", jobID)
	logger.Info(fmt.Sprintf("/download: [%s] %s", format, rawurl))

	a.jobs.Set(jobID, jobstatus.StatusProcessing, "")
	path, filename, err := a.downloader.Run(c.Request.Context(), rawurl, ytdlp.Format(format), a.config.DownloadDir, sessionID)
	if err != nil {
		a.jobs.Set(jobID, jobstatus.StatusFailed, err.Error())
		logger.Error(err.Error())
		status := http.StatusInternalServerError
		if errors.Is(err, downloader.ErrInvalidURL) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	a.jobs.Set(jobID, jobstatus.StatusCompleted, filename)
	logger.Info(fmt.Sprintf("saved %q", path))

	c.Header("Content-Type", "application/octet-stream")
	c.Header("Content-Disposition", fileutil.ContentDisposition(filename, fileutil.ASCIIFilename(filename)))
	c.Header("X-Job-Id", jobID)
	c.File(path)
}
