// Package app wires the HTTP surface: the download endpoint, the SSE
// progress stream, and the job status API.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/niumlaque/nablazy/internal/config"
	"github.com/niumlaque/nablazy/internal/downloader"
	"github.com/niumlaque/nablazy/internal/jobstatus"
	"github.com/niumlaque/nablazy/internal/progress"
	"github.com/niumlaque/nablazy/internal/ytdlp"

	"github.com/gin-gonic/gin"
)

// Downloader runs one download to completion.
type Downloader interface {
	Run(ctx context.Context, url string, format ytdlp.Format, downloadDir, sessionID string) (path, filename string, err error)
}

// App holds the process-wide singletons and the handlers around them.
type App struct {
	config     *config.Config
	logger     *slog.Logger
	progress   *progress.Channel
	jobs       *jobstatus.Store
	downloader Downloader
	version    string
}

// Setup builds the app from the environment configuration.
func Setup(version string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := createLogger(cfg.LogLevel)
	ch := progress.NewChannel()
	engine := ytdlp.New(cfg.YtdlpPath, logger)
	return &App{
		config:     cfg,
		logger:     logger,
		progress:   ch,
		jobs:       jobstatus.NewStore(),
		downloader: downloader.New(engine, ch, logger),
		version:    version,
	}, nil
}

// Init registers all routes.
func (a *App) Init() *gin.Engine {
	r := gin.Default()

	r.GET("/", a.indexHandler)
	r.POST("/download", a.downloadHandler)
	r.GET("/progress", a.progressHandler)
	r.GET("/health", a.healthHandler)
	r.GET("/status/:id", a.statusHandler)
	r.DELETE("/status/:id", a.clearStatusHandler)
	r.GET("/version", a.versionHandler)

	return r
}

// Run starts the HTTP server.
func (a *App) Run() error {
	if err := os.MkdirAll(a.config.DownloadDir, 0o755); err != nil {
		return fmt.Errorf("creating download dir: %w", err)
	}
	a.logger.Info(fmt.Sprintf("listening on %s", a.config.Addr()))
	return a.Init().Run(a.config.Addr())
}
