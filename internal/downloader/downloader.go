// Package downloader orchestrates one download: URL checks, title
// resolution, staged extraction, and moving the result into the download
// directory, while publishing progress to the session's channel.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/niumlaque/nablazy/internal/fileutil"
	"github.com/niumlaque/nablazy/internal/progress"
	"github.com/niumlaque/nablazy/internal/videourl"
	"github.com/niumlaque/nablazy/internal/ytdlp"
)

var (
	// ErrInvalidURL rejects URLs outside the supported platforms. Not
	// retryable; the caller must correct the input.
	ErrInvalidURL = errors.New("not a valid video url (YouTube/Twitter/TikTok)")
	// ErrDownload wraps extraction engine failures.
	ErrDownload = errors.New("download error")
	// ErrNoOutput means extraction reported success without leaving a file.
	ErrNoOutput = errors.New("downloaded file not found")
)

// DefaultTitle is used when title resolution fails.
const DefaultTitle = "download"

// Engine abstracts the media extractor.
type Engine interface {
	Title(ctx context.Context, url string) (string, error)
	Download(ctx context.Context, url, dir string, format ytdlp.Format, hooks ytdlp.Hooks) error
}

type Downloader struct {
	engine   Engine
	progress *progress.Channel
	logger   *slog.Logger
}

func New(engine Engine, ch *progress.Channel, logger *slog.Logger) *Downloader {
	return &Downloader{engine: engine, progress: ch, logger: logger.WithGroup("downloader")}
}

// Run downloads the target and returns the stored file path and its
// download filename. When sessionID is set, progress is published to the
// session's channel, and the channel is closed exactly once on every exit
// path so attached listeners always see the terminal marker.
func (d *Downloader) Run(ctx context.Context, rawurl string, format ytdlp.Format, downloadDir, sessionID string) (path, filename string, err error) {
	if sessionID != "" {
		defer d.progress.Close(sessionID)
	}

	if !videourl.IsValid(rawurl) {
		return "", "", ErrInvalidURL
	}
	cleanURL := videourl.Clean(rawurl)

	if sessionID != "" {
		d.progress.Publish(sessionID, "Download started")
	}

	title := d.resolveTitle(ctx, cleanURL)
	safeTitle := fileutil.SafeFilename(title, fileutil.DefaultMaxFilenameBytes, fileutil.DefaultMaxFilenameChars)

	// yt-dlp names its output after the media title, so each run gets an
	// exclusive staging dir that is scanned afterwards and always removed.
	stagingDir, err := os.MkdirTemp("", "nablazy-*")
	if err != nil {
		return "", "", fmt.Errorf("creating staging dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(stagingDir); rmErr != nil {
			d.logger.Error(fmt.Sprintf("removing staging dir: %v", rmErr))
		}
	}()

	hooks := ytdlp.Hooks{
		Download:    newProgressHook(d.progress, sessionID, d.logger).handle,
		Postprocess: newPostprocessorHook(d.progress, sessionID, d.logger).handle,
	}
	if err := d.engine.Download(ctx, cleanURL, stagingDir, format, hooks); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrDownload, err)
	}

	produced, err := findDownloadedFile(stagingDir)
	if err != nil {
		return "", "", err
	}

	filename = fileutil.DownloadFilename(safeTitle, string(format), produced)
	path = filepath.Join(downloadDir, filename)
	if err := fileutil.MoveFile(filepath.Join(stagingDir, produced), path); err != nil {
		return "", "", fmt.Errorf("moving downloaded file: %w", err)
	}
	return path, filename, nil
}

// resolveTitle degrades to the default title on any failure; a missing
// title must never abort the download.
func (d *Downloader) resolveTitle(ctx context.Context, rawurl string) string {
	title, err := d.engine.Title(ctx, rawurl)
	if err != nil || title == "" {
		d.logger.Warn(fmt.Sprintf("title resolution failed, using %q: %v", DefaultTitle, err))
		return DefaultTitle
	}
	return title
}

// findDownloadedFile picks the produced file. The engine should leave
// exactly one behind; if it ever leaves more, os.ReadDir's sorted order
// makes the pick deterministic.
func findDownloadedFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading staging dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			return e.Name(), nil
		}
	}
	return "", ErrNoOutput
}
