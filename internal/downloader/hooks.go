package downloader

import (
	"fmt"
	"log/slog"

	"github.com/niumlaque/nablazy/internal/progress"
	"github.com/niumlaque/nablazy/internal/ytdlp"
)

// progressHook throttles yt-dlp's byte counters to at most one message per
// whole percentage point and republishes them to the session's channel.
// Percent is truncated, not rounded, before duplicate suppression.
type progressHook struct {
	lastPercent int
	sessionID   string
	channel     *progress.Channel
	logger      *slog.Logger
}

func newProgressHook(ch *progress.Channel, sessionID string, logger *slog.Logger) *progressHook {
	return &progressHook{lastPercent: -1, sessionID: sessionID, channel: ch, logger: logger}
}

func (h *progressHook) emit(msg string) {
	h.logger.Info(msg)
	if h.sessionID != "" {
		h.channel.Publish(h.sessionID, msg)
	}
}

func (h *progressHook) handle(ev ytdlp.DownloadEvent) {
	switch ev.Status {
	case ytdlp.StatusDownloading:
		switch {
		case ev.TotalBytes > 0:
			percent := int(float64(ev.DownloadedBytes) / float64(ev.TotalBytes) * 100)
			if percent != h.lastPercent {
				h.lastPercent = percent
				h.emit(fmt.Sprintf("Download progress: %d%%", percent))
			}
		case ev.TotalBytesEstimate > 0:
			percent := int(float64(ev.DownloadedBytes) / float64(ev.TotalBytesEstimate) * 100)
			if percent != h.lastPercent {
				h.lastPercent = percent
				h.emit(fmt.Sprintf("Download progress: %d%% (estimated)", percent))
			}
		}
	case ytdlp.StatusFinished:
		h.emit("Download completed")
	}
}

// postprocessorHook reports the stages of the audio transcode. Processors
// other than audio extraction are logged and ignored rather than failing
// the job.
type postprocessorHook struct {
	sessionID string
	channel   *progress.Channel
	logger    *slog.Logger
}

func newPostprocessorHook(ch *progress.Channel, sessionID string, logger *slog.Logger) *postprocessorHook {
	return &postprocessorHook{sessionID: sessionID, channel: ch, logger: logger}
}

func (h *postprocessorHook) emit(msg string) {
	h.logger.Info(msg)
	if h.sessionID != "" {
		h.channel.Publish(h.sessionID, msg)
	}
}

func (h *postprocessorHook) handle(ev ytdlp.PostprocessEvent) {
	if ev.Name != "FFmpegExtractAudio" && ev.Name != "ExtractAudio" {
		h.logger.Warn(fmt.Sprintf("unexpected postprocessor: %s", ev.Name))
		return
	}
	switch ev.Status {
	case ytdlp.StatusStarted:
		h.emit("Audio conversion started")
	case ytdlp.StatusProcessing:
		h.emit("Audio conversion in progress")
	case ytdlp.StatusFinished:
		h.emit("Audio conversion completed")
	}
}
