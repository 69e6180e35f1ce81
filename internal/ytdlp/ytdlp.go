// Package ytdlp drives the yt-dlp binary as an external process and reports
// its progress back through caller-supplied hooks.
package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Format selects what the engine produces.
type Format string

const (
	FormatVideo Format = "video"
	FormatAudio Format = "audio"
)

// Statuses reported by yt-dlp's download and postprocessor hooks.
const (
	StatusDownloading = "downloading"
	StatusFinished    = "finished"
	StatusStarted     = "started"
	StatusProcessing  = "processing"
)

// ErrYtdlp is returned for any yt-dlp invocation failure.
var ErrYtdlp = errors.New("ytdlp error")

// DownloadEvent carries the byte counters of one progress tick. TotalBytes
// is zero when yt-dlp only knows an estimate.
type DownloadEvent struct {
	Status             string
	DownloadedBytes    int64
	TotalBytes         int64
	TotalBytesEstimate int64
}

// PostprocessEvent reports one stage of a post-processing step.
type PostprocessEvent struct {
	Status string
	Name   string
}

// Hooks receive progress callbacks while a download runs. They are invoked
// from the process-reading goroutine and must not block.
type Hooks struct {
	Download    func(DownloadEvent)
	Postprocess func(PostprocessEvent)
}

// Progress templates make yt-dlp emit machine-readable lines on stdout.
// Missing counters default to 0 via the pipe operator.
const (
	downloadTemplate    = "download:download|%(progress.status)s|%(progress.downloaded_bytes|0)s|%(progress.total_bytes|0)s|%(progress.total_bytes_estimate|0)s"
	postprocessTemplate = "postprocess:postprocess|%(progress.status)s|%(progress.postprocessor)s"
)

// Client invokes the yt-dlp binary.
type Client struct {
	bin    string
	logger *slog.Logger
}

func New(bin string, logger *slog.Logger) *Client {
	if bin == "" {
		bin = "yt-dlp"
	}
	return &Client{bin: bin, logger: logger.WithGroup("ytdlp")}
}

// Title fetches the human readable title of the target without downloading.
func (c *Client) Title(ctx context.Context, rawurl string) (string, error) {
	cmd := exec.CommandContext(ctx, c.bin, "--quiet", "--no-warnings", "--skip-download", "--dump-json", rawurl)
	c.logger.DebugContext(ctx, fmt.Sprintf("running cmd: %s", cmd))
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%w: failed cmd %s: %v", ErrYtdlp, cmd, err)
	}
	var info struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(out, &info); err != nil {
		return "", fmt.Errorf("%w: %v", ErrYtdlp, err)
	}
	if info.Title == "" {
		return "", fmt.Errorf("%w: no title in metadata", ErrYtdlp)
	}
	return info.Title, nil
}

// Download extracts the target into dir using the format's parameters,
// reporting progress through hooks. yt-dlp names the output file from the
// media title, so callers scan dir afterwards.
func (c *Client) Download(ctx context.Context, rawurl, dir string, format Format, hooks Hooks) error {
	args := []string{
		"--quiet",
		"--no-warnings",
		"--newline",
		"--progress",
		"--progress-template", downloadTemplate,
		"--progress-template", postprocessTemplate,
		"-o", filepath.Join(dir, "%(title)s.%(ext)s"),
	}
	if format == FormatAudio {
		args = append(args,
			"--format", "bestaudio/best",
			"--extract-audio",
			"--audio-format", "mp3",
			"--audio-quality", "192K",
		)
	} else {
		args = append(args,
			"--format", "bestvideo+bestaudio/best",
			"--merge-output-format", "mp4",
		)
	}
	args = append(args, rawurl)

	start := time.Now()
	cmd := exec.CommandContext(ctx, c.bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: pipe failed cmd %s: %v", ErrYtdlp, cmd, err)
	}

	c.logger.InfoContext(ctx, fmt.Sprintf("starting download of %s", rawurl))
	c.logger.DebugContext(ctx, fmt.Sprintf("running cmd: %s", cmd))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start failed cmd %s: %v", ErrYtdlp, cmd, err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Split(scanProgressLines)
	for scanner.Scan() {
		c.dispatch(scanner.Text(), hooks)
	}
	if err := scanner.Err(); err != nil {
		_ = cmd.Wait()
		return fmt.Errorf("%w: reading progress output: %v", ErrYtdlp, err)
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%w: failed cmd %s: %v: %s", ErrYtdlp, cmd, err, stderr.Bytes())
	}

	c.logger.InfoContext(ctx, fmt.Sprintf("finished download of %s", rawurl), "download.time", time.Since(start).String())
	return nil
}

func (c *Client) dispatch(line string, hooks Hooks) {
	fields := strings.Split(strings.TrimSpace(line), "|")
	switch fields[0] {
	case "download":
		if len(fields) != 5 || hooks.Download == nil {
			return
		}
		hooks.Download(DownloadEvent{
			Status:             fields[1],
			DownloadedBytes:    parseBytes(fields[2]),
			TotalBytes:         parseBytes(fields[3]),
			TotalBytesEstimate: parseBytes(fields[4]),
		})
	case "postprocess":
		if len(fields) != 3 || hooks.Postprocess == nil {
			return
		}
		hooks.Postprocess(PostprocessEvent{Status: fields[1], Name: fields[2]})
	}
}

// yt-dlp reports the counters as floats or NA depending on the phase.
func parseBytes(s string) int64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(f)
}

// scanProgressLines splits on '\r' as well as '\n'; yt-dlp rewrites its
// progress line with carriage returns when a terminal is detected.
func scanProgressLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i, b := range data {
		if b == '\r' || b == '\n' {
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
