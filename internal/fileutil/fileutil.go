// Package fileutil provides filename sanitization and the helpers that turn
// a staged download into a browser-safe attachment.
package fileutil

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Filename limits. Some filesystems cap bytes, others characters, so both
// are checked.
const (
	DefaultMaxFilenameBytes = 200
	DefaultMaxFilenameChars = 100
)

var (
	forbiddenChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	nonASCII       = regexp.MustCompile(`[^\x00-\x7F]`)
)

// SafeFilename strips characters forbidden on common filesystems and trims
// the result to the given byte and character limits.
func SafeFilename(title string, maxBytes, maxChars int) string {
	safe := strings.TrimSpace(forbiddenChars.ReplaceAllString(title, ""))
	if len(safe) > maxBytes {
		runes := []rune(safe)
		if len(runes) > maxChars {
			safe = string(runes[:maxChars])
		}
	}
	return safe
}

// DownloadFilename builds the final filename for the requested format.
// Audio downloads always get an .mp3 name; everything else reuses the
// extension the extractor produced, defaulting to mp4.
func DownloadFilename(safeTitle, format, producedFilename string) string {
	if format == "audio" {
		return safeTitle + ".mp3"
	}
	ext := strings.TrimPrefix(filepath.Ext(producedFilename), ".")
	if ext == "" {
		ext = "mp4"
	}
	return safeTitle + "." + ext
}

// ASCIIFilename replaces every non-ASCII character in the name part with an
// underscore, keeping the extension.
func ASCIIFilename(filename string) string {
	ext := filepath.Ext(filename)
	name := strings.TrimSuffix(filename, ext)
	return nonASCII.ReplaceAllString(name, "_") + ext
}

// ContentDisposition builds the dual-form attachment header: an ASCII
// fallback for old browsers plus the UTF-8 percent-encoded extended form so
// non-ASCII titles survive the download dialog.
func ContentDisposition(filename, asciiFilename string) string {
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8'''%s",
		asciiFilename, url.PathEscape(filename))
}

// MoveFile renames src to dst, falling back to copy-and-delete when the
// rename crosses filesystems. The copy lands under a temporary name first so
// partial bytes never appear under dst.
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	tmp := dst + ".part"
	if err := copyFile(src, tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
