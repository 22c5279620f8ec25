package playback

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MediaService streams a stored media file to the preview surface.
type MediaService interface {
	ServeFile(w http.ResponseWriter, r *http.Request, filePath string) error
}

// MediaServer serves files with byte-range support so the browser can seek
// inside long videos without downloading them whole.
type MediaServer struct {
	logger *slog.Logger
}

var mediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ContentType resolves a media MIME type from the file extension.
func ContentType(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	if ct, ok := mediaTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func NewMediaServer(logger *slog.Logger) *MediaServer {
	return &MediaServer{logger: logger}
}

func (s *MediaServer) ServeFile(w http.ResponseWriter, r *http.Request, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.Error(w, "file not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("failed to open media file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat media file: %w", err)
	}
	if stat.IsDir() {
		http.Error(w, "file not found", http.StatusNotFound)
		return nil
	}

	w.Header().Set("Content-Type", ContentType(filePath))
	w.Header().Set("Accept-Ranges", "bytes")

	if s.logger != nil {
		s.logger.Debug("serving media", "path", filepath.Base(filePath), "range", r.Header.Get("Range"))
	}

	http.ServeContent(w, r, stat.Name(), stat.ModTime(), file)
	return nil
}
