// Package library stores imported media, project metadata and export job
// records in SQLite, and keeps the uploaded media files on disk.
package library

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cutline/cutline-studio/internal/timeline"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrUnsupportedMedia = errors.New("unsupported media type")
)

// PlaceholderDuration is assigned to media whose length cannot be probed.
const PlaceholderDuration = 30.0

type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectUpdate carries the persisted project fields. Nil fields are kept.
type ProjectUpdate struct {
	Name        *string
	Description *string
}

const (
	ExportStatusPending   = "pending"
	ExportStatusRunning   = "running"
	ExportStatusCompleted = "completed"
	ExportStatusFailed    = "failed"
	ExportStatusCancelled = "cancelled"
)

type ExportJob struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id,omitempty"`
	Status     string    `json:"status"`
	Progress   float64   `json:"progress"`
	Format     string    `json:"format"`
	Quality    string    `json:"quality"`
	Resolution string    `json:"resolution"`
	FPS        int       `json:"fps"`
	OutputURL  string    `json:"output_url,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Terminal reports whether the job can no longer change.
func (j *ExportJob) Terminal() bool {
	switch j.Status {
	case ExportStatusCompleted, ExportStatusFailed, ExportStatusCancelled:
		return true
	}
	return false
}

// Page selects a window of the media list, newest first.
type Page struct {
	Limit  int
	Offset int
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

func (p Page) normalize() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Metadata describes media before its bytes are uploaded.
type Metadata struct {
	Name      string
	Kind      timeline.MediaKind
	Duration  float64
	Size      int64
	Thumbnail string
}

var extensionKinds = map[string]timeline.MediaKind{
	".mp4":  timeline.MediaVideo,
	".m4v":  timeline.MediaVideo,
	".mov":  timeline.MediaVideo,
	".webm": timeline.MediaVideo,
	".mkv":  timeline.MediaVideo,
	".avi":  timeline.MediaVideo,
	".mp3":  timeline.MediaAudio,
	".m4a":  timeline.MediaAudio,
	".aac":  timeline.MediaAudio,
	".wav":  timeline.MediaAudio,
	".ogg":  timeline.MediaAudio,
	".flac": timeline.MediaAudio,
	".png":  timeline.MediaImage,
	".jpg":  timeline.MediaImage,
	".jpeg": timeline.MediaImage,
	".gif":  timeline.MediaImage,
	".webp": timeline.MediaImage,
}

// KindForFile classifies a file by extension.
func KindForFile(filename string) (timeline.MediaKind, bool) {
	kind, ok := extensionKinds[strings.ToLower(filepath.Ext(filename))]
	return kind, ok
}

func NewID() string {
	return uuid.NewString()
}
