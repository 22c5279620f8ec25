// Package timeline implements the editing model: tracks, clips and their
// effect stacks, the time-domain operations over them, linear undo history
// and the preview lookup that maps a playhead position to what is on screen.
//
// Nothing in this package is safe for concurrent use. A single owner
// (see internal/studio) serialises access.
package timeline

import "time"

type MediaKind string

const (
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
	MediaImage MediaKind = "image"
)

// MediaItem references an uploaded asset. Clips hold its ID only.
type MediaItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      MediaKind `json:"kind"`
	Duration  float64   `json:"duration"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

func (k MediaKind) Valid() bool {
	switch k {
	case MediaVideo, MediaAudio, MediaImage:
		return true
	}
	return false
}
