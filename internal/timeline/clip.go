package timeline

// MinDuration is the shortest a clip may become through a resize.
const MinDuration = 0.1

const (
	DefaultClipVolume = 100
	maxVolume         = 100
)

// Clip is a placed instance of a MediaItem on a track. Duration always equals
// EndTime-StartTime; every mutation in this package recomputes it.
type Clip struct {
	ID        string    `json:"id"`
	MediaID   string    `json:"media_id"`
	TrackID   string    `json:"track_id"`
	StartTime float64   `json:"start_time"`
	EndTime   float64   `json:"end_time"`
	Duration  float64   `json:"duration"`
	TrimStart float64   `json:"trim_start"`
	TrimEnd   float64   `json:"trim_end"`
	Name      string    `json:"name"`
	Kind      MediaKind `json:"kind"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Volume    int       `json:"volume"`
	Muted     bool      `json:"muted"`
	Effects   []Effect  `json:"effects"`
}

// Contains reports whether t falls within the clip, inclusive on both ends.
func (c Clip) Contains(t float64) bool {
	return c.StartTime <= t && t <= c.EndTime
}

// clone copies the effect slice so the result can be mutated independently.
// Effect payloads are never mutated after attachment and may be shared.
func (c Clip) clone() Clip {
	effects := make([]Effect, len(c.Effects))
	copy(effects, c.Effects)
	c.Effects = effects
	return c
}

func (c *Clip) setSpan(start, end float64) {
	c.StartTime = start
	c.EndTime = end
	c.Duration = end - start
}

// setLength stores length as the duration verbatim, so a floored clip is
// never a rounding error short of it.
func (c *Clip) setLength(start, length float64) {
	c.StartTime = start
	c.EndTime = start + length
	c.Duration = length
}

func cloneClips(clips []Clip) []Clip {
	out := make([]Clip, len(clips))
	for i, c := range clips {
		out[i] = c.clone()
	}
	return out
}

func cloneTracks(tracks []Track) []Track {
	out := make([]Track, len(tracks))
	copy(out, tracks)
	return out
}
