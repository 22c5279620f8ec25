package timeline

import (
	"fmt"
	"math"
	"reflect"

	"github.com/google/uuid"
)

const (
	// MinProjectDuration is the floor for the computed project length.
	MinProjectDuration = 120.0

	DefaultSnapGrid = 0.25

	DefaultZoom = 1.0
	MinZoom     = 0.1
	MaxZoom     = 2.0

	basePixelsPerSecond = 10.0
)

type Handle string

const (
	HandleLeft  Handle = "left"
	HandleRight Handle = "right"
)

type Option func(*Timeline)

// WithIDGenerator replaces the uuid generator used for new clips, tracks and
// effects.
func WithIDGenerator(fn func() string) Option {
	return func(t *Timeline) {
		if fn != nil {
			t.newID = fn
		}
	}
}

// WithSnapGrid sets the move snapping grid in seconds. Zero disables snapping.
func WithSnapGrid(grid float64) Option {
	return func(t *Timeline) {
		if grid >= 0 {
			t.snapGrid = grid
		}
	}
}

// Timeline owns the authoritative tracks and clips of a project.
//
// Operations that cannot apply (unknown ids, out-of-range split points,
// resizes below MinDuration) leave state untouched and report false.
type Timeline struct {
	tracks   []Track
	clips    []Clip
	duration float64
	zoom     float64
	snapGrid float64
	newID    func() string
}

func New(opts ...Option) *Timeline {
	t := &Timeline{
		snapGrid: DefaultSnapGrid,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.Reset()
	return t
}

// Reset empties the timeline back to the default tracks at default zoom.
func (t *Timeline) Reset() {
	t.tracks = DefaultTracks()
	t.clips = nil
	t.zoom = DefaultZoom
	t.recomputeDuration()
}

func (t *Timeline) Clips() []Clip {
	return cloneClips(t.clips)
}

func (t *Timeline) Tracks() []Track {
	return cloneTracks(t.tracks)
}

func (t *Timeline) Clip(id string) (Clip, bool) {
	i := t.clipIndex(id)
	if i < 0 {
		return Clip{}, false
	}
	return t.clips[i].clone(), true
}

func (t *Timeline) Track(id string) (Track, bool) {
	i := t.trackIndex(id)
	if i < 0 {
		return Track{}, false
	}
	return t.tracks[i], true
}

// ClipsOnTrack returns the clips assigned to trackID in list order.
func (t *Timeline) ClipsOnTrack(trackID string) []Clip {
	var out []Clip
	for _, c := range t.clips {
		if c.TrackID == trackID {
			out = append(out, c.clone())
		}
	}
	return out
}

// AddClip places media on a track starting at the given time. An empty
// trackID selects the first track that hosts the media kind, falling back to
// the first video track.
func (t *Timeline) AddClip(media MediaItem, trackID string, at float64) (Clip, bool) {
	track, ok := t.targetTrack(media.Kind, trackID)
	if !ok {
		return Clip{}, false
	}

	start := math.Max(0, at)
	length := media.Duration
	if length < MinDuration {
		length = MinDuration
	}

	c := Clip{
		ID:        t.newID(),
		MediaID:   media.ID,
		TrackID:   track.ID,
		Name:      media.Name,
		Kind:      media.Kind,
		Thumbnail: media.Thumbnail,
		Volume:    DefaultClipVolume,
		Effects:   []Effect{},
	}
	c.setLength(start, length)

	t.clips = append(t.clips, c)
	t.recomputeDuration()
	return c.clone(), true
}

func (t *Timeline) targetTrack(kind MediaKind, trackID string) (Track, bool) {
	if trackID != "" {
		return t.Track(trackID)
	}
	for _, tr := range t.tracks {
		if tr.Kind.Hosts(kind) {
			return tr, true
		}
	}
	for _, tr := range t.tracks {
		if tr.Kind == TrackVideo {
			return tr, true
		}
	}
	return Track{}, false
}

// MoveClip repositions a clip, preserving its duration. The new start is
// clamped to zero and snapped to the grid. A non-empty newTrackID reassigns
// the clip; an unknown track makes the whole move a no-op.
func (t *Timeline) MoveClip(id string, newStart float64, newTrackID string) bool {
	i := t.clipIndex(id)
	if i < 0 {
		return false
	}
	if newTrackID != "" && t.trackIndex(newTrackID) < 0 {
		return false
	}

	c := &t.clips[i]
	start := SnapTo(math.Max(0, newStart), t.snapGrid)
	trackID := c.TrackID
	if newTrackID != "" {
		trackID = newTrackID
	}
	if start == c.StartTime && trackID == c.TrackID {
		return false
	}

	c.TrackID = trackID
	c.setSpan(start, start+c.Duration)
	t.recomputeDuration()
	return true
}

// ResizeClip drags one edge of a clip by delta seconds, trading visible span
// against trimmed source material.
func (t *Timeline) ResizeClip(id string, handle Handle, delta float64) bool {
	i := t.clipIndex(id)
	if i < 0 || delta == 0 {
		return false
	}

	c := t.clips[i]
	switch handle {
	case HandleLeft:
		newStart := math.Max(0, c.StartTime+delta)
		if c.EndTime-newStart <= MinDuration {
			return false
		}
		c.TrimStart = math.Max(0, c.TrimStart+delta)
		c.setSpan(newStart, c.EndTime)
	case HandleRight:
		newEnd := c.EndTime + delta
		c.TrimEnd = math.Max(0, c.TrimEnd-delta)
		if newEnd-c.StartTime < MinDuration {
			c.setLength(c.StartTime, MinDuration)
		} else {
			c.setSpan(c.StartTime, newEnd)
		}
	default:
		return false
	}

	if reflect.DeepEqual(c, t.clips[i]) {
		return false
	}
	t.clips[i] = c
	t.recomputeDuration()
	return true
}

// SplitClip cuts a clip at an interior time into two new clips. The original
// id is retired and both halves inherit the full effect list.
func (t *Timeline) SplitClip(id string, at float64) ([2]Clip, bool) {
	i := t.clipIndex(id)
	if i < 0 {
		return [2]Clip{}, false
	}

	orig := t.clips[i]
	if at <= orig.StartTime || at >= orig.EndTime {
		return [2]Clip{}, false
	}

	first := orig.clone()
	first.ID = t.newID()
	first.TrimEnd += orig.EndTime - at
	first.setSpan(orig.StartTime, at)

	second := orig.clone()
	second.ID = t.newID()
	second.TrimStart += at - orig.StartTime
	second.setSpan(at, orig.EndTime)

	t.clips = append(t.clips[:i], t.clips[i+1:]...)
	t.clips = append(t.clips, first, second)
	t.recomputeDuration()
	return [2]Clip{first.clone(), second.clone()}, true
}

func (t *Timeline) DeleteClip(id string) bool {
	i := t.clipIndex(id)
	if i < 0 {
		return false
	}
	t.clips = append(t.clips[:i], t.clips[i+1:]...)
	t.recomputeDuration()
	return true
}

// UpdateClip replaces a clip wholesale. Span and trim fields are normalised
// so the clip invariants hold, and the target track must exist.
func (t *Timeline) UpdateClip(c Clip) bool {
	i := t.clipIndex(c.ID)
	if i < 0 || t.trackIndex(c.TrackID) < 0 {
		return false
	}

	c = c.clone()
	start := math.Max(0, c.StartTime)
	end := math.Max(start+MinDuration, c.EndTime)
	c.setSpan(start, end)
	c.TrimStart = math.Max(0, c.TrimStart)
	c.TrimEnd = math.Max(0, c.TrimEnd)
	c.Volume = clampVolume(c.Volume)
	if c.Effects == nil {
		c.Effects = []Effect{}
	}

	if reflect.DeepEqual(c, t.clips[i]) {
		return false
	}
	t.clips[i] = c
	t.recomputeDuration()
	return true
}

func (t *Timeline) SetClipVolume(id string, volume int) bool {
	i := t.clipIndex(id)
	if i < 0 {
		return false
	}
	v := clampVolume(volume)
	if t.clips[i].Volume == v {
		return false
	}
	t.clips[i].Volume = v
	return true
}

func (t *Timeline) SetClipMuted(id string, muted bool) bool {
	i := t.clipIndex(id)
	if i < 0 || t.clips[i].Muted == muted {
		return false
	}
	t.clips[i].Muted = muted
	return true
}

// RemoveMedia deletes every clip that references mediaID and returns how many
// were removed.
func (t *Timeline) RemoveMedia(mediaID string) int {
	kept := t.clips[:0]
	removed := 0
	for _, c := range t.clips {
		if c.MediaID == mediaID {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	t.clips = kept
	if removed > 0 {
		t.recomputeDuration()
	}
	return removed
}

// AddTrack appends a lane named after the count of existing lanes of the
// same kind.
func (t *Timeline) AddTrack(kind TrackKind) (Track, bool) {
	if !kind.Valid() {
		return Track{}, false
	}
	n := 0
	for _, tr := range t.tracks {
		if tr.Kind == kind {
			n++
		}
	}
	tr := Track{
		ID:      t.newID(),
		Name:    fmt.Sprintf("%s %d", kind.label(), n+1),
		Kind:    kind,
		Height:  kind.height(),
		Visible: true,
	}
	t.tracks = append(t.tracks, tr)
	return tr, true
}

// UpdateTrack applies flag and label changes. Locked is recorded for the UI
// but not enforced by clip operations.
func (t *Timeline) UpdateTrack(id string, u TrackUpdate) bool {
	i := t.trackIndex(id)
	if i < 0 {
		return false
	}
	next := u.apply(t.tracks[i])
	if next == t.tracks[i] {
		return false
	}
	t.tracks[i] = next
	return true
}

// DeleteTrack removes a lane and every clip on it.
func (t *Timeline) DeleteTrack(id string) bool {
	i := t.trackIndex(id)
	if i < 0 {
		return false
	}
	t.tracks = append(t.tracks[:i], t.tracks[i+1:]...)

	kept := t.clips[:0]
	for _, c := range t.clips {
		if c.TrackID != id {
			kept = append(kept, c)
		}
	}
	t.clips = kept
	t.recomputeDuration()
	return true
}

// Duration is the project length: the furthest clip end, never below
// MinProjectDuration.
func (t *Timeline) Duration() float64 {
	return t.duration
}

func (t *Timeline) recomputeDuration() {
	d := MinProjectDuration
	for _, c := range t.clips {
		if c.EndTime > d {
			d = c.EndTime
		}
	}
	t.duration = d
}

func (t *Timeline) Zoom() float64 {
	return t.zoom
}

func (t *Timeline) SetZoom(z float64) bool {
	z = Clamp(z, MinZoom, MaxZoom)
	if z == t.zoom {
		return false
	}
	t.zoom = z
	return true
}

func (t *Timeline) PixelsPerSecond() float64 {
	return t.zoom * basePixelsPerSecond
}

// Width is the rendered timeline width in pixels.
func (t *Timeline) Width() float64 {
	return t.duration * t.PixelsPerSecond()
}

// MarkerInterval is the ruler tick spacing in whole seconds.
func (t *Timeline) MarkerInterval() int {
	n := int(math.Floor(basePixelsPerSecond / t.zoom))
	if n < 1 {
		return 1
	}
	return n
}

// Markers lists ruler tick times from zero to the duration inclusive.
func (t *Timeline) Markers() []float64 {
	step := float64(t.MarkerInterval())
	var out []float64
	for m := 0.0; m <= t.duration; m += step {
		out = append(out, m)
	}
	return out
}

// TimeAtPixel maps a horizontal offset on the ruler to a playhead time.
func (t *Timeline) TimeAtPixel(x float64) float64 {
	return Clamp(x/t.PixelsPerSecond(), 0, t.duration)
}

func (t *Timeline) PixelAt(seconds float64) float64 {
	return seconds * t.PixelsPerSecond()
}

// Snapshot captures a deep copy of the clips and tracks.
func (t *Timeline) Snapshot() Snapshot {
	return Snapshot{Clips: cloneClips(t.clips), Tracks: cloneTracks(t.tracks)}
}

// Restore replaces clips and tracks with a copy of s. Zoom is view state and
// is left alone.
func (t *Timeline) Restore(s Snapshot) {
	t.clips = cloneClips(s.Clips)
	t.tracks = cloneTracks(s.Tracks)
	t.recomputeDuration()
}

func (t *Timeline) clipIndex(id string) int {
	for i := range t.clips {
		if t.clips[i].ID == id {
			return i
		}
	}
	return -1
}

func (t *Timeline) trackIndex(id string) int {
	for i := range t.tracks {
		if t.tracks[i].ID == id {
			return i
		}
	}
	return -1
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > maxVolume {
		return maxVolume
	}
	return v
}
