// Package studio owns the live editing session: one timeline, its undo
// history, the playhead and master volume. Every operation runs to completion
// under a single lock, and observers are told about changes afterwards.
package studio

import (
	"log/slog"
	"sync"
	"time"

	"github.com/cutline/cutline-studio/internal/playback"
	"github.com/cutline/cutline-studio/internal/timeline"
)

const DefaultVolume = 75

type EventKind string

const (
	EventTimeline EventKind = "timeline"
	EventPlayback EventKind = "playback"
	EventHistory  EventKind = "history"
	EventProject  EventKind = "project"
)

// Event tells observers that part of the session changed. Observers read the
// new state through View or Preview.
type Event struct {
	Kind     EventKind       `json:"kind"`
	Revision uint64          `json:"revision"`
	Playback *playback.State `json:"playback,omitempty"`
}

type Options struct {
	Timeline      []timeline.Option
	ClockInterval time.Duration
	Logger        *slog.Logger
}

type Session struct {
	mu       sync.Mutex
	tl       *timeline.Timeline
	history  *timeline.History
	clock    *playback.Clock
	volume   int
	revision uint64

	inGesture    bool
	gestureDirty bool

	// durMu orders clock duration updates so the last one applied always
	// reflects the newest timeline.
	durMu sync.Mutex

	subsMu  sync.Mutex
	subs    map[int]func(Event)
	nextSub int

	logger *slog.Logger
}

func NewSession(opts Options) *Session {
	tl := timeline.New(opts.Timeline...)

	clockOpts := []playback.ClockOption{playback.WithLogger(opts.Logger)}
	if opts.ClockInterval > 0 {
		clockOpts = append(clockOpts, playback.WithInterval(opts.ClockInterval))
	}

	s := &Session{
		tl:      tl,
		history: timeline.NewHistory(),
		clock:   playback.NewClock(tl.Duration(), clockOpts...),
		volume:  DefaultVolume,
		subs:    make(map[int]func(Event)),
		logger:  opts.Logger,
	}
	s.history.Record(tl.Snapshot())
	s.clock.OnChange(s.onClock)
	return s
}

// Subscribe registers fn for every change event and returns a func that
// removes it. fn is called outside the session lock.
func (s *Session) Subscribe(fn func(Event)) func() {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Session) emit(ev Event) {
	s.subsMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (s *Session) onClock(st playback.State) {
	s.mu.Lock()
	s.revision++
	rev := s.revision
	s.mu.Unlock()
	s.emit(Event{Kind: EventPlayback, Revision: rev, Playback: &st})
}

// mutate runs op against the timeline and, if it changed anything, records a
// history checkpoint (or marks the open gesture dirty), resizes the clock and
// notifies observers.
func (s *Session) mutate(name string, op func(tl *timeline.Timeline) bool) bool {
	s.mu.Lock()
	changed := op(s.tl)
	if !changed {
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.Debug("timeline operation had no effect", "op", name)
		}
		return false
	}
	if s.inGesture {
		s.gestureDirty = true
	} else {
		s.history.Record(s.tl.Snapshot())
	}
	s.revision++
	rev := s.revision
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Debug("timeline changed", "op", name, "revision", rev)
	}
	s.syncClockDuration()
	s.emit(Event{Kind: EventTimeline, Revision: rev})
	return true
}

// syncClockDuration pushes the current timeline duration to the clock. The
// clock calls back into the session, so SetDuration must run without s.mu.
func (s *Session) syncClockDuration() {
	s.durMu.Lock()
	defer s.durMu.Unlock()
	s.mu.Lock()
	duration := s.tl.Duration()
	s.mu.Unlock()
	s.clock.SetDuration(duration)
}

// BeginGesture starts a pointer gesture. Changes until EndGesture collapse
// into a single undo step. A gesture that is still open is committed first.
func (s *Session) BeginGesture() {
	s.mu.Lock()
	s.commitGestureLocked()
	s.inGesture = true
	s.gestureDirty = false
	s.mu.Unlock()
}

// EndGesture closes the gesture and reports whether it produced an undo step.
func (s *Session) EndGesture() bool {
	s.mu.Lock()
	recorded := s.commitGestureLocked()
	s.mu.Unlock()
	return recorded
}

func (s *Session) commitGestureLocked() bool {
	if !s.inGesture {
		return false
	}
	recorded := s.gestureDirty
	if recorded {
		s.history.Record(s.tl.Snapshot())
	}
	s.inGesture = false
	s.gestureDirty = false
	return recorded
}

func (s *Session) AddClip(media timeline.MediaItem, trackID string, at float64) (timeline.Clip, bool) {
	var clip timeline.Clip
	ok := s.mutate("add_clip", func(tl *timeline.Timeline) bool {
		var added bool
		clip, added = tl.AddClip(media, trackID, at)
		return added
	})
	return clip, ok
}

// AddClipAtPlayhead drops media onto its default track at the current time.
func (s *Session) AddClipAtPlayhead(media timeline.MediaItem) (timeline.Clip, bool) {
	return s.AddClip(media, "", s.clock.CurrentTime())
}

func (s *Session) MoveClip(id string, newStart float64, trackID string) bool {
	return s.mutate("move_clip", func(tl *timeline.Timeline) bool {
		return tl.MoveClip(id, newStart, trackID)
	})
}

func (s *Session) ResizeClip(id string, handle timeline.Handle, delta float64) bool {
	return s.mutate("resize_clip", func(tl *timeline.Timeline) bool {
		return tl.ResizeClip(id, handle, delta)
	})
}

func (s *Session) SplitClip(id string, at float64) ([2]timeline.Clip, bool) {
	var halves [2]timeline.Clip
	ok := s.mutate("split_clip", func(tl *timeline.Timeline) bool {
		var split bool
		halves, split = tl.SplitClip(id, at)
		return split
	})
	return halves, ok
}

// SplitAtPlayhead cuts a clip at the current playhead position.
func (s *Session) SplitAtPlayhead(id string) ([2]timeline.Clip, bool) {
	return s.SplitClip(id, s.clock.CurrentTime())
}

func (s *Session) DeleteClip(id string) bool {
	return s.mutate("delete_clip", func(tl *timeline.Timeline) bool {
		return tl.DeleteClip(id)
	})
}

func (s *Session) UpdateClip(c timeline.Clip) bool {
	return s.mutate("update_clip", func(tl *timeline.Timeline) bool {
		return tl.UpdateClip(c)
	})
}

func (s *Session) SetClipVolume(id string, volume int) bool {
	return s.mutate("clip_volume", func(tl *timeline.Timeline) bool {
		return tl.SetClipVolume(id, volume)
	})
}

func (s *Session) SetClipMuted(id string, muted bool) bool {
	return s.mutate("clip_muted", func(tl *timeline.Timeline) bool {
		return tl.SetClipMuted(id, muted)
	})
}

// RemoveMedia cascades a media deletion to the clips that reference it.
func (s *Session) RemoveMedia(mediaID string) int {
	var n int
	s.mutate("remove_media", func(tl *timeline.Timeline) bool {
		n = tl.RemoveMedia(mediaID)
		return n > 0
	})
	return n
}

func (s *Session) AddTrack(kind timeline.TrackKind) (timeline.Track, bool) {
	var track timeline.Track
	ok := s.mutate("add_track", func(tl *timeline.Timeline) bool {
		var added bool
		track, added = tl.AddTrack(kind)
		return added
	})
	return track, ok
}

func (s *Session) UpdateTrack(id string, u timeline.TrackUpdate) bool {
	return s.mutate("update_track", func(tl *timeline.Timeline) bool {
		return tl.UpdateTrack(id, u)
	})
}

func (s *Session) DeleteTrack(id string) bool {
	return s.mutate("delete_track", func(tl *timeline.Timeline) bool {
		return tl.DeleteTrack(id)
	})
}

func (s *Session) ApplyFilter(clipID string, key timeline.FilterKey, value float64) bool {
	return s.mutate("apply_filter", func(tl *timeline.Timeline) bool {
		return tl.ApplyFilter(clipID, key, value)
	})
}

func (s *Session) ToggleColorFilter(clipID string, preset timeline.ColorFilter) bool {
	return s.mutate("toggle_color_filter", func(tl *timeline.Timeline) bool {
		return tl.ToggleColorFilter(clipID, preset)
	})
}

func (s *Session) ApplyTransition(clipID string, kind timeline.TransitionType) bool {
	return s.mutate("apply_transition", func(tl *timeline.Timeline) bool {
		return tl.ApplyTransition(clipID, kind)
	})
}

func (s *Session) AddTransitionBetween(fromID, toID string, kind timeline.TransitionType, duration float64) bool {
	return s.mutate("add_transition", func(tl *timeline.Timeline) bool {
		return tl.AddTransitionBetween(fromID, toID, kind, duration)
	})
}

func (s *Session) AddText(clipID string, p timeline.TextParams) (timeline.Effect, bool) {
	var effect timeline.Effect
	ok := s.mutate("add_text", func(tl *timeline.Timeline) bool {
		var added bool
		effect, added = tl.AddText(clipID, p)
		return added
	})
	return effect, ok
}

func (s *Session) RemoveEffect(clipID, effectID string) bool {
	return s.mutate("remove_effect", func(tl *timeline.Timeline) bool {
		return tl.RemoveEffect(clipID, effectID)
	})
}

// Undo restores the previous checkpoint. An open gesture is committed first
// so its changes form the step being undone.
func (s *Session) Undo() bool {
	return s.travel("undo", (*timeline.History).Undo)
}

func (s *Session) Redo() bool {
	return s.travel("redo", (*timeline.History).Redo)
}

func (s *Session) travel(name string, step func(*timeline.History) (timeline.Snapshot, bool)) bool {
	s.mu.Lock()
	s.commitGestureLocked()
	snap, ok := step(s.history)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.tl.Restore(snap)
	s.revision++
	rev := s.revision
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Debug("history moved", "op", name, "revision", rev)
	}
	s.syncClockDuration()
	s.emit(Event{Kind: EventHistory, Revision: rev})
	return true
}

func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// NewProject discards the timeline, history and transport state.
func (s *Session) NewProject() {
	s.mu.Lock()
	s.tl.Reset()
	s.history.Reset()
	s.history.Record(s.tl.Snapshot())
	s.inGesture = false
	s.gestureDirty = false
	s.volume = DefaultVolume
	s.revision++
	rev := s.revision
	s.mu.Unlock()

	s.clock.Stop()
	s.syncClockDuration()
	if s.logger != nil {
		s.logger.Info("new project started")
	}
	s.emit(Event{Kind: EventProject, Revision: rev})
}

func (s *Session) SetZoom(z float64) bool {
	s.mu.Lock()
	if !s.tl.SetZoom(z) {
		s.mu.Unlock()
		return false
	}
	s.revision++
	rev := s.revision
	s.mu.Unlock()

	s.emit(Event{Kind: EventTimeline, Revision: rev})
	return true
}

// SetVolume sets the master volume, clamped to 0..100.
func (s *Session) SetVolume(v int) int {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	s.mu.Lock()
	s.volume = v
	s.revision++
	rev := s.revision
	s.mu.Unlock()

	s.emit(Event{Kind: EventPlayback, Revision: rev})
	return v
}

func (s *Session) Play()  { s.clock.Play() }
func (s *Session) Pause() { s.clock.Pause() }
func (s *Session) Stop()  { s.clock.Stop() }

func (s *Session) TogglePlay() bool {
	if s.clock.IsPlaying() {
		s.clock.Pause()
		return false
	}
	s.clock.Play()
	return true
}

func (s *Session) Seek(t float64) {
	s.clock.Seek(t)
}

// SeekPixel moves the playhead to the time under a ruler click.
func (s *Session) SeekPixel(x float64) {
	s.mu.Lock()
	t := s.tl.TimeAtPixel(x)
	s.mu.Unlock()
	s.clock.Seek(t)
}

func (s *Session) Playback() playback.State {
	return s.clock.State()
}

// View is a consistent copy of everything a UI needs to draw the editor.
type View struct {
	Tracks          []timeline.Track `json:"tracks"`
	Clips           []timeline.Clip  `json:"clips"`
	Duration        float64          `json:"duration"`
	Zoom            float64          `json:"zoom"`
	PixelsPerSecond float64          `json:"pixels_per_second"`
	Width           float64          `json:"width"`
	MarkerInterval  int              `json:"marker_interval"`
	Volume          int              `json:"volume"`
	Playback        playback.State   `json:"playback"`
	CanUndo         bool             `json:"can_undo"`
	CanRedo         bool             `json:"can_redo"`
	Revision        uint64           `json:"revision"`
}

func (s *Session) View() View {
	s.mu.Lock()
	v := View{
		Tracks:          s.tl.Tracks(),
		Clips:           s.tl.Clips(),
		Duration:        s.tl.Duration(),
		Zoom:            s.tl.Zoom(),
		PixelsPerSecond: s.tl.PixelsPerSecond(),
		Width:           s.tl.Width(),
		MarkerInterval:  s.tl.MarkerInterval(),
		Volume:          s.volume,
		CanUndo:         s.history.CanUndo(),
		CanRedo:         s.history.CanRedo(),
		Revision:        s.revision,
	}
	s.mu.Unlock()
	v.Playback = s.clock.State()
	return v
}

// Markers returns the ruler tick times for the current zoom.
func (s *Session) Markers() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tl.Markers()
}

func (s *Session) Snapshot() timeline.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tl.Snapshot()
}

func (s *Session) Clip(id string) (timeline.Clip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tl.Clip(id)
}

// Preview resolves what is on screen at the playhead.
func (s *Session) Preview() timeline.Frame {
	at := s.clock.CurrentTime()
	s.mu.Lock()
	defer s.mu.Unlock()
	return timeline.Resolve(s.tl.Clips(), s.tl.Tracks(), at)
}

// Close stops the playback ticker.
func (s *Session) Close() {
	s.clock.Close()
}
