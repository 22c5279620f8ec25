// Package playback advances the playhead at wall-clock rate and serves
// imported media files to the preview surface.
package playback

import (
	"log/slog"
	"math"
	"sync"
	"time"
)

const (
	DefaultTickInterval = 100 * time.Millisecond

	// TickStep is how far the playhead moves per tick, in seconds.
	TickStep = 0.1
)

// State is a point-in-time view of the clock.
type State struct {
	CurrentTime float64 `json:"current_time"`
	Duration    float64 `json:"duration"`
	Playing     bool    `json:"playing"`
}

type ClockOption func(*Clock)

// WithInterval changes the tick cadence. The step per tick stays TickStep.
func WithInterval(d time.Duration) ClockOption {
	return func(c *Clock) {
		if d > 0 {
			c.interval = d
		}
	}
}

func WithLogger(logger *slog.Logger) ClockOption {
	return func(c *Clock) {
		c.logger = logger
	}
}

// Clock is the playhead. At most one ticker goroutine runs at a time; Play
// replaces it and Pause, Stop and Close cancel it.
type Clock struct {
	mu       sync.Mutex
	current  float64
	duration float64
	playing  bool
	interval time.Duration
	stop     chan struct{}
	onChange func(State)
	logger   *slog.Logger
}

func NewClock(duration float64, opts ...ClockOption) *Clock {
	c := &Clock{
		duration: math.Max(0, duration),
		interval: DefaultTickInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnChange registers the callback invoked after every state change. It runs
// outside the clock's lock, possibly on the ticker goroutine.
func (c *Clock) OnChange(fn func(State)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Clock) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Clock) CurrentTime() float64 {
	return c.State().CurrentTime
}

func (c *Clock) IsPlaying() bool {
	return c.State().Playing
}

// Play starts ticking from the current position.
func (c *Clock) Play() {
	c.mu.Lock()
	c.cancelLocked()
	stop := make(chan struct{})
	c.stop = stop
	c.playing = true
	interval := c.interval
	st := c.stateLocked()
	c.mu.Unlock()

	go c.run(stop, interval)
	if c.logger != nil {
		c.logger.Debug("playback started", "at", st.CurrentTime)
	}
	c.emit(st)
}

func (c *Clock) Pause() {
	c.mu.Lock()
	c.cancelLocked()
	c.playing = false
	st := c.stateLocked()
	c.mu.Unlock()
	c.emit(st)
}

// Stop pauses and rewinds to zero.
func (c *Clock) Stop() {
	c.mu.Lock()
	c.cancelLocked()
	c.playing = false
	c.current = 0
	st := c.stateLocked()
	c.mu.Unlock()
	c.emit(st)
}

// Seek moves the playhead to t clamped to [0, duration], playing or not.
func (c *Clock) Seek(t float64) {
	c.mu.Lock()
	c.current = clamp(t, 0, c.duration)
	st := c.stateLocked()
	c.mu.Unlock()
	c.emit(st)
}

// SetDuration updates the end of playback and pulls the playhead back inside
// it if needed.
func (c *Clock) SetDuration(d float64) {
	c.mu.Lock()
	d = math.Max(0, d)
	if d == c.duration {
		c.mu.Unlock()
		return
	}
	c.duration = d
	if c.current > d {
		c.current = d
	}
	st := c.stateLocked()
	c.mu.Unlock()
	c.emit(st)
}

// Tick advances one step as the ticker would. It reports whether the clock
// is still playing afterwards. Ticks while paused are ignored.
func (c *Clock) Tick() bool {
	c.mu.Lock()
	if !c.playing {
		c.mu.Unlock()
		return false
	}
	st, playing := c.advanceLocked()
	c.mu.Unlock()
	c.emit(st)
	return playing
}

// Close cancels any running ticker.
func (c *Clock) Close() {
	c.mu.Lock()
	c.cancelLocked()
	c.playing = false
	c.mu.Unlock()
}

func (c *Clock) run(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			select {
			case <-stop:
				c.mu.Unlock()
				return
			default:
			}
			st, playing := c.advanceLocked()
			c.mu.Unlock()
			c.emit(st)
			if !playing {
				return
			}
		}
	}
}

func (c *Clock) advanceLocked() (State, bool) {
	c.current += TickStep
	if c.current >= c.duration {
		c.current = c.duration
		c.playing = false
		c.cancelLocked()
		if c.logger != nil {
			c.logger.Debug("playback reached end", "duration", c.duration)
		}
	}
	return c.stateLocked(), c.playing
}

func (c *Clock) cancelLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

func (c *Clock) stateLocked() State {
	return State{CurrentTime: c.current, Duration: c.duration, Playing: c.playing}
}

func (c *Clock) emit(st State) {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
