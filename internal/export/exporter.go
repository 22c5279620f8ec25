package export

import (
	"context"
	"math/rand"
	"time"
)

// Request is everything an Exporter needs to render the current timeline.
type Request struct {
	ExportID  string   `json:"export_id"`
	ProjectID string   `json:"project_id,omitempty"`
	Title     string   `json:"title"`
	Duration  float64  `json:"duration"`
	Settings  Settings `json:"settings"`
}

type Result struct {
	URL string `json:"url"`
}

// Exporter renders a timeline. progress receives values in [0,100]; it is
// called from the exporting goroutine.
type Exporter interface {
	Export(ctx context.Context, req Request, progress func(float64)) (Result, error)
}

const (
	SimulatedOutputURL       = "exported-video.mp4"
	DefaultSimulatorInterval = 200 * time.Millisecond
	simulatorMaxStep         = 10.0
)

// Simulator fakes a render by advancing progress by a random step per tick.
type Simulator struct {
	interval time.Duration
	rand     func() float64
}

type SimulatorOption func(*Simulator)

func WithSimulatorInterval(d time.Duration) SimulatorOption {
	return func(s *Simulator) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithRandom replaces the [0,1) source used for progress steps.
func WithRandom(fn func() float64) SimulatorOption {
	return func(s *Simulator) {
		if fn != nil {
			s.rand = fn
		}
	}
}

func NewSimulator(opts ...SimulatorOption) *Simulator {
	s := &Simulator{interval: DefaultSimulatorInterval, rand: rand.Float64}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) Export(ctx context.Context, req Request, progress func(float64)) (Result, error) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	p := 0.0
	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-ticker.C:
		}

		if p >= 100 {
			report(progress, 100)
			return Result{URL: SimulatedOutputURL}, nil
		}
		p += s.rand() * simulatorMaxStep
		report(progress, p)
	}
}

func report(progress func(float64), p float64) {
	if progress == nil {
		return
	}
	progress(clampProgress(p))
}

func clampProgress(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
