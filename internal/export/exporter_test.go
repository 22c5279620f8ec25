package export

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSimulator_CompletesWithinBounds(t *testing.T) {
	sim := NewSimulator(WithSimulatorInterval(time.Millisecond), WithRandom(func() float64 { return 0.7 }))

	var reported []float64
	res, err := sim.Export(context.Background(), Request{Settings: DefaultSettings()}, func(p float64) {
		reported = append(reported, p)
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if res.URL != SimulatedOutputURL {
		t.Errorf("URL = %s, want %s", res.URL, SimulatedOutputURL)
	}
	if len(reported) == 0 {
		t.Fatal("no progress reported")
	}

	prev := 0.0
	for _, p := range reported {
		if p < 0 || p > 100 {
			t.Fatalf("progress %v outside [0,100]", p)
		}
		if p < prev {
			t.Fatalf("progress went backwards: %v after %v", p, prev)
		}
		prev = p
	}
	if reported[len(reported)-1] != 100 {
		t.Errorf("final progress = %v, want 100", reported[len(reported)-1])
	}
}

func TestSimulator_Cancel(t *testing.T) {
	sim := NewSimulator(WithSimulatorInterval(time.Millisecond), WithRandom(func() float64 { return 0 }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := sim.Export(ctx, Request{}, nil)
		done <- err
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Export() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("simulator did not stop after cancel")
	}
}

func TestClampProgress(t *testing.T) {
	tests := map[float64]float64{-5: 0, 0: 0, 42: 42, 100: 100, 107.3: 100}
	for in, want := range tests {
		if got := clampProgress(in); got != want {
			t.Errorf("clampProgress(%v) = %v, want %v", in, got, want)
		}
	}
}
