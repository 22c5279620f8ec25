package ui

import (
	"testing"

	"github.com/cutline/cutline-studio/internal/playback"
	"github.com/cutline/cutline-studio/internal/studio"
)

type fakeEditor struct {
	state   playback.State
	canUndo bool
	canRedo bool
}

func (f *fakeEditor) Playback() playback.State { return f.state }
func (f *fakeEditor) TogglePlay() bool {
	f.state.Playing = !f.state.Playing
	return f.state.Playing
}
func (f *fakeEditor) Stop()                                  { f.state = playback.State{Duration: f.state.Duration} }
func (f *fakeEditor) Undo() bool                             { return f.canUndo }
func (f *fakeEditor) Redo() bool                             { return f.canRedo }
func (f *fakeEditor) CanUndo() bool                          { return f.canUndo }
func (f *fakeEditor) CanRedo() bool                          { return f.canRedo }
func (f *fakeEditor) Subscribe(fn func(studio.Event)) func() { return func() {} }

func TestStatusTitle(t *testing.T) {
	cases := []struct {
		state playback.State
		want  string
	}{
		{playback.State{}, "00:00 / 00:00"},
		{playback.State{CurrentTime: 12.9, Duration: 90}, "00:12 / 01:30"},
		{playback.State{CurrentTime: 3600, Duration: 3661}, "60:00 / 61:01"},
	}
	for _, tc := range cases {
		if got := statusTitle(tc.state); got != tc.want {
			t.Errorf("statusTitle(%+v) = %q, want %q", tc.state, got, tc.want)
		}
	}
}

func TestPlayTitle(t *testing.T) {
	if got := playTitle(playback.State{Playing: true}); got != "Pause" {
		t.Errorf("playing title = %q, want Pause", got)
	}
	if got := playTitle(playback.State{}); got != "Play" {
		t.Errorf("stopped title = %q, want Play", got)
	}
}

func TestSnapshot(t *testing.T) {
	ed := &fakeEditor{state: playback.State{CurrentTime: 5, Duration: 30, Playing: true}, canUndo: true}
	tray := NewTray(TrayConfig{Editor: ed})

	got := tray.snapshot()
	want := menuState{status: "00:05 / 00:30", playTitle: "Pause", canUndo: true}
	if got != want {
		t.Errorf("snapshot() = %+v, want %+v", got, want)
	}

	ed.TogglePlay()
	if got := tray.snapshot().playTitle; got != "Play" {
		t.Errorf("after toggle playTitle = %q, want Play", got)
	}
}

func TestRefresh_BeforeReadyIsNoop(t *testing.T) {
	tray := NewTray(TrayConfig{Editor: &fakeEditor{}})
	tray.refresh()
	if tray.shown != (menuState{}) {
		t.Errorf("shown = %+v before the menu exists", tray.shown)
	}
}
