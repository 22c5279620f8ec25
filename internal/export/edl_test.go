package export

import (
	"strings"
	"testing"

	"github.com/cutline/cutline-studio/internal/timeline"
)

func edlClip(id, track string, start, end, trim float64) timeline.Clip {
	return timeline.Clip{
		ID:        id,
		TrackID:   track,
		StartTime: start,
		EndTime:   end,
		Duration:  end - start,
		TrimStart: trim,
		Name:      id + ".mp4",
	}
}

func TestGenerateEDL_SingleClip(t *testing.T) {
	clips := []timeline.Clip{edlClip("intro", timeline.DefaultVideoTrackID, 0, 2, 0)}

	edl := GenerateEDL(timeline.DefaultTracks(), clips, "Project One", 30.0)

	for _, want := range []string{
		"TITLE: Project One",
		"FCM: NON-DROP FRAME",
		"001  AX       V     C        00:00:00:00 00:00:02:00 00:00:00:00 00:00:02:00",
		"* FROM CLIP NAME:  intro.mp4",
		"* TRACK:  Video 1",
	} {
		if !strings.Contains(edl, want) {
			t.Errorf("missing %q in EDL:\n%s", want, edl)
		}
	}
}

func TestGenerateEDL_OrdersByTrackThenStart(t *testing.T) {
	clips := []timeline.Clip{
		edlClip("music", timeline.DefaultAudioTrackID, 0, 4, 0),
		edlClip("b", timeline.DefaultVideoTrackID, 1, 2.5, 3),
		edlClip("a", timeline.DefaultVideoTrackID, 0, 1, 0),
	}

	edl := GenerateEDL(timeline.DefaultTracks(), clips, "Multi", 30.0)

	wantLines := []string{
		"001  AX       V     C        00:00:00:00 00:00:01:00 00:00:00:00 00:00:01:00",
		"002  AX       V     C        00:00:03:00 00:00:04:15 00:00:01:00 00:00:02:15",
		"003  AX       A     C        00:00:00:00 00:00:04:00 00:00:00:00 00:00:04:00",
	}
	last := -1
	for _, want := range wantLines {
		idx := strings.Index(edl, want)
		if idx < 0 {
			t.Fatalf("missing event line %q in:\n%s", want, edl)
		}
		if idx < last {
			t.Errorf("event %q out of order", want)
		}
		last = idx
	}
}

func TestGenerateEDL_DissolveAndEffects(t *testing.T) {
	c := edlClip("x", timeline.DefaultVideoTrackID, 0, 3, 0)
	c.Effects = []timeline.Effect{
		{ID: "e1", Name: "Brightness", Type: timeline.EffectFilter, Filter: &timeline.FilterParams{}},
		{ID: "e2", Name: "Dissolve Transition", Type: timeline.EffectTransition, Transition: &timeline.TransitionParams{
			TransitionType: timeline.TransitionDissolve,
			Duration:       1,
		}},
	}

	edl := GenerateEDL(timeline.DefaultTracks(), []timeline.Clip{c}, "FX", 24)

	if !strings.Contains(edl, "001  AX       V     D    024 00:00:00:00 00:00:03:00") {
		t.Errorf("expected dissolve event, got:\n%s", edl)
	}
	if !strings.Contains(edl, "* EFFECT:  Brightness") {
		t.Errorf("expected filter comment, got:\n%s", edl)
	}
	if strings.Contains(edl, "* EFFECT:  Dissolve Transition") {
		t.Errorf("transition should not be listed as an effect comment")
	}
}

func TestGenerateEDL_WipeIsACut(t *testing.T) {
	c := edlClip("x", timeline.DefaultVideoTrackID, 0, 1, 0)
	c.Effects = []timeline.Effect{{ID: "e", Type: timeline.EffectTransition, Transition: &timeline.TransitionParams{
		TransitionType: timeline.TransitionWipe,
		Duration:       1,
	}}}

	edl := GenerateEDL(timeline.DefaultTracks(), []timeline.Clip{c}, "Wipe", 30)
	if !strings.Contains(edl, "001  AX       V     C        ") {
		t.Errorf("wipe should export as a cut:\n%s", edl)
	}
}

func TestGenerateEDL_DropFrameAndEmpty(t *testing.T) {
	edl := GenerateEDL(timeline.DefaultTracks(), nil, "Drop", 29.97)
	if !strings.Contains(edl, "FCM: DROP FRAME") {
		t.Fatalf("expected drop frame FCM, got: %q", edl)
	}
	if strings.Contains(edl, "001") {
		t.Errorf("empty timeline should have no events: %q", edl)
	}
}

func TestSecondsToTimecode(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		fps     int
		want    string
	}{
		{"zero", 0, 30, "00:00:00:00"},
		{"one second", 1, 30, "00:00:01:00"},
		{"half second", 0.5, 30, "00:00:00:15"},
		{"one minute", 60, 30, "00:01:00:00"},
		{"one hour", 3600, 30, "01:00:00:00"},
		{"negative clamps", -2, 25, "00:00:00:00"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := secondsToTimecode(tc.seconds, tc.fps); got != tc.want {
				t.Fatalf("secondsToTimecode(%v, %d) = %q, want %q", tc.seconds, tc.fps, got, tc.want)
			}
		})
	}
}
