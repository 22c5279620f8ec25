package timeline

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-9

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestTimeline() *Timeline {
	return New(WithIDGenerator(seqIDs()))
}

func testMedia(id string, kind MediaKind, duration float64) MediaItem {
	return MediaItem{ID: id, Name: id + ".mp4", Kind: kind, Duration: duration}
}

func requireSpanInvariant(t *testing.T, clips []Clip) {
	t.Helper()
	for _, c := range clips {
		require.InDelta(t, c.EndTime-c.StartTime, c.Duration, epsilon, "clip %s", c.ID)
		require.GreaterOrEqual(t, c.StartTime, 0.0)
		require.Greater(t, c.EndTime, c.StartTime)
		require.GreaterOrEqual(t, c.TrimStart, 0.0)
		require.GreaterOrEqual(t, c.TrimEnd, 0.0)
	}
}

func TestNew_DefaultTracks(t *testing.T) {
	tl := newTestTimeline()

	tracks := tl.Tracks()
	require.Len(t, tracks, 2)
	assert.Equal(t, DefaultVideoTrackID, tracks[0].ID)
	assert.Equal(t, "Video 1", tracks[0].Name)
	assert.Equal(t, 80, tracks[0].Height)
	assert.Equal(t, DefaultAudioTrackID, tracks[1].ID)
	assert.Equal(t, 60, tracks[1].Height)
	assert.True(t, tracks[0].Visible)
	assert.Equal(t, MinProjectDuration, tl.Duration())
	assert.Equal(t, DefaultZoom, tl.Zoom())
}

func TestAddClip(t *testing.T) {
	tl := newTestTimeline()

	c, ok := tl.AddClip(testMedia("m1", MediaVideo, 30), DefaultVideoTrackID, 0)
	require.True(t, ok)

	assert.Equal(t, 0.0, c.StartTime)
	assert.Equal(t, 30.0, c.EndTime)
	assert.Equal(t, 30.0, c.Duration)
	assert.Equal(t, 0.0, c.TrimStart)
	assert.Equal(t, 0.0, c.TrimEnd)
	assert.Equal(t, 100, c.Volume)
	assert.False(t, c.Muted)
	assert.Empty(t, c.Effects)
	assert.Equal(t, "m1", c.MediaID)
}

func TestAddClip_TrackSelection(t *testing.T) {
	tests := []struct {
		name    string
		kind    MediaKind
		trackID string
		want    string
		wantOK  bool
	}{
		{"video picks video track", MediaVideo, "", DefaultVideoTrackID, true},
		{"image picks video track", MediaImage, "", DefaultVideoTrackID, true},
		{"audio picks audio track", MediaAudio, "", DefaultAudioTrackID, true},
		{"explicit track wins", MediaVideo, DefaultAudioTrackID, DefaultAudioTrackID, true},
		{"unknown track is a no-op", MediaVideo, "missing", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := newTestTimeline()
			c, ok := tl.AddClip(testMedia("m", tt.kind, 5), tt.trackID, 0)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, c.TrackID)
			} else {
				assert.Empty(t, tl.Clips())
			}
		})
	}
}

func TestAddClip_NoEligibleTrack(t *testing.T) {
	tl := newTestTimeline()
	require.True(t, tl.DeleteTrack(DefaultVideoTrackID))

	_, ok := tl.AddClip(testMedia("m", MediaVideo, 5), "", 0)
	assert.False(t, ok)
	assert.Empty(t, tl.Clips())
}

func TestSplitClip_Example(t *testing.T) {
	tl := newTestTimeline()
	orig, _ := tl.AddClip(testMedia("m1", MediaVideo, 30), DefaultVideoTrackID, 0)

	halves, ok := tl.SplitClip(orig.ID, 10)
	require.True(t, ok)

	a, b := halves[0], halves[1]
	assert.Equal(t, [3]float64{0, 10, 10}, [3]float64{a.StartTime, a.EndTime, a.Duration})
	assert.Equal(t, [3]float64{10, 30, 20}, [3]float64{b.StartTime, b.EndTime, b.Duration})
	assert.Equal(t, 20.0, a.TrimEnd)
	assert.Equal(t, 10.0, b.TrimStart)
	assert.NotEqual(t, orig.ID, a.ID)
	assert.NotEqual(t, orig.ID, b.ID)
	assert.NotEqual(t, a.ID, b.ID)

	_, found := tl.Clip(orig.ID)
	assert.False(t, found)
	assert.Len(t, tl.Clips(), 2)
}

func TestSplitClip_TilesOriginal(t *testing.T) {
	tl := newTestTimeline()
	orig, _ := tl.AddClip(testMedia("m1", MediaVideo, 12.5), "", 3.25)
	tl.ApplyTransition(orig.ID, TransitionFade)
	orig, _ = tl.Clip(orig.ID)

	halves, ok := tl.SplitClip(orig.ID, 7.3)
	require.True(t, ok)

	a, b := halves[0], halves[1]
	assert.InDelta(t, orig.Duration, a.Duration+b.Duration, epsilon)
	assert.Equal(t, orig.StartTime, a.StartTime)
	assert.Equal(t, a.EndTime, b.StartTime)
	assert.Equal(t, orig.EndTime, b.EndTime)
	assert.Equal(t, orig.Effects, a.Effects)
	assert.Equal(t, orig.Effects, b.Effects)
	requireSpanInvariant(t, tl.Clips())
}

func TestSplitClip_OutsideBoundsIsNoop(t *testing.T) {
	for _, at := range []float64{-1, 5, 4.999, 35, 40} {
		t.Run(fmt.Sprint(at), func(t *testing.T) {
			tl := newTestTimeline()
			c, _ := tl.AddClip(testMedia("m1", MediaVideo, 30), "", 5)
			before := tl.Snapshot()

			_, ok := tl.SplitClip(c.ID, at)
			assert.False(t, ok)
			assert.Equal(t, before, tl.Snapshot())
		})
	}
}

func TestResizeClip(t *testing.T) {
	tests := []struct {
		name      string
		handle    Handle
		delta     float64
		wantOK    bool
		wantStart float64
		wantEnd   float64
		wantTrimS float64
		wantTrimE float64
	}{
		{"left shrink", HandleLeft, 5, true, 15, 40, 5, 0},
		{"left extend clamps trim", HandleLeft, -4, true, 6, 40, 0, 0},
		{"left past zero clamps start", HandleLeft, -20, true, 0, 40, 0, 0},
		{"left below minimum rejected", HandleLeft, 29.95, false, 10, 40, 0, 0},
		{"left collapsing the clip rejected", HandleLeft, 30, false, 10, 40, 0, 0},
		{"right shrink grows tail trim", HandleRight, -10, true, 10, 30, 0, 10},
		{"right extend", HandleRight, 5, true, 10, 45, 0, 0},
		{"right floors at minimum", HandleRight, -100, true, 10, 10.1, 0, 100},
		{"unknown handle", Handle("top"), 5, false, 10, 40, 0, 0},
		{"zero delta", HandleRight, 0, false, 10, 40, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := newTestTimeline()
			c, _ := tl.AddClip(testMedia("m1", MediaVideo, 30), "", 10)

			ok := tl.ResizeClip(c.ID, tt.handle, tt.delta)
			require.Equal(t, tt.wantOK, ok)

			got, _ := tl.Clip(c.ID)
			assert.InDelta(t, tt.wantStart, got.StartTime, epsilon)
			assert.InDelta(t, tt.wantEnd, got.EndTime, epsilon)
			assert.InDelta(t, tt.wantTrimS, got.TrimStart, epsilon)
			assert.InDelta(t, tt.wantTrimE, got.TrimEnd, epsilon)
			assert.GreaterOrEqual(t, got.Duration, MinDuration)
			requireSpanInvariant(t, tl.Clips())
		})
	}
}

func TestResizeClip_NeverBelowMinimum(t *testing.T) {
	tl := newTestTimeline()
	c, _ := tl.AddClip(testMedia("m1", MediaVideo, 2), "", 1)

	deltas := []float64{-0.7, 0.9, -3, 0.45, 1.2, -0.05, 5, -8}
	for i, d := range deltas {
		h := HandleLeft
		if i%2 == 1 {
			h = HandleRight
		}
		tl.ResizeClip(c.ID, h, d)
		got, ok := tl.Clip(c.ID)
		require.True(t, ok)
		require.GreaterOrEqual(t, got.Duration, MinDuration)
	}
	requireSpanInvariant(t, tl.Clips())
}

func TestResizeClip_RightFloorIsExact(t *testing.T) {
	for _, start := range []float64{0.7, 0.1, 1.3, 2.9, 12.35, 99.9} {
		tl := newTestTimeline()
		c, _ := tl.AddClip(testMedia("m1", MediaVideo, 5), "", start)

		require.True(t, tl.ResizeClip(c.ID, HandleRight, -100))
		got, _ := tl.Clip(c.ID)
		assert.Equal(t, MinDuration, got.Duration, "start %v", start)
		assert.InDelta(t, start+MinDuration, got.EndTime, epsilon)

		tl.ResizeClip(c.ID, HandleRight, -1)
		got, _ = tl.Clip(c.ID)
		assert.Equal(t, MinDuration, got.Duration, "start %v, second shrink", start)
	}
}

func TestAddClip_ShortMediaGetsExactMinimum(t *testing.T) {
	tl := newTestTimeline()
	c, ok := tl.AddClip(testMedia("still", MediaImage, 0), "", 0.7)
	require.True(t, ok)
	assert.Equal(t, MinDuration, c.Duration)
}

func TestMoveClip(t *testing.T) {
	tests := []struct {
		name      string
		start     float64
		track     string
		wantOK    bool
		wantStart float64
		wantTrack string
	}{
		{"snaps down", 3.1, "", true, 3, DefaultVideoTrackID},
		{"snaps up", 3.13, "", true, 3.25, DefaultVideoTrackID},
		{"clamps negative", -5, "", true, 0, DefaultVideoTrackID},
		{"reassigns track", 2, DefaultAudioTrackID, true, 2, DefaultAudioTrackID},
		{"unknown track", 2, "nope", false, 1, DefaultVideoTrackID},
		{"same position", 1.05, "", false, 1, DefaultVideoTrackID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := newTestTimeline()
			c, _ := tl.AddClip(testMedia("m1", MediaVideo, 8), "", 1)

			require.Equal(t, tt.wantOK, tl.MoveClip(c.ID, tt.start, tt.track))

			got, _ := tl.Clip(c.ID)
			assert.Equal(t, tt.wantStart, got.StartTime)
			assert.Equal(t, tt.wantStart+8, got.EndTime)
			assert.Equal(t, 8.0, got.Duration)
			assert.Equal(t, tt.wantTrack, got.TrackID)
		})
	}
}

func TestMoveClip_UnknownClip(t *testing.T) {
	tl := newTestTimeline()
	assert.False(t, tl.MoveClip("ghost", 10, ""))
}

func TestMoveClip_NoSnapGrid(t *testing.T) {
	tl := New(WithIDGenerator(seqIDs()), WithSnapGrid(0))
	c, _ := tl.AddClip(testMedia("m1", MediaVideo, 8), "", 0)

	require.True(t, tl.MoveClip(c.ID, 3.13, ""))
	got, _ := tl.Clip(c.ID)
	assert.Equal(t, 3.13, got.StartTime)
}

func TestDeleteTrack_Cascades(t *testing.T) {
	tl := newTestTimeline()
	tl.AddClip(testMedia("v1", MediaVideo, 5), DefaultVideoTrackID, 0)
	tl.AddClip(testMedia("v2", MediaVideo, 5), DefaultVideoTrackID, 5)
	audio, _ := tl.AddClip(testMedia("a1", MediaAudio, 5), DefaultAudioTrackID, 0)

	require.True(t, tl.DeleteTrack(DefaultVideoTrackID))

	clips := tl.Clips()
	require.Len(t, clips, 1)
	assert.Equal(t, audio.ID, clips[0].ID)
	_, ok := tl.Track(DefaultVideoTrackID)
	assert.False(t, ok)
}

func TestRemoveMedia_Cascades(t *testing.T) {
	tl := newTestTimeline()
	tl.AddClip(testMedia("shared", MediaVideo, 200), "", 0)
	tl.AddClip(testMedia("shared", MediaVideo, 5), "", 300)
	keep, _ := tl.AddClip(testMedia("other", MediaVideo, 5), "", 10)

	assert.Equal(t, 2, tl.RemoveMedia("shared"))
	clips := tl.Clips()
	require.Len(t, clips, 1)
	assert.Equal(t, keep.ID, clips[0].ID)
	assert.Equal(t, MinProjectDuration, tl.Duration())
	assert.Equal(t, 0, tl.RemoveMedia("shared"))
}

func TestAddTrack_Naming(t *testing.T) {
	tl := newTestTimeline()

	v, ok := tl.AddTrack(TrackVideo)
	require.True(t, ok)
	assert.Equal(t, "Video 2", v.Name)
	assert.Equal(t, 80, v.Height)

	a, _ := tl.AddTrack(TrackAudio)
	assert.Equal(t, "Audio 2", a.Name)

	v3, _ := tl.AddTrack(TrackVideo)
	assert.Equal(t, "Video 3", v3.Name)

	_, ok = tl.AddTrack(TrackKind("subtitle"))
	assert.False(t, ok)
	assert.Len(t, tl.Tracks(), 5)
}

func TestUpdateTrack(t *testing.T) {
	tl := newTestTimeline()
	muted, hidden, name := true, false, "Dialogue"

	require.True(t, tl.UpdateTrack(DefaultAudioTrackID, TrackUpdate{Muted: &muted, Name: &name}))
	require.True(t, tl.UpdateTrack(DefaultVideoTrackID, TrackUpdate{Visible: &hidden}))
	assert.False(t, tl.UpdateTrack(DefaultAudioTrackID, TrackUpdate{Muted: &muted}))
	assert.False(t, tl.UpdateTrack("missing", TrackUpdate{Muted: &muted}))

	a, _ := tl.Track(DefaultAudioTrackID)
	assert.True(t, a.Muted)
	assert.Equal(t, "Dialogue", a.Name)
	v, _ := tl.Track(DefaultVideoTrackID)
	assert.False(t, v.Visible)
}

func TestRecomputeDuration(t *testing.T) {
	tl := newTestTimeline()
	assert.Equal(t, 120.0, tl.Duration())

	prev := tl.Duration()
	for i, d := range []float64{30, 100, 150, 10, 400} {
		tl.AddClip(testMedia(fmt.Sprint(i), MediaVideo, d), "", float64(i*5))
		require.GreaterOrEqual(t, tl.Duration(), prev)
		prev = tl.Duration()
	}
	assert.Equal(t, 420.0, tl.Duration())

	for _, c := range tl.Clips() {
		tl.DeleteClip(c.ID)
	}
	assert.Equal(t, 120.0, tl.Duration())
}

func TestZoomAndMarkers(t *testing.T) {
	tests := []struct {
		zoom         float64
		wantZoom     float64
		wantPPS      float64
		wantInterval int
	}{
		{1, 1, 10, 10},
		{0.5, 0.5, 5, 20},
		{2, 2, 20, 5},
		{0.3, 0.3, 3, 33},
		{5, 2, 20, 5},
		{0.01, 0.1, 1, 100},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.zoom), func(t *testing.T) {
			tl := newTestTimeline()
			tl.SetZoom(tt.zoom)
			assert.Equal(t, tt.wantZoom, tl.Zoom())
			assert.InDelta(t, tt.wantPPS, tl.PixelsPerSecond(), epsilon)
			assert.Equal(t, tt.wantInterval, tl.MarkerInterval())
		})
	}
}

func TestMarkers_CoverDurationInclusive(t *testing.T) {
	tl := newTestTimeline()

	markers := tl.Markers()
	require.Len(t, markers, 13)
	assert.Equal(t, 0.0, markers[0])
	assert.Equal(t, 120.0, markers[len(markers)-1])
	assert.Equal(t, 1200.0, tl.Width())
}

func TestTimeAtPixel(t *testing.T) {
	tl := newTestTimeline()
	tl.SetZoom(2)

	assert.Equal(t, 5.0, tl.TimeAtPixel(100))
	assert.Equal(t, 0.0, tl.TimeAtPixel(-40))
	assert.Equal(t, 120.0, tl.TimeAtPixel(1e6))
	assert.Equal(t, 100.0, tl.PixelAt(5))
}

func TestUpdateClip_NormalisesSpan(t *testing.T) {
	tl := newTestTimeline()
	c, _ := tl.AddClip(testMedia("m1", MediaVideo, 10), "", 0)

	c.StartTime = -2
	c.EndTime = 6
	c.Duration = 999
	c.TrimStart = -1
	c.Volume = 150
	require.True(t, tl.UpdateClip(c))

	got, _ := tl.Clip(c.ID)
	assert.Equal(t, 0.0, got.StartTime)
	assert.Equal(t, 6.0, got.Duration)
	assert.Equal(t, 0.0, got.TrimStart)
	assert.Equal(t, 100, got.Volume)

	c.TrackID = "missing"
	assert.False(t, tl.UpdateClip(c))
}

func TestClipVolumeAndMute(t *testing.T) {
	tl := newTestTimeline()
	c, _ := tl.AddClip(testMedia("m1", MediaAudio, 10), "", 0)

	assert.True(t, tl.SetClipVolume(c.ID, -10))
	got, _ := tl.Clip(c.ID)
	assert.Equal(t, 0, got.Volume)
	assert.False(t, tl.SetClipVolume(c.ID, 0))

	assert.True(t, tl.SetClipMuted(c.ID, true))
	assert.False(t, tl.SetClipMuted(c.ID, true))
}

func TestOperations_PreserveSpanInvariant(t *testing.T) {
	tl := newTestTimeline()
	a, _ := tl.AddClip(testMedia("a", MediaVideo, 20), "", 0)
	b, _ := tl.AddClip(testMedia("b", MediaAudio, 15), "", 4)

	tl.MoveClip(a.ID, 7.6, "")
	tl.ResizeClip(b.ID, HandleLeft, 3.3)
	tl.ResizeClip(a.ID, HandleRight, -12.2)
	halves, _ := tl.SplitClip(b.ID, 10)
	tl.ResizeClip(halves[1].ID, HandleRight, 40)
	tl.MoveClip(halves[0].ID, 133.3, DefaultVideoTrackID)

	requireSpanInvariant(t, tl.Clips())
	for _, c := range tl.Clips() {
		assert.False(t, math.IsNaN(c.Duration))
	}
}

func TestSnapshotRestore(t *testing.T) {
	tl := newTestTimeline()
	c, _ := tl.AddClip(testMedia("m1", MediaVideo, 10), "", 0)
	snap := tl.Snapshot()

	tl.ApplyFilter(c.ID, FilterBlur, 4)
	tl.AddClip(testMedia("m2", MediaVideo, 300), "", 0)
	tl.AddTrack(TrackAudio)

	tl.Restore(snap)
	assert.Equal(t, snap, tl.Snapshot())
	assert.Equal(t, MinProjectDuration, tl.Duration())

	tl.ApplyFilter(c.ID, FilterBlur, 2)
	assert.Empty(t, snap.Clips[0].Effects, "restored state must not alias the snapshot")
}
