package timeline

type TrackKind string

const (
	TrackVideo TrackKind = "video"
	TrackAudio TrackKind = "audio"
)

const (
	DefaultVideoTrackID = "video-1"
	DefaultAudioTrackID = "audio-1"

	videoTrackHeight = 80
	audioTrackHeight = 60
)

type Track struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Kind    TrackKind `json:"kind"`
	Height  int       `json:"height"`
	Muted   bool      `json:"muted"`
	Locked  bool      `json:"locked"`
	Visible bool      `json:"visible"`
}

// DefaultTracks returns the lanes every new project starts with.
func DefaultTracks() []Track {
	return []Track{
		{ID: DefaultVideoTrackID, Name: "Video 1", Kind: TrackVideo, Height: videoTrackHeight, Visible: true},
		{ID: DefaultAudioTrackID, Name: "Audio 1", Kind: TrackAudio, Height: audioTrackHeight, Visible: true},
	}
}

func (k TrackKind) Valid() bool {
	return k == TrackVideo || k == TrackAudio
}

// Hosts reports whether media of kind m conventionally lives on this kind of
// track. Video tracks take video and image, audio tracks take audio.
func (k TrackKind) Hosts(m MediaKind) bool {
	if k == TrackAudio {
		return m == MediaAudio
	}
	return m == MediaVideo || m == MediaImage
}

func (k TrackKind) height() int {
	if k == TrackAudio {
		return audioTrackHeight
	}
	return videoTrackHeight
}

func (k TrackKind) label() string {
	if k == TrackAudio {
		return "Audio"
	}
	return "Video"
}

// TrackUpdate carries the user-editable fields of a track. Nil fields are left
// untouched.
type TrackUpdate struct {
	Name    *string
	Height  *int
	Muted   *bool
	Locked  *bool
	Visible *bool
}

func (u TrackUpdate) apply(t Track) Track {
	if u.Name != nil {
		t.Name = *u.Name
	}
	if u.Height != nil && *u.Height > 0 {
		t.Height = *u.Height
	}
	if u.Muted != nil {
		t.Muted = *u.Muted
	}
	if u.Locked != nil {
		t.Locked = *u.Locked
	}
	if u.Visible != nil {
		t.Visible = *u.Visible
	}
	return t
}
