package timeline

import (
	"strconv"
	"strings"
)

// ActiveClip returns the first clip in list order whose span contains t.
// Bounds are inclusive, so at a shared boundary the earlier-listed clip wins.
func ActiveClip(clips []Clip, t float64) (Clip, bool) {
	for _, c := range clips {
		if c.Contains(t) {
			return c, true
		}
	}
	return Clip{}, false
}

// Frame describes what the preview surface shows at one instant.
type Frame struct {
	Time   float64      `json:"time"`
	Video  *Clip        `json:"video,omitempty"`
	Audio  *Clip        `json:"audio,omitempty"`
	Filter string       `json:"filter"`
	Text   []TextParams `json:"text"`
}

// Resolve picks the active video clip among visible video tracks and the
// active audio clip among unmuted audio tracks.
func Resolve(clips []Clip, tracks []Track, t float64) Frame {
	byID := make(map[string]Track, len(tracks))
	for _, tr := range tracks {
		byID[tr.ID] = tr
	}

	var video, audio []Clip
	for _, c := range clips {
		tr, ok := byID[c.TrackID]
		if !ok {
			continue
		}
		switch {
		case tr.Kind == TrackVideo && tr.Visible:
			video = append(video, c)
		case tr.Kind == TrackAudio && !tr.Muted:
			audio = append(audio, c)
		}
	}

	f := Frame{Time: t, Text: []TextParams{}}
	if c, ok := ActiveClip(video, t); ok {
		c = c.clone()
		f.Video = &c
		f.Filter = VideoFilter(c)
		f.Text = TextOverlays(c)
	}
	if c, ok := ActiveClip(audio, t); ok {
		c = c.clone()
		f.Audio = &c
	}
	return f
}

// VideoFilter renders the clip's filter effects as a CSS filter list, in
// effect order.
func VideoFilter(c Clip) string {
	var parts []string
	for _, e := range c.Effects {
		if e.Type != EffectFilter || e.Filter == nil {
			continue
		}
		p := e.Filter
		if p.Brightness != nil {
			parts = append(parts, "brightness("+formatNumber(1+*p.Brightness/100)+")")
		}
		if p.Contrast != nil {
			parts = append(parts, "contrast("+formatNumber(1+*p.Contrast/100)+")")
		}
		if p.Saturation != nil {
			parts = append(parts, "saturate("+formatNumber(1+*p.Saturation/100)+")")
		}
		if p.Blur != nil {
			parts = append(parts, "blur("+formatNumber(*p.Blur)+"px)")
		}
		if css, ok := colorFilterCSS[p.ColorFilter]; ok {
			parts = append(parts, css)
		}
	}
	return strings.Join(parts, " ")
}

// TextOverlays lists the clip's text effects in order.
func TextOverlays(c Clip) []TextParams {
	out := []TextParams{}
	for _, e := range c.Effects {
		if e.Type == EffectText && e.Text != nil {
			out = append(out, *e.Text)
		}
	}
	return out
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
