package timeline

import "strings"

type EffectType string

const (
	EffectFilter     EffectType = "filter"
	EffectTransition EffectType = "transition"
	EffectText       EffectType = "text"
)

// FilterKey names one numeric filter parameter.
type FilterKey string

const (
	FilterBrightness FilterKey = "brightness"
	FilterContrast   FilterKey = "contrast"
	FilterSaturation FilterKey = "saturation"
	FilterBlur       FilterKey = "blur"
)

func (k FilterKey) Valid() bool {
	switch k {
	case FilterBrightness, FilterContrast, FilterSaturation, FilterBlur:
		return true
	}
	return false
}

// ColorFilter is a named look preset. At most one is active per clip.
type ColorFilter string

const (
	ColorSepia        ColorFilter = "sepia"
	ColorGrayscale    ColorFilter = "grayscale"
	ColorVintage      ColorFilter = "vintage"
	ColorCool         ColorFilter = "cool"
	ColorWarm         ColorFilter = "warm"
	ColorHighContrast ColorFilter = "high-contrast"
)

var colorFilterCSS = map[ColorFilter]string{
	ColorSepia:        "sepia(100%)",
	ColorGrayscale:    "grayscale(100%)",
	ColorVintage:      "sepia(50%) contrast(1.2) brightness(0.9)",
	ColorCool:         "hue-rotate(180deg)",
	ColorWarm:         "hue-rotate(30deg) saturate(1.2)",
	ColorHighContrast: "contrast(150%)",
}

func (c ColorFilter) Valid() bool {
	_, ok := colorFilterCSS[c]
	return ok
}

type TransitionType string

const (
	TransitionFade       TransitionType = "fade"
	TransitionDissolve   TransitionType = "dissolve"
	TransitionWipe       TransitionType = "wipe"
	TransitionZoom       TransitionType = "zoom"
	TransitionSlideLeft  TransitionType = "slide-left"
	TransitionSlideRight TransitionType = "slide-right"
	TransitionSlideUp    TransitionType = "slide-up"
	TransitionSlideDown  TransitionType = "slide-down"
)

// DefaultTransitionDuration is the length given to transitions applied to a
// single clip.
const DefaultTransitionDuration = 1.0

var transitionDirections = map[TransitionType]string{
	TransitionSlideLeft:  "left",
	TransitionSlideRight: "right",
	TransitionSlideUp:    "up",
	TransitionSlideDown:  "down",
}

func (t TransitionType) Valid() bool {
	switch t {
	case TransitionFade, TransitionDissolve, TransitionWipe, TransitionZoom,
		TransitionSlideLeft, TransitionSlideRight, TransitionSlideUp, TransitionSlideDown:
		return true
	}
	return false
}

// Direction returns the slide direction, or "" for non-directional types.
func (t TransitionType) Direction() string {
	return transitionDirections[t]
}

// FilterParams holds one filter adjustment. Exactly one field is set on
// effects created by this package.
type FilterParams struct {
	Brightness  *float64    `json:"brightness,omitempty"`
	Contrast    *float64    `json:"contrast,omitempty"`
	Saturation  *float64    `json:"saturation,omitempty"`
	Blur        *float64    `json:"blur,omitempty"`
	ColorFilter ColorFilter `json:"color_filter,omitempty"`
}

func newFilterParams(key FilterKey, value float64) *FilterParams {
	v := value
	p := &FilterParams{}
	switch key {
	case FilterBrightness:
		p.Brightness = &v
	case FilterContrast:
		p.Contrast = &v
	case FilterSaturation:
		p.Saturation = &v
	case FilterBlur:
		p.Blur = &v
	}
	return p
}

// Value returns the numeric parameter stored under key.
func (p *FilterParams) Value(key FilterKey) (float64, bool) {
	if p == nil {
		return 0, false
	}
	var v *float64
	switch key {
	case FilterBrightness:
		v = p.Brightness
	case FilterContrast:
		v = p.Contrast
	case FilterSaturation:
		v = p.Saturation
	case FilterBlur:
		v = p.Blur
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

type TransitionParams struct {
	TransitionType TransitionType `json:"transition_type"`
	Duration       float64        `json:"duration"`
	Direction      string         `json:"direction,omitempty"`
	FromClipID     string         `json:"from_clip_id,omitempty"`
	ToClipID       string         `json:"to_clip_id,omitempty"`
}

type TextParams struct {
	Text     string  `json:"text"`
	FontSize int     `json:"font_size"`
	Color    string  `json:"color"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Duration float64 `json:"duration"`
}

// Effect is a non-destructive transformation attached to a clip. The payload
// matching Type is the only one set. Effects are never mutated once attached;
// changing a parameter replaces the effect.
type Effect struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Type       EffectType        `json:"type"`
	Filter     *FilterParams     `json:"filter,omitempty"`
	Transition *TransitionParams `json:"transition,omitempty"`
	Text       *TextParams       `json:"text,omitempty"`
}

func (e Effect) hasFilterKey(key FilterKey) bool {
	if e.Type != EffectFilter {
		return false
	}
	_, ok := e.Filter.Value(key)
	return ok
}

func (e Effect) colorFilter() ColorFilter {
	if e.Type != EffectFilter || e.Filter == nil {
		return ""
	}
	return e.Filter.ColorFilter
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
