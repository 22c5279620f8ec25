// Package export turns the timeline into deliverables: render jobs handed to
// an Exporter, and CMX3600 edit decision lists.
package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidSettings  = errors.New("invalid export settings")
	ErrExportInProgress = errors.New("an export is already running")
	ErrNoActiveExport   = errors.New("no active export")
)

// Settings are passed to the Exporter unchanged.
type Settings struct {
	Format     string `json:"format" validate:"required,oneof=mp4 mov avi"`
	Quality    string `json:"quality" validate:"required,oneof=low medium high ultra"`
	Resolution string `json:"resolution" validate:"required,oneof=720p 1080p 4k"`
	FPS        int    `json:"fps" validate:"required,oneof=24 30 60"`
}

func DefaultSettings() Settings {
	return Settings{Format: "mp4", Quality: "high", Resolution: "1080p", FPS: 30}
}

var validate = validator.New()

// Validate reports every field outside its enumeration.
func (s Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		if fe.Tag() == "required" {
			msgs = append(msgs, field+" is required")
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(msgs, "; "))
}

var (
	bitrateMbps    = map[string]float64{"low": 1, "medium": 5, "high": 10, "ultra": 20}
	sizeResMul     = map[string]float64{"720p": 1, "1080p": 2.25, "4k": 9}
	timeQualityMul = map[string]float64{"low": 0.5, "medium": 1, "high": 1.5, "ultra": 2.5}
	timeResMul     = map[string]float64{"720p": 1, "1080p": 2, "4k": 4}
	dimensions     = map[string][2]int{"720p": {1280, 720}, "1080p": {1920, 1080}, "4k": {3840, 2160}}
)

// EstimateSizeMB is a display-only estimate of the output size.
func EstimateSizeMB(s Settings, duration float64) float64 {
	return bitrateMbps[s.Quality] * sizeResMul[s.Resolution] * float64(s.FPS) / 30 * duration / 8
}

// FormatSize renders megabytes as "N MB", or "N.N GB" above 1024 MB.
func FormatSize(mb float64) string {
	if mb > 1024 {
		return fmt.Sprintf("%.1f GB", mb/1024)
	}
	return fmt.Sprintf("%.0f MB", mb)
}

// EstimateSeconds is a display-only estimate of processing time.
func EstimateSeconds(s Settings, duration float64) float64 {
	return duration * 0.5 * timeQualityMul[s.Quality] * timeResMul[s.Resolution]
}

// FormatDuration renders seconds as m:ss.
func FormatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// Dimensions returns the pixel size for a resolution name.
func Dimensions(resolution string) (width, height int, ok bool) {
	d, ok := dimensions[resolution]
	return d[0], d[1], ok
}

type Estimate struct {
	Settings Settings `json:"settings"`
	Duration float64  `json:"duration"`
	SizeMB   float64  `json:"size_mb"`
	Size     string   `json:"size"`
	Seconds  float64  `json:"seconds"`
	Time     string   `json:"time"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
}

func NewEstimate(s Settings, duration float64) Estimate {
	mb := EstimateSizeMB(s, duration)
	secs := EstimateSeconds(s, duration)
	w, h, _ := Dimensions(s.Resolution)
	return Estimate{
		Settings: s,
		Duration: duration,
		SizeMB:   mb,
		Size:     FormatSize(mb),
		Seconds:  secs,
		Time:     FormatDuration(secs),
		Width:    w,
		Height:   h,
	}
}
