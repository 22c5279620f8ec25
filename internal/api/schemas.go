package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"

	"github.com/cutline/cutline-studio/internal/export"
	"github.com/cutline/cutline-studio/internal/library"
	"github.com/cutline/cutline-studio/internal/studio"
	"github.com/cutline/cutline-studio/internal/timeline"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StateResponse struct {
	studio.View
	CurrentTimeLabel string `json:"current_time_label"`
	DurationLabel    string `json:"duration_label"`
	Exporting        bool   `json:"exporting"`
}

// MutationResponse answers every editing call. Changed is false when the
// operation did not apply.
type MutationResponse struct {
	Changed bool        `json:"changed"`
	State   studio.View `json:"state"`
}

type ClipMutationResponse struct {
	MutationResponse
	Clip  *timeline.Clip  `json:"clip,omitempty"`
	Clips []timeline.Clip `json:"clips,omitempty"`
}

type TrackMutationResponse struct {
	MutationResponse
	Track *timeline.Track `json:"track,omitempty"`
}

type EffectMutationResponse struct {
	MutationResponse
	Effect *timeline.Effect `json:"effect,omitempty"`
}

type MediaResponse struct {
	timeline.MediaItem
	SizeLabel string `json:"size_label"`
}

type MediaListResponse struct {
	Media []MediaResponse `json:"media"`
	Total int             `json:"total"`
}

type ProjectResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type ProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

type NewProjectResponse struct {
	Project *ProjectResponse `json:"project,omitempty"`
	State   studio.View      `json:"state"`
}

type ExportJobResponse struct {
	ID         string  `json:"id"`
	ProjectID  string  `json:"project_id,omitempty"`
	Status     string  `json:"status"`
	Progress   float64 `json:"progress"`
	Format     string  `json:"format"`
	Quality    string  `json:"quality"`
	Resolution string  `json:"resolution"`
	FPS        int     `json:"fps"`
	OutputURL  string  `json:"output_url,omitempty"`
	Error      string  `json:"error,omitempty"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

type ExportJobsResponse struct {
	Exports []ExportJobResponse `json:"exports"`
}

type EDLWriteResponse struct {
	Status     string `json:"status"`
	OutputPath string `json:"output_path"`
	ClipCount  int    `json:"clip_count"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

type AddTrackRequest struct {
	Kind string `json:"kind" validate:"required,oneof=video audio"`
}

type UpdateTrackRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=100"`
	Height  *int    `json:"height" validate:"omitempty,min=20,max=400"`
	Muted   *bool   `json:"muted"`
	Locked  *bool   `json:"locked"`
	Visible *bool   `json:"visible"`
}

// AddClipRequest places media on the timeline. A nil StartTime means the
// playhead.
type AddClipRequest struct {
	MediaID   string   `json:"media_id" validate:"required"`
	TrackID   string   `json:"track_id"`
	StartTime *float64 `json:"start_time"`
}

type MoveClipRequest struct {
	StartTime float64 `json:"start_time"`
	TrackID   string  `json:"track_id"`
}

type ResizeClipRequest struct {
	Handle string  `json:"handle" validate:"required,oneof=left right"`
	Delta  float64 `json:"delta"`
}

type SplitClipRequest struct {
	At *float64 `json:"at"`
}

type ClipVolumeRequest struct {
	Volume *int  `json:"volume"`
	Muted  *bool `json:"muted"`
}

type FilterRequest struct {
	Key   string  `json:"key" validate:"required,oneof=brightness contrast saturation blur"`
	Value float64 `json:"value"`
}

type ColorFilterRequest struct {
	Preset string `json:"preset" validate:"required,oneof=sepia grayscale vintage cool warm high-contrast"`
}

// TransitionRequest attaches a transition to a clip, or links two clips when
// ToClipID is set.
type TransitionRequest struct {
	Type     string  `json:"type" validate:"required,oneof=fade dissolve wipe zoom slide-left slide-right slide-up slide-down"`
	ToClipID string  `json:"to_clip_id"`
	Duration float64 `json:"duration" validate:"omitempty,gt=0"`
}

type TextRequest struct {
	Text     string  `json:"text" validate:"required,max=500"`
	FontSize int     `json:"font_size" validate:"omitempty,min=1,max=500"`
	Color    string  `json:"color" validate:"omitempty,max=32"`
	X        float64 `json:"x" validate:"min=0,max=100"`
	Y        float64 `json:"y" validate:"min=0,max=100"`
	Duration float64 `json:"duration" validate:"min=0"`
}

type SeekRequest struct {
	Time  *float64 `json:"time" validate:"required_without=Pixel"`
	Pixel *float64 `json:"pixel" validate:"required_without=Time"`
}

type VolumeRequest struct {
	Volume int `json:"volume"`
}

type ZoomRequest struct {
	Zoom float64 `json:"zoom" validate:"gt=0"`
}

type ProjectRequest struct {
	Name        string `json:"name" validate:"max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type ProjectUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type StartExportRequest struct {
	export.Settings
	ProjectID string `json:"project_id"`
	Title     string `json:"title" validate:"max=200"`
}

type WriteEDLRequest struct {
	Title     string  `json:"title" validate:"max=200"`
	FrameRate float64 `json:"frame_rate" validate:"min=0,max=120"`
	OutputDir string  `json:"output_dir" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads an optional JSON body into dst and validates it. It
// writes the error response itself and reports whether the handler should
// continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body != nil {
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return false
		}
	}
	if err := validate.Struct(dst); err != nil {
		writeValidationError(w, err)
		return false
	}
	return true
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", fe.Field(), fe.Tag())
	}
	WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Error:  "validation failed",
		Code:   "VALIDATION_FAILED",
		Fields: fields,
	})
}

func MediaToResponse(m *library.Media) MediaResponse {
	return MediaResponse{
		MediaItem: m.MediaItem,
		SizeLabel: humanize.Bytes(uint64(max(m.Size, 0))),
	}
}

func ProjectToResponse(p *library.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}

func ExportJobToResponse(j *library.ExportJob) ExportJobResponse {
	return ExportJobResponse{
		ID:         j.ID,
		ProjectID:  j.ProjectID,
		Status:     j.Status,
		Progress:   j.Progress,
		Format:     j.Format,
		Quality:    j.Quality,
		Resolution: j.Resolution,
		FPS:        j.FPS,
		OutputURL:  j.OutputURL,
		Error:      j.Error,
		CreatedAt:  j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  j.UpdatedAt.Format(time.RFC3339),
	}
}
