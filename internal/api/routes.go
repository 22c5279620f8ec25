package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cutline/cutline-studio/internal/config"
	"github.com/cutline/cutline-studio/internal/export"
	"github.com/cutline/cutline-studio/internal/library"
	"github.com/cutline/cutline-studio/internal/timeline"
)

// NewRouter builds the HTTP surface with its own event hub. Callers that
// need to shut the hub down use NewServer.
func NewRouter(cfg ServerConfig) *chi.Mux {
	r, _ := newRouter(cfg)
	return r
}

func newRouter(cfg ServerConfig) (*chi.Mux, *EventHub) {
	hub := NewEventHub(cfg.Session, cfg.Exports, cfg.Logger)

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))

	// <video> and <audio> elements cannot send headers, so the file route
	// is limited to loopback callers instead of requiring the token.
	r.With(LoopbackGuard()).Get("/media/{id}/file", mediaFileHandler(cfg))
	r.With(LoopbackGuard()).Head("/media/{id}/file", mediaFileHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Tokens, cfg.Logger))

		r.Get("/state", stateHandler(cfg))
		r.Get("/preview", previewHandler(cfg))
		r.Get("/markers", markersHandler(cfg))
		r.Get("/events", hub.ServeHTTP)

		r.Get("/media", listMediaHandler(cfg))
		r.Post("/media", importMediaHandler(cfg))
		r.Get("/media/{id}", getMediaHandler(cfg))
		r.Delete("/media/{id}", deleteMediaHandler(cfg))

		r.Post("/tracks", addTrackHandler(cfg))
		r.Patch("/tracks/{id}", updateTrackHandler(cfg))
		r.Delete("/tracks/{id}", deleteTrackHandler(cfg))

		r.Post("/clips", addClipHandler(cfg))
		r.Get("/clips/{id}", getClipHandler(cfg))
		r.Delete("/clips/{id}", deleteClipHandler(cfg))
		r.Post("/clips/{id}/move", moveClipHandler(cfg))
		r.Post("/clips/{id}/resize", resizeClipHandler(cfg))
		r.Post("/clips/{id}/split", splitClipHandler(cfg))
		r.Post("/clips/{id}/volume", clipVolumeHandler(cfg))
		r.Post("/clips/{id}/effects/filter", filterHandler(cfg))
		r.Post("/clips/{id}/effects/color", colorFilterHandler(cfg))
		r.Post("/clips/{id}/effects/transition", transitionHandler(cfg))
		r.Post("/clips/{id}/effects/text", textHandler(cfg))
		r.Delete("/clips/{id}/effects/{effectID}", removeEffectHandler(cfg))

		r.Post("/history/undo", undoHandler(cfg))
		r.Post("/history/redo", redoHandler(cfg))
		r.Post("/gesture/begin", beginGestureHandler(cfg))
		r.Post("/gesture/end", endGestureHandler(cfg))

		r.Post("/playback/play", playHandler(cfg))
		r.Post("/playback/pause", pauseHandler(cfg))
		r.Post("/playback/toggle", togglePlayHandler(cfg))
		r.Post("/playback/stop", stopHandler(cfg))
		r.Post("/playback/seek", seekHandler(cfg))
		r.Post("/playback/volume", volumeHandler(cfg))
		r.Post("/zoom", zoomHandler(cfg))

		r.Post("/project/new", newProjectHandler(cfg))
		r.Get("/projects", listProjectsHandler(cfg))
		r.Post("/projects", createProjectHandler(cfg))
		r.Patch("/projects/{id}", updateProjectHandler(cfg))

		r.Get("/export", estimateExportHandler(cfg))
		r.Post("/export", startExportHandler(cfg))
		r.Post("/export/cancel", cancelExportHandler(cfg))
		r.Get("/export/edl", edlHandler(cfg))
		r.Post("/export/edl", writeEDLHandler(cfg))
		r.Get("/export/{id}", getExportHandler(cfg))
		r.Get("/exports", listExportsHandler(cfg))
	})

	return r, hub
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: config.Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func stateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, stateResponse(cfg))
	}
}

func stateResponse(cfg ServerConfig) StateResponse {
	view := cfg.Session.View()
	resp := StateResponse{
		View:             view,
		CurrentTimeLabel: timeline.FormatTime(view.Playback.CurrentTime),
		DurationLabel:    timeline.FormatTime(view.Duration),
	}
	if cfg.Exports != nil {
		resp.Exporting = cfg.Exports.IsExporting()
	}
	return resp
}

func previewHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Session.Preview())
	}
}

func markersHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string][]float64{"markers": cfg.Session.Markers()})
	}
}

// writeServiceError maps collaborator errors onto HTTP responses.
func writeServiceError(w http.ResponseWriter, cfg ServerConfig, err error, msg string) {
	switch {
	case errors.Is(err, library.ErrNotFound):
		WriteError(w, http.StatusNotFound, msg+": not found", "NOT_FOUND")
	case errors.Is(err, library.ErrUnsupportedMedia):
		WriteError(w, http.StatusBadRequest, err.Error(), "UNSUPPORTED_MEDIA")
	case errors.Is(err, export.ErrExportInProgress), errors.Is(err, export.ErrNoActiveExport):
		WriteError(w, http.StatusConflict, err.Error(), "CONFLICT")
	case errors.Is(err, export.ErrInvalidSettings):
		WriteError(w, http.StatusUnprocessableEntity, err.Error(), "VALIDATION_FAILED")
	default:
		if cfg.Logger != nil {
			cfg.Logger.Error(msg, "error", err)
		}
		WriteError(w, http.StatusInternalServerError, msg, "INTERNAL_ERROR")
	}
}
