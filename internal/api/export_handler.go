package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cutline/cutline-studio/internal/export"
)

const (
	defaultExportTitle = "Untitled Project"
	defaultEDLFPS      = 30.0
)

// estimateExportHandler reports the size and time estimates for settings
// given as query parameters. Missing parameters take their defaults.
func estimateExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		s := export.DefaultSettings()
		if v := q.Get("format"); v != "" {
			s.Format = v
		}
		if v := q.Get("quality"); v != "" {
			s.Quality = v
		}
		if v := q.Get("resolution"); v != "" {
			s.Resolution = v
		}
		if v := q.Get("fps"); v != "" {
			fps, err := strconv.Atoi(v)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "fps must be an integer", "BAD_REQUEST")
				return
			}
			s.FPS = fps
		}
		if err := s.Validate(); err != nil {
			writeServiceError(w, cfg, err, "invalid settings")
			return
		}

		WriteJSON(w, http.StatusOK, export.NewEstimate(s, cfg.Session.View().Duration))
	}
}

func startExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := StartExportRequest{Settings: export.DefaultSettings()}
		if !decodeJSON(w, r, &req) {
			return
		}

		title := strings.TrimSpace(req.Title)
		if title == "" {
			title = defaultExportTitle
		}

		job, err := cfg.Exports.Start(r.Context(), export.Request{
			ProjectID: req.ProjectID,
			Title:     title,
			Duration:  cfg.Session.View().Duration,
			Settings:  req.Settings,
		})
		if err != nil {
			writeServiceError(w, cfg, err, "failed to start export")
			return
		}
		WriteJSON(w, http.StatusAccepted, ExportJobToResponse(job))
	}
}

func cancelExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.Exports.Cancel(r.Context())
		if err != nil {
			writeServiceError(w, cfg, err, "failed to cancel export")
			return
		}
		WriteJSON(w, http.StatusOK, ExportJobToResponse(job))
	}
}

func getExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.Exports.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, cfg, err, "export")
			return
		}
		WriteJSON(w, http.StatusOK, ExportJobToResponse(job))
	}
}

func listExportsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		jobs, err := cfg.Exports.List(r.Context(), limit)
		if err != nil {
			writeServiceError(w, cfg, err, "failed to list exports")
			return
		}
		resp := ExportJobsResponse{Exports: make([]ExportJobResponse, 0, len(jobs))}
		for _, j := range jobs {
			resp.Exports = append(resp.Exports, ExportJobToResponse(j))
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// edlHandler downloads the current timeline as an edit decision list.
func edlHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		title := r.URL.Query().Get("title")
		if title == "" {
			title = defaultExportTitle
		}
		fps := defaultEDLFPS
		if v := r.URL.Query().Get("fps"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f <= 0 || f > 120 {
				WriteError(w, http.StatusBadRequest, "fps must be between 0 and 120", "BAD_REQUEST")
				return
			}
			fps = f
		}

		view := cfg.Session.View()
		content := export.GenerateEDL(view.Tracks, view.Clips, title, fps)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.EDLFilename(title)))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(content))
	}
}

// writeEDLHandler saves the edit decision list into a local directory.
func writeEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req WriteEDLRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := export.ValidateOutputDir(req.OutputDir); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		title := req.Title
		if title == "" {
			title = defaultExportTitle
		}
		fps := req.FrameRate
		if fps == 0 {
			fps = defaultEDLFPS
		}

		view := cfg.Session.View()
		path, err := export.WriteEDL(req.OutputDir, title, export.GenerateEDL(view.Tracks, view.Clips, title, fps))
		if err != nil {
			writeServiceError(w, cfg, err, "failed to write EDL")
			return
		}

		if cfg.Logger != nil {
			cfg.Logger.Info("EDL written", "path", path, "clips", len(view.Clips))
		}
		WriteJSON(w, http.StatusOK, EDLWriteResponse{
			Status:     "ok",
			OutputPath: path,
			ClipCount:  len(view.Clips),
		})
	}
}
