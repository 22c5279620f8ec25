package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cutline/cutline-studio/internal/library"
)

const maxUploadBytes = 8 << 30

func listMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		page := library.Page{}
		if v := r.URL.Query().Get("limit"); v != "" {
			page.Limit, _ = strconv.Atoi(v)
		}
		if v := r.URL.Query().Get("offset"); v != "" {
			page.Offset, _ = strconv.Atoi(v)
		}

		items, err := cfg.Media.List(ctx, page)
		if err != nil {
			writeServiceError(w, cfg, err, "failed to list media")
			return
		}
		total, err := cfg.Media.Count(ctx)
		if err != nil {
			writeServiceError(w, cfg, err, "failed to count media")
			return
		}

		resp := MediaListResponse{Media: make([]MediaResponse, 0, len(items)), Total: total}
		for _, m := range items {
			resp.Media = append(resp.Media, MediaToResponse(m))
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := cfg.Media.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, cfg, err, "media")
			return
		}
		WriteJSON(w, http.StatusOK, MediaToResponse(m))
	}
}

// importMediaHandler streams the "file" part of a multipart body straight
// into the library without buffering it in memory.
func importMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

		mr, err := r.MultipartReader()
		if err != nil {
			WriteError(w, http.StatusBadRequest, "expected multipart/form-data body", "BAD_REQUEST")
			return
		}

		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				WriteError(w, http.StatusBadRequest, "file part is required", "BAD_REQUEST")
				return
			}
			if err != nil {
				WriteError(w, http.StatusBadRequest, "invalid multipart body", "BAD_REQUEST")
				return
			}
			if part.FormName() != "file" || part.FileName() == "" {
				part.Close()
				continue
			}

			m, err := cfg.Media.Import(r.Context(), part.FileName(), part)
			part.Close()
			if err != nil {
				writeServiceError(w, cfg, err, "failed to import media")
				return
			}
			WriteJSON(w, http.StatusCreated, MediaToResponse(m))
			return
		}
	}
}

// deleteMediaHandler removes the media and every clip placed from it.
func deleteMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := cfg.Media.Delete(r.Context(), id); err != nil {
			writeServiceError(w, cfg, err, "media")
			return
		}
		removed := cfg.Session.RemoveMedia(id)
		WriteJSON(w, http.StatusOK, map[string]any{
			"status":        "deleted",
			"clips_removed": removed,
			"state":         cfg.Session.View(),
		})
	}
}

func mediaFileHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		m, err := cfg.Media.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, cfg, err, "media")
			return
		}
		if m.Path == "" {
			WriteError(w, http.StatusNotFound, "media has no file", "NOT_FOUND")
			return
		}

		if err := cfg.MediaServer.ServeFile(w, r, m.Path); err != nil && cfg.Logger != nil {
			cfg.Logger.Error("media file error", "error", err, "media_id", id)
		}
	}
}
