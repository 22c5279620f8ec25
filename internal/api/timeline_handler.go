package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cutline/cutline-studio/internal/logging"
	"github.com/cutline/cutline-studio/internal/timeline"
)

const (
	defaultTextFontSize = 32
	defaultTextColor    = "#ffffff"
)

func mutation(cfg ServerConfig, changed bool) MutationResponse {
	return MutationResponse{Changed: changed, State: cfg.Session.View()}
}

// requireClip answers 404 for an unknown clip id and reports whether the
// handler should continue.
func requireClip(w http.ResponseWriter, r *http.Request, cfg ServerConfig) (timeline.Clip, bool) {
	c, ok := cfg.Session.Clip(chi.URLParam(r, "id"))
	if !ok {
		WriteError(w, http.StatusNotFound, "clip not found", "NOT_FOUND")
	}
	return c, ok
}

func requireTrack(w http.ResponseWriter, r *http.Request, cfg ServerConfig) (timeline.Track, bool) {
	id := chi.URLParam(r, "id")
	for _, t := range cfg.Session.View().Tracks {
		if t.ID == id {
			return t, true
		}
	}
	WriteError(w, http.StatusNotFound, "track not found", "NOT_FOUND")
	return timeline.Track{}, false
}

func addTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddTrackRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		track, ok := cfg.Session.AddTrack(timeline.TrackKind(req.Kind))
		resp := TrackMutationResponse{MutationResponse: mutation(cfg, ok)}
		if ok {
			resp.Track = &track
		}
		WriteJSON(w, http.StatusCreated, resp)
	}
}

func updateTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireTrack(w, r, cfg); !ok {
			return
		}
		var req UpdateTrackRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		changed := cfg.Session.UpdateTrack(chi.URLParam(r, "id"), timeline.TrackUpdate{
			Name:    req.Name,
			Height:  req.Height,
			Muted:   req.Muted,
			Locked:  req.Locked,
			Visible: req.Visible,
		})
		WriteJSON(w, http.StatusOK, mutation(cfg, changed))
	}
}

func deleteTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireTrack(w, r, cfg); !ok {
			return
		}
		changed := cfg.Session.DeleteTrack(chi.URLParam(r, "id"))
		WriteJSON(w, http.StatusOK, mutation(cfg, changed))
	}
}

func addClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddClipRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		m, err := cfg.Media.Get(r.Context(), req.MediaID)
		if err != nil {
			writeServiceError(w, cfg, err, "media")
			return
		}

		var (
			clip timeline.Clip
			ok   bool
		)
		if req.StartTime == nil {
			clip, ok = cfg.Session.AddClipAtPlayhead(m.MediaItem)
		} else {
			clip, ok = cfg.Session.AddClip(m.MediaItem, req.TrackID, *req.StartTime)
		}

		resp := ClipMutationResponse{MutationResponse: mutation(cfg, ok)}
		status := http.StatusOK
		if ok {
			resp.Clip = &clip
			status = http.StatusCreated
			if cfg.Logger != nil {
				logging.WithClipID(cfg.Logger, clip.ID).Debug("clip added",
					"media_id", m.ID, "track_id", clip.TrackID, "start", clip.StartTime)
			}
		}
		WriteJSON(w, status, resp)
	}
}

func getClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := requireClip(w, r, cfg)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, c)
	}
}

func deleteClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := requireClip(w, r, cfg)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, mutation(cfg, cfg.Session.DeleteClip(c.ID)))
	}
}

func moveClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := requireClip(w, r, cfg)
		if !ok {
			return
		}
		var req MoveClipRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		WriteJSON(w, http.StatusOK, mutation(cfg, cfg.Session.MoveClip(c.ID, req.StartTime, req.TrackID)))
	}
}

func resizeClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := requireClip(w, r, cfg)
		if !ok {
			return
		}
		var req ResizeClipRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		changed := cfg.Session.ResizeClip(c.ID, timeline.Handle(req.Handle), req.Delta)
		WriteJSON(w, http.StatusOK, mutation(cfg, changed))
	}
}

// splitClipHandler cuts at the given time, or at the playhead when none is
// sent.
func splitClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := requireClip(w, r, cfg)
		if !ok {
			return
		}
		var req SplitClipRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		var halves [2]timeline.Clip
		if req.At == nil {
			halves, ok = cfg.Session.SplitAtPlayhead(c.ID)
		} else {
			halves, ok = cfg.Session.SplitClip(c.ID, *req.At)
		}

		resp := ClipMutationResponse{MutationResponse: mutation(cfg, ok)}
		if ok {
			resp.Clips = halves[:]
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func clipVolumeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := requireClip(w, r, cfg)
		if !ok {
			return
		}
		var req ClipVolumeRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		changed := false
		if req.Volume != nil && cfg.Session.SetClipVolume(c.ID, *req.Volume) {
			changed = true
		}
		if req.Muted != nil && cfg.Session.SetClipMuted(c.ID, *req.Muted) {
			changed = true
		}
		WriteJSON(w, http.StatusOK, mutation(cfg, changed))
	}
}

func filterHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := requireClip(w, r, cfg)
		if !ok {
			return
		}
		var req FilterRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		changed := cfg.Session.ApplyFilter(c.ID, timeline.FilterKey(req.Key), req.Value)
		WriteJSON(w, http.StatusOK, mutation(cfg, changed))
	}
}

func colorFilterHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := requireClip(w, r, cfg)
		if !ok {
			return
		}
		var req ColorFilterRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		changed := cfg.Session.ToggleColorFilter(c.ID, timeline.ColorFilter(req.Preset))
		WriteJSON(w, http.StatusOK, mutation(cfg, changed))
	}
}

func transitionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := requireClip(w, r, cfg)
		if !ok {
			return
		}
		var req TransitionRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		kind := timeline.TransitionType(req.Type)
		var changed bool
		if req.ToClipID == "" {
			changed = cfg.Session.ApplyTransition(c.ID, kind)
		} else {
			if _, found := cfg.Session.Clip(req.ToClipID); !found {
				WriteError(w, http.StatusNotFound, "target clip not found", "NOT_FOUND")
				return
			}
			duration := req.Duration
			if duration == 0 {
				duration = timeline.DefaultTransitionDuration
			}
			changed = cfg.Session.AddTransitionBetween(c.ID, req.ToClipID, kind, duration)
		}
		WriteJSON(w, http.StatusOK, mutation(cfg, changed))
	}
}

func textHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := requireClip(w, r, cfg)
		if !ok {
			return
		}
		var req TextRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		p := timeline.TextParams{
			Text:     req.Text,
			FontSize: req.FontSize,
			Color:    req.Color,
			X:        req.X,
			Y:        req.Y,
			Duration: req.Duration,
		}
		if p.FontSize == 0 {
			p.FontSize = defaultTextFontSize
		}
		if p.Color == "" {
			p.Color = defaultTextColor
		}
		if p.Duration == 0 {
			p.Duration = c.Duration
		}

		effect, added := cfg.Session.AddText(c.ID, p)
		resp := EffectMutationResponse{MutationResponse: mutation(cfg, added)}
		if added {
			resp.Effect = &effect
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func removeEffectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := requireClip(w, r, cfg)
		if !ok {
			return
		}
		changed := cfg.Session.RemoveEffect(c.ID, chi.URLParam(r, "effectID"))
		WriteJSON(w, http.StatusOK, mutation(cfg, changed))
	}
}

func undoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, mutation(cfg, cfg.Session.Undo()))
	}
}

func redoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, mutation(cfg, cfg.Session.Redo()))
	}
}

// beginGestureHandler opens a drag. Mutations until the matching end are
// recorded as one undo step.
func beginGestureHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Session.BeginGesture()
		WriteJSON(w, http.StatusOK, mutation(cfg, false))
	}
}

func endGestureHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, mutation(cfg, cfg.Session.EndGesture()))
	}
}
