package api

import "net/http"

func playHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Session.Play()
		WriteJSON(w, http.StatusOK, cfg.Session.Playback())
	}
}

func pauseHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Session.Pause()
		WriteJSON(w, http.StatusOK, cfg.Session.Playback())
	}
}

func togglePlayHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Session.TogglePlay()
		WriteJSON(w, http.StatusOK, cfg.Session.Playback())
	}
}

func stopHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Session.Stop()
		WriteJSON(w, http.StatusOK, cfg.Session.Playback())
	}
}

// seekHandler accepts either a time in seconds or a ruler pixel offset.
func seekHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SeekRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Time != nil {
			cfg.Session.Seek(*req.Time)
		} else {
			cfg.Session.SeekPixel(*req.Pixel)
		}
		WriteJSON(w, http.StatusOK, cfg.Session.Playback())
	}
}

func volumeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req VolumeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		v := cfg.Session.SetVolume(req.Volume)
		WriteJSON(w, http.StatusOK, map[string]int{"volume": v})
	}
}

func zoomHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ZoomRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		WriteJSON(w, http.StatusOK, mutation(cfg, cfg.Session.SetZoom(req.Zoom)))
	}
}
