package playback

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeMediaFile(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write media: %v", err)
	}
	return path
}

func TestMediaServer_FullFile(t *testing.T) {
	path := writeMediaFile(t, "clip.mp4", 1000)
	srv := NewMediaServer(nil)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/media/x/file", nil)
	if err := srv.ServeFile(rr, req, path); err != nil {
		t.Fatalf("ServeFile() error = %v", err)
	}

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != "video/mp4" {
		t.Errorf("Content-Type = %q, want video/mp4", got)
	}
	if got := rr.Header().Get("Accept-Ranges"); got != "bytes" {
		t.Errorf("Accept-Ranges = %q, want bytes", got)
	}
	if rr.Body.Len() != 1000 {
		t.Errorf("body length = %d, want 1000", rr.Body.Len())
	}
}

func TestMediaServer_Range(t *testing.T) {
	path := writeMediaFile(t, "clip.mp4", 1000)
	srv := NewMediaServer(nil)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantLen    int
		wantRange  string
	}{
		{"middle", "bytes=100-199", http.StatusPartialContent, 100, "bytes 100-199/1000"},
		{"open ended", "bytes=900-", http.StatusPartialContent, 100, "bytes 900-999/1000"},
		{"suffix", "bytes=-10", http.StatusPartialContent, 10, "bytes 990-999/1000"},
		{"unsatisfiable", "bytes=5000-", http.StatusRequestedRangeNotSatisfiable, -1, "bytes */1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/media/x/file", nil)
			req.Header.Set("Range", tt.header)

			if err := srv.ServeFile(rr, req, path); err != nil {
				t.Fatalf("ServeFile() error = %v", err)
			}
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if got := rr.Header().Get("Content-Range"); got != tt.wantRange {
				t.Errorf("Content-Range = %q, want %q", got, tt.wantRange)
			}
			if tt.wantLen >= 0 {
				body, _ := io.ReadAll(rr.Body)
				if len(body) != tt.wantLen {
					t.Errorf("body length = %d, want %d", len(body), tt.wantLen)
				}
			}
		})
	}
}

func TestMediaServer_Missing(t *testing.T) {
	srv := NewMediaServer(nil)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/media/x/file", nil)

	if err := srv.ServeFile(rr, req, filepath.Join(t.TempDir(), "gone.mp4")); err != nil {
		t.Fatalf("ServeFile() error = %v", err)
	}
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}
