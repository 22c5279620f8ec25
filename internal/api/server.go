package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cutline/cutline-studio/internal/export"
	"github.com/cutline/cutline-studio/internal/library"
	"github.com/cutline/cutline-studio/internal/playback"
	"github.com/cutline/cutline-studio/internal/studio"
)

// ExportService is the export job manager as seen by the HTTP layer.
type ExportService interface {
	Start(ctx context.Context, req export.Request) (*library.ExportJob, error)
	Cancel(ctx context.Context) (*library.ExportJob, error)
	Get(ctx context.Context, id string) (*library.ExportJob, error)
	List(ctx context.Context, limit int) ([]*library.ExportJob, error)
	IsExporting() bool
	OnUpdate(fn func(library.ExportJob))
}

type Server struct {
	httpServer *http.Server
	events     *EventHub
	logger     *slog.Logger
}

type ServerConfig struct {
	Port        int
	Session     *studio.Session
	Media       library.MediaLibrary
	Projects    library.ProjectStore
	Tokens      TokenStore
	Exports     ExportService
	MediaServer playback.MediaService
	Logger      *slog.Logger
	StartTime   time.Time
}

func NewServer(cfg ServerConfig) *Server {
	router, hub := newRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		events: hub,
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and drops event stream clients, which
// http.Server.Shutdown does not track once hijacked.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	s.events.Close()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
