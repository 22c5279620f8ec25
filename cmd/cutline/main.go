package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cutline/cutline-studio/internal/api"
	"github.com/cutline/cutline-studio/internal/config"
	"github.com/cutline/cutline-studio/internal/db"
	"github.com/cutline/cutline-studio/internal/export"
	"github.com/cutline/cutline-studio/internal/library"
	"github.com/cutline/cutline-studio/internal/logging"
	"github.com/cutline/cutline-studio/internal/playback"
	"github.com/cutline/cutline-studio/internal/studio"
	"github.com/cutline/cutline-studio/internal/timeline"
	"github.com/cutline/cutline-studio/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	if err := config.LoadEnvFile(os.Getenv("CUTLINE_ENV_FILE")); err != nil {
		return err
	}

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.MediaDir(), 0755); err != nil {
		return fmt.Errorf("failed to create media dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting cutline studio",
		"version", config.Version,
		"data_dir", logging.SanitizePath(cfg.DataDir()),
	)

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := library.NewRepository(database.Conn())

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║                  CUTLINE STUDIO v%-24s ║\n", config.Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	media := library.NewService(repo, cfg.MediaDir(), newProber(cfg, logger), logger)

	session := studio.NewSession(studio.Options{
		Timeline: []timeline.Option{timeline.WithSnapGrid(cfg.SnapGrid())},
		Logger:   logging.WithComponent(logger, "studio"),
	})
	defer session.Close()

	exports := export.NewManager(newExporter(cfg, logger), repo, logging.WithComponent(logger, "export"))
	defer exports.Close()

	apiServer := api.NewServer(api.ServerConfig{
		Port:        cfg.Port(),
		Session:     session,
		Media:       media,
		Projects:    media,
		Tokens:      repo,
		Exports:     exports,
		MediaServer: playback.NewMediaServer(logger),
		Logger:      logger,
		StartTime:   startTime,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Editor: session,
			Logger: logging.WithComponent(logger, "tray"),
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// newProber uses ffprobe when configured and falls back to placeholder
// durations when it is missing.
func newProber(cfg config.Config, logger *slog.Logger) library.Prober {
	if cfg.FFProbe() == "" {
		return library.StubProber{}
	}
	p, err := library.NewFFProbe(cfg.FFProbe(), logger)
	if err != nil {
		logger.Warn("ffprobe unavailable, using placeholder durations", "error", err)
		return library.StubProber{}
	}
	return p
}

func newExporter(cfg config.Config, logger *slog.Logger) export.Exporter {
	if cfg.RenderURL() == "" {
		return export.NewSimulator()
	}
	logger.Info("remote rendering enabled", "render_url", cfg.RenderURL())
	return export.NewRemoteRenderer(cfg.RenderURL(), cfg.RenderToken(), logger)
}

func ensureAuthToken(repo library.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, api.AuthTokenKey)
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, api.AuthTokenKey, token); err != nil {
		return "", err
	}

	return token, nil
}
