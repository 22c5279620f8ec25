package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cutline/cutline-studio/internal/library"
	"github.com/cutline/cutline-studio/internal/logging"
)

// Manager runs at most one export at a time and persists its lifecycle as a
// library.ExportJob.
type Manager struct {
	exporter Exporter
	repo     library.Repository
	logger   *slog.Logger

	mu       sync.Mutex
	active   *run
	onUpdate func(library.ExportJob)

	exporting atomic.Bool
}

type run struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(exporter Exporter, repo library.Repository, logger *slog.Logger) *Manager {
	return &Manager{exporter: exporter, repo: repo, logger: logger}
}

// OnUpdate registers a callback for every status or progress change.
func (m *Manager) OnUpdate(fn func(library.ExportJob)) {
	m.mu.Lock()
	m.onUpdate = fn
	m.mu.Unlock()
}

func (m *Manager) IsExporting() bool {
	return m.exporting.Load()
}

// ActiveID returns the id of the running export, if any.
func (m *Manager) ActiveID() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return "", false
	}
	return m.active.id, true
}

// Start validates the settings, records a pending job and begins exporting
// in the background. The job outlives ctx.
func (m *Manager) Start(ctx context.Context, req Request) (*library.ExportJob, error) {
	if err := req.Settings.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return nil, ErrExportInProgress
	}

	now := time.Now()
	job := &library.ExportJob{
		ID:         library.NewID(),
		ProjectID:  req.ProjectID,
		Status:     library.ExportStatusPending,
		Format:     req.Settings.Format,
		Quality:    req.Settings.Quality,
		Resolution: req.Settings.Resolution,
		FPS:        req.Settings.FPS,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := m.repo.CreateExport(ctx, job); err != nil {
		return nil, fmt.Errorf("create export job: %w", err)
	}
	req.ExportID = job.ID

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r := &run{id: job.ID, cancel: cancel, done: make(chan struct{})}
	m.active = r
	m.exporting.Store(true)

	go m.execute(runCtx, r, req)

	if m.logger != nil {
		logging.WithExportID(m.logger, job.ID).Info("export started",
			"format", job.Format,
			"quality", job.Quality,
			"resolution", job.Resolution,
			"fps", job.FPS,
		)
	}
	return job, nil
}

func (m *Manager) execute(ctx context.Context, r *run, req Request) {
	defer func() {
		m.mu.Lock()
		if m.active == r {
			m.active = nil
			m.exporting.Store(false)
		}
		m.mu.Unlock()
		close(r.done)
	}()

	// Terminal writes must land even after ctx is cancelled.
	bg := context.WithoutCancel(ctx)

	m.setStatus(bg, r.id, library.ExportStatusRunning, "", "")

	result, err := m.exporter.Export(ctx, req, func(p float64) {
		if ctx.Err() != nil {
			return
		}
		if m.setProgress(bg, r.id, clampProgress(p)) {
			m.notify(bg, r.id)
		}
	})

	switch {
	case ctx.Err() != nil:
		m.setProgress(bg, r.id, 0)
		m.setStatus(bg, r.id, library.ExportStatusCancelled, "", "")
		m.info("export cancelled", "export_id", r.id)
	case err != nil:
		m.setStatus(bg, r.id, library.ExportStatusFailed, err.Error(), "")
		m.warn("export failed", "export_id", r.id, "error", err)
	default:
		m.setProgress(bg, r.id, 100)
		m.setStatus(bg, r.id, library.ExportStatusCompleted, "", result.URL)
		m.info("export completed", "export_id", r.id, "url", result.URL)
	}
}

func (m *Manager) setProgress(ctx context.Context, id string, progress float64) bool {
	if err := m.repo.UpdateExportProgress(ctx, id, progress); err != nil {
		m.warn("failed to record export progress", "export_id", id, "progress", progress, "error", err)
		return false
	}
	return true
}

func (m *Manager) setStatus(ctx context.Context, id, status, errMsg, url string) {
	if err := m.repo.UpdateExportStatus(ctx, id, status, errMsg, url); err != nil {
		m.warn("failed to update export status", "export_id", id, "status", status, "error", err)
		return
	}
	m.notify(ctx, id)
}

func (m *Manager) notify(ctx context.Context, id string) {
	m.mu.Lock()
	fn := m.onUpdate
	m.mu.Unlock()
	if fn == nil {
		return
	}
	job, err := m.repo.GetExport(ctx, id)
	if err != nil || job == nil {
		return
	}
	fn(*job)
}

// Cancel stops the running export and waits for it to settle. The job ends
// cancelled with progress 0.
func (m *Manager) Cancel(ctx context.Context) (*library.ExportJob, error) {
	m.mu.Lock()
	r := m.active
	m.mu.Unlock()
	if r == nil {
		return nil, ErrNoActiveExport
	}

	r.cancel()
	select {
	case <-r.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return m.Get(ctx, r.id)
}

// Wait blocks until the running export, if any, finishes.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.Lock()
	r := m.active
	m.mu.Unlock()
	if r == nil {
		return nil
	}
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) Get(ctx context.Context, id string) (*library.ExportJob, error) {
	job, err := m.repo.GetExport(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, library.ErrNotFound
	}
	return job, nil
}

func (m *Manager) List(ctx context.Context, limit int) ([]*library.ExportJob, error) {
	return m.repo.ListExports(ctx, limit)
}

// Close cancels any running export and waits for it.
func (m *Manager) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := m.Cancel(ctx); err != nil && !errors.Is(err, ErrNoActiveExport) {
		m.warn("export did not stop in time", "error", err)
	}
}

func (m *Manager) info(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Info(msg, args...)
	}
}

func (m *Manager) warn(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Warn(msg, args...)
	}
}
