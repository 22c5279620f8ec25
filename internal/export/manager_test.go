package export

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cutline/cutline-studio/internal/db"
	"github.com/cutline/cutline-studio/internal/library"
	"github.com/cutline/cutline-studio/internal/logging"
)

func setupManager(t *testing.T, exporter Exporter) (*Manager, library.Repository) {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo := library.NewRepository(database.Conn())
	m := NewManager(exporter, repo, testLogger())
	t.Cleanup(m.Close)
	return m, repo
}

type blockingExporter struct {
	started chan struct{}
	once    sync.Once
}

func newBlockingExporter() *blockingExporter {
	return &blockingExporter{started: make(chan struct{})}
}

func (b *blockingExporter) Export(ctx context.Context, req Request, progress func(float64)) (Result, error) {
	progress(150)
	b.once.Do(func() { close(b.started) })
	<-ctx.Done()
	return Result{}, ctx.Err()
}

type failingExporter struct{}

func (failingExporter) Export(ctx context.Context, req Request, progress func(float64)) (Result, error) {
	progress(20)
	return Result{}, errors.New("encoder crashed")
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting")
	}
}

func TestManager_CompletesSimulatedExport(t *testing.T) {
	sim := NewSimulator(WithSimulatorInterval(time.Millisecond), WithRandom(func() float64 { return 1 }))
	m, _ := setupManager(t, sim)

	var mu sync.Mutex
	var updates []library.ExportJob
	m.OnUpdate(func(j library.ExportJob) {
		mu.Lock()
		updates = append(updates, j)
		mu.Unlock()
	})

	ctx := context.Background()
	job, err := m.Start(ctx, Request{Title: "Reel", Duration: 10, Settings: DefaultSettings()})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if job.Status != library.ExportStatusPending {
		t.Errorf("initial status = %s, want pending", job.Status)
	}

	if err := m.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	got, err := m.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != library.ExportStatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.Progress != 100 {
		t.Errorf("progress = %v, want 100", got.Progress)
	}
	if got.OutputURL != SimulatedOutputURL {
		t.Errorf("output_url = %s", got.OutputURL)
	}
	if m.IsExporting() {
		t.Error("IsExporting() should be false after completion")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(updates) == 0 {
		t.Fatal("no updates delivered")
	}
	for _, u := range updates {
		if u.Progress < 0 || u.Progress > 100 {
			t.Errorf("update progress %v outside [0,100]", u.Progress)
		}
	}
	if last := updates[len(updates)-1]; last.Status != library.ExportStatusCompleted {
		t.Errorf("last update status = %s, want completed", last.Status)
	}
}

func TestManager_SingleActiveAndCancel(t *testing.T) {
	exp := newBlockingExporter()
	m, _ := setupManager(t, exp)
	ctx := context.Background()

	job, err := m.Start(ctx, Request{Settings: DefaultSettings()})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, exp.started)

	if id, ok := m.ActiveID(); !ok || id != job.ID {
		t.Errorf("ActiveID() = %s, %v; want %s", id, ok, job.ID)
	}
	if _, err := m.Start(ctx, Request{Settings: DefaultSettings()}); !errors.Is(err, ErrExportInProgress) {
		t.Errorf("second Start() error = %v, want ErrExportInProgress", err)
	}

	got, err := m.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != library.ExportStatusRunning || got.Progress != 100 {
		t.Errorf("running job = %s/%v, want running/100 (clamped)", got.Status, got.Progress)
	}

	cancelled, err := m.Cancel(ctx)
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if cancelled.Status != library.ExportStatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	if cancelled.Progress != 0 {
		t.Errorf("progress = %v, want 0 after cancel", cancelled.Progress)
	}
	if _, ok := m.ActiveID(); ok {
		t.Error("ActiveID() should be empty after cancel")
	}
	if _, err := m.Cancel(ctx); !errors.Is(err, ErrNoActiveExport) {
		t.Errorf("Cancel() with nothing running error = %v, want ErrNoActiveExport", err)
	}
}

func TestManager_Failure(t *testing.T) {
	m, _ := setupManager(t, failingExporter{})
	ctx := context.Background()

	job, err := m.Start(ctx, Request{Settings: DefaultSettings()})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := m.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	got, _ := m.Get(ctx, job.ID)
	if got.Status != library.ExportStatusFailed {
		t.Errorf("status = %s, want failed", got.Status)
	}
	if got.Error != "encoder crashed" {
		t.Errorf("error = %q", got.Error)
	}
	if !got.Terminal() {
		t.Error("failed job should be terminal")
	}
}

func TestManager_RejectsInvalidSettings(t *testing.T) {
	m, repo := setupManager(t, failingExporter{})
	ctx := context.Background()

	_, err := m.Start(ctx, Request{Settings: Settings{Format: "gif", Quality: "high", Resolution: "1080p", FPS: 30}})
	if !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("Start() error = %v, want ErrInvalidSettings", err)
	}

	jobs, err := repo.ListExports(ctx, 10)
	if err != nil {
		t.Fatalf("ListExports() error = %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("len(jobs) = %d, want 0", len(jobs))
	}
}

func TestManager_GetUnknown(t *testing.T) {
	m, _ := setupManager(t, failingExporter{})
	if _, err := m.Get(context.Background(), "missing"); !errors.Is(err, library.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

// progressFailRepo stores everything except progress updates.
type progressFailRepo struct {
	library.Repository
}

func (progressFailRepo) UpdateExportProgress(ctx context.Context, id string, progress float64) error {
	return errors.New("disk full")
}

// halfwayExporter reports 50% and then succeeds, so a 100% progress write can
// only come from the manager itself.
type halfwayExporter struct{}

func (halfwayExporter) Export(ctx context.Context, req Request, progress func(float64)) (Result, error) {
	progress(50)
	return Result{URL: "out.mp4"}, nil
}

func TestManager_LogsTerminalProgressFailures(t *testing.T) {
	tests := []struct {
		name         string
		exporter     func() Exporter
		cancel       bool
		wantStatus   string
		wantProgress string
	}{
		{
			name:         "completed",
			exporter:     func() Exporter { return halfwayExporter{} },
			wantStatus:   library.ExportStatusCompleted,
			wantProgress: `"progress":100`,
		},
		{
			name:         "cancelled",
			exporter:     func() Exporter { return newBlockingExporter() },
			cancel:       true,
			wantStatus:   library.ExportStatusCancelled,
			wantProgress: `"progress":0`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
			if err != nil {
				t.Fatalf("failed to create test database: %v", err)
			}
			t.Cleanup(func() { database.Close() })

			var buf bytes.Buffer
			exp := tt.exporter()
			m := NewManager(exp, progressFailRepo{library.NewRepository(database.Conn())}, logging.NewLoggerTo(&buf, "warn"))
			t.Cleanup(m.Close)

			ctx := context.Background()
			job, err := m.Start(ctx, Request{Duration: 10, Settings: DefaultSettings()})
			if err != nil {
				t.Fatalf("Start() error = %v", err)
			}
			if tt.cancel {
				waitFor(t, exp.(*blockingExporter).started)
				if _, err := m.Cancel(ctx); err != nil {
					t.Fatalf("Cancel() error = %v", err)
				}
			}
			if err := m.Wait(ctx); err != nil {
				t.Fatalf("Wait() error = %v", err)
			}

			got, err := m.Get(ctx, job.ID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", got.Status, tt.wantStatus)
			}

			logs := buf.String()
			if !strings.Contains(logs, "failed to record export progress") || !strings.Contains(logs, tt.wantProgress) {
				t.Errorf("expected a warning for %s, got:\n%s", tt.wantProgress, logs)
			}
		})
	}
}
