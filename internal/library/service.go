package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cutline/cutline-studio/internal/logging"
	"github.com/cutline/cutline-studio/internal/timeline"
)

// MediaLibrary is the media collaborator the editor talks to.
type MediaLibrary interface {
	List(ctx context.Context, page Page) ([]*Media, error)
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, id string) (*Media, error)
	Create(ctx context.Context, meta Metadata) (*Media, error)
	UploadBinary(ctx context.Context, id, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, id string) error
	Import(ctx context.Context, filename string, r io.Reader) (*Media, error)
}

// ProjectStore persists project name and description only.
type ProjectStore interface {
	CreateProject(ctx context.Context, name, description string) (*Project, error)
	UpdateProject(ctx context.Context, id string, upd ProjectUpdate) (*Project, error)
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)
}

type Service struct {
	repo     Repository
	mediaDir string
	prober   Prober
	logger   *slog.Logger
}

func NewService(repo Repository, mediaDir string, prober Prober, logger *slog.Logger) *Service {
	if prober == nil {
		prober = StubProber{}
	}
	return &Service{repo: repo, mediaDir: mediaDir, prober: prober, logger: logger}
}

// FileURL is the path the media file server answers for id.
func FileURL(id string) string {
	return "/media/" + id + "/file"
}

func (s *Service) List(ctx context.Context, page Page) ([]*Media, error) {
	return s.repo.ListMedia(ctx, page)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.CountMedia(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Media, error) {
	m, err := s.repo.GetMedia(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}
	return m, nil
}

func (s *Service) Create(ctx context.Context, meta Metadata) (*Media, error) {
	name := strings.TrimSpace(meta.Name)
	if name == "" {
		return nil, fmt.Errorf("media name is required")
	}
	if !meta.Kind.Valid() {
		return nil, fmt.Errorf("%w: kind %q", ErrUnsupportedMedia, meta.Kind)
	}

	duration := meta.Duration
	if duration <= 0 {
		duration = PlaceholderDuration
	}

	m := &Media{MediaItem: timeline.MediaItem{
		ID:        NewID(),
		Name:      name,
		Kind:      meta.Kind,
		Duration:  duration,
		Thumbnail: meta.Thumbnail,
		Size:      meta.Size,
		CreatedAt: time.Now(),
	}}
	if err := s.repo.CreateMedia(ctx, m); err != nil {
		return nil, fmt.Errorf("create media: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("media created", "media_id", m.ID, "name", name, "kind", m.Kind)
	}
	return m, nil
}

// UploadBinary stores the bytes for an existing media row and returns the
// URL the file is served under.
func (s *Service) UploadBinary(ctx context.Context, id, filename string, r io.Reader) (string, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.mediaDir, 0755); err != nil {
		return "", fmt.Errorf("create media directory: %w", err)
	}

	dest := filepath.Join(s.mediaDir, id+strings.ToLower(filepath.Ext(filename)))
	tmp, err := os.CreateTemp(s.mediaDir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	tmpName := tmp.Name()

	size, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("store upload: %w", err)
	}

	duration, err := s.prober.Duration(ctx, dest, m.Kind)
	if err != nil || duration <= 0 {
		if s.logger != nil && err != nil {
			s.logger.Warn("probe failed, using placeholder duration", "media_id", id, "error", err)
		}
		duration = PlaceholderDuration
	}

	url := FileURL(id)
	if err := s.repo.UpdateMediaFile(ctx, id, url, dest, size, duration); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("update media: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("media uploaded",
			"media_id", id,
			"size", humanize.Bytes(uint64(size)),
			"duration_s", duration,
		)
	}
	return url, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	m, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteMedia(ctx, id); err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	if m.Path != "" {
		if err := os.Remove(m.Path); err != nil && !errors.Is(err, os.ErrNotExist) && s.logger != nil {
			s.logger.Warn("failed to remove media file", "media_id", id, "error", err)
		}
	}
	if s.logger != nil {
		s.logger.Info("media deleted", "media_id", id)
	}
	return nil
}

// Import creates the metadata row first, then uploads. A failed upload
// deletes the row again.
func (s *Service) Import(ctx context.Context, filename string, r io.Reader) (*Media, error) {
	kind, ok := KindForFile(filename)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, filepath.Ext(filename))
	}

	m, err := s.Create(ctx, Metadata{Name: filepath.Base(filename), Kind: kind})
	if err != nil {
		return nil, err
	}

	if _, err := s.UploadBinary(ctx, m.ID, filename, r); err != nil {
		if derr := s.repo.DeleteMedia(ctx, m.ID); derr != nil && s.logger != nil {
			s.logger.Error("failed to roll back media", "media_id", m.ID, "error", derr)
		}
		if s.logger != nil {
			s.logger.Warn("media import failed", "media_id", m.ID, "name", m.Name, "error", err)
		}
		return nil, err
	}

	return s.Get(ctx, m.ID)
}

func (s *Service) CreateProject(ctx context.Context, name, description string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Untitled Project"
	}
	now := time.Now()
	p := &Project{
		ID:          NewID(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	if s.logger != nil {
		logging.WithProjectID(s.logger, p.ID).Info("project created", "name", p.Name)
	}
	return p, nil
}

func (s *Service) UpdateProject(ctx context.Context, id string, upd ProjectUpdate) (*Project, error) {
	p, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		if name := strings.TrimSpace(*upd.Name); name != "" {
			p.Name = name
		}
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	p.UpdatedAt = time.Now()
	if err := s.repo.UpdateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	if s.logger != nil {
		logging.WithProjectID(s.logger, p.ID).Debug("project updated")
	}
	return p, nil
}

func (s *Service) GetProject(ctx context.Context, id string) (*Project, error) {
	p, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) ListProjects(ctx context.Context) ([]*Project, error) {
	return s.repo.ListProjects(ctx)
}
