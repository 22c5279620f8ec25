package library

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cutline/cutline-studio/internal/timeline"
)

// Media is a stored MediaItem plus where its bytes live on disk.
type Media struct {
	timeline.MediaItem
	Path string `json:"-"`
}

type Repository interface {
	CreateMedia(ctx context.Context, m *Media) error
	GetMedia(ctx context.Context, id string) (*Media, error)
	ListMedia(ctx context.Context, page Page) ([]*Media, error)
	CountMedia(ctx context.Context) (int, error)
	UpdateMediaFile(ctx context.Context, id, url, path string, size int64, duration float64) error
	DeleteMedia(ctx context.Context, id string) error

	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)
	UpdateProject(ctx context.Context, p *Project) error

	CreateExport(ctx context.Context, job *ExportJob) error
	GetExport(ctx context.Context, id string) (*ExportJob, error)
	ListExports(ctx context.Context, limit int) ([]*ExportJob, error)
	UpdateExportStatus(ctx context.Context, id, status, errorMsg, outputURL string) error
	UpdateExportProgress(ctx context.Context, id string, progress float64) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const mediaColumns = `id, name, kind, duration, thumbnail, url, path, size, created_at`

func (r *SQLiteRepository) CreateMedia(ctx context.Context, m *Media) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO media (`+mediaColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Name, string(m.Kind), m.Duration, nullString(m.Thumbnail), nullString(m.URL), nullString(m.Path),
		m.Size, formatTime(m.CreatedAt))
	return err
}

func (r *SQLiteRepository) GetMedia(ctx context.Context, id string) (*Media, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+mediaColumns+` FROM media WHERE id = ?`, id)
	m, err := scanMedia(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func (r *SQLiteRepository) ListMedia(ctx context.Context, page Page) ([]*Media, error) {
	page = page.normalize()
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+mediaColumns+` FROM media
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func scanMedia(s rowScanner) (*Media, error) {
	var m Media
	var kind, createdAt string
	var thumbnail, url, path sql.NullString

	if err := s.Scan(&m.ID, &m.Name, &kind, &m.Duration, &thumbnail, &url, &path, &m.Size, &createdAt); err != nil {
		return nil, err
	}
	m.Kind = timeline.MediaKind(kind)
	m.Thumbnail = thumbnail.String
	m.URL = url.String
	m.Path = path.String
	m.CreatedAt = parseTime(createdAt)
	return &m, nil
}

func (r *SQLiteRepository) CountMedia(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM media").Scan(&count)
	return count, err
}

func (r *SQLiteRepository) UpdateMediaFile(ctx context.Context, id, url, path string, size int64, duration float64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE media SET url = ?, path = ?, size = ?, duration = ? WHERE id = ?", url, path, size, duration, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) DeleteMedia(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM media WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) CreateProject(ctx context.Context, p *Project) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Description, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	return err
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at, updated_at FROM projects WHERE id = ?
	`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, created_at, updated_at FROM projects ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func scanProject(s rowScanner) (*Project, error) {
	var p Project
	var createdAt, updatedAt string
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func (r *SQLiteRepository) UpdateProject(ctx context.Context, p *Project) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE projects SET name = ?, description = ?, updated_at = ? WHERE id = ?",
		p.Name, p.Description, formatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

const exportColumns = `id, project_id, status, progress, format, quality, resolution, fps, output_url, error, created_at, updated_at`

func (r *SQLiteRepository) CreateExport(ctx context.Context, j *ExportJob) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO exports (`+exportColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, nullString(j.ProjectID), j.Status, j.Progress, j.Format, j.Quality, j.Resolution, j.FPS,
		nullString(j.OutputURL), nullString(j.Error), formatTime(j.CreatedAt), formatTime(j.UpdatedAt))
	return err
}

func (r *SQLiteRepository) GetExport(ctx context.Context, id string) (*ExportJob, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+exportColumns+` FROM exports WHERE id = ?`, id)
	j, err := scanExport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return j, err
}

func (r *SQLiteRepository) ListExports(ctx context.Context, limit int) ([]*ExportJob, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+exportColumns+` FROM exports ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*ExportJob
	for rows.Next() {
		j, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func scanExport(s rowScanner) (*ExportJob, error) {
	var j ExportJob
	var projectID, outputURL, errMsg sql.NullString
	var createdAt, updatedAt string

	if err := s.Scan(&j.ID, &projectID, &j.Status, &j.Progress, &j.Format, &j.Quality, &j.Resolution, &j.FPS,
		&outputURL, &errMsg, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	j.ProjectID = projectID.String
	j.OutputURL = outputURL.String
	j.Error = errMsg.String
	j.CreatedAt = parseTime(createdAt)
	j.UpdatedAt = parseTime(updatedAt)
	return &j, nil
}

func (r *SQLiteRepository) UpdateExportStatus(ctx context.Context, id, status, errorMsg, outputURL string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE exports SET status = ?, error = ?, output_url = COALESCE(?, output_url), updated_at = ?
		WHERE id = ?
	`, status, nullString(errorMsg), nullString(outputURL), formatTime(time.Now()), id)
	return err
}

func (r *SQLiteRepository) UpdateExportProgress(ctx context.Context, id string, progress float64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE exports SET progress = ?, updated_at = ? WHERE id = ?", progress, formatTime(time.Now()), id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}
