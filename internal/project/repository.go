package project

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)
	RenameProject(ctx context.Context, id, name string) error
	DeleteProject(ctx context.Context, id string) error

	SaveSnapshot(ctx context.Context, projectID, state string) error
	GetSnapshot(ctx context.Context, projectID string) (string, error)

	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	ListPendingJobs(ctx context.Context) ([]*Job, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobProgress(ctx context.Context, id string, progress int) error

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateProject(ctx context.Context, p *Project) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, frame_rate, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.FrameRate, p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, frame_rate, created_at, updated_at
		FROM projects WHERE id = ?
	`, id)
	return r.scanProject(row)
}

func (r *SQLiteRepository) scanProject(row *sql.Row) (*Project, error) {
	var p Project
	var createdAt, updatedAt string

	err := row.Scan(&p.ID, &p.Name, &p.FrameRate, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, frame_rate, created_at, updated_at
		FROM projects ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		var p Project
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.FrameRate, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

func (r *SQLiteRepository) RenameProject(ctx context.Context, id, name string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE projects SET name = ?, updated_at = datetime('now') WHERE id = ?
	`, name, id)
	return err
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, projectID, state string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO snapshots (project_id, state, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(project_id) DO UPDATE SET state = excluded.state, updated_at = datetime('now')
	`, projectID, state)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE projects SET updated_at = datetime('now') WHERE id = ?
	`, projectID)
	return err
}

func (r *SQLiteRepository) GetSnapshot(ctx context.Context, projectID string) (string, error) {
	var state string
	err := r.db.QueryRowContext(ctx, "SELECT state FROM snapshots WHERE project_id = ?", projectID).Scan(&state)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return state, err
}

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, project_id, clip_id, type, status, progress, payload, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.ProjectID, j.ClipID, j.Type, j.Status, j.Progress, j.Payload, j.Error,
		j.CreatedAt.Format(time.RFC3339), j.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, project_id, clip_id, type, status, progress, payload, error, created_at, updated_at
		FROM jobs WHERE id = ?
	`, id)

	var j Job
	var createdAt, updatedAt string
	err := row.Scan(&j.ID, &j.ProjectID, &j.ClipID, &j.Type, &j.Status, &j.Progress, &j.Payload, &j.Error, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &j, nil
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, clip_id, type, status, progress, payload, error, created_at, updated_at
		FROM jobs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanJobs(rows)
}

func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, clip_id, type, status, progress, payload, error, created_at, updated_at
		FROM jobs WHERE status = 'pending' ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanJobs(rows)
}

func (r *SQLiteRepository) scanJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		var j Job
		var createdAt, updatedAt string
		if err := rows.Scan(&j.ID, &j.ProjectID, &j.ClipID, &j.Type, &j.Status, &j.Progress, &j.Payload, &j.Error, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = datetime('now') WHERE id = ?
	`, status, errorMsg, id)
	return err
}

func (r *SQLiteRepository) UpdateJobProgress(ctx context.Context, id string, progress int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET progress = ?, updated_at = datetime('now') WHERE id = ?
	`, progress, id)
	return err
}

func (r *SQLiteRepository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = datetime('now')
	`, key, value)
	return err
}
