package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/allisson/vaultcli/internal/vault/domain"
)

func (r *SQLiteRepository) CreateProject(ctx context.Context, p domain.Project) error {
	_, err := r.q(ctx).ExecContext(ctx,
		`INSERT INTO projects (id, name, created_at) VALUES (?, ?, ?)`,
		p.ID.String(), p.Name, formatTime(p.CreatedAt),
	)
	if isUniqueConstraint(err) {
		return domain.ErrProjectNameTaken
	}
	return wrapStorage(err)
}

func (r *SQLiteRepository) GetProjectByName(ctx context.Context, name string) (domain.Project, error) {
	row := r.q(ctx).QueryRowContext(ctx,
		`SELECT id, name, created_at FROM projects WHERE name = ?`, name,
	)
	return scanProject(row)
}

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.q(ctx).QueryContext(ctx, `SELECT id, name, created_at FROM projects ORDER BY name ASC`)
	if err != nil {
		return nil, wrapStorage(err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, wrapStorage(rows.Err())
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, id uuid.UUID) error {
	res, err := r.q(ctx).ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id.String())
	if err != nil {
		return wrapStorage(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapStorage(err)
	}
	if n == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(s rowScanner) (domain.Project, error) {
	var (
		p         domain.Project
		id        string
		createdAt string
	)
	err := s.Scan(&id, &p.Name, &createdAt)
	if err == sql.ErrNoRows {
		return domain.Project{}, domain.ErrProjectNotFound
	}
	if err != nil {
		return domain.Project{}, wrapStorage(err)
	}
	p.ID, err = uuid.Parse(id)
	if err != nil {
		return domain.Project{}, wrapStorage(err)
	}
	p.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return domain.Project{}, wrapStorage(err)
	}
	return p, nil
}

// isUniqueConstraint reports whether err is a SQLite UNIQUE constraint
// violation, so callers can map it onto a domain conflict error instead of a
// generic storage failure.
func isUniqueConstraint(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr sqlite3.Error
	if stderrors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
