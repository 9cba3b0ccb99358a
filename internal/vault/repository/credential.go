package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/vaultcli/internal/vault/domain"
)

func (r *SQLiteRepository) CreateCredential(ctx context.Context, c domain.Credential) error {
	_, err := r.q(ctx).ExecContext(ctx,
		`INSERT INTO credentials (id, project_id, title, url_hint, username_ct, password_ct, url_ct, notes_ct, totp_ct,
		                          username_version, password_version, url_version, notes_version, totp_version,
		                          version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), projectIDParam(c.ProjectID), c.Title, c.URLHint,
		c.UsernameCt, c.PasswordCt, c.URLCt, c.NotesCt, c.TOTPCt,
		c.FieldVersions.Username, c.FieldVersions.Password, c.FieldVersions.URL, c.FieldVersions.Notes, c.FieldVersions.TOTP,
		c.Version, formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	return wrapStorage(err)
}

func (r *SQLiteRepository) GetCredential(ctx context.Context, id uuid.UUID) (domain.Credential, error) {
	row := r.q(ctx).QueryRowContext(ctx,
		`SELECT id, project_id, title, url_hint, username_ct, password_ct, url_ct, notes_ct, totp_ct,
		        username_version, password_version, url_version, notes_version, totp_version,
		        version, created_at, updated_at
		 FROM credentials WHERE id = ?`, id.String(),
	)
	return scanCredential(row)
}

func (r *SQLiteRepository) UpdateCredential(ctx context.Context, c domain.Credential) error {
	res, err := r.q(ctx).ExecContext(ctx,
		`UPDATE credentials SET project_id = ?, title = ?, url_hint = ?,
		                        username_ct = ?, password_ct = ?, url_ct = ?, notes_ct = ?, totp_ct = ?,
		                        username_version = ?, password_version = ?, url_version = ?, notes_version = ?, totp_version = ?,
		                        version = ?, updated_at = ?
		 WHERE id = ?`,
		projectIDParam(c.ProjectID), c.Title, c.URLHint,
		c.UsernameCt, c.PasswordCt, c.URLCt, c.NotesCt, c.TOTPCt,
		c.FieldVersions.Username, c.FieldVersions.Password, c.FieldVersions.URL, c.FieldVersions.Notes, c.FieldVersions.TOTP,
		c.Version, formatTime(c.UpdatedAt), c.ID.String(),
	)
	if err != nil {
		return wrapStorage(err)
	}
	return checkAffected(res)
}

func (r *SQLiteRepository) DeleteCredential(ctx context.Context, id uuid.UUID) error {
	res, err := r.q(ctx).ExecContext(ctx, `DELETE FROM credentials WHERE id = ?`, id.String())
	if err != nil {
		return wrapStorage(err)
	}
	return checkAffected(res)
}

func (r *SQLiteRepository) ListCredentials(ctx context.Context, filter domain.CredentialFilter) ([]domain.Credential, error) {
	query := `SELECT DISTINCT c.id, c.project_id, c.title, c.url_hint, c.username_ct, c.password_ct, c.url_ct, c.notes_ct, c.totp_ct,
	                 c.username_version, c.password_version, c.url_version, c.notes_version, c.totp_version,
	                 c.version, c.created_at, c.updated_at
	          FROM credentials c`
	var args []any
	var where []string

	if filter.Tag != "" {
		query += ` JOIN tags t ON t.credential_id = c.id`
		where = append(where, `t.tag = ?`)
		args = append(args, filter.Tag)
	}
	if filter.ProjectID != nil {
		where = append(where, `c.project_id = ?`)
		args = append(args, filter.ProjectID.String())
	}
	if filter.Query != "" {
		query += ` JOIN search s ON s.credential_id = c.id`
		where = append(where, `s MATCH ?`)
		args = append(args, filter.Query)
	}

	if len(where) > 0 {
		query += " WHERE "
		for i, cond := range where {
			if i > 0 {
				query += " AND "
			}
			query += cond
		}
	}
	query += " ORDER BY c.title ASC"

	rows, err := r.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapStorage(err)
	}
	defer rows.Close()

	var credentials []domain.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		credentials = append(credentials, c)
	}
	return credentials, wrapStorage(rows.Err())
}

func projectIDParam(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrapStorage(err)
	}
	if n == 0 {
		return domain.ErrCredentialNotFound
	}
	return nil
}

func scanCredential(s rowScanner) (domain.Credential, error) {
	var (
		c         domain.Credential
		id        string
		projectID sql.NullString
		createdAt string
		updatedAt string
	)
	err := s.Scan(
		&id, &projectID, &c.Title, &c.URLHint,
		&c.UsernameCt, &c.PasswordCt, &c.URLCt, &c.NotesCt, &c.TOTPCt,
		&c.FieldVersions.Username, &c.FieldVersions.Password, &c.FieldVersions.URL, &c.FieldVersions.Notes, &c.FieldVersions.TOTP,
		&c.Version, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Credential{}, domain.ErrCredentialNotFound
	}
	if err != nil {
		return domain.Credential{}, wrapStorage(err)
	}

	c.ID, err = uuid.Parse(id)
	if err != nil {
		return domain.Credential{}, wrapStorage(err)
	}
	if projectID.Valid {
		pid, err := uuid.Parse(projectID.String)
		if err != nil {
			return domain.Credential{}, wrapStorage(err)
		}
		c.ProjectID = &pid
	}
	c.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return domain.Credential{}, wrapStorage(err)
	}
	c.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return domain.Credential{}, wrapStorage(err)
	}
	return c, nil
}
