package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/vaultcli/internal/vault/domain"
)

func (r *SQLiteRepository) SetTags(ctx context.Context, credentialID uuid.UUID, tags []string) error {
	q := r.q(ctx)
	if _, err := q.ExecContext(ctx, `DELETE FROM tags WHERE credential_id = ?`, credentialID.String()); err != nil {
		return wrapStorage(err)
	}
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, err := q.ExecContext(ctx,
			`INSERT INTO tags (credential_id, tag) VALUES (?, ?)`, credentialID.String(), tag,
		); err != nil {
			return wrapStorage(err)
		}
	}
	return nil
}

func (r *SQLiteRepository) ListTags(ctx context.Context, credentialID uuid.UUID) ([]string, error) {
	rows, err := r.q(ctx).QueryContext(ctx,
		`SELECT tag FROM tags WHERE credential_id = ? ORDER BY tag ASC`, credentialID.String(),
	)
	if err != nil {
		return nil, wrapStorage(err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, wrapStorage(err)
		}
		tags = append(tags, tag)
	}
	return tags, wrapStorage(rows.Err())
}

// IndexCredential (re)writes a credential's row in the FTS5 search table.
// Only plaintext metadata is indexed: title, project name, tags, and the
// opt-in url_hint. Ciphertext and decrypted field values never reach this
// table.
func (r *SQLiteRepository) IndexCredential(ctx context.Context, c domain.Credential, projectName string, tags []string) error {
	q := r.q(ctx)
	if _, err := q.ExecContext(ctx, `DELETE FROM search WHERE credential_id = ?`, c.ID.String()); err != nil {
		return wrapStorage(err)
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO search (credential_id, title, project_name, tags, url_hint) VALUES (?, ?, ?, ?, ?)`,
		c.ID.String(), c.Title, projectName, strings.Join(tags, " "), c.URLHint,
	)
	return wrapStorage(err)
}

func (r *SQLiteRepository) DeindexCredential(ctx context.Context, credentialID uuid.UUID) error {
	_, err := r.q(ctx).ExecContext(ctx, `DELETE FROM search WHERE credential_id = ?`, credentialID.String())
	return wrapStorage(err)
}
