package audit

import (
	"context"
	"database/sql"
	"time"

	"github.com/allisson/vaultcli/internal/database"
	"github.com/allisson/vaultcli/internal/errors"
)

// Repository persists and retrieves audit entries. The sqlite implementation
// is the only one the vault ships; the interface exists so the usecase layer
// can be tested against an in-memory fake without a real database file.
type Repository interface {
	// Append inserts e (Seq and EntryHmac/PrevHmac must already be set, as
	// UseCase.Append does before calling Seal) and returns the row's seq.
	Append(ctx context.Context, e Entry) (int64, error)

	// Last returns the most recently appended entry, or (Entry{}, false, nil)
	// if the log is empty.
	Last(ctx context.Context) (Entry, bool, error)

	// All returns every entry in seq order, for chain verification.
	All(ctx context.Context) ([]Entry, error)
}

// SQLiteRepository is the production Repository, sharing the vault's single
// database handle and transaction manager so an audit append can live inside
// the same transaction as the mutation that caused it.
type SQLiteRepository struct {
	db        *sql.DB
	txManager database.TxManager
}

// NewSQLiteRepository builds a Repository backed by db.
func NewSQLiteRepository(db *sql.DB, txManager database.TxManager) *SQLiteRepository {
	return &SQLiteRepository{db: db, txManager: txManager}
}

func (r *SQLiteRepository) Append(ctx context.Context, e Entry) (int64, error) {
	q := database.GetTx(ctx, r.db)
	res, err := q.ExecContext(ctx,
		`INSERT INTO audit (seq, ts, action, target_kind, target_id, outcome, prev_hmac, entry_hmac)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Seq, e.Timestamp.UTC().Format(time.RFC3339Nano), string(e.Action), string(e.TargetKind), e.TargetID, string(e.Outcome), e.PrevHmac, e.EntryHmac,
	)
	if err != nil {
		return 0, errors.Wrap(errors.ErrStorage, err.Error())
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(errors.ErrStorage, err.Error())
	}
	return seq, nil
}

func (r *SQLiteRepository) Last(ctx context.Context) (Entry, bool, error) {
	q := database.GetTx(ctx, r.db)
	row := q.QueryRowContext(ctx,
		`SELECT seq, ts, action, target_kind, target_id, outcome, prev_hmac, entry_hmac
		 FROM audit ORDER BY seq DESC LIMIT 1`,
	)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, errors.Wrap(errors.ErrStorage, err.Error())
	}
	return e, true, nil
}

func (r *SQLiteRepository) All(ctx context.Context) ([]Entry, error) {
	q := database.GetTx(ctx, r.db)
	rows, err := q.QueryContext(ctx,
		`SELECT seq, ts, action, target_kind, target_id, outcome, prev_hmac, entry_hmac
		 FROM audit ORDER BY seq ASC`,
	)
	if err != nil {
		return nil, errors.Wrap(errors.ErrStorage, err.Error())
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntryRows(rows)
		if err != nil {
			return nil, errors.Wrap(errors.ErrStorage, err.Error())
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrStorage, err.Error())
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	return scanAny(row)
}

func scanEntryRows(rows *sql.Rows) (Entry, error) {
	return scanAny(rows)
}

func scanAny(s scanner) (Entry, error) {
	var (
		e       Entry
		ts      string
		targetID sql.NullString
	)
	if err := s.Scan(&e.Seq, &ts, &e.Action, &e.TargetKind, &targetID, &e.Outcome, &e.PrevHmac, &e.EntryHmac); err != nil {
		return Entry{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Entry{}, err
	}
	e.Timestamp = parsed
	e.TargetID = targetID.String
	// The audit table has no actor column; every entry is built by NewEntry
	// with Actor "local", and Canonicalize needs it to recompute the HMAC.
	e.Actor = "local"
	return e, nil
}
