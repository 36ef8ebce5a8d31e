package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository is durable ledger storage.
type Repository interface {
	// InsertBatch stores entries, ignoring ids that already exist.
	InsertBatch(ctx context.Context, entries []Entry) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Entry, error)
	ListByTypeSince(ctx context.Context, typ Type, since time.Time) ([]Entry, error)
	// Revert marks entries of one user as compensated and takes their points
	// off the user's balance in a single transaction. Entries reverted by an
	// earlier call are left out of the debit and of the returned slice.
	Revert(ctx context.Context, userID uuid.UUID, entries []Entry) ([]Entry, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) InsertBatch(ctx context.Context, entries []Entry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO ledger_entries (id, user_id, amount, currency, status, type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var inserted int64
	for _, e := range entries {
		res, err := stmt.ExecContext(ctx, e.ID, e.UserID, e.Amount, e.Currency, e.Status, e.Type, e.Description, e.CreatedAt)
		if err != nil {
			return 0, fmt.Errorf("ledger repository insert %s: %w", e.ID, err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Entry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var entries []Entry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, user_id, amount, currency, status, type, description, created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return entries, err
}

func (r *repository) ListByTypeSince(ctx context.Context, typ Type, since time.Time) ([]Entry, error) {
	var entries []Entry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, user_id, amount, currency, status, type, description, created_at
		FROM ledger_entries
		WHERE type = $1 AND created_at >= $2
		ORDER BY user_id, created_at
	`, typ, since)
	return entries, err
}

func (r *repository) Revert(ctx context.Context, userID uuid.UUID, entries []Entry) ([]Entry, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var fresh []Entry
	var debit int64
	for _, e := range entries {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO ledger_reverts (entry_id) VALUES ($1) ON CONFLICT (entry_id) DO NOTHING`, e.ID)
		if err != nil {
			return nil, fmt.Errorf("ledger repository revert %s: %w", e.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			fresh = append(fresh, e)
			debit += e.Amount
		}
	}
	if len(fresh) == 0 {
		return nil, nil
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET balance = GREATEST(balance - $2, 0), updated_at = NOW() WHERE id = $1`,
		userID, debit)
	if err != nil {
		return nil, fmt.Errorf("ledger repository revert debit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrRevertUserMissing
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return fresh, nil
}
