package chain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const txColumns = `id, hash, msg_index, logical_time, from_address, to_address, amount, fee,
	currency, status, direction, body_text, is_processed, created_at, updated_at`

// Repository stores mirrored chain transactions.
type Repository interface {
	// Save inserts tx, or refreshes the metadata of an already stored
	// (hash, msg_index). created reports whether tx was new.
	Save(ctx context.Context, tx *Transaction) (created bool, err error)
	// FirstByBodySince returns the oldest transfer with the given body created at
	// or after since, or nil.
	FirstByBodySince(ctx context.Context, body string, since time.Time) (*Transaction, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Save(ctx context.Context, tx *Transaction) (bool, error) {
	// xmax is zero only for a row this statement inserted.
	var created bool
	err := r.db.GetContext(ctx, &created, `
		INSERT INTO chain_transactions (id, hash, msg_index, logical_time, from_address, to_address, amount, fee,
			currency, status, direction, body_text, is_processed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, true, $13, $13)
		ON CONFLICT (hash, msg_index) DO UPDATE
		SET status = EXCLUDED.status, is_processed = true, updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0)
	`, tx.ID, tx.Hash, tx.MsgIndex, tx.LogicalTime, tx.FromAddress, tx.ToAddress, tx.Amount, tx.Fee,
		tx.Currency, tx.Status, tx.Direction, tx.BodyText, tx.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("chain repository save %s/%d: %w", tx.Hash, tx.MsgIndex, err)
	}
	tx.IsProcessed = true
	return created, nil
}

func (r *repository) FirstByBodySince(ctx context.Context, body string, since time.Time) (*Transaction, error) {
	var tx Transaction
	err := r.db.GetContext(ctx, &tx, `
		SELECT `+txColumns+`
		FROM chain_transactions
		WHERE body_text = $1 AND created_at >= $2
		ORDER BY created_at
		LIMIT 1
	`, body, since)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}
