package withdraw

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const requestColumns = `id, user_id, amount, currency, status, chain_tx_hash, created_at, updated_at, completed_at`

// Repository stores withdraw requests.
type Repository interface {
	// Create inserts a pending request. A second pending request of the same
	// user fails with ErrPendingExists.
	Create(ctx context.Context, req *Request) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Request, error)
	HasPending(ctx context.Context, userID uuid.UUID) (bool, error)
	// OldestPendingUpTo returns the user's oldest pending request whose
	// amount is at most maxAmount, or nil.
	OldestPendingUpTo(ctx context.Context, userID uuid.UUID, maxAmount int64) (*Request, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, txHash string, at time.Time) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, req *Request) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO withdraw_requests (id, user_id, amount, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, req.ID, req.UserID, req.Amount, req.Currency, req.Status, req.CreatedAt, req.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrPendingExists
		}
		return fmt.Errorf("withdraw repository create: %w", err)
	}
	return nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Request, error) {
	var out []Request
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+requestColumns+` FROM withdraw_requests WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	return out, err
}

func (r *repository) HasPending(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM withdraw_requests WHERE user_id = $1 AND status = 'Pending')`, userID)
	return exists, err
}

func (r *repository) OldestPendingUpTo(ctx context.Context, userID uuid.UUID, maxAmount int64) (*Request, error) {
	var req Request
	err := r.db.GetContext(ctx, &req, `
		SELECT `+requestColumns+`
		FROM withdraw_requests
		WHERE user_id = $1 AND status = 'Pending' AND amount <= $2
		ORDER BY created_at
		LIMIT 1
	`, userID, maxAmount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *repository) MarkCompleted(ctx context.Context, id uuid.UUID, txHash string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE withdraw_requests
		SET status = 'Completed', chain_tx_hash = $2, completed_at = $3, updated_at = $3
		WHERE id = $1 AND status = 'Pending'
	`, id, txHash, at)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRequestNotFound
	}
	return nil
}
