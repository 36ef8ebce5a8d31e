package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const taskColumns = `id, category, sub_category, title, description, reward, is_active,
	url, image_url, code, value, sort_order, created_at, updated_at`

// Repository reads the task catalog and stores claims.
type Repository interface {
	ListActive(ctx context.Context) ([]Task, error)
	// GetActive returns nil, nil for a missing or inactive task.
	GetActive(ctx context.Context, id uuid.UUID) (*Task, error)
	ListClaims(ctx context.Context, userID uuid.UUID) ([]Claim, error)
	// InsertClaim fails with ErrAlreadyCompleted when the user already claimed the task.
	InsertClaim(ctx context.Context, c *Claim) error
	DeleteClaim(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListActive(ctx context.Context) ([]Task, error) {
	var tasks []Task
	err := r.db.SelectContext(ctx, &tasks,
		`SELECT `+taskColumns+` FROM tasks WHERE is_active = true ORDER BY sort_order DESC, created_at`)
	return tasks, err
}

func (r *repository) GetActive(ctx context.Context, id uuid.UUID) (*Task, error) {
	var t Task
	err := r.db.GetContext(ctx, &t, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND is_active = true`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *repository) ListClaims(ctx context.Context, userID uuid.UUID) ([]Claim, error) {
	var claims []Claim
	err := r.db.SelectContext(ctx, &claims,
		`SELECT id, user_id, task_id, created_at FROM user_tasks WHERE user_id = $1`, userID)
	return claims, err
}

func (r *repository) InsertClaim(ctx context.Context, c *Claim) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_tasks (id, user_id, task_id, created_at) VALUES ($1, $2, $3, $4)`,
		c.ID, c.UserID, c.TaskID, c.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrAlreadyCompleted
		}
		return fmt.Errorf("task repository insert claim: %w", err)
	}
	return nil
}

func (r *repository) DeleteClaim(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_tasks WHERE id = $1`, id)
	return err
}
