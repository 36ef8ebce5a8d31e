package task

import (
	"time"

	"github.com/google/uuid"
)

// Category selects how a task is judged complete.
type Category string

const (
	CategoryVideo    Category = "Video"
	CategorySocial   Category = "Social"
	CategoryRanking  Category = "Ranking"
	CategoryReferral Category = "Referral"
)

// Task is a catalog entry. Value is the threshold for Ranking and Referral
// tasks. Reward is in points.
type Task struct {
	ID          uuid.UUID `db:"id"`
	Category    Category  `db:"category"`
	SubCategory string    `db:"sub_category"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Reward      int64     `db:"reward"`
	IsActive    bool      `db:"is_active"`
	URL         string    `db:"url"`
	ImageURL    string    `db:"image_url"`
	Code        string    `db:"code"`
	Value       *int64    `db:"value"`
	Order       int       `db:"sort_order"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Threshold returns Value or zero.
func (t *Task) Threshold() int64 {
	if t.Value == nil {
		return 0
	}
	return *t.Value
}

// Claim records that a user collected a task reward.
type Claim struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	TaskID    uuid.UUID `db:"task_id"`
	CreatedAt time.Time `db:"created_at"`
}
