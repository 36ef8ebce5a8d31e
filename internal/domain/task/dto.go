package task

import (
	"time"

	"github.com/google/uuid"
)

// CompleteRequest is the body of POST /tasks/{id}/complete.
type CompleteRequest struct {
	Code string `json:"code" validate:"max=64"`
}

// View is a task as seen by one user.
type View struct {
	TaskID      uuid.UUID  `json:"taskId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Reward      int64      `json:"reward"`
	Category    Category   `json:"category"`
	SubCategory string     `json:"subCategory"`
	URL         string     `json:"url"`
	ImageURL    string     `json:"imageUrl"`
	IsClaimed   bool       `json:"isClaimed"`
	IsCompleted bool       `json:"isCompleted"`
	TaskValue   *int64     `json:"taskValue"`
	UserValue   int64      `json:"userValue"`
	Order       int        `json:"order"`
	CreatedAt   time.Time  `json:"createdAt"`
	ClaimedAt   *time.Time `json:"claimedAt"`
}
