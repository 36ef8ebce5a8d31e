package withdraw

import (
	"time"

	"github.com/google/uuid"
)

// Status of a withdraw request.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
	StatusFailed    Status = "Failed"
)

// Request asks for tonBalance to be paid out on chain. Amount is nanoton.
type Request struct {
	ID          uuid.UUID  `db:"id"`
	UserID      uuid.UUID  `db:"user_id"`
	Amount      int64      `db:"amount"`
	Currency    string     `db:"currency"`
	Status      Status     `db:"status"`
	ChainTxHash *string    `db:"chain_tx_hash"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	CompletedAt *time.Time `db:"completed_at"`
}
