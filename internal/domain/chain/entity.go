package chain

import (
	"time"

	"github.com/google/uuid"
)

// Direction of a transfer relative to the monitored wallet.
type Direction string

const (
	DirectionSent     Direction = "Sent"
	DirectionReceived Direction = "Received"
)

// Status of a chain transaction.
type Status string

const (
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed"
)

// Transaction is one logical transfer mirrored from the chain. A raw
// transaction with several outbound messages yields one Transaction per
// message, told apart by MsgIndex.
type Transaction struct {
	ID          uuid.UUID `db:"id"`
	Hash        string    `db:"hash"`
	MsgIndex    int       `db:"msg_index"`
	LogicalTime int64     `db:"logical_time"`
	FromAddress string    `db:"from_address"`
	ToAddress   string    `db:"to_address"`
	Amount      int64     `db:"amount"`
	Fee         int64     `db:"fee"`
	Currency    string    `db:"currency"`
	Status      Status    `db:"status"`
	Direction   Direction `db:"direction"`
	BodyText    string    `db:"body_text"`
	IsProcessed bool      `db:"is_processed"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Actionable reports whether the transfer can carry a side effect. Transfers
// without a body or value are system messages.
func (t *Transaction) Actionable() bool {
	return t.BodyText != "" && t.Amount > 0
}
