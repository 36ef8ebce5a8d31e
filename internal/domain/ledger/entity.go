package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Currency of a ledger amount.
type Currency string

const (
	CurrencyPoint Currency = "POINT"
	CurrencyTON   Currency = "TON"
)

// Status of a ledger entry.
type Status string

const (
	StatusCompleted Status = "Completed"
	StatusPending   Status = "Pending"
)

// Type is the kind of balance-affecting event.
type Type string

const (
	TypeTapReward         Type = "TapReward"
	TypeUpgrade           Type = "Upgrade"
	TypeTapBotReward      Type = "TapBotReward"
	TypePremiumBotReward  Type = "PremiumBotReward"
	TypeReferralReward    Type = "ReferralReward"
	TypeBuyPremium        Type = "BuyPremium"
	TypeInfinityTapReward Type = "InfinityTapReward"
	TypeTaskReward        Type = "TaskReward"
	TypeTopUp             Type = "TopUp"
	TypeVarCheckRevert    Type = "VarCheckRevert"
	TypePayCommission     Type = "PayCommission"
)

// Entry is an immutable record of one balance change. Amount is signed:
// credits are positive, debits negative.
type Entry struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"userId" db:"user_id"`
	Amount      int64     `json:"amount" db:"amount"`
	Currency    Currency  `json:"currency" db:"currency"`
	Status      Status    `json:"status" db:"status"`
	Type        Type      `json:"type" db:"type"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// NewEntry returns a completed entry stamped with now.
func NewEntry(userID uuid.UUID, amount int64, currency Currency, typ Type, description string, now time.Time) Entry {
	return Entry{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Currency:    currency,
		Status:      StatusCompleted,
		Type:        typ,
		Description: description,
		CreatedAt:   now.UTC(),
	}
}

// Points is a shorthand for a completed POINT entry.
func Points(userID uuid.UUID, amount int64, typ Type, now time.Time) Entry {
	return NewEntry(userID, amount, CurrencyPoint, typ, "", now)
}

// aggregateRule says which game-wide counters an entry type moves.
type aggregateRule struct {
	touch  bool
	shared bool
}

var aggregateRules = map[Type]aggregateRule{
	TypeTapReward:         {touch: true, shared: true},
	TypeInfinityTapReward: {touch: true, shared: true},
	TypeTapBotReward:      {touch: true, shared: true},
	TypeVarCheckRevert:    {touch: true, shared: true},
	TypeTaskReward:        {shared: true},
	TypePremiumBotReward:  {shared: true},
}
