package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/okcoin/okcoin-api/internal/domain/energy"
)

// Starting values of a new player.
const (
	DefaultEnergy        int64 = 500
	DefaultRechargeSpeed int64 = 1
	DefaultMultiTap      int64 = 1
)

// User is a player. Point balances are whole points; TonBalance is nanoton.
type User struct {
	ID               uuid.UUID `db:"id"`
	TelegramID       int64     `db:"telegram_id"`
	TelegramUsername string    `db:"telegram_username"`
	FirstName        string    `db:"first_name"`
	LastName         string    `db:"last_name"`

	Balance      int64 `db:"balance"`
	GrandBalance int64 `db:"grand_balance"`
	TapBalance   int64 `db:"tap_balance"`
	TonBalance   int64 `db:"ton_balance"`
	AmountToken  int64 `db:"amount_token"`

	AvailableTapCount  int64     `db:"available_tap_count"`
	EnergyLimitValue   int64     `db:"energy_limit_value"`
	RechargeSpeedValue int64     `db:"recharge_speed_value"`
	MultiTapValue      int64     `db:"multi_tap_value"`
	LastTapped         time.Time `db:"last_tapped"`

	MultiTapLevel      int `db:"multi_tap_level"`
	EnergyLimitLevel   int `db:"energy_limit_level"`
	RechargeSpeedLevel int `db:"recharge_speed_level"`

	HaveTapBot           bool       `db:"have_tap_bot"`
	HavePremiumBot       bool       `db:"have_premium_bot"`
	PremiumBotAt         *time.Time `db:"premium_bot_at"`
	IsReceiveAirdrop     bool       `db:"is_receive_airdrop"`
	IsReceivePointReward bool       `db:"is_receive_point_reward"`

	RefererID      *int64 `db:"referer_id"`
	RefererCount   int    `db:"referer_count"`
	ReceiveAddress string `db:"receive_address"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// New returns a player with starting energy and levels.
func New(telegramID int64, username, firstName, lastName string, now time.Time) *User {
	return &User{
		ID:                 uuid.New(),
		TelegramID:         telegramID,
		TelegramUsername:   username,
		FirstName:          firstName,
		LastName:           lastName,
		AvailableTapCount:  DefaultEnergy,
		EnergyLimitValue:   DefaultEnergy,
		RechargeSpeedValue: DefaultRechargeSpeed,
		MultiTapValue:      DefaultMultiTap,
		LastTapped:         now,
		MultiTapLevel:      1,
		EnergyLimitLevel:   1,
		RechargeSpeedLevel: 1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Energy returns the energy state used by the accrual engine.
func (u *User) Energy() energy.State {
	return energy.State{
		Available:     u.AvailableTapCount,
		Limit:         u.EnergyLimitValue,
		RechargeSpeed: u.RechargeSpeedValue,
		MultiTap:      u.MultiTapValue,
		LastTapped:    u.LastTapped,
	}
}

// CreditPoints adds earned points to every point balance.
func (u *User) CreditPoints(amount int64, tapped bool) {
	u.Balance += amount
	u.GrandBalance += amount
	if tapped {
		u.TapBalance += amount
	}
}

// SetLastTapped moves the regeneration anchor forward; it never moves back.
func (u *User) SetLastTapped(t time.Time) {
	if t.After(u.LastTapped) {
		u.LastTapped = t
	}
}
