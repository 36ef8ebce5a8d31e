package user

import "time"

// ProfileResponse is the player view returned by /users/me.
type ProfileResponse struct {
	ID               string `json:"id"`
	TelegramID       int64  `json:"telegramId"`
	TelegramUsername string `json:"telegramUsername"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`

	Balance      int64 `json:"balance"`
	GrandBalance int64 `json:"grandBalance"`
	TapBalance   int64 `json:"tapBalance"`
	TonBalance   int64 `json:"tonBalance"`
	AmountToken  int64 `json:"amountToken"`

	AvailableTapCount  int64     `json:"availableTapCount"`
	EnergyLimitValue   int64     `json:"energyLimitValue"`
	RechargeSpeedValue int64     `json:"rechargeSpeedValue"`
	MultiTapValue      int64     `json:"multiTapValue"`
	LastTapped         time.Time `json:"lastTapped"`

	MultiTapLevel      int `json:"multiTapLevel"`
	EnergyLimitLevel   int `json:"energyLimitLevel"`
	RechargeSpeedLevel int `json:"rechargeSpeedLevel"`

	HaveTapBot           bool       `json:"haveTapBot"`
	HavePremiumBot       bool       `json:"havePremiumBot"`
	PremiumBotAt         *time.Time `json:"premiumBotAt,omitempty"`
	IsReceiveAirdrop     bool       `json:"isReceiveAirdrop"`
	IsReceivePointReward bool       `json:"isReceivePointReward"`

	RefererID      *int64 `json:"refererId,omitempty"`
	RefererCount   int    `json:"refererCount"`
	ReceiveAddress string `json:"receiveAddress"`

	InfinityTapUsed      int64 `json:"infinityTapUsed"`
	FullEnergyRefillUsed int64 `json:"fullEnergyRefillUsed"`

	CreatedAt time.Time `json:"createdAt"`
}

// ReferralResponse is one invited player.
type ReferralResponse struct {
	TelegramID       int64     `json:"telegramId"`
	TelegramUsername string    `json:"telegramUsername"`
	FirstName        string    `json:"firstName"`
	Balance          int64     `json:"balance"`
	HavePremiumBot   bool      `json:"havePremiumBot"`
	CreatedAt        time.Time `json:"createdAt"`
}

// NewProfile builds the player view from a stored user and live values.
func NewProfile(u *User, available, infinityUsed, refillUsed int64) *ProfileResponse {
	return &ProfileResponse{
		ID:                   u.ID.String(),
		TelegramID:           u.TelegramID,
		TelegramUsername:     u.TelegramUsername,
		FirstName:            u.FirstName,
		LastName:             u.LastName,
		Balance:              u.Balance,
		GrandBalance:         u.GrandBalance,
		TapBalance:           u.TapBalance,
		TonBalance:           u.TonBalance,
		AmountToken:          u.AmountToken,
		AvailableTapCount:    available,
		EnergyLimitValue:     u.EnergyLimitValue,
		RechargeSpeedValue:   u.RechargeSpeedValue,
		MultiTapValue:        u.MultiTapValue,
		LastTapped:           u.LastTapped,
		MultiTapLevel:        u.MultiTapLevel,
		EnergyLimitLevel:     u.EnergyLimitLevel,
		RechargeSpeedLevel:   u.RechargeSpeedLevel,
		HaveTapBot:           u.HaveTapBot,
		HavePremiumBot:       u.HavePremiumBot,
		PremiumBotAt:         u.PremiumBotAt,
		IsReceiveAirdrop:     u.IsReceiveAirdrop,
		IsReceivePointReward: u.IsReceivePointReward,
		RefererID:            u.RefererID,
		RefererCount:         u.RefererCount,
		ReceiveAddress:       u.ReceiveAddress,
		InfinityTapUsed:      infinityUsed,
		FullEnergyRefillUsed: refillUsed,
		CreatedAt:            u.CreatedAt,
	}
}
