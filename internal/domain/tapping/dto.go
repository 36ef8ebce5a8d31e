package tapping

import "github.com/okcoin/okcoin-api/internal/domain/energy"

// TapRequest is the body of POST /tap and /tap/infinity.
type TapRequest struct {
	Count     int64 `json:"count" validate:"gte=0"`
	StartTime int64 `json:"startTime" validate:"gte=0"`
}

// UpgradeRequest carries the boost type from the path.
type UpgradeRequest struct {
	Type string `json:"type" validate:"required,boost_type"`
}

// BoostView is one catalog row.
type BoostView struct {
	Type      energy.BoostType `json:"type"`
	Level     int              `json:"level"`
	Next      *energy.Tier     `json:"next,omitempty"`
	Tiers     []energy.Tier    `json:"tiers,omitempty"`
	PriceNano int64            `json:"priceNano,omitempty"`
	Currency  string           `json:"currency,omitempty"`
}
