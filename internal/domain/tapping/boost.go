package tapping

import (
	"time"

	"github.com/okcoin/okcoin-api/internal/domain/energy"
	"github.com/okcoin/okcoin-api/internal/domain/user"
)

// Boost is one upgradeable boost type.
type Boost interface {
	// Next returns the tier the user can buy next.
	Next(u *user.User) (energy.Tier, error)
	// Apply grants a bought tier. The price is already deducted.
	Apply(u *user.User, tier energy.Tier, now time.Time)
	// Level reports the user's current level of this boost.
	Level(u *user.User) int
}

// levelBoost is a boost with numbered tiers stored as a level and a value.
type levelBoost struct {
	typ   energy.BoostType
	level func(u *user.User) *int
	value func(u *user.User) *int64
}

func (b levelBoost) Next(u *user.User) (energy.Tier, error) {
	tier, ok := energy.NextTier(b.typ, *b.level(u))
	if !ok {
		return energy.Tier{}, ErrUpgradeNotFound
	}
	return tier, nil
}

func (b levelBoost) Apply(u *user.User, tier energy.Tier, _ time.Time) {
	*b.level(u) = tier.Level
	*b.value(u) = tier.Value
}

func (b levelBoost) Level(u *user.User) int {
	return *b.level(u)
}

// tapBot is bought once. Buying it restarts the warm-up.
type tapBot struct{}

func (tapBot) Next(u *user.User) (energy.Tier, error) {
	if u.HaveTapBot {
		return energy.Tier{}, ErrTapBotActive
	}
	tier, ok := energy.NextTier(energy.BoostTapBot, 0)
	if !ok {
		return energy.Tier{}, ErrUpgradeNotFound
	}
	return tier, nil
}

func (tapBot) Apply(u *user.User, _ energy.Tier, now time.Time) {
	u.AvailableTapCount = energy.Available(u.Energy(), now, 0)
	u.SetLastTapped(now)
	u.HaveTapBot = true
}

func (tapBot) Level(u *user.User) int {
	if u.HaveTapBot {
		return 1
	}
	return 0
}

var boosts = map[energy.BoostType]Boost{
	energy.BoostMultiTap: levelBoost{
		typ:   energy.BoostMultiTap,
		level: func(u *user.User) *int { return &u.MultiTapLevel },
		value: func(u *user.User) *int64 { return &u.MultiTapValue },
	},
	energy.BoostEnergyLimit: levelBoost{
		typ:   energy.BoostEnergyLimit,
		level: func(u *user.User) *int { return &u.EnergyLimitLevel },
		value: func(u *user.User) *int64 { return &u.EnergyLimitValue },
	},
	energy.BoostRechargeSpeed: levelBoost{
		typ:   energy.BoostRechargeSpeed,
		level: func(u *user.User) *int { return &u.RechargeSpeedLevel },
		value: func(u *user.User) *int64 { return &u.RechargeSpeedValue },
	},
	energy.BoostTapBot: tapBot{},
}

// boostOrder fixes the catalog order.
var boostOrder = []energy.BoostType{
	energy.BoostMultiTap,
	energy.BoostEnergyLimit,
	energy.BoostRechargeSpeed,
	energy.BoostTapBot,
}
