package energy

// BoostType names an upgradeable boost.
type BoostType string

const (
	BoostMultiTap      BoostType = "MultiTap"
	BoostEnergyLimit   BoostType = "EnergyLimit"
	BoostRechargeSpeed BoostType = "RechargeSpeed"
	BoostTapBot        BoostType = "TapBot"
	BoostPremiumBot    BoostType = "PremiumBot"
)

// Tier is one purchasable level of a boost.
type Tier struct {
	Type  BoostType `json:"type"`
	Level int       `json:"level"`
	Price int64     `json:"price"`
	Value int64     `json:"value"`
}

// TapBotPrice is the point price of the tap bot.
const TapBotPrice int64 = 200000

var (
	levelPrices = []int64{5, 10, 20, 30, 40, 50, 60, 70, 80, 90, 180, 360, 720, 1440, 2880, 5760, 11520, 23040, 46080, 92160}
	speedPrices = []int64{5, 10, 20, 50, 100}
)

func buildTiers(t BoostType, prices []int64, value func(level int) int64) []Tier {
	tiers := make([]Tier, len(prices))
	for i, p := range prices {
		level := i + 2
		tiers[i] = Tier{Type: t, Level: level, Price: p * 1000, Value: value(level)}
	}
	return tiers
}

var catalog = map[BoostType][]Tier{
	BoostMultiTap:      buildTiers(BoostMultiTap, levelPrices, func(l int) int64 { return int64(l) }),
	BoostEnergyLimit:   buildTiers(BoostEnergyLimit, levelPrices, func(l int) int64 { return int64(l) * 500 }),
	BoostRechargeSpeed: buildTiers(BoostRechargeSpeed, speedPrices, func(l int) int64 { return int64(l) }),
	BoostTapBot:        {{Type: BoostTapBot, Level: 1, Price: TapBotPrice, Value: BotRate}},
}

// Tiers returns the purchasable tiers of a boost type.
func Tiers(t BoostType) []Tier {
	return catalog[t]
}

// NextTier returns the tier that follows currentLevel.
func NextTier(t BoostType, currentLevel int) (Tier, bool) {
	for _, tier := range catalog[t] {
		if tier.Level == currentLevel+1 {
			return tier, true
		}
	}
	return Tier{}, false
}
