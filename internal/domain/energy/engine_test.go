package energy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var base = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestAvailableNeverExceedsLimit(t *testing.T) {
	s := State{Available: 100, Limit: 500, RechargeSpeed: 3, LastTapped: base}

	for _, elapsed := range []int64{0, 1, 10, 133, 134, 10_000} {
		now := base.Add(time.Duration(elapsed) * time.Second)
		want := s.Available + elapsed*s.RechargeSpeed
		if want > s.Limit {
			want = s.Limit
		}
		assert.Equal(t, want, Available(s, now, 0), "elapsed=%d", elapsed)
	}
}

func TestAvailableIgnoresClockSkew(t *testing.T) {
	s := State{Available: 100, Limit: 500, RechargeSpeed: 3, LastTapped: base}
	assert.Equal(t, int64(100), Available(s, base.Add(-time.Hour), 0))
}

func TestTapClampsToAvailable(t *testing.T) {
	s := State{Available: 10, Limit: 500, RechargeSpeed: 1, MultiTap: 1, LastTapped: base}

	res := Tap(s, base, 50, base)

	assert.Equal(t, int64(10), res.Earned)
	assert.Equal(t, int64(0), res.Available)
}

func TestTapOfZeroKeepsEnergy(t *testing.T) {
	s := State{Available: 42, Limit: 500, RechargeSpeed: 1, MultiTap: 4, LastTapped: base}

	res := Tap(s, base, 0, base)

	assert.Equal(t, int64(0), res.Earned)
	assert.Equal(t, int64(42), res.Available)
}

func TestTapFiveTimesFromFreshUser(t *testing.T) {
	s := State{Available: 500, Limit: 500, RechargeSpeed: 1, MultiTap: 1, LastTapped: base}

	res := Tap(s, base, 5, base)

	assert.Equal(t, int64(5), res.Earned)
	assert.Equal(t, int64(495), res.Available)
}

func TestTapStartBeforeLastTappedIsReplaced(t *testing.T) {
	s := State{Available: 0, Limit: 500, RechargeSpeed: 1, MultiTap: 1, LastTapped: base}
	now := base.Add(10 * time.Second)

	res := Tap(s, now, 100, base.Add(-time.Hour))

	// only the 10s since the last tap regenerate
	assert.Equal(t, int64(10), res.Earned)
}

func TestTapStartAfterLastTappedAddsElapsedOnce(t *testing.T) {
	s := State{Available: 0, Limit: 500, RechargeSpeed: 1, MultiTap: 1, LastTapped: base}
	now := base.Add(10 * time.Second)

	res := Tap(s, now, 100, base.Add(4*time.Second))

	// 10s since last tap plus 6s since the client start
	assert.Equal(t, int64(16), res.Earned)
}

func TestInfinityTapCapsTaps(t *testing.T) {
	assert.Equal(t, int64(1000), InfinityTap(2, 10_000))
	assert.Equal(t, int64(30), InfinityTap(3, 10))
	assert.Equal(t, int64(0), InfinityTap(3, -1))
}

func TestBotReward(t *testing.T) {
	earned, started := BotReward(base, base.Add(19*time.Minute))
	assert.False(t, started)
	assert.Zero(t, earned)

	earned, started = BotReward(base, base.Add(20*time.Minute+10*time.Second))
	assert.True(t, started)
	assert.Equal(t, int64(40), earned)

	earned, _ = BotReward(base, base.Add(72*time.Hour))
	assert.Equal(t, BotCap, earned)
}

func TestPremiumDailyReward(t *testing.T) {
	assert.Equal(t, int64(1_000_000), PremiumDailyReward(1_000_000, nil, base))

	old := base.Add(-48 * time.Hour)
	assert.Equal(t, int64(1_000_000), PremiumDailyReward(1_000_000, &old, base))

	half := base.Add(-12 * time.Hour)
	assert.Equal(t, int64(500_000), PremiumDailyReward(1_000_000, &half, base))
}

func TestNextTier(t *testing.T) {
	tier, ok := NextTier(BoostEnergyLimit, 1)
	assert.True(t, ok)
	assert.Equal(t, Tier{Type: BoostEnergyLimit, Level: 2, Price: 5000, Value: 1000}, tier)

	tier, ok = NextTier(BoostMultiTap, 20)
	assert.True(t, ok)
	assert.Equal(t, int64(92_160_000), tier.Price)
	assert.Equal(t, int64(21), tier.Value)

	_, ok = NextTier(BoostMultiTap, 21)
	assert.False(t, ok)

	tier, ok = NextTier(BoostRechargeSpeed, 5)
	assert.True(t, ok)
	assert.Equal(t, int64(100_000), tier.Price)

	_, ok = NextTier(BoostRechargeSpeed, 6)
	assert.False(t, ok)
}
