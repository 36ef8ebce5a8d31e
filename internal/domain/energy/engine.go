// Package energy computes lazily regenerated tap energy and bot rewards.
// Nothing here touches storage; callers pass the user's state and a clock.
package energy

import "time"

const (
	// BotWarmup is the delay after activation or a claim before the tap bot earns.
	BotWarmup = 20 * time.Minute
	// BotRate is the tap bot yield in points per second.
	BotRate int64 = 4
	// BotCap is the maximum tap bot payout of one claim.
	BotCap int64 = 172800
	// InfinityTapMax caps the taps counted by one infinity tap call.
	InfinityTapMax int64 = 500
)

// State is the energy part of a user.
type State struct {
	Available     int64
	Limit         int64
	RechargeSpeed int64
	MultiTap      int64
	LastTapped    time.Time
}

// Available returns the energy at now, adding extra seconds of regeneration
// on top of the time since the last tap. The result never exceeds Limit.
func Available(s State, now time.Time, extraSeconds int64) int64 {
	elapsed := wholeSeconds(now.Sub(s.LastTapped))
	if extraSeconds > 0 {
		elapsed += extraSeconds
	}

	available := s.Available + elapsed*s.RechargeSpeed
	if available > s.Limit {
		available = s.Limit
	}
	if available < 0 {
		available = 0
	}
	return available
}

// TapResult is the outcome of a tap batch.
type TapResult struct {
	Earned    int64
	Available int64
}

// Tap spends energy for taps at now. A client start time earlier than
// LastTapped is ignored; otherwise the seconds since start are added on top
// of the regeneration since LastTapped.
func Tap(s State, now time.Time, taps int64, start time.Time) TapResult {
	if start.IsZero() || start.Before(s.LastTapped) {
		start = now
	}
	available := Available(s, now, wholeSeconds(now.Sub(start)))

	if taps < 0 {
		taps = 0
	}
	earned := taps * s.MultiTap
	if earned > available {
		earned = available
	}

	return TapResult{Earned: earned, Available: available - earned}
}

// InfinityTap returns the points of an infinity tap; energy is not used.
func InfinityTap(multiTap, taps int64) int64 {
	if taps < 0 {
		taps = 0
	}
	if taps > InfinityTapMax {
		taps = InfinityTapMax
	}
	return taps * multiTap
}

// BotReward returns the points the tap bot earned since lastTapped. started
// is false while the bot is still in its warm-up window.
func BotReward(lastTapped, now time.Time) (earned int64, started bool) {
	seconds := wholeSeconds(now.Sub(lastTapped.Add(BotWarmup)))
	if seconds <= 0 {
		return 0, false
	}
	earned = seconds * BotRate
	if earned > BotCap {
		earned = BotCap
	}
	return earned, true
}

// PremiumDailyReward pro-rates the daily premium bot reward for owners who
// activated it less than a day before now.
func PremiumDailyReward(daily int64, activatedAt *time.Time, now time.Time) int64 {
	if activatedAt == nil || !activatedAt.Add(24*time.Hour).After(now) {
		return daily
	}
	held := now.Sub(*activatedAt)
	if held <= 0 {
		return 0
	}
	return int64(float64(daily) * held.Seconds() / (24 * time.Hour).Seconds())
}

func wholeSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}
