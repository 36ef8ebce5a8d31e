package tapping

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okcoin/okcoin-api/internal/domain/energy"
	"github.com/okcoin/okcoin-api/internal/domain/ledger"
	"github.com/okcoin/okcoin-api/internal/domain/user"
	"github.com/okcoin/okcoin-api/internal/domain/user/usertest"
	"github.com/okcoin/okcoin-api/internal/pkg/apperr"
	"github.com/okcoin/okcoin-api/internal/pkg/cache"
)

type fakeLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (l *fakeLimiter) TakeDaily(_ context.Context, key string, limit int64) (int64, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts[key] >= limit {
		return limit, false, nil
	}
	l.counts[key]++
	return l.counts[key], true, nil
}

func (l *fakeLimiter) ReleaseDaily(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts[key] > 0 {
		l.counts[key]--
	}
	return nil
}

func (l *fakeLimiter) DailyCount(_ context.Context, key string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[key], nil
}

type fakeLedger struct {
	mu      sync.Mutex
	entries []ledger.Entry
}

func (f *fakeLedger) Append(_ context.Context, e ledger.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

var base = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, u *user.User) (*Service, *usertest.Repo, *fakeLedger) {
	t.Helper()
	repo := usertest.NewRepo(u)
	led := &fakeLedger{}
	svc := NewService(repo, &fakeLimiter{counts: map[string]int64{}}, led, Settings{
		AllowedInfinityTap:      3,
		AllowedFullEnergyRefill: 3,
		DailyPremiumBotReward:   1_000_000,
		PremiumBotPriceNano:     1_000_000_000,
	})
	svc.now = func() time.Time { return base }
	return svc, repo, led
}

func TestTapFiveTimesFromNewUser(t *testing.T) {
	u := user.New(1, "alice", "", "", base)
	svc, repo, led := newTestService(t, u)

	out, err := svc.Tap(context.Background(), u.ID, 5, 0)
	require.NoError(t, err)

	stored := repo.Get(u.ID)
	assert.Equal(t, int64(5), out.Earned)
	assert.Equal(t, int64(5), stored.Balance)
	assert.Equal(t, int64(5), stored.TapBalance)
	assert.Equal(t, int64(495), stored.AvailableTapCount)
	assert.Equal(t, "You have earned 5 points.", out.Message)
	require.Len(t, led.entries, 1)
	assert.Equal(t, ledger.TypeTapReward, led.entries[0].Type)
}

func TestTapClampsToAvailableEnergy(t *testing.T) {
	u := user.New(1, "alice", "", "", base)
	u.AvailableTapCount = 10
	svc, repo, _ := newTestService(t, u)

	out, err := svc.Tap(context.Background(), u.ID, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(10), out.Earned)
	assert.Zero(t, repo.Get(u.ID).AvailableTapCount)
}

func TestTapUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t, user.New(1, "", "", "", base))
	_, err := svc.Tap(context.Background(), uuid.New(), 1, 0)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestInfinityTapDailyLimit(t *testing.T) {
	u := user.New(1, "alice", "", "", base)
	u.MultiTapValue = 2
	svc, repo, _ := newTestService(t, u)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		out, err := svc.InfinityTap(ctx, u.ID, 1000)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), out.Earned)
	}
	before := repo.Get(u.ID).Balance

	_, err := svc.InfinityTap(ctx, u.ID, 1000)
	assert.ErrorIs(t, err, ErrInfinityTapLimit)
	assert.True(t, errors.Is(err, apperr.ErrConflict))
	assert.Equal(t, before, repo.Get(u.ID).Balance)
	assert.Equal(t, int64(500), repo.Get(u.ID).AvailableTapCount)
}

func TestRefillEnergy(t *testing.T) {
	u := user.New(1, "alice", "", "", base)
	u.AvailableTapCount = 0
	svc, repo, _ := newTestService(t, u)

	out, err := svc.RefillEnergy(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), repo.Get(u.ID).AvailableTapCount)
	assert.Equal(t, int64(1), out.Profile.FullEnergyRefillUsed)
}

// brokenUpdates fails every write while reads keep working.
type brokenUpdates struct {
	*usertest.Repo
}

func (brokenUpdates) Update(context.Context, uuid.UUID, func(*user.User) error) (*user.User, error) {
	return nil, errors.New("db down")
}

func TestDailyAllowanceReturnedWhenUpdateFails(t *testing.T) {
	u := user.New(1, "alice", "", "", base)
	limiter := &fakeLimiter{counts: map[string]int64{}}
	svc := NewService(brokenUpdates{usertest.NewRepo(u)}, limiter, &fakeLedger{}, Settings{
		AllowedInfinityTap:      3,
		AllowedFullEnergyRefill: 3,
	})
	svc.now = func() time.Time { return base }
	ctx := context.Background()

	_, err := svc.InfinityTap(ctx, u.ID, 10)
	require.Error(t, err)
	_, err = svc.RefillEnergy(ctx, u.ID)
	require.Error(t, err)

	used, _ := limiter.DailyCount(ctx, cache.InfinityTapKey(u.TelegramID))
	assert.Zero(t, used, "failed infinity tap must not use up the allowance")
	used, _ = limiter.DailyCount(ctx, cache.FullEnergyRefillKey(u.TelegramID))
	assert.Zero(t, used, "failed refill must not use up the allowance")
}

func TestClaimBot(t *testing.T) {
	u := user.New(1, "alice", "", "", base.Add(-30*time.Minute))
	svc, repo, led := newTestService(t, u)
	ctx := context.Background()

	_, err := svc.ClaimBot(ctx, u.ID)
	assert.ErrorIs(t, err, ErrTapBotInactive)

	_, err = repo.Update(ctx, u.ID, func(x *user.User) error { x.HaveTapBot = true; return nil })
	require.NoError(t, err)

	out, err := svc.ClaimBot(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(600*energy.BotRate), out.Earned)
	assert.Equal(t, base, repo.Get(u.ID).LastTapped)
	require.Len(t, led.entries, 1)
	assert.Equal(t, ledger.TypeTapBotReward, led.entries[0].Type)

	out, err = svc.ClaimBot(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, out.Earned)
	assert.Equal(t, "Tap bot yet to start.", out.Message)
}

func TestUpgradeLevels(t *testing.T) {
	u := user.New(1, "alice", "", "", base)
	u.Balance = 6000
	svc, repo, led := newTestService(t, u)

	_, err := svc.Upgrade(context.Background(), u.ID, energy.BoostEnergyLimit)
	require.NoError(t, err)

	stored := repo.Get(u.ID)
	assert.Equal(t, int64(1000), stored.Balance)
	assert.Equal(t, 2, stored.EnergyLimitLevel)
	assert.Equal(t, int64(1000), stored.EnergyLimitValue)
	require.Len(t, led.entries, 1)
	assert.Equal(t, int64(-5000), led.entries[0].Amount)

	_, err = svc.Upgrade(context.Background(), u.ID, energy.BoostMultiTap)
	assert.ErrorIs(t, err, ErrInsufficientPoints)
}

func TestUpgradeUnknownAndExhausted(t *testing.T) {
	u := user.New(1, "alice", "", "", base)
	u.Balance = 1_000_000
	u.RechargeSpeedLevel = 6
	svc, _, _ := newTestService(t, u)

	_, err := svc.Upgrade(context.Background(), u.ID, energy.BoostRechargeSpeed)
	assert.ErrorIs(t, err, ErrUpgradeNotFound)

	_, err = svc.Upgrade(context.Background(), u.ID, energy.BoostPremiumBot)
	assert.ErrorIs(t, err, ErrInvalidBoost)
}

func TestUpgradeTapBotRestartsWarmup(t *testing.T) {
	u := user.New(1, "alice", "", "", base.Add(-time.Hour))
	u.Balance = energy.TapBotPrice
	u.AvailableTapCount = 0
	svc, repo, _ := newTestService(t, u)

	out, err := svc.Upgrade(context.Background(), u.ID, energy.BoostTapBot)
	require.NoError(t, err)
	assert.Equal(t, "Tap bot is activated.", out.Message)

	stored := repo.Get(u.ID)
	assert.True(t, stored.HaveTapBot)
	assert.Equal(t, base, stored.LastTapped)
	assert.Equal(t, int64(500), stored.AvailableTapCount)
	assert.Zero(t, stored.Balance)

	_, err = svc.Upgrade(context.Background(), u.ID, energy.BoostTapBot)
	assert.ErrorIs(t, err, ErrTapBotActive)
}

func TestCatalogShowsNextTiers(t *testing.T) {
	u := user.New(1, "alice", "", "", base)
	svc, _, _ := newTestService(t, u)

	views, err := svc.Catalog(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, views, 5)
	assert.Equal(t, energy.BoostMultiTap, views[0].Type)
	require.NotNil(t, views[0].Next)
	assert.Equal(t, 2, views[0].Next.Level)
	assert.Equal(t, energy.BoostPremiumBot, views[4].Type)
	assert.Equal(t, int64(1_000_000_000), views[4].PriceNano)
}

func TestDistributePremiumRewards(t *testing.T) {
	veteranAt := base.Add(-72 * time.Hour)
	veteran := user.New(1, "vet", "", "", base)
	veteran.HavePremiumBot = true
	veteran.PremiumBotAt = &veteranAt

	rookieAt := base.Add(-6 * time.Hour)
	rookie := user.New(2, "rookie", "", "", base)
	rookie.HavePremiumBot = true
	rookie.PremiumBotAt = &rookieAt

	plain := user.New(3, "plain", "", "", base)

	repo := usertest.NewRepo(veteran, rookie, plain)
	led := &fakeLedger{}
	svc := NewService(repo, &fakeLimiter{counts: map[string]int64{}}, led, Settings{DailyPremiumBotReward: 1_000_000})
	svc.now = func() time.Time { return base }

	paid, err := svc.DistributePremiumRewards(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, paid)
	assert.Equal(t, int64(1_000_000), repo.Get(veteran.ID).Balance)
	assert.Equal(t, int64(250_000), repo.Get(rookie.ID).Balance)
	assert.Zero(t, repo.Get(plain.ID).Balance)
	assert.Zero(t, repo.Get(veteran.ID).TapBalance)
	assert.Len(t, led.entries, 2)
}
