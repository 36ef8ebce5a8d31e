package tapping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/okcoin/okcoin-api/internal/domain/energy"
	"github.com/okcoin/okcoin-api/internal/domain/ledger"
	"github.com/okcoin/okcoin-api/internal/domain/user"
	"github.com/okcoin/okcoin-api/internal/pkg/cache"
)

// DailyLimiter consumes and reads per-day allowances.
type DailyLimiter interface {
	TakeDaily(ctx context.Context, key string, limit int64) (used int64, ok bool, err error)
	ReleaseDaily(ctx context.Context, key string) error
	DailyCount(ctx context.Context, key string) (int64, error)
}

// EntryAppender enqueues ledger entries.
type EntryAppender interface {
	Append(ctx context.Context, e ledger.Entry) error
}

// Settings are the game constants this service needs.
type Settings struct {
	AllowedInfinityTap      int64
	AllowedFullEnergyRefill int64
	DailyPremiumBotReward   int64
	PremiumBotPriceNano     int64
}

// Outcome is the result of a tap-family action.
type Outcome struct {
	Message string
	Earned  int64
	Profile *user.ProfileResponse
}

// Service implements tapping, boosts and bot rewards.
type Service struct {
	users    user.Repository
	limits   DailyLimiter
	ledger   EntryAppender
	settings Settings
	now      func() time.Time
}

func NewService(users user.Repository, limits DailyLimiter, appender EntryAppender, settings Settings) *Service {
	return &Service{
		users:    users,
		limits:   limits,
		ledger:   appender,
		settings: settings,
		now:      time.Now,
	}
}

// Tap spends energy for count taps. startMs is the client's unix millisecond
// start of the tap batch; zero means now.
func (s *Service) Tap(ctx context.Context, userID uuid.UUID, count, startMs int64) (*Outcome, error) {
	if count < 0 {
		return nil, ErrInvalidTapCount
	}
	now := s.now().UTC()
	var start time.Time
	if startMs > 0 {
		start = time.UnixMilli(startMs).UTC()
	}

	var earned int64
	u, err := s.users.Update(ctx, userID, func(u *user.User) error {
		res := energy.Tap(u.Energy(), now, count, start)
		earned = res.Earned
		u.AvailableTapCount = res.Available
		u.CreditPoints(res.Earned, true)
		u.SetLastTapped(now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, ledger.Points(userID, earned, ledger.TypeTapReward, now))
	return s.outcome(ctx, u, earned, fmt.Sprintf("You have earned %d points.", earned))
}

// InfinityTap credits taps without using energy, a limited number of times
// per UTC day.
func (s *Service) InfinityTap(ctx context.Context, userID uuid.UUID, count int64) (*Outcome, error) {
	if count < 0 {
		return nil, ErrInvalidTapCount
	}
	u, err := s.mustGet(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := cache.InfinityTapKey(u.TelegramID)
	_, ok, err := s.limits.TakeDaily(ctx, key, s.settings.AllowedInfinityTap)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInfinityTapLimit
	}

	now := s.now().UTC()
	var earned int64
	u, err = s.users.Update(ctx, userID, func(u *user.User) error {
		earned = energy.InfinityTap(u.MultiTapValue, count)
		u.CreditPoints(earned, true)
		return nil
	})
	if err != nil {
		s.release(ctx, key)
		return nil, err
	}

	s.record(ctx, ledger.Points(userID, earned, ledger.TypeInfinityTapReward, now))
	return s.outcome(ctx, u, earned, fmt.Sprintf("You have earned %d points.", earned))
}

// RefillEnergy fills energy up to the limit, a limited number of times per
// UTC day.
func (s *Service) RefillEnergy(ctx context.Context, userID uuid.UUID) (*Outcome, error) {
	u, err := s.mustGet(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := cache.FullEnergyRefillKey(u.TelegramID)
	_, ok, err := s.limits.TakeDaily(ctx, key, s.settings.AllowedFullEnergyRefill)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrEnergyRefillLimit
	}

	u, err = s.users.Update(ctx, userID, func(u *user.User) error {
		u.AvailableTapCount = u.EnergyLimitValue
		return nil
	})
	if err != nil {
		s.release(ctx, key)
		return nil, err
	}
	return s.outcome(ctx, u, 0, "Full energy refill is successful.")
}

// ClaimBot pays out what the tap bot earned since the last tap.
func (s *Service) ClaimBot(ctx context.Context, userID uuid.UUID) (*Outcome, error) {
	now := s.now().UTC()

	var earned int64
	var started bool
	u, err := s.users.Update(ctx, userID, func(u *user.User) error {
		if !u.HaveTapBot {
			return ErrTapBotInactive
		}
		earned, started = energy.BotReward(u.LastTapped, now)
		if !started {
			return errNotStarted
		}
		u.AvailableTapCount = energy.Available(u.Energy(), now, 0)
		u.CreditPoints(earned, true)
		u.SetLastTapped(now)
		return nil
	})
	if errors.Is(err, errNotStarted) {
		u, err = s.mustGet(ctx, userID)
		if err != nil {
			return nil, err
		}
		return s.outcome(ctx, u, 0, "Tap bot yet to start.")
	}
	if err != nil {
		return nil, err
	}

	s.record(ctx, ledger.Points(userID, earned, ledger.TypeTapBotReward, now))
	return s.outcome(ctx, u, earned, fmt.Sprintf("You have earned %d points from tap bot.", earned))
}

// Upgrade buys the next tier of a boost with points.
func (s *Service) Upgrade(ctx context.Context, userID uuid.UUID, boostType energy.BoostType) (*Outcome, error) {
	boost, ok := boosts[boostType]
	if !ok {
		return nil, ErrInvalidBoost
	}
	now := s.now().UTC()

	var bought energy.Tier
	u, err := s.users.Update(ctx, userID, func(u *user.User) error {
		tier, err := boost.Next(u)
		if err != nil {
			return err
		}
		if u.Balance < tier.Price {
			return ErrInsufficientPoints
		}
		u.Balance -= tier.Price
		boost.Apply(u, tier, now)
		bought = tier
		return nil
	})
	if err != nil {
		return nil, err
	}

	entry := ledger.NewEntry(userID, -bought.Price, ledger.CurrencyPoint, ledger.TypeUpgrade,
		fmt.Sprintf("%s level %d", bought.Type, bought.Level), now)
	s.record(ctx, entry)

	msg := "Upgrade is successful"
	if boostType == energy.BoostTapBot {
		msg = "Tap bot is activated."
	}
	return s.outcome(ctx, u, 0, msg)
}

// Catalog lists every boost with the user's level and next tier.
func (s *Service) Catalog(ctx context.Context, userID uuid.UUID) ([]BoostView, error) {
	u, err := s.mustGet(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]BoostView, 0, len(boostOrder)+1)
	for _, t := range boostOrder {
		b := boosts[t]
		view := BoostView{Type: t, Level: b.Level(u), Tiers: energy.Tiers(t)}
		if next, err := b.Next(u); err == nil {
			view.Next = &next
		}
		views = append(views, view)
	}

	premium := BoostView{
		Type:      energy.BoostPremiumBot,
		PriceNano: s.settings.PremiumBotPriceNano,
		Currency:  string(ledger.CurrencyTON),
	}
	if u.HavePremiumBot {
		premium.Level = 1
	}
	return append(views, premium), nil
}

// DistributePremiumRewards credits the daily premium bot reward to every
// owner. Owners who bought the bot less than a day ago get a pro-rated
// share. A failure for one owner does not stop the others.
func (s *Service) DistributePremiumRewards(ctx context.Context) (int, error) {
	owners, err := s.users.ListPremiumBotOwners(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now().UTC()
	paid := 0
	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			return paid, err
		}

		reward := energy.PremiumDailyReward(s.settings.DailyPremiumBotReward, owner.PremiumBotAt, now)
		if reward <= 0 {
			continue
		}
		_, err := s.users.Update(ctx, owner.ID, func(u *user.User) error {
			u.CreditPoints(reward, false)
			return nil
		})
		if err != nil {
			log.Error().Err(err).Str("user_id", owner.ID.String()).Msg("Failed to pay premium bot reward")
			continue
		}

		s.record(ctx, ledger.NewEntry(owner.ID, reward, ledger.CurrencyPoint, ledger.TypePremiumBotReward,
			"Daily reward for premium bot", now))
		paid++
	}
	return paid, nil
}

func (s *Service) mustGet(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

// record appends to the ledger without failing the request; the balance
// change is already committed.
// release returns a daily use whose action failed.
func (s *Service) release(ctx context.Context, key string) {
	if err := s.limits.ReleaseDaily(context.WithoutCancel(ctx), key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to release daily allowance")
	}
}

func (s *Service) record(ctx context.Context, e ledger.Entry) {
	if e.Amount == 0 {
		return
	}
	if err := s.ledger.Append(ctx, e); err != nil {
		log.Error().Err(err).
			Str("user_id", e.UserID.String()).
			Str("type", string(e.Type)).
			Int64("amount", e.Amount).
			Msg("Failed to queue ledger entry")
	}
}

func (s *Service) outcome(ctx context.Context, u *user.User, earned int64, msg string) (*Outcome, error) {
	infinityUsed, err := s.limits.DailyCount(ctx, cache.InfinityTapKey(u.TelegramID))
	if err != nil {
		return nil, err
	}
	refillUsed, err := s.limits.DailyCount(ctx, cache.FullEnergyRefillKey(u.TelegramID))
	if err != nil {
		return nil, err
	}
	available := energy.Available(u.Energy(), s.now().UTC(), 0)
	return &Outcome{
		Message: msg,
		Earned:  earned,
		Profile: user.NewProfile(u, available, infinityUsed, refillUsed),
	}, nil
}
