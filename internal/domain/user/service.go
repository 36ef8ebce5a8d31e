package user

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/okcoin/okcoin-api/internal/domain/energy"
	"github.com/okcoin/okcoin-api/internal/pkg/cache"
)

// DailyCounter reads per-day action counters.
type DailyCounter interface {
	DailyCount(ctx context.Context, key string) (int64, error)
}

// Service handles player profile reads
type Service struct {
	repo     Repository
	counters DailyCounter
	now      func() time.Time
}

// NewService creates user service
func NewService(repo Repository, counters DailyCounter) *Service {
	return &Service{repo: repo, counters: counters, now: time.Now}
}

// Profile returns the player with energy materialized at the current time.
func (s *Service) Profile(ctx context.Context, id uuid.UUID) (*ProfileResponse, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	infinityUsed, err := s.counters.DailyCount(ctx, cache.InfinityTapKey(u.TelegramID))
	if err != nil {
		return nil, err
	}
	refillUsed, err := s.counters.DailyCount(ctx, cache.FullEnergyRefillKey(u.TelegramID))
	if err != nil {
		return nil, err
	}

	available := energy.Available(u.Energy(), s.now().UTC(), 0)
	return NewProfile(u, available, infinityUsed, refillUsed), nil
}

// Referrals lists players invited by the given user.
func (s *Service) Referrals(ctx context.Context, id uuid.UUID, limit int) ([]ReferralResponse, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	refs, err := s.repo.ListReferrals(ctx, u.TelegramID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]ReferralResponse, 0, len(refs))
	for _, r := range refs {
		out = append(out, ReferralResponse{
			TelegramID:       r.TelegramID,
			TelegramUsername: r.TelegramUsername,
			FirstName:        r.FirstName,
			Balance:          r.Balance,
			HavePremiumBot:   r.HavePremiumBot,
			CreatedAt:        r.CreatedAt,
		})
	}
	return out, nil
}
