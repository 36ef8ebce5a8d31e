package stats

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/okcoin/okcoin-api/internal/pkg/cache"
)

const (
	OnlineWindow = 10 * time.Minute
	DailyWindow  = 24 * time.Hour
)

// Counters is the cache view the statistics are read from.
type Counters interface {
	GetInt(ctx context.Context, key string) (int64, bool, error)
	SetIntIfAbsent(ctx context.Context, key string, value int64) error
	CountActiveSince(ctx context.Context, window time.Duration) (int64, error)
}

// UserCounter counts stored users.
type UserCounter interface {
	Count(ctx context.Context) (int64, error)
}

// Snapshot is the public game statistics payload.
type Snapshot struct {
	TotalUsers         int64 `json:"totalUsers"`
	TotalSharedBalance int64 `json:"totalSharedBalance"`
	TotalTouch         int64 `json:"totalTouch"`
	DailyUsers         int64 `json:"dailyUsers"`
	OnlineUsers        int64 `json:"onlineUsers"`
}

type Service struct {
	counters Counters
	users    UserCounter
}

func NewService(counters Counters, users UserCounter) *Service {
	return &Service{counters: counters, users: users}
}

// Snapshot reads the aggregate counters. A missing user total is seeded from
// the database.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	total, err := s.totalUsers(ctx)
	if err != nil {
		return nil, err
	}

	shared, _, err := s.counters.GetInt(ctx, cache.KeyTotalSharedBalance)
	if err != nil {
		return nil, err
	}
	touch, _, err := s.counters.GetInt(ctx, cache.KeyTotalTouch)
	if err != nil {
		return nil, err
	}
	daily, err := s.counters.CountActiveSince(ctx, DailyWindow)
	if err != nil {
		return nil, err
	}
	online, err := s.counters.CountActiveSince(ctx, OnlineWindow)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		TotalUsers:         total,
		TotalSharedBalance: shared,
		TotalTouch:         touch,
		DailyUsers:         daily,
		OnlineUsers:        online,
	}, nil
}

func (s *Service) totalUsers(ctx context.Context) (int64, error) {
	total, ok, err := s.counters.GetInt(ctx, cache.KeyTotalUsers)
	if err != nil {
		return 0, err
	}
	if ok {
		return total, nil
	}

	total, err = s.users.Count(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.counters.SetIntIfAbsent(ctx, cache.KeyTotalUsers, total); err != nil {
		log.Warn().Err(err).Msg("Failed to seed total users counter")
	}
	return total, nil
}
