// Package cache is the low-latency store for counters, per-day action limits,
// presence and the pending ledger log.
package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Well-known keys.
const (
	KeyTotalUsers         = "TotalUsers"
	KeyTotalSharedBalance = "TotalSharedBalance"
	KeyTotalTouch         = "TotalTouch"
	KeyOnlineUsers        = "online_users"
	KeyTransactions       = "transactions"
	KeyExceptions         = "exceptions"
	KeyChainCursor        = "TONLastBlockTime"
)

// InfinityTapKey is the per-day infinity tap counter of a telegram user.
func InfinityTapKey(telegramID int64) string {
	return strconv.FormatInt(telegramID, 10) + "-ait"
}

// FullEnergyRefillKey is the per-day energy refill counter of a telegram user.
func FullEnergyRefillKey(telegramID int64) string {
	return strconv.FormatInt(telegramID, 10) + "-afer"
}

// UntilNextUTCMidnight returns the time left in the UTC day of now.
func UntilNextUTCMidnight(now time.Time) time.Duration {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	return midnight.Sub(now)
}

// Store wraps a redis client.
type Store struct {
	rdb *redis.Client
	now func() time.Time
}

// NewStore creates a store over an existing client.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, now: time.Now}
}

// IncrBy atomically adds delta to a counter.
func (s *Store) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	return s.rdb.IncrBy(ctx, key, delta).Result()
}

// GetInt reads a counter. The boolean is false when the key does not exist.
func (s *Store) GetInt(ctx context.Context, key string) (int64, bool, error) {
	v, err := s.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// SetIntIfAbsent seeds a counter without overwriting concurrent increments.
func (s *Store) SetIntIfAbsent(ctx context.Context, key string, value int64) error {
	return s.rdb.SetNX(ctx, key, value, 0).Err()
}

// TakeDaily consumes one use of a per-day allowance. The counter expires at
// the next UTC midnight. When limit is already reached the increment is
// rolled back and ok is false.
func (s *Store) TakeDaily(ctx context.Context, key string, limit int64) (used int64, ok bool, err error) {
	ttl := UntilNextUTCMidnight(s.now())

	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, false, err
	}

	used = incr.Val()
	if used > limit {
		if err := s.rdb.Decr(ctx, key).Err(); err != nil {
			return limit, false, err
		}
		return limit, false, nil
	}
	return used, true, nil
}

// ReleaseDaily gives back one use taken by TakeDaily when the action it
// guarded did not happen.
func (s *Store) ReleaseDaily(ctx context.Context, key string) error {
	v, err := s.rdb.Decr(ctx, key).Result()
	if err != nil {
		return err
	}
	if v < 0 {
		return s.rdb.Del(ctx, key).Err()
	}
	return nil
}

// DailyCount returns how many uses of a per-day allowance were consumed.
func (s *Store) DailyCount(ctx context.Context, key string) (int64, error) {
	v, _, err := s.GetInt(ctx, key)
	return v, err
}

// AppendLog adds member to a sorted-set log scored by score.
func (s *Store) AppendLog(ctx context.Context, key, member string, score float64) error {
	return s.rdb.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err()
}

// RangeLog returns members by rank, lowest score first.
func (s *Store) RangeLog(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return s.rdb.ZRange(ctx, key, start, stop).Result()
}

// RemoveLog deletes members from a sorted-set log.
func (s *Store) RemoveLog(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return s.rdb.ZRem(ctx, key, args...).Err()
}

// LogException records an error message in the exceptions log.
func (s *Store) LogException(ctx context.Context, op string, err error) error {
	member := op + ":" + err.Error() + ":" + strconv.FormatInt(s.now().UnixNano(), 10)
	return s.AppendLog(ctx, KeyExceptions, member, float64(s.now().Unix()))
}

// MarkOnline records activity of a user at the current time.
func (s *Store) MarkOnline(ctx context.Context, userID string) error {
	return s.AppendLog(ctx, KeyOnlineUsers, userID, float64(s.now().Unix()))
}

// CountActiveSince counts users seen within the trailing window.
func (s *Store) CountActiveSince(ctx context.Context, window time.Duration) (int64, error) {
	now := s.now()
	min := strconv.FormatInt(now.Add(-window).Unix(), 10)
	max := strconv.FormatInt(now.Unix(), 10)
	return s.rdb.ZCount(ctx, KeyOnlineUsers, min, max).Result()
}

// GetString reads a plain string value, returning "" when absent.
func (s *Store) GetString(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

// SetString writes a plain string value without expiry.
func (s *Store) SetString(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, key, value, 0).Err()
}
