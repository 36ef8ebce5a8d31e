package chain

import (
	"context"
	"strconv"
	"time"
)

// StatusWindow is how far back a status check looks without a timestamp.
const StatusWindow = 20 * time.Minute

// StatusService answers whether a user's recent transfer went through.
type StatusService struct {
	repo Repository
	now  func() time.Time
}

func NewStatusService(repo Repository) *StatusService {
	return &StatusService{repo: repo, now: time.Now}
}

// Check finds the first transfer tagged with telegramID since timestampMs
// (unix milliseconds), or in the last StatusWindow when it is empty.
func (s *StatusService) Check(ctx context.Context, telegramID int64, timestampMs string) (*Transaction, error) {
	since := s.now().UTC().Add(-StatusWindow)
	if timestampMs != "" {
		ms, err := strconv.ParseInt(timestampMs, 10, 64)
		if err != nil {
			return nil, ErrInvalidTimestamp
		}
		since = time.UnixMilli(ms).UTC()
	}

	tx, err := s.repo.FirstByBodySince(ctx, strconv.FormatInt(telegramID, 10), since)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, ErrTransactionNotFound
	}
	return tx, nil
}
