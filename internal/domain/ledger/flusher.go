package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/okcoin/okcoin-api/internal/pkg/cache"
	"github.com/okcoin/okcoin-api/internal/pkg/metrics"
)

// FlushBatchSize is how many pending entries are persisted per round trip.
const FlushBatchSize = 100

// PendingLog is the readable side of the pending ledger log.
type PendingLog interface {
	RangeLog(ctx context.Context, key string, start, stop int64) ([]string, error)
	RemoveLog(ctx context.Context, key string, members ...string) error
}

// Flusher moves entries from the pending log into durable storage.
type Flusher struct {
	log  PendingLog
	repo Repository
}

func NewFlusher(pending PendingLog, repo Repository) *Flusher {
	return &Flusher{log: pending, repo: repo}
}

// Flush drains the pending log in batches until it is empty. A batch is
// removed from the log only after it was written, so a failed write leaves
// it in place for the next run. It returns the number of entries drained.
func (f *Flusher) Flush(ctx context.Context) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		members, err := f.log.RangeLog(ctx, cache.KeyTransactions, 0, FlushBatchSize-1)
		if err != nil {
			return total, fmt.Errorf("read pending ledger: %w", err)
		}
		if len(members) == 0 {
			return total, nil
		}

		entries := make([]Entry, 0, len(members))
		for _, m := range members {
			var e Entry
			if err := json.Unmarshal([]byte(m), &e); err != nil {
				log.Error().Err(err).Str("member", m).Msg("Dropping undecodable pending ledger entry")
				continue
			}
			entries = append(entries, e)
		}

		if _, err := f.repo.InsertBatch(ctx, entries); err != nil {
			return total, fmt.Errorf("persist pending ledger: %w", err)
		}
		if err := f.log.RemoveLog(ctx, cache.KeyTransactions, members...); err != nil {
			return total, fmt.Errorf("trim pending ledger: %w", err)
		}

		total += len(members)
		metrics.RecordLedgerFlush(len(entries))
	}
}
