package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// FixWindow is how far back the bot reward scan looks.
	FixWindow = 13 * time.Hour
	// FixMinGap is the smallest legitimate spacing of two bot rewards.
	FixMinGap = 600 * time.Second
)

// EntryAppender enqueues a ledger entry.
type EntryAppender interface {
	Append(ctx context.Context, e Entry) error
}

// FixResult summarises one correction run.
type FixResult struct {
	Reverted int
	Users    int
	Amount   int64
}

// Fixer reverts tap bot rewards that were credited twice in quick succession.
type Fixer struct {
	repo     Repository
	appender EntryAppender
	now      func() time.Time
}

func NewFixer(repo Repository, appender EntryAppender) *Fixer {
	return &Fixer{repo: repo, appender: appender, now: time.Now}
}

// Run scans recent bot rewards and, per user, reverts every entry that
// follows the previous one by FixMinGap or less. Entries already reverted
// by an earlier run are skipped. A user whose revert fails is left untouched
// and picked up again by the next run.
func (f *Fixer) Run(ctx context.Context) (FixResult, error) {
	var result FixResult

	entries, err := f.repo.ListByTypeSince(ctx, TypeTapBotReward, f.now().Add(-FixWindow))
	if err != nil {
		return result, err
	}

	for userID, list := range groupByUser(entries) {
		bursts := burstEntries(list)
		if len(bursts) == 0 {
			continue
		}

		reverted, err := f.repo.Revert(ctx, userID, bursts)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID.String()).Int("entries", len(bursts)).Msg("Failed to revert bot rewards")
			continue
		}
		if len(reverted) == 0 {
			continue
		}

		for _, e := range reverted {
			revert := NewEntry(userID, -e.Amount, CurrencyPoint, TypeVarCheckRevert, "revert "+e.ID.String(), e.CreatedAt)
			if err := f.appender.Append(ctx, revert); err != nil {
				log.Error().Err(err).Str("entry_id", e.ID.String()).Msg("Failed to log bot reward revert")
			}
			result.Amount += e.Amount
			result.Reverted++
		}
		result.Users++
	}

	return result, nil
}

func groupByUser(entries []Entry) map[uuid.UUID][]Entry {
	out := make(map[uuid.UUID][]Entry)
	for _, e := range entries {
		out[e.UserID] = append(out[e.UserID], e)
	}
	return out
}

// burstEntries returns the entries of one user that came too soon after the
// previous one.
func burstEntries(list []Entry) []Entry {
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })

	var out []Entry
	for i := 1; i < len(list); i++ {
		if list[i].CreatedAt.Sub(list[i-1].CreatedAt) <= FixMinGap {
			out = append(out, list[i])
		}
	}
	return out
}
