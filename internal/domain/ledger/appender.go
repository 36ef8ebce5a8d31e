package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/okcoin/okcoin-api/internal/pkg/cache"
	"github.com/okcoin/okcoin-api/internal/pkg/metrics"
)

// LogStore is the part of the cache store the ledger writes to.
type LogStore interface {
	AppendLog(ctx context.Context, key, member string, score float64) error
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)
	LogException(ctx context.Context, op string, err error) error
}

// Appender queues entries and writes them to the pending log from a single
// goroutine, so entries land in the order Append was called.
type Appender struct {
	store LogStore
	queue chan Entry

	mu     sync.RWMutex
	closed bool

	startOnce sync.Once
	done      chan struct{}
}

// NewAppender creates an appender with a bounded queue.
func NewAppender(store LogStore, size int) *Appender {
	if size <= 0 {
		size = 1024
	}
	return &Appender{
		store: store,
		queue: make(chan Entry, size),
		done:  make(chan struct{}),
	}
}

// Start launches the drain goroutine.
func (a *Appender) Start() {
	a.startOnce.Do(func() {
		go a.drain()
	})
}

// Append enqueues an entry. It blocks while the queue is full and gives up
// when ctx is done.
func (a *Appender) Append(ctx context.Context, e Entry) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrAppenderClosed
	}

	select {
	case a.queue <- e:
		metrics.SetLedgerQueueDepth(len(a.queue))
		return nil
	case <-ctx.Done():
		a.dropped(e, ctx.Err())
		return ctx.Err()
	}
}

// dropped leaves a trace of an entry whose balance change is already
// committed but which will never reach the pending log or the aggregates.
func (a *Appender) dropped(e Entry, cause error) {
	metrics.RecordLedgerDropped(string(e.Type))
	log.Error().Err(cause).
		Str("entry_id", e.ID.String()).
		Str("user_id", e.UserID.String()).
		Str("type", string(e.Type)).
		Int64("amount", e.Amount).
		Msg("Ledger queue full, entry dropped")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := fmt.Errorf("dropped %s entry %s of user %s amount %d: %w", e.Type, e.ID, e.UserID, e.Amount, cause)
	if lerr := a.store.LogException(ctx, "ledger.drop", err); lerr != nil {
		log.Warn().Err(lerr).Msg("Failed to record exception")
	}
}

// Stop rejects new entries and waits until the queue is drained or ctx ends.
func (a *Appender) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	a.Start()
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Appender) drain() {
	defer close(a.done)
	for e := range a.queue {
		metrics.SetLedgerQueueDepth(len(a.queue))
		a.write(e)
	}
}

func (a *Appender) write(e Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.persist(ctx, e); err != nil {
		log.Error().Err(err).
			Str("entry_id", e.ID.String()).
			Str("user_id", e.UserID.String()).
			Str("type", string(e.Type)).
			Msg("Failed to append ledger entry")
		if lerr := a.store.LogException(ctx, "ledger.append", err); lerr != nil {
			log.Warn().Err(lerr).Msg("Failed to record exception")
		}
		return
	}
	metrics.RecordLedgerAppend(string(e.Type))
}

func (a *Appender) persist(ctx context.Context, e Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := a.store.AppendLog(ctx, cache.KeyTransactions, string(payload), float64(e.CreatedAt.UnixMilli())); err != nil {
		return err
	}

	rule, ok := aggregateRules[e.Type]
	if !ok || e.Amount == 0 {
		return nil
	}
	if rule.shared {
		if _, err := a.store.IncrBy(ctx, cache.KeyTotalSharedBalance, e.Amount); err != nil {
			return err
		}
	}
	if rule.touch {
		if _, err := a.store.IncrBy(ctx, cache.KeyTotalTouch, e.Amount); err != nil {
			return err
		}
	}
	return nil
}
