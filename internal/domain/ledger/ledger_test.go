package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okcoin/okcoin-api/internal/pkg/cache"
)

// fakeStore is an in-memory sorted-set log with counters.
type fakeStore struct {
	mu         sync.Mutex
	logs       map[string]map[string]float64
	counters   map[string]int64
	exceptions int
	failAppend bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{logs: map[string]map[string]float64{}, counters: map[string]int64{}}
}

func (s *fakeStore) AppendLog(_ context.Context, key, member string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAppend {
		return errors.New("redis down")
	}
	if s.logs[key] == nil {
		s.logs[key] = map[string]float64{}
	}
	s.logs[key][member] = score
	return nil
}

func (s *fakeStore) IncrBy(_ context.Context, key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key] += delta
	return s.counters[key], nil
}

func (s *fakeStore) LogException(context.Context, string, error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exceptions++
	return nil
}

func (s *fakeStore) RangeLog(_ context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := make([]string, 0, len(s.logs[key]))
	for m := range s.logs[key] {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool {
		a, b := s.logs[key][members[i]], s.logs[key][members[j]]
		if a == b {
			return members[i] < members[j]
		}
		return a < b
	})
	if start >= int64(len(members)) {
		return nil, nil
	}
	if stop >= int64(len(members)) {
		stop = int64(len(members)) - 1
	}
	return members[start : stop+1], nil
}

func (s *fakeStore) RemoveLog(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range members {
		delete(s.logs[key], m)
	}
	return nil
}

func (s *fakeStore) logSize(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs[key])
}

type fakeRepo struct {
	mu         sync.Mutex
	entries    map[uuid.UUID]Entry
	batches    []int
	reverted   map[uuid.UUID]bool
	debits     map[uuid.UUID]int64
	failNext   bool
	failRevert bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		entries:  map[uuid.UUID]Entry{},
		reverted: map[uuid.UUID]bool{},
		debits:   map[uuid.UUID]int64{},
	}
}

func (r *fakeRepo) InsertBatch(_ context.Context, entries []Entry) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext {
		r.failNext = false
		return 0, errors.New("db down")
	}
	r.batches = append(r.batches, len(entries))
	var n int64
	for _, e := range entries {
		if _, ok := r.entries[e.ID]; !ok {
			r.entries[e.ID] = e
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Entry
	for _, e := range r.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListByTypeSince(_ context.Context, typ Type, since time.Time) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Entry
	for _, e := range r.entries {
		if e.Type == typ && !e.CreatedAt.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Revert applies marks and debit together, or nothing when failRevert is set.
func (r *fakeRepo) Revert(_ context.Context, userID uuid.UUID, entries []Entry) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failRevert {
		return nil, errors.New("db down")
	}
	var fresh []Entry
	for _, e := range entries {
		if r.reverted[e.ID] {
			continue
		}
		r.reverted[e.ID] = true
		r.debits[userID] += e.Amount
		fresh = append(fresh, e)
	}
	return fresh, nil
}

func TestAppenderPreservesOrderAndUpdatesAggregates(t *testing.T) {
	store := newFakeStore()
	a := NewAppender(store, 8)
	a.Start()

	user := uuid.New()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	require.NoError(t, a.Append(ctx, Points(user, 10, TypeTapReward, base)))
	require.NoError(t, a.Append(ctx, Points(user, 7, TypeTaskReward, base.Add(time.Second))))
	require.NoError(t, a.Append(ctx, Points(user, -100, TypeUpgrade, base.Add(2*time.Second))))
	require.NoError(t, a.Stop(ctx))

	members, err := store.RangeLog(ctx, cache.KeyTransactions, 0, 99)
	require.NoError(t, err)
	require.Len(t, members, 3)

	var first Entry
	require.NoError(t, json.Unmarshal([]byte(members[0]), &first))
	assert.Equal(t, TypeTapReward, first.Type)

	assert.Equal(t, int64(17), store.counters[cache.KeyTotalSharedBalance])
	assert.Equal(t, int64(10), store.counters[cache.KeyTotalTouch])
}

func TestAppenderRejectsAfterStop(t *testing.T) {
	a := NewAppender(newFakeStore(), 1)
	a.Start()
	require.NoError(t, a.Stop(context.Background()))

	err := a.Append(context.Background(), Points(uuid.New(), 1, TypeTapReward, time.Now()))
	assert.ErrorIs(t, err, ErrAppenderClosed)
}

func TestAppenderBackpressureHonoursContext(t *testing.T) {
	store := newFakeStore()
	a := NewAppender(store, 1)
	// not started: the queue fills after one entry
	require.NoError(t, a.Append(context.Background(), Points(uuid.New(), 1, TypeTapReward, time.Now())))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := a.Append(ctx, Points(uuid.New(), 1, TypeTapReward, time.Now()))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 1, store.exceptions, "a dropped entry must be recorded in the exceptions log")
}

func TestAppenderRecordsExceptionOnStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.failAppend = true
	a := NewAppender(store, 4)
	a.Start()

	require.NoError(t, a.Append(context.Background(), Points(uuid.New(), 1, TypeTapReward, time.Now())))
	require.NoError(t, a.Stop(context.Background()))

	assert.Equal(t, 1, store.exceptions)
	assert.Zero(t, store.counters[cache.KeyTotalTouch])
}

func TestFlushDrainsInBatches(t *testing.T) {
	store := newFakeStore()
	repo := newFakeRepo()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 250; i++ {
		e := Points(uuid.New(), int64(i), TypeTapReward, base.Add(time.Duration(i)*time.Millisecond))
		payload, _ := json.Marshal(e)
		require.NoError(t, store.AppendLog(context.Background(), cache.KeyTransactions, string(payload), float64(e.CreatedAt.UnixMilli())))
	}

	n, err := NewFlusher(store, repo).Flush(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 250, n)
	assert.Equal(t, []int{100, 100, 50}, repo.batches)
	assert.Len(t, repo.entries, 250)
	assert.Zero(t, store.logSize(cache.KeyTransactions))
}

func TestFlushKeepsBatchOnWriteFailure(t *testing.T) {
	store := newFakeStore()
	repo := newFakeRepo()
	repo.failNext = true

	e := Points(uuid.New(), 1, TypeTapReward, time.Now())
	payload, _ := json.Marshal(e)
	require.NoError(t, store.AppendLog(context.Background(), cache.KeyTransactions, string(payload), 1))

	_, err := NewFlusher(store, repo).Flush(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, store.logSize(cache.KeyTransactions))

	n, err := NewFlusher(store, repo).Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFlushDropsUndecodableMembers(t *testing.T) {
	store := newFakeStore()
	repo := newFakeRepo()
	require.NoError(t, store.AppendLog(context.Background(), cache.KeyTransactions, "not-json", 1))

	n, err := NewFlusher(store, repo).Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, repo.entries)
	assert.Zero(t, store.logSize(cache.KeyTransactions))
}

type appendSpy struct {
	mu      sync.Mutex
	entries []Entry
}

func (a *appendSpy) Append(_ context.Context, e Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return nil
}

func TestFixRevertsBurstsOnce(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	user := uuid.New()
	other := uuid.New()

	seed := func(u uuid.UUID, at time.Time, amount int64) Entry {
		e := Points(u, amount, TypeTapBotReward, at)
		repo.entries[e.ID] = e
		return e
	}
	seed(user, now.Add(-3*time.Hour), 1000)
	burst := seed(user, now.Add(-3*time.Hour+5*time.Minute), 400)
	seed(user, now.Add(-1*time.Hour), 900)
	seed(other, now.Add(-2*time.Hour), 100)
	seed(other, now.Add(-2*time.Hour+20*time.Minute), 100)
	// outside the window
	seed(user, now.Add(-14*time.Hour), 50)
	seed(user, now.Add(-14*time.Hour+time.Minute), 50)

	appends := &appendSpy{}
	fixer := NewFixer(repo, appends)
	fixer.now = func() time.Time { return now }

	res, err := fixer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, FixResult{Reverted: 1, Users: 1, Amount: 400}, res)
	assert.Equal(t, int64(400), repo.debits[user])
	require.Len(t, appends.entries, 1)
	assert.Equal(t, TypeVarCheckRevert, appends.entries[0].Type)
	assert.Equal(t, int64(-400), appends.entries[0].Amount)
	assert.Equal(t, burst.CreatedAt, appends.entries[0].CreatedAt)

	res, err = fixer.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Reverted)
	assert.Equal(t, int64(400), repo.debits[user], fmt.Sprintf("second run must not debit again: %v", repo.debits))
}

func TestFixRetriesUserAfterFailedRevert(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	user := uuid.New()

	first := Points(user, 1000, TypeTapBotReward, now.Add(-2*time.Hour))
	second := Points(user, 300, TypeTapBotReward, now.Add(-2*time.Hour+5*time.Minute))
	repo.entries[first.ID] = first
	repo.entries[second.ID] = second

	appends := &appendSpy{}
	fixer := NewFixer(repo, appends)
	fixer.now = func() time.Time { return now }

	repo.failRevert = true
	res, err := fixer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, FixResult{}, res)
	assert.Empty(t, appends.entries, "no revert entry may be logged while the debit is missing")
	assert.Zero(t, repo.debits[user])

	repo.failRevert = false
	res, err = fixer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, FixResult{Reverted: 1, Users: 1, Amount: 300}, res)
	assert.Equal(t, int64(300), repo.debits[user])
	require.Len(t, appends.entries, 1)
	assert.Equal(t, int64(-300), appends.entries[0].Amount)
}
