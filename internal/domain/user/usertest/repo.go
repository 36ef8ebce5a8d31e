// Package usertest provides an in-memory user repository for tests.
package usertest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okcoin/okcoin-api/internal/domain/user"
)

// Repo is a mutex-guarded user.Repository.
type Repo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

var _ user.Repository = (*Repo)(nil)

func NewRepo(users ...*user.User) *Repo {
	r := &Repo{users: make(map[uuid.UUID]*user.User)}
	for _, u := range users {
		cp := *u
		r.users[u.ID] = &cp
	}
	return r
}

// Get returns a copy of the stored user or nil.
func (r *Repo) Get(id uuid.UUID) *user.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

func (r *Repo) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.TelegramID == u.TelegramID {
			return user.ErrTelegramIDExists
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *Repo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	return r.Get(id), nil
}

func (r *Repo) GetByTelegramID(_ context.Context, telegramID int64) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.TelegramID == telegramID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *Repo) Update(_ context.Context, id uuid.UUID, mutate func(u *user.User) error) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	cp := *stored
	if err := mutate(&cp); err != nil {
		return nil, err
	}
	if cp.Balance < 0 || cp.TonBalance < 0 {
		return nil, user.ErrNegativeBalance
	}
	if cp.AvailableTapCount > cp.EnergyLimitValue {
		return nil, user.ErrEnergyAboveLimit
	}
	cp.UpdatedAt = time.Now().UTC()
	r.users[id] = &cp

	out := cp
	return &out, nil
}

func (r *Repo) IncrementRefererCount(_ context.Context, telegramID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.TelegramID == telegramID {
			u.RefererCount++
		}
	}
	return nil
}

func (r *Repo) ListPremiumBotOwners(_ context.Context) ([]user.User, error) {
	return r.filter(func(u *user.User) bool { return u.HavePremiumBot }), nil
}

func (r *Repo) ListReferrals(_ context.Context, telegramID int64, _ int) ([]user.User, error) {
	return r.filter(func(u *user.User) bool { return u.RefererID != nil && *u.RefererID == telegramID }), nil
}

func (r *Repo) ListWithoutReceiveAddress(_ context.Context) ([]user.User, error) {
	return r.filter(func(u *user.User) bool { return u.HavePremiumBot && u.ReceiveAddress == "" }), nil
}

func (r *Repo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *Repo) filter(keep func(u *user.User) bool) []user.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []user.User
	for _, u := range r.users {
		if keep(u) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
