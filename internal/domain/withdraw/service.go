package withdraw

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/okcoin/okcoin-api/internal/domain/user"
	"github.com/okcoin/okcoin-api/internal/pkg/apperr"
)

// UserReader loads users.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// View is a withdraw request as shown to its owner.
type View struct {
	ID        uuid.UUID `json:"id"`
	Address   string    `json:"address"`
	Amount    int64     `json:"amount"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type Service struct {
	repo        Repository
	users       UserReader
	minWithdraw int64
	now         func() time.Time
}

// NewService creates the withdraw service. minWithdraw is nanoton.
func NewService(repo Repository, users UserReader, minWithdraw int64) *Service {
	return &Service{repo: repo, users: users, minWithdraw: minWithdraw, now: time.Now}
}

// Create files a pending withdraw request after checking, in order, the
// amount, the user, the deposit address, the balance, the minimum and any
// pending request.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, amount int64) (*Request, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, user.ErrUserNotFound
	}
	if u.ReceiveAddress == "" {
		return nil, ErrDepositRequired
	}
	if u.TonBalance < amount {
		return nil, ErrInsufficientFunds
	}
	if u.TonBalance < s.minWithdraw {
		return nil, apperr.New(apperr.ErrInsufficientFunds, minimumMessage(s.minWithdraw))
	}

	pending, err := s.repo.HasPending(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrPendingExists
	}

	now := s.now().UTC()
	req := &Request{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    amount,
		Currency:  "TON",
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID.String()).Int64("amount", amount).Msg("Withdraw request submitted")
	return req, nil
}

// List returns the user's requests, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]View, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, user.ErrUserNotFound
	}

	reqs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]View, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, View{
			ID:        r.ID,
			Address:   u.ReceiveAddress,
			Amount:    r.Amount,
			Status:    r.Status,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}
