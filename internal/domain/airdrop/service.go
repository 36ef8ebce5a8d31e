package airdrop

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/okcoin/okcoin-api/internal/domain/ledger"
	"github.com/okcoin/okcoin-api/internal/domain/user"
)

// EntryAppender enqueues ledger entries.
type EntryAppender interface {
	Append(ctx context.Context, e ledger.Entry) error
}

// Settings configure the allocation tables.
type Settings struct {
	TokensPerYear int64
	Brackets      []Bracket
}

// Service hands out the one-time airdrop allocation and bonus points based
// on how old the caller's telegram account is.
type Service struct {
	users    user.Repository
	ledger   EntryAppender
	settings Settings
	now      func() time.Time
}

func NewService(users user.Repository, appender EntryAppender, settings Settings) *Service {
	if len(settings.Brackets) == 0 {
		settings.Brackets = DefaultBrackets
	}
	return &Service{users: users, ledger: appender, settings: settings, now: time.Now}
}

// allocation is the account age in whole years and the tokens it earns.
type allocation struct {
	years   int
	airdrop int64
	points  int64
}

func (s *Service) allocate(telegramID int64) allocation {
	current := s.now().UTC().Year()
	b, ok := bracketFor(s.settings.Brackets, telegramID)
	if !ok || b.Year > current {
		return allocation{}
	}
	years := current - b.Year
	return allocation{
		years:   years,
		airdrop: int64(years) * s.settings.TokensPerYear,
		points:  b.Points,
	}
}

// Get returns the caller's allocation and whether it was already taken.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, user.ErrUserNotFound
	}

	a := s.allocate(u.TelegramID)
	return &View{
		Year:                  a.years,
		Airdrop:               a.airdrop,
		IsReceived:            u.IsReceiveAirdrop,
		AmountToken:           u.AmountToken,
		PointReward:           a.points,
		IsPointRewardReceived: u.IsReceivePointReward,
	}, nil
}

// ConfirmAirdrop stores the airdrop allocation on the user. It can happen
// only once.
func (s *Service) ConfirmAirdrop(ctx context.Context, userID uuid.UUID) (int64, error) {
	var amount int64
	_, err := s.users.Update(ctx, userID, func(u *user.User) error {
		if u.IsReceiveAirdrop {
			return ErrAirdropReceived
		}
		amount = s.allocate(u.TelegramID).airdrop
		u.IsReceiveAirdrop = true
		u.AmountToken = amount
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Info().Str("user_id", userID.String()).Int64("amount_token", amount).Msg("Airdrop confirmed")
	return amount, nil
}

// ClaimPointReward credits the account age bonus once.
func (s *Service) ClaimPointReward(ctx context.Context, userID uuid.UUID) (int64, error) {
	now := s.now().UTC()

	var points int64
	_, err := s.users.Update(ctx, userID, func(u *user.User) error {
		if u.IsReceivePointReward {
			return ErrPointRewardReceived
		}
		points = s.allocate(u.TelegramID).points
		u.IsReceivePointReward = true
		u.CreditPoints(points, false)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if points > 0 {
		entry := ledger.Points(userID, points, ledger.TypeTaskReward, now)
		entry.Description = "Bonus points for telegram account age"
		if err := s.ledger.Append(ctx, entry); err != nil {
			log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to queue point reward entry")
		}
	}
	return points, nil
}
