package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/okcoin/okcoin-api/internal/domain/user"
	"github.com/okcoin/okcoin-api/internal/pkg/cache"
	"github.com/okcoin/okcoin-api/internal/pkg/jwt"
	"github.com/okcoin/okcoin-api/internal/pkg/telegram"
)

// Counter bumps cache counters.
type Counter interface {
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)
}

// Service signs players in with Telegram init data.
type Service struct {
	users      user.Repository
	jwtService *jwt.Service
	counters   Counter
	botToken   string
	maxAge     time.Duration
	now        func() time.Time
}

func NewService(users user.Repository, jwtService *jwt.Service, counters Counter, botToken string, maxAge time.Duration) *Service {
	return &Service{
		users:      users,
		jwtService: jwtService,
		counters:   counters,
		botToken:   botToken,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// TelegramLogin verifies the launch payload, registers unknown players and
// issues an access token.
func (s *Service) TelegramLogin(ctx context.Context, req *TelegramLoginRequest) (*AuthResponse, error) {
	now := s.now().UTC()
	data, err := telegram.Verify(req.InitData, s.botToken, s.maxAge, now)
	if err != nil {
		log.Debug().Err(err).Msg("Telegram init data rejected")
		return nil, ErrInvalidInitData
	}
	tg := data.User

	u, err := s.users.GetByTelegramID(ctx, tg.ID)
	if err != nil {
		return nil, err
	}

	isNew := u == nil
	if isNew {
		u, err = s.register(ctx, tg, s.referrerOf(req, data), now)
		if err != nil {
			return nil, err
		}
	} else if u.TelegramUsername != tg.Username || u.FirstName != tg.FirstName || u.LastName != tg.LastName {
		u, err = s.users.Update(ctx, u.ID, func(u *user.User) error {
			u.TelegramUsername = tg.Username
			u.FirstName = tg.FirstName
			u.LastName = tg.LastName
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	token, err := s.jwtService.GenerateAccessToken(u.ID, u.TelegramID, u.TelegramUsername)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwtService.GetAccessTTL().Seconds()),
		IsNew:       isNew,
		User: UserResponse{
			ID:         u.ID,
			TelegramID: u.TelegramID,
			Username:   u.TelegramUsername,
			FirstName:  u.FirstName,
			LastName:   u.LastName,
			RefererID:  u.RefererID,
		},
	}, nil
}

// referrerOf prefers the explicit body field over the mini app start parameter.
func (s *Service) referrerOf(req *TelegramLoginRequest, data *telegram.InitData) int64 {
	if req.RefererID != nil {
		return *req.RefererID
	}
	if data.StartParam != "" {
		if id, err := strconv.ParseInt(data.StartParam, 10, 64); err == nil {
			return id
		}
	}
	return 0
}

func (s *Service) register(ctx context.Context, tg telegram.User, referrerID int64, now time.Time) (*user.User, error) {
	u := user.New(tg.ID, tg.Username, tg.FirstName, tg.LastName, now)

	if referrerID > 0 && referrerID != tg.ID {
		referrer, err := s.users.GetByTelegramID(ctx, referrerID)
		if err != nil {
			return nil, err
		}
		if referrer != nil {
			u.RefererID = &referrerID
		} else {
			log.Warn().Int64("telegram_id", tg.ID).Int64("referer_id", referrerID).Msg("Ignoring unknown referrer")
		}
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrTelegramIDExists) {
			// concurrent first login
			existing, gerr := s.users.GetByTelegramID(ctx, tg.ID)
			if gerr != nil {
				return nil, gerr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	if u.RefererID != nil {
		if err := s.users.IncrementRefererCount(ctx, *u.RefererID); err != nil {
			log.Error().Err(err).Int64("referer_id", *u.RefererID).Msg("Failed to increment referrer count")
		}
	}
	if _, err := s.counters.IncrBy(ctx, cache.KeyTotalUsers, 1); err != nil {
		log.Warn().Err(err).Msg("Failed to increment total users")
	}

	log.Info().Str("user_id", u.ID.String()).Int64("telegram_id", u.TelegramID).Msg("User registered")
	return u, nil
}
