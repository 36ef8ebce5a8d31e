package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const userColumns = `id, telegram_id, telegram_username, first_name, last_name,
	balance, grand_balance, tap_balance, ton_balance, amount_token,
	available_tap_count, energy_limit_value, recharge_speed_value, multi_tap_value, last_tapped,
	multi_tap_level, energy_limit_level, recharge_speed_level,
	have_tap_bot, have_premium_bot, premium_bot_at, is_receive_airdrop, is_receive_point_reward,
	referer_id, referer_count, receive_address, created_at, updated_at`

// Repository defines user data access interface
type Repository interface {
	Create(ctx context.Context, user *User) error
	// GetByID and GetByTelegramID return nil, nil when the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*User, error)
	// Update loads the user under a row lock, applies mutate and writes the
	// result back in the same transaction. A mutate error aborts the update.
	Update(ctx context.Context, id uuid.UUID, mutate func(u *User) error) (*User, error)
	IncrementRefererCount(ctx context.Context, telegramID int64) error
	ListPremiumBotOwners(ctx context.Context) ([]User, error)
	ListReferrals(ctx context.Context, telegramID int64, limit int) ([]User, error)
	// ListWithoutReceiveAddress returns premium owners whose deposit address is unknown.
	ListWithoutReceiveAddress(ctx context.Context) ([]User, error)
	Count(ctx context.Context) (int64, error)
}

// repository implements Repository
type repository struct {
	db *sqlx.DB
}

// NewRepository creates new user repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Create creates a new user
func (r *repository) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (id, telegram_id, telegram_username, first_name, last_name,
			available_tap_count, energy_limit_value, recharge_speed_value, multi_tap_value, last_tapped,
			multi_tap_level, energy_limit_level, recharge_speed_level, referer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.TelegramID, u.TelegramUsername, u.FirstName, u.LastName,
		u.AvailableTapCount, u.EnergyLimitValue, u.RechargeSpeedValue, u.MultiTapValue, u.LastTapped,
		u.MultiTapLevel, u.EnergyLimitLevel, u.RechargeSpeedLevel, u.RefererID, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrTelegramIDExists
		}
		return fmt.Errorf("user repository create: %w", err)
	}
	return nil
}

// GetByID returns user by ID
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByTelegramID returns user by telegram id
func (r *repository) GetByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID)
}

func (r *repository) getOne(ctx context.Context, query string, arg interface{}) (*User, error) {
	var u User
	if err := r.db.GetContext(ctx, &u, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, mutate func(u *User) error) (*User, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var u User
	if err := tx.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := mutate(&u); err != nil {
		return nil, err
	}
	if err := checkInvariants(&u); err != nil {
		return nil, err
	}
	u.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
		UPDATE users SET
			telegram_username = $2, first_name = $3, last_name = $4,
			balance = $5, grand_balance = $6, tap_balance = $7, ton_balance = $8, amount_token = $9,
			available_tap_count = $10, energy_limit_value = $11, recharge_speed_value = $12, multi_tap_value = $13,
			last_tapped = $14, multi_tap_level = $15, energy_limit_level = $16, recharge_speed_level = $17,
			have_tap_bot = $18, have_premium_bot = $19, premium_bot_at = $20,
			is_receive_airdrop = $21, is_receive_point_reward = $22,
			referer_count = $23, receive_address = $24, updated_at = $25
		WHERE id = $1
	`,
		u.ID, u.TelegramUsername, u.FirstName, u.LastName,
		u.Balance, u.GrandBalance, u.TapBalance, u.TonBalance, u.AmountToken,
		u.AvailableTapCount, u.EnergyLimitValue, u.RechargeSpeedValue, u.MultiTapValue,
		u.LastTapped, u.MultiTapLevel, u.EnergyLimitLevel, u.RechargeSpeedLevel,
		u.HaveTapBot, u.HavePremiumBot, u.PremiumBotAt,
		u.IsReceiveAirdrop, u.IsReceivePointReward,
		u.RefererCount, u.ReceiveAddress, u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("user repository update: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &u, nil
}

func checkInvariants(u *User) error {
	if u.Balance < 0 || u.TonBalance < 0 {
		return ErrNegativeBalance
	}
	if u.AvailableTapCount > u.EnergyLimitValue {
		return ErrEnergyAboveLimit
	}
	return nil
}

func (r *repository) IncrementRefererCount(ctx context.Context, telegramID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET referer_count = referer_count + 1, updated_at = NOW() WHERE telegram_id = $1`,
		telegramID)
	return err
}

func (r *repository) ListPremiumBotOwners(ctx context.Context) ([]User, error) {
	var users []User
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE have_premium_bot = true ORDER BY created_at`)
	return users, err
}

func (r *repository) ListReferrals(ctx context.Context, telegramID int64, limit int) ([]User, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	var users []User
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE referer_id = $1 ORDER BY created_at DESC LIMIT $2`,
		telegramID, limit)
	return users, err
}

func (r *repository) ListWithoutReceiveAddress(ctx context.Context) ([]User, error) {
	var users []User
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE have_premium_bot = true AND receive_address = ''`)
	return users, err
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}
