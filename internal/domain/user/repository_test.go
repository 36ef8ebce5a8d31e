package user

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func columnNames() []string {
	parts := strings.Split(userColumns, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

func userRow(u *User) *sqlmock.Rows {
	var premiumAt, refererID interface{}
	if u.PremiumBotAt != nil {
		premiumAt = *u.PremiumBotAt
	}
	if u.RefererID != nil {
		refererID = *u.RefererID
	}
	return sqlmock.NewRows(columnNames()).AddRow(
		u.ID.String(), u.TelegramID, u.TelegramUsername, u.FirstName, u.LastName,
		u.Balance, u.GrandBalance, u.TapBalance, u.TonBalance, u.AmountToken,
		u.AvailableTapCount, u.EnergyLimitValue, u.RechargeSpeedValue, u.MultiTapValue, u.LastTapped,
		u.MultiTapLevel, u.EnergyLimitLevel, u.RechargeSpeedLevel,
		u.HaveTapBot, u.HavePremiumBot, premiumAt, u.IsReceiveAirdrop, u.IsReceivePointReward,
		refererID, u.RefererCount, u.ReceiveAddress, u.CreatedAt, u.UpdatedAt,
	)
}

func TestGetByTelegramIDReturnsNilWhenMissing(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("FROM users WHERE telegram_id = \\$1").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(columnNames()))

	u, err := repo.GetByTelegramID(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u != nil {
		t.Fatalf("expected nil user, got %+v", u)
	}
}

func TestCreateMapsUniqueViolation(t *testing.T) {
	repo, mock := newMockRepo(t)
	u := New(42, "alice", "Alice", "", time.Now().UTC())
	mock.ExpectExec("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), u)
	if !errors.Is(err, ErrTelegramIDExists) {
		t.Fatalf("expected ErrTelegramIDExists, got %v", err)
	}
}

func TestUpdateLocksRowAndWritesMutation(t *testing.T) {
	repo, mock := newMockRepo(t)
	u := New(42, "alice", "Alice", "", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1 FOR UPDATE")).
		WithArgs(u.ID).
		WillReturnRows(userRow(u))
	mock.ExpectExec("UPDATE users SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := repo.Update(context.Background(), u.ID, func(x *User) error {
		x.CreditPoints(5, true)
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Balance != 5 || got.TapBalance != 5 || got.GrandBalance != 5 {
		t.Fatalf("unexpected balances: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateRollsBackOnMutateError(t *testing.T) {
	repo, mock := newMockRepo(t)
	u := New(42, "alice", "Alice", "", time.Now().UTC())
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(userRow(u))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), u.ID, func(*User) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected mutate error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateRejectsNegativeBalance(t *testing.T) {
	repo, mock := newMockRepo(t)
	u := New(42, "alice", "Alice", "", time.Now().UTC())

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(userRow(u))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), u.ID, func(x *User) error {
		x.Balance -= 1
		return nil
	})
	if !errors.Is(err, ErrNegativeBalance) {
		t.Fatalf("expected ErrNegativeBalance, got %v", err)
	}
}

func TestUpdateMissingUser(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(id).WillReturnRows(sqlmock.NewRows(columnNames()))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), id, func(*User) error { return nil })
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
