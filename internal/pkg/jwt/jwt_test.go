package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewService("secret", time.Hour)
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, 777, "neo")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != userID || claims.TelegramID != 777 {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestValidateRejectsForeignSecretAndExpiry(t *testing.T) {
	token, err := NewService("other", time.Hour).GenerateAccessToken(uuid.New(), 1, "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewService("secret", time.Hour).ValidateAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	expired, err := NewService("secret", -time.Minute).GenerateAccessToken(uuid.New(), 1, "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewService("secret", time.Hour).ValidateAccessToken(expired); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}
