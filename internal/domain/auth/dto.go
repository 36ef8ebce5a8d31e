package auth

import "github.com/google/uuid"

// TelegramLoginRequest is the body of POST /auth/telegram. RefererID is the
// inviter's telegram id.
type TelegramLoginRequest struct {
	InitData  string `json:"initData" validate:"required"`
	RefererID *int64 `json:"refererId" validate:"omitempty,gt=0"`
}

// AuthResponse carries the issued access token.
type AuthResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresIn   int64        `json:"expiresIn"`
	User        UserResponse `json:"user"`
	IsNew       bool         `json:"isNew"`
}

type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	TelegramID int64     `json:"telegramId"`
	Username   string    `json:"username"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	RefererID  *int64    `json:"refererId"`
}
