package user

import "github.com/okcoin/okcoin-api/internal/pkg/apperr"

var (
	ErrUserNotFound       = apperr.New(apperr.ErrNotFound, "User is not found")
	ErrTelegramIDExists   = apperr.New(apperr.ErrConflict, "User already exists")
	ErrNegativeBalance    = apperr.New(apperr.ErrInsufficientFunds, "Balance is not enough")
	ErrEnergyAboveLimit   = apperr.New(apperr.ErrInvalidInput, "Energy exceeds the energy limit")
	ErrInvalidReferrerRef = apperr.New(apperr.ErrInvalidInput, "Invalid referrer")
)
