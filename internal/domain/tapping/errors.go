package tapping

import (
	"errors"

	"github.com/okcoin/okcoin-api/internal/pkg/apperr"
)

var (
	ErrUpgradeNotFound    = apperr.New(apperr.ErrNotFound, "Upgrade item is not found")
	ErrInvalidBoost       = apperr.New(apperr.ErrInvalidInput, "Upgrade item is invalid")
	ErrTapBotActive       = apperr.New(apperr.ErrConflict, "Tap bot is already active")
	ErrTapBotInactive     = apperr.New(apperr.ErrInvalidInput, "Tap bot is not active")
	ErrInfinityTapLimit   = apperr.New(apperr.ErrConflict, "You have reached the maximum limit of infinity tap.")
	ErrEnergyRefillLimit  = apperr.New(apperr.ErrConflict, "You have reached the maximum limit of full energy refill.")
	ErrInsufficientPoints = apperr.New(apperr.ErrInsufficientFunds, "Balance is not enough")
	ErrInvalidTapCount    = apperr.New(apperr.ErrInvalidInput, "Tap count must not be negative")

	errNotStarted = errors.New("tap bot warm-up not finished")
)
