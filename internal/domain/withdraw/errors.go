package withdraw

import "github.com/okcoin/okcoin-api/internal/pkg/apperr"

var (
	ErrInvalidAmount     = apperr.New(apperr.ErrInvalidInput, "Invalid request data")
	ErrDepositRequired   = apperr.New(apperr.ErrInvalidInput, "You need make a deposit (for example buying AI bot) before making a withdrawal request.")
	ErrInsufficientFunds = apperr.New(apperr.ErrInsufficientFunds, "Insufficient balance")
	ErrPendingExists     = apperr.New(apperr.ErrConflict, "You had a pending withdrawal request. Please wait for it to be completed to make another request.")
	ErrRequestNotFound   = apperr.New(apperr.ErrNotFound, "Withdraw request not found")
)
