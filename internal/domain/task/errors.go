package task

import "github.com/okcoin/okcoin-api/internal/pkg/apperr"

var (
	ErrTaskNotFound       = apperr.New(apperr.ErrNotFound, "Task not found.")
	ErrAlreadyCompleted   = apperr.New(apperr.ErrConflict, "Task already completed.")
	ErrIncorrectCode      = apperr.New(apperr.ErrInvalidInput, "Code is incorrect.")
	ErrClaimInvalid       = apperr.New(apperr.ErrInvalidInput, "Claim is invalid.")
	ErrNotEnoughReferrals = apperr.New(apperr.ErrInvalidInput, "Referrals is not enough.")
)
