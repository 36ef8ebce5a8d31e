package auth

import (
	"errors"

	"github.com/okcoin/okcoin-api/internal/pkg/apperr"
)

var (
	// ErrInvalidInitData means the Telegram launch payload failed verification.
	ErrInvalidInitData = errors.New("invalid telegram init data")
	ErrInvalidReferrer = apperr.New(apperr.ErrInvalidInput, "Invalid referrer")
)
