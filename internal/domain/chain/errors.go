package chain

import "github.com/okcoin/okcoin-api/internal/pkg/apperr"

var (
	ErrTransactionNotFound = apperr.New(apperr.ErrNotFound, "Transaction not found")
	ErrInvalidTimestamp    = apperr.New(apperr.ErrInvalidInput, "Invalid timestamp")
)
