package ledger

import "errors"

var (
	ErrAppenderClosed    = errors.New("ledger appender is closed")
	ErrRevertUserMissing = errors.New("ledger revert: user not found")
)
