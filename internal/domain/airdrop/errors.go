package airdrop

import "github.com/okcoin/okcoin-api/internal/pkg/apperr"

var (
	ErrAirdropReceived     = apperr.New(apperr.ErrConflict, "This user has already received the airdrop token.")
	ErrPointRewardReceived = apperr.New(apperr.ErrConflict, "This user has already received the point reward.")
)
