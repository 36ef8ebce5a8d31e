package chain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okcoin/okcoin-api/internal/pkg/tonapi"
)

// Normalize turns a raw account transaction into transfers. Outgoing
// transactions produce one transfer per outbound message, sharing hash and
// fee; incoming ones produce a single transfer from the inbound message.
func Normalize(raw tonapi.Transaction, now time.Time) []Transaction {
	status := StatusFailed
	if raw.Success {
		status = StatusSuccess
	}

	build := func(i int, m tonapi.Message, dir Direction) Transaction {
		return Transaction{
			ID:          uuid.New(),
			Hash:        raw.Hash,
			MsgIndex:    i,
			LogicalTime: raw.LogicalTime,
			FromAddress: m.Source,
			ToAddress:   m.Destination,
			Amount:      m.Value,
			Fee:         raw.TotalFees,
			Currency:    "TON",
			Status:      status,
			Direction:   dir,
			BodyText:    strings.TrimSpace(m.Text),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	if len(raw.OutMsgs) > 0 {
		out := make([]Transaction, 0, len(raw.OutMsgs))
		for i, m := range raw.OutMsgs {
			out = append(out, build(i, m, DirectionSent))
		}
		return out
	}
	if raw.InMsg != nil {
		return []Transaction{build(0, *raw.InMsg, DirectionReceived)}
	}
	return nil
}
