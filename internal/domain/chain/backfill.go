package chain

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/okcoin/okcoin-api/internal/domain/user"
	"github.com/okcoin/okcoin-api/internal/pkg/tonapi"
)

// BackfillAddresses walks the full account history, ignoring the cursor, and
// stores the deposit address of premium owners that have none. Users that
// already have an address are left alone, so the run can be repeated.
func (g *Ingester) BackfillAddresses(ctx context.Context) (int, error) {
	missing, err := g.users.ListWithoutReceiveAddress(ctx)
	if err != nil {
		return 0, err
	}
	pending := make(map[int64]user.User, len(missing))
	for _, u := range missing {
		pending[u.TelegramID] = u
	}

	updated := 0
	var before int64
	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		page, err := g.source.Transactions(ctx, g.settings.WalletAddress, tonapi.Query{
			Limit:    tonapi.DefaultPageSize,
			BeforeLT: before,
		})
		if err != nil {
			logUpstream(ctx, "accounts/"+g.settings.WalletAddress+"/transactions", err)
			return updated, err
		}
		if len(page.Transactions) == 0 {
			break
		}

		for _, raw := range page.Transactions {
			for _, tx := range Normalize(raw, g.now().UTC()) {
				if tx.Direction != DirectionReceived || tx.Status != StatusSuccess || tx.Amount < g.settings.PremiumBotPriceNano {
					continue
				}
				telegramID, err := strconv.ParseInt(tx.BodyText, 10, 64)
				if err != nil {
					continue
				}
				target, ok := pending[telegramID]
				if !ok {
					continue
				}

				address := g.displayAddress(ctx, tx.FromAddress)
				if _, err := g.users.Update(ctx, target.ID, func(u *user.User) error {
					if u.ReceiveAddress == "" {
						u.ReceiveAddress = address
					}
					return nil
				}); err != nil {
					return updated, err
				}
				delete(pending, telegramID)
				updated++
			}
		}

		last := page.Transactions[len(page.Transactions)-1].LogicalTime
		if len(page.Transactions) < tonapi.DefaultPageSize || (before != 0 && last >= before) {
			break
		}
		before = last
	}

	log.Info().Int("updated", updated).Int("unresolved", len(pending)).Msg("Deposit address backfill finished")
	return updated, nil
}
