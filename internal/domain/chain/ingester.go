package chain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/okcoin/okcoin-api/internal/domain/ledger"
	"github.com/okcoin/okcoin-api/internal/domain/user"
	"github.com/okcoin/okcoin-api/internal/domain/withdraw"
	"github.com/okcoin/okcoin-api/internal/pkg/apperr"
	"github.com/okcoin/okcoin-api/internal/pkg/cache"
	"github.com/okcoin/okcoin-api/internal/pkg/errorhandler"
	"github.com/okcoin/okcoin-api/internal/pkg/metrics"
	"github.com/okcoin/okcoin-api/internal/pkg/tonapi"
)

// TransactionSource pages through the monitored account's history.
type TransactionSource interface {
	Transactions(ctx context.Context, account string, q tonapi.Query) (*tonapi.Page, error)
}

// CursorStore persists the logical-time checkpoint.
type CursorStore interface {
	GetString(ctx context.Context, key string) (string, error)
	SetString(ctx context.Context, key, value string) error
	LogException(ctx context.Context, op string, err error) error
}

// AddressResolver maps a raw address to its display formats.
type AddressResolver interface {
	Lookup(ctx context.Context, addr string) (*tonapi.Address, error)
}

// WithdrawQueue is the part of withdraw storage completed by outbound transfers.
type WithdrawQueue interface {
	OldestPendingUpTo(ctx context.Context, userID uuid.UUID, maxAmount int64) (*withdraw.Request, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, txHash string, at time.Time) error
}

// EntryAppender enqueues ledger entries.
type EntryAppender interface {
	Append(ctx context.Context, e ledger.Entry) error
}

// Settings configure ingestion. Amounts are nanoton.
type Settings struct {
	WalletAddress       string
	MainNet             bool
	PremiumBotPriceNano int64
	ReferralLevel1Nano  int64
	ReferralLevel2Nano  int64
}

// SyncResult summarises one poll.
type SyncResult struct {
	Fetched   int
	Created   int
	Duplicate int
	Skipped   int
	Malformed int
	Cursor    int64
}

type effectFunc func(ctx context.Context, tx *Transaction) error

// Ingester mirrors the monitored wallet's transactions and applies their
// side effects once per (hash, message).
type Ingester struct {
	source      TransactionSource
	repo        Repository
	users       user.Repository
	withdrawals WithdrawQueue
	addresses   AddressResolver
	cursor      CursorStore
	ledger      EntryAppender
	settings    Settings
	effects     map[Direction]effectFunc
	now         func() time.Time
}

func NewIngester(
	source TransactionSource,
	repo Repository,
	users user.Repository,
	withdrawals WithdrawQueue,
	addresses AddressResolver,
	cursor CursorStore,
	appender EntryAppender,
	settings Settings,
) *Ingester {
	g := &Ingester{
		source:      source,
		repo:        repo,
		users:       users,
		withdrawals: withdrawals,
		addresses:   addresses,
		cursor:      cursor,
		ledger:      appender,
		settings:    settings,
		now:         time.Now,
	}
	g.effects = map[Direction]effectFunc{
		DirectionSent:     g.completeWithdrawal,
		DirectionReceived: g.activatePremium,
	}
	return g
}

// Sync fetches transactions newer than the stored cursor and processes them
// newest first. The cursor moves to the newest transaction once it has been
// handled. A fetch failure leaves the cursor untouched.
func (g *Ingester) Sync(ctx context.Context) (SyncResult, error) {
	var res SyncResult

	after, err := g.loadCursor(ctx)
	if err != nil {
		return res, err
	}
	res.Cursor = after

	page, err := g.source.Transactions(ctx, g.settings.WalletAddress, tonapi.Query{
		Limit:   tonapi.DefaultPageSize,
		AfterLT: after,
	})
	if err != nil {
		logUpstream(ctx, "accounts/"+g.settings.WalletAddress+"/transactions", err)
		return res, err
	}
	res.Fetched = len(page.Transactions)
	res.Malformed = page.Malformed
	for i := 0; i < page.Malformed; i++ {
		metrics.RecordChainTransaction("malformed")
	}

	for i, raw := range page.Transactions {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := g.process(ctx, raw, &res); err != nil {
			return res, err
		}
		if i == 0 {
			if err := g.cursor.SetString(ctx, cache.KeyChainCursor, strconv.FormatInt(raw.LogicalTime, 10)); err != nil {
				return res, fmt.Errorf("store chain cursor: %w", err)
			}
			res.Cursor = raw.LogicalTime
		}
	}

	if res.Fetched > 0 {
		log.Info().
			Int("fetched", res.Fetched).
			Int("created", res.Created).
			Int("duplicate", res.Duplicate).
			Int("skipped", res.Skipped).
			Int64("cursor", res.Cursor).
			Msg("Chain transactions synced")
	}
	return res, nil
}

func (g *Ingester) loadCursor(ctx context.Context) (int64, error) {
	raw, err := g.cursor.GetString(ctx, cache.KeyChainCursor)
	if err != nil {
		return 0, fmt.Errorf("load chain cursor: %w", err)
	}
	if raw == "" {
		return 0, nil
	}
	lt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Warn().Str("cursor", raw).Msg("Ignoring unreadable chain cursor")
		return 0, nil
	}
	return lt, nil
}

func (g *Ingester) process(ctx context.Context, raw tonapi.Transaction, res *SyncResult) error {
	for _, tx := range Normalize(raw, g.now().UTC()) {
		tx := tx
		if !tx.Actionable() {
			res.Skipped++
			metrics.RecordChainTransaction("skipped")
			continue
		}

		created, err := g.repo.Save(ctx, &tx)
		if err != nil {
			return err
		}
		if !created {
			res.Duplicate++
			metrics.RecordChainTransaction("duplicate")
			continue
		}
		res.Created++

		if tx.Status != StatusSuccess {
			metrics.RecordChainTransaction("failed")
			continue
		}

		if err := g.effects[tx.Direction](ctx, &tx); err != nil {
			metrics.RecordChainTransaction("error")
			log.Error().Err(err).
				Str("hash", tx.Hash).
				Int("msg_index", tx.MsgIndex).
				Str("direction", string(tx.Direction)).
				Msg("Failed to apply chain transaction")
			if lerr := g.cursor.LogException(ctx, "chain.apply", err); lerr != nil {
				log.Warn().Err(lerr).Msg("Failed to record exception")
			}
			continue
		}
		metrics.RecordChainTransaction("applied")
	}
	return nil
}

// payer resolves the user referenced by a transfer body.
func (g *Ingester) payer(ctx context.Context, tx *Transaction) (*user.User, error) {
	telegramID, err := strconv.ParseInt(tx.BodyText, 10, 64)
	if err != nil {
		log.Warn().Str("hash", tx.Hash).Str("body", tx.BodyText).Msg("Chain transfer body is not a telegram id")
		return nil, nil
	}
	u, err := g.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		log.Warn().Str("hash", tx.Hash).Int64("telegram_id", telegramID).Msg("Chain transfer references unknown user")
	}
	return u, nil
}

func (g *Ingester) completeWithdrawal(ctx context.Context, tx *Transaction) error {
	u, err := g.payer(ctx, tx)
	if err != nil || u == nil {
		return err
	}

	req, err := g.withdrawals.OldestPendingUpTo(ctx, u.ID, tx.Amount)
	if err != nil {
		return err
	}
	if req == nil {
		log.Warn().Str("hash", tx.Hash).Str("user_id", u.ID.String()).Msg("No pending withdrawal matches outbound transfer")
		return nil
	}

	now := g.now().UTC()
	if err := g.withdrawals.MarkCompleted(ctx, req.ID, tx.Hash, now); err != nil {
		return err
	}
	if _, err := g.users.Update(ctx, u.ID, func(u *user.User) error {
		u.TonBalance -= req.Amount
		if u.TonBalance < 0 {
			u.TonBalance = 0
		}
		return nil
	}); err != nil {
		return err
	}

	g.record(ctx, ledger.NewEntry(u.ID, -req.Amount, ledger.CurrencyTON, ledger.TypePayCommission,
		"Withdraw "+tx.Hash, now))
	log.Info().Str("user_id", u.ID.String()).Int64("amount", req.Amount).Str("hash", tx.Hash).Msg("Withdrawal completed")
	return nil
}

func (g *Ingester) activatePremium(ctx context.Context, tx *Transaction) error {
	if tx.Amount < g.settings.PremiumBotPriceNano {
		return nil
	}
	buyer, err := g.payer(ctx, tx)
	if err != nil || buyer == nil {
		return err
	}

	address := g.displayAddress(ctx, tx.FromAddress)
	now := g.now().UTC()
	buyer, err = g.users.Update(ctx, buyer.ID, func(u *user.User) error {
		u.HavePremiumBot = true
		u.PremiumBotAt = &now
		u.ReceiveAddress = address
		return nil
	})
	if err != nil {
		return err
	}

	g.record(ctx, ledger.NewEntry(buyer.ID, tx.Amount, ledger.CurrencyTON, ledger.TypeTopUp, "", now))
	g.record(ctx, ledger.NewEntry(buyer.ID, -g.settings.PremiumBotPriceNano, ledger.CurrencyTON, ledger.TypeBuyPremium,
		"Buy Premium Bot", now))
	log.Info().Str("user_id", buyer.ID.String()).Str("hash", tx.Hash).Msg("Premium bot activated")

	return g.payReferrals(ctx, buyer, now)
}

// payReferrals credits the buyer's referrer and the referrer's referrer.
// Missing levels are skipped.
func (g *Ingester) payReferrals(ctx context.Context, buyer *user.User, now time.Time) error {
	rewards := []int64{g.settings.ReferralLevel1Nano, g.settings.ReferralLevel2Nano}

	current := buyer
	for level, amount := range rewards {
		if current.RefererID == nil || amount <= 0 {
			return nil
		}
		referrer, err := g.users.GetByTelegramID(ctx, *current.RefererID)
		if err != nil {
			return err
		}
		if referrer == nil || referrer.ID == buyer.ID {
			return nil
		}

		if _, err := g.users.Update(ctx, referrer.ID, func(u *user.User) error {
			u.TonBalance += amount
			return nil
		}); err != nil {
			return err
		}
		desc := fmt.Sprintf("Referral reward level %d from %d - %s", level+1, buyer.TelegramID, buyer.TelegramUsername)
		g.record(ctx, ledger.NewEntry(referrer.ID, amount, ledger.CurrencyTON, ledger.TypeReferralReward, desc, now))

		current = referrer
	}
	return nil
}

// displayAddress returns the user-friendly form of addr for the configured
// network, or addr itself when the lookup fails.
func (g *Ingester) displayAddress(ctx context.Context, addr string) string {
	if addr == "" || g.addresses == nil {
		return addr
	}
	resolved, err := g.addresses.Lookup(ctx, addr)
	if err != nil {
		logUpstream(ctx, "address/"+addr, err)
		log.Warn().Err(err).Str("address", addr).Msg("Address lookup failed, storing raw address")
		return addr
	}
	display := resolved.TestNet
	if g.settings.MainNet {
		display = resolved.MainNet
	}
	if display == "" {
		return addr
	}
	return display
}

func (g *Ingester) record(ctx context.Context, e ledger.Entry) {
	if err := g.ledger.Append(ctx, e); err != nil {
		log.Error().Err(err).
			Str("user_id", e.UserID.String()).
			Str("type", string(e.Type)).
			Int64("amount", e.Amount).
			Msg("Failed to queue ledger entry")
	}
}

// logUpstream reports chain API failures that came from the remote side.
func logUpstream(ctx context.Context, endpoint string, err error) {
	if !errors.Is(err, apperr.ErrUpstreamUnavailable) {
		return
	}
	errorhandler.LogExternalServiceError(ctx, "tonapi", endpoint, tonapi.StatusCode(err), err)
}
