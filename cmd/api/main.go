package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/okcoin/okcoin-api/internal/config"
	"github.com/okcoin/okcoin-api/internal/domain/airdrop"
	"github.com/okcoin/okcoin-api/internal/domain/auth"
	"github.com/okcoin/okcoin-api/internal/domain/chain"
	"github.com/okcoin/okcoin-api/internal/domain/ledger"
	"github.com/okcoin/okcoin-api/internal/domain/stats"
	"github.com/okcoin/okcoin-api/internal/domain/tapping"
	"github.com/okcoin/okcoin-api/internal/domain/task"
	"github.com/okcoin/okcoin-api/internal/domain/user"
	"github.com/okcoin/okcoin-api/internal/domain/withdraw"
	"github.com/okcoin/okcoin-api/internal/middleware"
	"github.com/okcoin/okcoin-api/internal/pkg/cache"
	"github.com/okcoin/okcoin-api/internal/pkg/database"
	"github.com/okcoin/okcoin-api/internal/pkg/jwt"
	"github.com/okcoin/okcoin-api/internal/pkg/logger"
	"github.com/okcoin/okcoin-api/internal/pkg/tonapi"
	"github.com/okcoin/okcoin-api/internal/scheduler"
)

func main() {
	backfill := flag.Bool("backfill-addresses", false, "replay the wallet history to fill missing deposit addresses, then exit")
	flag.Parse()

	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Bool("mainnet", cfg.TON.MainNet).
		Msg("Starting OKCoin API")

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if err := database.Migrate(rootCtx, db.DB); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	store := cache.NewStore(redis)
	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	timeout := time.Duration(cfg.TON.TimeoutSeconds) * time.Second
	chainClient := tonapi.NewClient(cfg.TON.BaseURL(), cfg.TON.APIToken, timeout)
	var addressClient chain.AddressResolver
	if cfg.TON.AddressAPIURL != "" {
		addressClient = tonapi.NewAddressClient(cfg.TON.AddressAPIURL, timeout)
	}

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	ledgerRepo := ledger.NewRepository(db)
	chainRepo := chain.NewRepository(db)
	withdrawRepo := withdraw.NewRepository(db)
	taskRepo := task.NewRepository(db)

	// ---------- Ledger pipeline ----------
	appender := ledger.NewAppender(store, cfg.Jobs.LedgerQueueSize)
	appender.Start()

	// ---------- Services ----------
	ingester := chain.NewIngester(chainClient, chainRepo, userRepo, withdrawRepo, addressClient, store, appender, chain.Settings{
		WalletAddress:       cfg.TON.WalletAddress,
		MainNet:             cfg.TON.MainNet,
		PremiumBotPriceNano: cfg.Game.PremiumBotPriceNano,
		ReferralLevel1Nano:  cfg.Game.ReferralLevel1Nano,
		ReferralLevel2Nano:  cfg.Game.ReferralLevel2Nano,
	})

	if *backfill {
		n, err := ingester.BackfillAddresses(rootCtx)
		if err != nil {
			log.Fatal().Err(err).Msg("Address backfill failed")
		}
		log.Info().Int("updated", n).Msg("Address backfill complete")
		stopAppender(appender)
		return
	}

	authService := auth.NewService(userRepo, jwtService, store, cfg.TelegramBotToken, cfg.TelegramAuthMaxAge)
	userService := user.NewService(userRepo, store)
	tappingService := tapping.NewService(userRepo, store, appender, tapping.Settings{
		AllowedInfinityTap:      cfg.Game.AllowedInfinityTap,
		AllowedFullEnergyRefill: cfg.Game.AllowedFullEnergyRefill,
		DailyPremiumBotReward:   cfg.Game.DailyPremiumBotReward,
		PremiumBotPriceNano:     cfg.Game.PremiumBotPriceNano,
	})
	taskService := task.NewService(taskRepo, userRepo, appender)
	withdrawService := withdraw.NewService(withdrawRepo, userRepo, cfg.Game.MinWithdrawNano)
	statusService := chain.NewStatusService(chainRepo)
	statsService := stats.NewService(store, userRepo)
	airdropService := airdrop.NewService(userRepo, appender, airdrop.Settings{
		TokensPerYear: cfg.Game.AirdropTokensPerYear,
	})

	flusher := ledger.NewFlusher(store, ledgerRepo)
	fixer := ledger.NewFixer(ledgerRepo, appender)

	// ---------- Live statistics ----------
	statsHub := stats.NewHub(statsService)
	go statsHub.Run(rootCtx)

	// ---------- Background jobs ----------
	sched := scheduler.New()
	if err := registerJobs(sched, cfg.Jobs, jobSet{
		syncChain: func(ctx context.Context) error {
			_, err := ingester.Sync(ctx)
			return err
		},
		premiumRewards: func(ctx context.Context) error {
			n, err := tappingService.DistributePremiumRewards(ctx)
			if n > 0 {
				log.Info().Int("users", n).Msg("Premium bot rewards distributed")
			}
			return err
		},
		flushLedger: func(ctx context.Context) error {
			_, err := flusher.Flush(ctx)
			return err
		},
		fixLedger: func(ctx context.Context) error {
			res, err := fixer.Run(ctx)
			if res.Reverted > 0 {
				log.Info().Int("reverted", res.Reverted).Int("users", res.Users).Int64("amount", res.Amount).Msg("Ledger fix applied")
			}
			return err
		},
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule jobs")
	}
	sched.Start(rootCtx)

	// ---------- HTTP ----------
	limiter := middleware.NewRateLimiter(float64(cfg.RateLimitRPS), cfg.RateLimitBurst)
	limiter.StartCleanup(rootCtx, 5*time.Minute)

	r := newRouter(cfg, routerDeps{
		jwt:      jwtService,
		presence: store,
		limiter:  limiter,
		auth:     auth.NewHandler(authService),
		users:    user.NewHandler(userService),
		tapping:  tapping.NewHandler(tappingService),
		tasks:    task.NewHandler(taskService),
		withdraw: withdraw.NewHandler(withdrawService),
		ledger:   ledger.NewHandler(ledgerRepo),
		chain:    chain.NewHandler(statusService),
		stats:    stats.NewHandler(statsService, statsHub, cfg.AllowedOrigins),
		airdrop:  airdrop.NewHandler(airdropService),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	stop()
	sched.Stop()
	stopAppender(appender)

	log.Info().Msg("Server exited properly")
}

func stopAppender(appender *ledger.Appender) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := appender.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("Ledger queue not fully drained")
	}
}

// jobSet holds one iteration of each background job.
type jobSet struct {
	syncChain      scheduler.JobFunc
	premiumRewards scheduler.JobFunc
	flushLedger    scheduler.JobFunc
	fixLedger      scheduler.JobFunc
}

// premiumRewardsSpec is midnight UTC.
const premiumRewardsSpec = "0 0 * * *"

func registerJobs(s *scheduler.Scheduler, cfg config.Jobs, jobs jobSet) error {
	if cfg.SyncTonTransactions {
		s.Every("sync_ton_transactions", cfg.SyncInterval, jobs.syncChain)
	}
	if cfg.FlushLedger {
		s.Every("flush_ledger", cfg.FlushInterval, jobs.flushLedger)
	}
	if cfg.PremiumBotRewards {
		if err := s.Cron("premium_bot_rewards", premiumRewardsSpec, jobs.premiumRewards); err != nil {
			return err
		}
	}
	if cfg.LedgerFix {
		if err := s.Cron("ledger_fix", cfg.LedgerFixSpec, jobs.fixLedger); err != nil {
			return err
		}
	}
	return nil
}
