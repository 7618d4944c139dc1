// Package main is the entry point for the expenditure manager: a JSON API
// and an optional Telegram bot over one PostgreSQL ledger.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gitlab.com/yelinaung/expenditure-manager/internal/auth"
	"gitlab.com/yelinaung/expenditure-manager/internal/bot"
	"gitlab.com/yelinaung/expenditure-manager/internal/config"
	"gitlab.com/yelinaung/expenditure-manager/internal/database"
	"gitlab.com/yelinaung/expenditure-manager/internal/exchange"
	"gitlab.com/yelinaung/expenditure-manager/internal/gemini"
	api "gitlab.com/yelinaung/expenditure-manager/internal/http"
	"gitlab.com/yelinaung/expenditure-manager/internal/ledger"
	"gitlab.com/yelinaung/expenditure-manager/internal/live"
	"gitlab.com/yelinaung/expenditure-manager/internal/logger"
	"gitlab.com/yelinaung/expenditure-manager/internal/repository"
	"gitlab.com/yelinaung/expenditure-manager/internal/telemetry"
	"gitlab.com/yelinaung/expenditure-manager/internal/voice"
	"golang.org/x/sync/errgroup"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("expenditure-manager %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.Configure(cfg.LogLevel, cfg.LogFormat)
	logger.InitHashSalt(cfg.LogHashSalt)

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.OTelExporter, cfg.OTelServiceName, version)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to set up telemetry")
	}
	defer func() {
		if err := shutdownTelemetry(context.WithoutCancel(ctx)); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to flush telemetry")
		}
	}()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Log.Info().Msg("Database initialized successfully")

	transactions := repository.NewTransactionRepository(pool)
	profiles := repository.NewProfileRepository(pool)

	ledgerOpts := []ledger.Option{ledger.WithLocation(cfg.Location())}
	if cfg.ExchangeEnabled() {
		rates := exchange.NewCache(exchange.NewFrankfurterClient(cfg.ExchangeAPIURL, 0), cfg.ExchangeRateTTL)
		ledgerOpts = append(ledgerOpts, ledger.WithRates(rates))
	}

	ledgerSvc := ledger.NewService(ledger.Stores{
		Transactions: transactions,
		Cards:        repository.NewCardRepository(pool),
		Categories:   repository.NewCategoryRepository(pool),
		Thresholds:   repository.NewThresholdRepository(pool),
		Profiles:     profiles,
	}, ledgerOpts...)

	authSvc := auth.NewService(
		repository.NewCredentialRepository(pool),
		auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL),
	)

	feed := live.NewFeed(transactions)
	board := live.NewBoard(feed, cfg.Location())
	defer board.Close()

	var transcriber voice.Transcriber
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, gemini.WithModel(cfg.GeminiModel))
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to create Gemini client")
		}
		transcriber = client
	} else {
		logger.Log.Warn().Msg("GEMINI_API_KEY not set, voice notes disabled")
	}

	router := api.New(
		api.NewAuthHandler(authSvc),
		api.NewLedgerHandler(ledgerSvc, board),
		cfg.CORSAllowedOrigins,
	)
	server := api.NewServer(cfg.HTTPAddr, router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return live.NewListener(pool, feed).Run(ctx)
	})

	g.Go(func() error {
		return api.Serve(ctx, server)
	})

	if cfg.BotEnabled() {
		telegramBot, err := bot.New(cfg, ledgerSvc, profiles, transcriber)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to create bot")
		}
		g.Go(func() error {
			telegramBot.Start(ctx)
			return nil
		})
	} else {
		logger.Log.Info().Msg("TELEGRAM_BOT_TOKEN not set, bot disabled")
	}

	if err := g.Wait(); err != nil {
		logger.Log.Error().Err(err).Msg("Shutting down after error")
		return
	}
	logger.Log.Info().Msg("Shut down cleanly")
}
