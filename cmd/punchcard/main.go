package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/app"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/gameday"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/ledger"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/notify"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/observability"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/platform/cache"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/platform/db"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/roster"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/settings"
	"github.com/skpick99/Underwater-Hockey-Punchcards/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("create data dir", slog.Any("error", err))
		os.Exit(1)
	}

	club, err := settings.Load(cfg.DataDir)
	if err != nil {
		logger.Error("load club settings", slog.Any("error", err))
		os.Exit(1)
	}

	rosterStore, err := roster.NewStore(cfg.DataDir, logger)
	if err != nil {
		logger.Error("load roster", slog.Any("error", err))
		os.Exit(1)
	}

	ledgerStore := ledger.NewStore(cfg.DataDir, logger)
	led, err := ledgerStore.Load()
	if err != nil {
		logger.Error("load punchcards", slog.Any("error", err))
		os.Exit(1)
	}

	var history ledger.HistoryStore
	if cfg.HistoryBackend == "postgres" {
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		pg := ledger.NewPostgresHistory(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Error("history schema", slog.Any("error", err))
			os.Exit(1)
		}
		history = pg
	} else {
		history = ledger.NewFileHistory(ledgerStore)
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	mailer := notify.NewMailer(jobClient, logger)

	ledgerService := ledger.NewService(led, ledgerStore, history, rosterStore, logger)
	purchaseMailer := &notify.PurchaseMailer{Roster: rosterStore, Mailer: mailer, Club: club}
	ledgerHandler := ledger.NewHandler(logger, ledgerService, purchaseMailer)

	xref, err := gameday.NewXref(cfg.DataDir, logger)
	if err != nil {
		logger.Error("load xref", slog.Any("error", err))
		os.Exit(1)
	}
	gamedayService := gameday.NewService(ledgerService, rosterStore, xref, mailer, club, metrics, logger)
	gamedayHandler := gameday.NewHandler(logger, gamedayService, xref)

	rosterHandler := roster.NewHandler(logger, rosterStore, mailer, club)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		LedgerHandler:  ledgerHandler,
		RosterHandler:  rosterHandler,
		GamedayHandler: gamedayHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
