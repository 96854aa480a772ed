package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/app"
	jobmetrics "github.com/skpick99/Underwater-Hockey-Punchcards/internal/jobs"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/ledger"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/notify"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/platform/cache"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/roster"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/settings"
	"github.com/skpick99/Underwater-Hockey-Punchcards/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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
	ledgerService := ledger.NewService(led, ledgerStore, ledger.NewFileHistory(ledgerStore), rosterStore, logger)

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

	runMetrics := jobmetrics.NewMetrics(nil)
	sender := &jobs.SMTPSender{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		From:     cfg.SMTPFrom,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		Logger:   logger,
		Metrics:  runMetrics,
	}
	sweeper := &notify.PastDueSweeper{
		Ledger:  ledgerService,
		Roster:  rosterStore,
		Mailer:  notify.NewMailer(jobClient, logger),
		Club:    club,
		Logger:  logger,
		Metrics: runMetrics,
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: sender.Handle},
			{Type: jobs.TaskTypePastDueNotices, Handler: sweeper.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.PastDueCron, Task: jobs.NewPastDueNoticesTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
