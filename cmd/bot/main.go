// Package main is the entry point for the IQC community bot.
//
// The layout follows Clean Architecture:
//   - domain: entities and repository contracts, no external deps
//   - application: use cases (commands, queries, the request gate)
//   - infrastructure: storage backends, cache, bot API client, jobs
//   - interface: webhook/REST endpoints and the bot command router
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iqc-hub/iqc-community-bot/config"
	"github.com/iqc-hub/iqc-community-bot/internal/application/command"
	"github.com/iqc-hub/iqc-community-bot/internal/application/gate"
	"github.com/iqc-hub/iqc-community-bot/internal/application/query"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/notification"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/infrastructure/audittrail"
	exttelegram "github.com/iqc-hub/iqc-community-bot/internal/infrastructure/external/telegram"
	"github.com/iqc-hub/iqc-community-bot/internal/infrastructure/persistence"
	rediscache "github.com/iqc-hub/iqc-community-bot/internal/infrastructure/persistence/redis"
	"github.com/iqc-hub/iqc-community-bot/internal/infrastructure/scheduler"
	httpserver "github.com/iqc-hub/iqc-community-bot/internal/interface/http"
	"github.com/iqc-hub/iqc-community-bot/internal/interface/http/idempotency"
	"github.com/iqc-hub/iqc-community-bot/internal/interface/telegram"
	"github.com/iqc-hub/iqc-community-bot/pkg/logger"
)

func main() {
	// Optional .env for local development; production sets real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Default().Fatal("config load failed", logger.Err(err))
	}

	logLevel := logger.ParseLevel(cfg.App.LogLevel)
	if cfg.App.Debug {
		logLevel = logger.LevelDebug
	}
	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logLevel,
		AddCaller: cfg.App.Debug,
	})

	log.Info("starting",
		logger.String("app", cfg.App.Name),
		logger.String("env", string(cfg.App.Environment)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := shared.SystemClock{}

	// ──────────────────────────────────────────────────────────────────────
	// Infrastructure
	// ──────────────────────────────────────────────────────────────────────

	stores, err := persistence.Open(ctx, cfg.Database.URL, clock, log)
	if err != nil {
		log.Fatal("storage init failed", logger.Err(err))
	}
	defer stores.Close()

	var cache *rediscache.LeaderboardCache
	if cfg.Redis.URL != "" {
		cache, err = rediscache.NewLeaderboardCache(ctx, cfg.Redis.URL)
		if err != nil {
			log.Warn("running without leaderboard cache", logger.Err(err))
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	recorder := audittrail.NewRecorder(stores.Audits, clock, log)
	recorder.Start()
	defer recorder.Stop()

	var notifier notification.Notifier = notification.NopNotifier{}
	var replier telegram.Replier
	if cfg.Telegram.Token != "" {
		client := exttelegram.NewClient(exttelegram.DefaultClientConfig(cfg.Telegram.Token), log)
		notifier = exttelegram.NewNotifier(client, log)
		replier = client
	} else {
		log.Warn("no bot token configured, outgoing messages are dropped")
		replier = dropReplier{log: log}
	}

	// ──────────────────────────────────────────────────────────────────────
	// Application
	// ──────────────────────────────────────────────────────────────────────

	requestGate := gate.New(stores.Bans, clock)

	registerUser := command.NewRegisterUserHandler(stores.Users, recorder)
	adjustPoints := command.NewAdjustPointsHandler(stores.Users, recorder, notifier, cache)
	createChallenge := command.NewCreateChallengeHandler(stores.Challenges, stores.Users, recorder, notifier, clock, log)
	joinChallenge := command.NewJoinChallengeHandler(stores.Challenges, stores.Users, recorder)
	submitSolution := command.NewSubmitSolutionHandler(stores.Submissions, stores.Challenges, stores.Users, recorder, clock)
	reviewSub := command.NewReviewSubmissionHandler(stores.Submissions, stores.Users, recorder, notifier, cache)
	banUser := command.NewBanUserHandler(stores.Bans, stores.Users, recorder, notifier, clock)
	unbanUser := command.NewUnbanUserHandler(stores.Bans, recorder, clock)
	updateUserField := command.NewUpdateUserFieldHandler(stores.Users, recorder, cache)

	leaderboard := query.NewGetLeaderboardHandler(stores.Users, cache, log)
	profile := query.NewGetProfileHandler(stores.Users)
	openList := query.NewListOpenChallengesHandler(stores.Challenges)
	pendingList := query.NewListPendingSubmissionsHandler(stores.Submissions)
	auditList := query.NewListAuditHandler(stores.Audits)

	// ──────────────────────────────────────────────────────────────────────
	// Interface
	// ──────────────────────────────────────────────────────────────────────

	updateRouter := telegram.NewRouter(telegram.Handlers{
		RegisterUser:    registerUser,
		AdjustPoints:    adjustPoints,
		CreateChallenge: createChallenge,
		JoinChallenge:   joinChallenge,
		SubmitSolution:  submitSolution,
		ReviewSub:       reviewSub,
		BanUser:         banUser,
		UnbanUser:       unbanUser,
		UpdateUserField: updateUserField,
		Leaderboard:     leaderboard,
		Profile:         profile,
		OpenList:        openList,
		PendingList:     pendingList,
	}, requestGate, replier, cfg.Telegram.AdminIDs, log)

	serverCfg := httpserver.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.BotSecret = cfg.HTTP.BotSecret
	serverCfg.WebhookSecret = cfg.Telegram.WebhookSecret

	server := httpserver.NewServer(serverCfg, httpserver.Dependencies{
		RegisterUser:    registerUser,
		AdjustPoints:    adjustPoints,
		CreateChallenge: createChallenge,
		JoinChallenge:   joinChallenge,
		SubmitSolution:  submitSolution,
		ReviewSub:       reviewSub,
		BanUser:         banUser,
		UnbanUser:       unbanUser,
		UpdateUserField: updateUserField,
		Leaderboard:     leaderboard,
		Profile:         profile,
		OpenList:        openList,
		PendingList:     pendingList,
		AuditList:       auditList,
		Gate:            requestGate,
		UpdateRouter:    updateRouter,
		Window:          idempotency.NewWindow(0),
		Logger:          log,
	})

	jobs, err := scheduler.New(scheduler.Config{
		BanPurgeInterval:           cfg.Scheduler.BanPurgeInterval,
		LeaderboardRefreshInterval: cfg.Scheduler.LeaderboardRefreshInterval,
		LeaderboardSize:            cfg.Scheduler.LeaderboardSize,
	}, stores.Users, stores.Bans, cache, clock, log)
	if err != nil {
		log.Fatal("scheduler init failed", logger.Err(err))
	}
	jobs.Start()
	defer jobs.Stop()

	// ──────────────────────────────────────────────────────────────────────
	// Run until signalled
	// ──────────────────────────────────────────────────────────────────────

	serverErr := server.StartAsync()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			log.Error("server failed", logger.Err(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown incomplete", logger.Err(err))
	}

	log.Info("stopped")
}

// dropReplier logs and discards replies when no bot token is set.
type dropReplier struct {
	log *logger.Logger
}

func (d dropReplier) SendMessage(ctx context.Context, chatID, text string) error {
	d.log.Debug("reply dropped", logger.String("chat_id", chatID))
	return nil
}
