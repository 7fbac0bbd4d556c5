// Package http exposes the webhook intake and the REST API. The REST
// surface is meant for moderation dashboards and integrations; members
// interact through the bot commands routed off the webhook.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/iqc-hub/iqc-community-bot/internal/application/command"
	"github.com/iqc-hub/iqc-community-bot/internal/application/gate"
	"github.com/iqc-hub/iqc-community-bot/internal/application/query"
	"github.com/iqc-hub/iqc-community-bot/internal/interface/http/idempotency"
	"github.com/iqc-hub/iqc-community-bot/internal/interface/telegram"
	"github.com/iqc-hub/iqc-community-bot/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Host - address to bind (default: "0.0.0.0").
	Host string

	// Port - port to listen on (default: 8080).
	Port int

	// ReadTimeout - maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout - maximum duration for writing the response.
	WriteTimeout time.Duration

	// IdleTimeout - maximum duration for idle connections.
	IdleTimeout time.Duration

	// BotSecret authenticates REST API callers via the x-bot-secret
	// header. Empty disables the REST API entirely.
	BotSecret string

	// WebhookSecret validates the x-telegram-bot-api-secret-token header
	// on webhook deliveries. Empty skips the check.
	WebhookSecret string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Dependencies contains everything the HTTP handlers dispatch to.
type Dependencies struct {
	// Commands (CQRS write side).
	RegisterUser    *command.RegisterUserHandler
	AdjustPoints    *command.AdjustPointsHandler
	CreateChallenge *command.CreateChallengeHandler
	JoinChallenge   *command.JoinChallengeHandler
	SubmitSolution  *command.SubmitSolutionHandler
	ReviewSub       *command.ReviewSubmissionHandler
	BanUser         *command.BanUserHandler
	UnbanUser       *command.UnbanUserHandler
	UpdateUserField *command.UpdateUserFieldHandler

	// Queries (CQRS read side).
	Leaderboard *query.GetLeaderboardHandler
	Profile     *query.GetProfileHandler
	OpenList    *query.ListOpenChallengesHandler
	PendingList *query.ListPendingSubmissionsHandler
	AuditList   *query.ListAuditHandler

	// Gate applies bans and throttling to member-initiated actions.
	Gate *gate.Gate

	// UpdateRouter processes webhook updates after the ACK.
	UpdateRouter *telegram.Router

	// Window deduplicates webhook event IDs.
	Window *idempotency.Window

	// Logger for structured logging.
	Logger *logger.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server is the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer creates the server and mounts all routes.
func NewServer(config Config, deps Dependencies) *Server {
	s := &Server{
		config: config,
		deps:   deps,
		log:    deps.Logger,
	}
	if s.log == nil {
		s.log = logger.Default()
	}
	if s.deps.Window == nil {
		s.deps.Window = idempotency.NewWindow(0)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.logRequests)
	r.Use(s.recoverPanics)

	r.Get("/health", s.handleHealth)
	r.Post("/webhook/telegram", s.handleWebhook)

	// REST API. Everything under /api/v1 requires the shared secret.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.requireBotSecret)

		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/challenges", s.handleListChallenges)
		r.Get("/users/{id}", s.handleGetProfile)

		r.Post("/users", s.handleRegisterUser)
		r.Post("/users/{id}/adjust", s.handleAdjustPoints)
		r.Patch("/users/{id}", s.handleUpdateUserField)
		r.Post("/users/{id}/ban", s.handleBanUser)
		r.Delete("/users/{id}/ban", s.handleUnbanUser)

		r.Post("/challenges", s.handleCreateChallenge)
		r.Post("/challenges/{id}/join", s.handleJoinChallenge)

		r.Post("/submissions", s.handleSubmitSolution)
		r.Get("/submissions/pending", s.handleListPending)
		r.Post("/submissions/{id}/review", s.handleReviewSubmission)

		r.Get("/audit", s.handleListAudit)
	})

	s.httpServer = &http.Server{
		Addr:         config.Address(),
		Handler:      r,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

// Start blocks serving requests until Shutdown.
func (s *Server) Start() error {
	s.log.Info("starting HTTP server", logger.String("address", s.config.Address()))
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the configured root handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
