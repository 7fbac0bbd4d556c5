// Package persistence selects the storage backend once at process start:
// the durable PostgreSQL store when a database URL is configured and
// reachable, else the in-memory fallback. Callers only ever see the
// repository interfaces - the degradation is invisible to them.
package persistence

import (
	"context"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/audit"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/challenge"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/moderation"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/submission"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
	"github.com/iqc-hub/iqc-community-bot/internal/infrastructure/persistence/memory"
	"github.com/iqc-hub/iqc-community-bot/internal/infrastructure/persistence/postgres"
	"github.com/iqc-hub/iqc-community-bot/pkg/logger"
)

// Backend identifies which storage engine was selected at startup.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendMemory   Backend = "memory"
)

// Stores bundles one repository per entity kind, all backed by the same
// engine. The selection happens exactly once; it is never re-evaluated
// per call.
type Stores struct {
	Backend Backend

	Users       user.Repository
	Challenges  challenge.Repository
	Submissions submission.Repository
	Bans        moderation.Repository
	Audits      audit.Repository

	conn *postgres.Connection
}

// Open selects and initializes the backend. An empty databaseURL or an
// unreachable database degrades to the in-memory store - that is a
// deliberate design choice, not an error path, so Open only fails on
// migration errors against a reachable database.
func Open(ctx context.Context, databaseURL string, clock shared.Clock, log *logger.Logger) (*Stores, error) {
	if databaseURL == "" {
		log.Warn("no database URL configured, using in-memory storage")
		return openMemory(clock), nil
	}

	conn, err := postgres.NewConnectionFromURL(ctx, databaseURL)
	if err != nil {
		log.Warn("database unreachable, falling back to in-memory storage", logger.Err(err))
		return openMemory(clock), nil
	}

	if err := postgres.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	log.Info("connected to postgres storage backend")
	return &Stores{
		Backend:     BackendPostgres,
		Users:       postgres.NewUserRepository(conn, clock),
		Challenges:  postgres.NewChallengeRepository(conn, clock),
		Submissions: postgres.NewSubmissionRepository(conn),
		Bans:        postgres.NewModerationRepository(conn),
		Audits:      postgres.NewAuditRepository(conn),
		conn:        conn,
	}, nil
}

func openMemory(clock shared.Clock) *Stores {
	store := memory.NewStore(clock)
	return &Stores{
		Backend:     BackendMemory,
		Users:       store.Users(),
		Challenges:  store.Challenges(),
		Submissions: store.Submissions(),
		Bans:        store.Bans(),
		Audits:      store.Audits(),
	}
}

// Close releases the underlying connection pool, if any.
func (s *Stores) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}
