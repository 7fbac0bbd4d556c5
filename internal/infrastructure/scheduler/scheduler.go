// Package scheduler runs periodic maintenance: purging expired ban
// records and rebuilding the leaderboard cache so the first read after
// an invalidation does not pay the storage round trip.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/moderation"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
	rediscache "github.com/iqc-hub/iqc-community-bot/internal/infrastructure/persistence/redis"
	"github.com/iqc-hub/iqc-community-bot/pkg/logger"
)

// Config controls job cadence. Zero values mean the defaults.
type Config struct {
	// BanPurgeInterval is how often expired ban records are removed.
	BanPurgeInterval time.Duration

	// LeaderboardRefreshInterval is how often the cache is rebuilt.
	LeaderboardRefreshInterval time.Duration

	// LeaderboardSize is how many members the rebuilt cache holds.
	LeaderboardSize int
}

// DefaultConfig returns the default job cadence.
func DefaultConfig() Config {
	return Config{
		BanPurgeInterval:           time.Hour,
		LeaderboardRefreshInterval: 5 * time.Minute,
		LeaderboardSize:            100,
	}
}

// Scheduler owns the background maintenance jobs.
type Scheduler struct {
	sched gocron.Scheduler
	cfg   Config

	users user.Repository
	bans  moderation.Repository
	cache *rediscache.LeaderboardCache
	clock shared.Clock
	log   *logger.Logger
}

// New creates the scheduler; Start must be called to begin running jobs.
func New(
	cfg Config,
	users user.Repository,
	bans moderation.Repository,
	cache *rediscache.LeaderboardCache,
	clock shared.Clock,
	log *logger.Logger,
) (*Scheduler, error) {
	def := DefaultConfig()
	if cfg.BanPurgeInterval <= 0 {
		cfg.BanPurgeInterval = def.BanPurgeInterval
	}
	if cfg.LeaderboardRefreshInterval <= 0 {
		cfg.LeaderboardRefreshInterval = def.LeaderboardRefreshInterval
	}
	if cfg.LeaderboardSize <= 0 {
		cfg.LeaderboardSize = def.LeaderboardSize
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}

	s := &Scheduler{
		sched: sched,
		cfg:   cfg,
		users: users,
		bans:  bans,
		cache: cache,
		clock: clock,
		log:   log,
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(cfg.BanPurgeInterval),
		gocron.NewTask(s.purgeExpiredBans),
	); err != nil {
		return nil, fmt.Errorf("scheduler: ban purge job: %w", err)
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(cfg.LeaderboardRefreshInterval),
		gocron.NewTask(s.refreshLeaderboard),
	); err != nil {
		return nil, fmt.Errorf("scheduler: leaderboard job: %w", err)
	}

	return s, nil
}

// Start begins running jobs on their intervals.
func (s *Scheduler) Start() {
	s.sched.Start()
	s.log.Info("scheduler started",
		logger.Duration("ban_purge_interval", s.cfg.BanPurgeInterval),
		logger.Duration("leaderboard_refresh_interval", s.cfg.LeaderboardRefreshInterval),
	)
}

// Stop shuts the scheduler down, waiting for running jobs.
func (s *Scheduler) Stop() {
	if err := s.sched.Shutdown(); err != nil {
		s.log.Warn("scheduler shutdown", logger.Err(err))
	}
}

// purgeExpiredBans drops ban records whose expiry has passed. Expired
// bans already have no effect; this only keeps the table small.
func (s *Scheduler) purgeExpiredBans() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.bans.PurgeExpired(ctx, s.clock.Now())
	if err != nil {
		s.log.Warn("ban purge failed", logger.Err(err))
		return
	}
	if n > 0 {
		s.log.Info("expired bans purged", logger.Int("count", n))
	}
}

// refreshLeaderboard rebuilds the cache from storage.
func (s *Scheduler) refreshLeaderboard() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	top, err := s.users.ListTop(ctx, s.cfg.LeaderboardSize)
	if err != nil {
		s.log.Warn("leaderboard refresh read failed", logger.Err(err))
		return
	}
	if err := s.cache.Set(ctx, top, s.cfg.LeaderboardSize); err != nil {
		s.log.Warn("leaderboard refresh write failed", logger.Err(err))
	}
}
