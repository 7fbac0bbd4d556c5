// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
	rediscache "github.com/iqc-hub/iqc-community-bot/internal/infrastructure/persistence/redis"
	"github.com/iqc-hub/iqc-community-bot/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Top members by balance, cache-aside: serve from Redis when warm, fall
// back to storage and repopulate on a miss. Cache failures degrade to a
// storage read, never to an error.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultLeaderboardLimit applies when the caller requests no limit.
const DefaultLeaderboardLimit = 20

// GetLeaderboardQuery contains the leaderboard request parameters.
type GetLeaderboardQuery struct {
	// Limit caps the number of rows. Zero or negative means the default.
	Limit int
}

// LeaderboardRow is one ranked member.
type LeaderboardRow struct {
	Rank       int
	TelegramID user.TelegramID
	Username   string
	Name       string
	IQC        user.IQC
	Level      user.Level
}

// GetLeaderboardResult contains the ranked rows.
type GetLeaderboardResult struct {
	Rows []LeaderboardRow

	// FromCache reports whether the rows came from Redis.
	FromCache bool
}

// GetLeaderboardHandler handles the GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	users user.Repository
	cache *rediscache.LeaderboardCache
	log   *logger.Logger
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler.
func NewGetLeaderboardHandler(users user.Repository, cache *rediscache.LeaderboardCache, log *logger.Logger) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{users: users, cache: cache, log: log}
}

// Handle executes the leaderboard query.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	if entries, err := h.cache.Get(ctx, limit); err == nil {
		rows := make([]LeaderboardRow, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, LeaderboardRow{
				Rank:       e.Rank,
				TelegramID: user.TelegramID(e.TelegramID),
				Username:   e.Username,
				Name:       e.Name,
				IQC:        user.IQC(e.IQC),
				Level:      user.Level(e.Level),
			})
		}
		return &GetLeaderboardResult{Rows: rows, FromCache: true}, nil
	} else if !errors.Is(err, rediscache.ErrCacheMiss) {
		h.log.Warn("leaderboard cache read failed", logger.Err(err))
	}

	top, err := h.users.ListTop(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: %w", err)
	}

	rows := make([]LeaderboardRow, 0, len(top))
	for i, u := range top {
		rows = append(rows, LeaderboardRow{
			Rank:       i + 1,
			TelegramID: u.TelegramID,
			Username:   u.Username,
			Name:       u.Name,
			IQC:        u.IQC,
			Level:      u.Level,
		})
	}

	if err := h.cache.Set(ctx, top, limit); err != nil {
		h.log.Warn("leaderboard cache write failed", logger.Err(err))
	}

	return &GetLeaderboardResult{Rows: rows}, nil
}
