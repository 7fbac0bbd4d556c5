// Package gate applies the request-layer safeguards that run before any
// handler dispatch: the moderation gate (banned members are rejected with
// reason and expiry) and the per-member throttle (at most one accepted
// mutating action per second). A rejected action performs no state
// mutation and produces no audit record.
package gate

import (
	"context"
	"sync"
	"time"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/moderation"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
)

// throttleWindow is the minimum spacing between accepted mutating
// actions from one member.
const throttleWindow = time.Second

// pruneThreshold bounds the per-member timestamp map; entries older than
// the window are useless, so prune once the map grows past this.
const pruneThreshold = 4096

// Gate checks bans and throttles before dispatch.
type Gate struct {
	bans  moderation.Repository
	clock shared.Clock

	mu         sync.Mutex
	lastAction map[user.TelegramID]time.Time
}

// New creates a Gate.
func New(bans moderation.Repository, clock shared.Clock) *Gate {
	return &Gate{
		bans:       bans,
		clock:      clock,
		lastAction: make(map[user.TelegramID]time.Time),
	}
}

// Check rejects the action if the member has an active ban. Used for
// read-only actions; mutating actions go through CheckMutating.
func (g *Gate) Check(ctx context.Context, id user.TelegramID) error {
	ban, err := g.bans.GetActive(ctx, id, g.clock.Now())
	if err != nil {
		return shared.WrapError("gate", "Check", shared.ErrInternal, "ban lookup failed", err)
	}
	if ban != nil {
		return &shared.BannedError{Reason: ban.Reason, Until: ban.Until}
	}
	return nil
}

// CheckMutating rejects the action if the member is banned or has
// already had a mutating action accepted within the last second. On
// success the member's throttle slot is consumed.
func (g *Gate) CheckMutating(ctx context.Context, id user.TelegramID) error {
	if err := g.Check(ctx, id); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	if last, ok := g.lastAction[id]; ok {
		if elapsed := now.Sub(last); elapsed < throttleWindow {
			return &shared.ThrottledError{RetryAfter: throttleWindow - elapsed}
		}
	}

	if len(g.lastAction) >= pruneThreshold {
		for uid, t := range g.lastAction {
			if now.Sub(t) >= throttleWindow {
				delete(g.lastAction, uid)
			}
		}
	}

	g.lastAction[id] = now
	return nil
}
