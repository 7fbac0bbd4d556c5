package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/audit"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/notification"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
	"github.com/iqc-hub/iqc-community-bot/internal/infrastructure/audittrail"
	rediscache "github.com/iqc-hub/iqc-community-bot/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADJUST POINTS COMMAND
// Applies a signed point delta to a member's balance. The balance clamps
// at zero, the level is recomputed, and a promotion notifies the member.
// Every adjustment carries a mandatory human-readable reason.
// ══════════════════════════════════════════════════════════════════════════════

// AdjustPointsCommand contains the data to adjust a member's balance.
type AdjustPointsCommand struct {
	// TelegramID identifies the affected member.
	TelegramID user.TelegramID

	// Delta is the signed point amount.
	Delta int

	// Reason explains the adjustment. Required.
	Reason string

	// AdminID identifies the moderator who triggered the adjustment,
	// empty when the system applied it (e.g. an accepted submission).
	AdminID string

	// Origin is request provenance recorded in the audit trail.
	Origin string
}

// Validate validates the command.
func (c AdjustPointsCommand) Validate() error {
	if strings.TrimSpace(string(c.TelegramID)) == "" {
		return shared.ErrTelegramIDMissing
	}
	if strings.TrimSpace(c.Reason) == "" {
		return shared.ErrReasonMissing
	}
	return nil
}

// AdjustPointsResult contains the applied balance change.
type AdjustPointsResult struct {
	Change *user.BalanceChange
}

// AdjustPointsHandler handles the AdjustPointsCommand.
type AdjustPointsHandler struct {
	users    user.Repository
	recorder *audittrail.Recorder
	notifier notification.Notifier
	cache    *rediscache.LeaderboardCache
}

// NewAdjustPointsHandler creates a new AdjustPointsHandler.
func NewAdjustPointsHandler(
	users user.Repository,
	recorder *audittrail.Recorder,
	notifier notification.Notifier,
	cache *rediscache.LeaderboardCache,
) *AdjustPointsHandler {
	return &AdjustPointsHandler{users: users, recorder: recorder, notifier: notifier, cache: cache}
}

// Handle executes the adjust points command.
func (h *AdjustPointsHandler) Handle(ctx context.Context, cmd AdjustPointsCommand) (*AdjustPointsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	change, err := h.users.AdjustBalance(ctx, cmd.TelegramID, cmd.Delta, cmd.Reason)
	if err != nil {
		return nil, fmt.Errorf("adjust_points: %w", err)
	}

	h.recorder.Record(audittrail.Entry{
		UserID:  cmd.TelegramID,
		Action:  audit.ActionPointsAdjust,
		AdminID: cmd.AdminID,
		Delta:   cmd.Delta,
		Reason:  cmd.Reason,
		Origin:  cmd.Origin,
	})

	// Standings changed, so the cached leaderboard is stale.
	_ = h.cache.Invalidate(ctx)

	h.notifier.Notify(ctx, cmd.TelegramID, notification.PointsAdjusted(cmd.Delta, cmd.Reason, change.NewIQC))
	if change.Promoted() {
		h.notifier.Notify(ctx, cmd.TelegramID, notification.LevelPromotion(change))
	}

	return &AdjustPointsResult{Change: change}, nil
}
