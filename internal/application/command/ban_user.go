package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/audit"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/moderation"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/notification"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
	"github.com/iqc-hub/iqc-community-bot/internal/infrastructure/audittrail"
)

// ══════════════════════════════════════════════════════════════════════════════
// BAN / UNBAN COMMANDS
// A ban is an upsert: banning an already-banned member overwrites the
// previous reason and expiry. Bans gate actions but never touch balance,
// level or challenge participation.
// ══════════════════════════════════════════════════════════════════════════════

// BanUserCommand contains the data to ban a member.
type BanUserCommand struct {
	TelegramID user.TelegramID

	// Reason explains the ban. Required.
	Reason string

	// Hours is the ban duration from now. Must be positive.
	Hours int

	// AdminID identifies the banning moderator.
	AdminID string

	// Origin is request provenance recorded in the audit trail.
	Origin string
}

// Validate validates the command.
func (c BanUserCommand) Validate() error {
	if strings.TrimSpace(string(c.TelegramID)) == "" {
		return shared.ErrTelegramIDMissing
	}
	if strings.TrimSpace(c.Reason) == "" {
		return shared.NewDomainError("moderation", "Ban", shared.ErrEmptyValue, "reason is required")
	}
	if c.Hours <= 0 {
		return shared.NewDomainError("moderation", "Ban", shared.ErrValidation, "duration must be a positive number of hours")
	}
	return nil
}

// BanUserResult contains the stored ban.
type BanUserResult struct {
	Ban *moderation.Ban
}

// BanUserHandler handles the BanUserCommand.
type BanUserHandler struct {
	bans     moderation.Repository
	users    user.Repository
	recorder *audittrail.Recorder
	notifier notification.Notifier
	clock    shared.Clock
}

// NewBanUserHandler creates a new BanUserHandler.
func NewBanUserHandler(
	bans moderation.Repository,
	users user.Repository,
	recorder *audittrail.Recorder,
	notifier notification.Notifier,
	clock shared.Clock,
) *BanUserHandler {
	return &BanUserHandler{bans: bans, users: users, recorder: recorder, notifier: notifier, clock: clock}
}

// Handle executes the ban user command.
func (h *BanUserHandler) Handle(ctx context.Context, cmd BanUserCommand) (*BanUserResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if _, err := h.users.GetByTelegramID(ctx, cmd.TelegramID); err != nil {
		return nil, fmt.Errorf("ban_user: %w", err)
	}

	b := moderation.New(cmd.TelegramID, cmd.Reason, cmd.Hours, h.clock.Now())
	if err := h.bans.Upsert(ctx, b); err != nil {
		return nil, fmt.Errorf("ban_user: %w", err)
	}

	h.recorder.Record(audittrail.Entry{
		UserID:  cmd.TelegramID,
		Action:  audit.ActionUserBan,
		AdminID: cmd.AdminID,
		Reason:  cmd.Reason,
		Origin:  cmd.Origin,
	})

	h.notifier.Notify(ctx, cmd.TelegramID, notification.Banned(b, cmd.Hours))

	return &BanUserResult{Ban: b}, nil
}
