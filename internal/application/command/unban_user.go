package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/audit"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/moderation"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
	"github.com/iqc-hub/iqc-community-bot/internal/infrastructure/audittrail"
)

// UnbanUserCommand contains the data to lift a member's ban.
type UnbanUserCommand struct {
	TelegramID user.TelegramID

	// AdminID identifies the moderator lifting the ban.
	AdminID string

	// Origin is request provenance recorded in the audit trail.
	Origin string
}

// Validate validates the command.
func (c UnbanUserCommand) Validate() error {
	if strings.TrimSpace(string(c.TelegramID)) == "" {
		return shared.ErrTelegramIDMissing
	}
	return nil
}

// UnbanUserResult reports whether a ban was actually in effect.
type UnbanUserResult struct {
	// WasBanned is false when no active ban existed. Unbanning anyway is
	// not an error, the outcome is the same.
	WasBanned bool
}

// UnbanUserHandler handles the UnbanUserCommand.
type UnbanUserHandler struct {
	bans     moderation.Repository
	recorder *audittrail.Recorder
	clock    shared.Clock
}

// NewUnbanUserHandler creates a new UnbanUserHandler.
func NewUnbanUserHandler(bans moderation.Repository, recorder *audittrail.Recorder, clock shared.Clock) *UnbanUserHandler {
	return &UnbanUserHandler{bans: bans, recorder: recorder, clock: clock}
}

// Handle executes the unban user command.
func (h *UnbanUserHandler) Handle(ctx context.Context, cmd UnbanUserCommand) (*UnbanUserResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	active, err := h.bans.GetActive(ctx, cmd.TelegramID, h.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("unban_user: %w", err)
	}

	if err := h.bans.Remove(ctx, cmd.TelegramID); err != nil {
		return nil, fmt.Errorf("unban_user: %w", err)
	}

	h.recorder.Record(audittrail.Entry{
		UserID:  cmd.TelegramID,
		Action:  audit.ActionUserUnban,
		AdminID: cmd.AdminID,
		Origin:  cmd.Origin,
	})

	return &UnbanUserResult{WasBanned: active != nil}, nil
}
