package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/audit"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
	"github.com/iqc-hub/iqc-community-bot/internal/infrastructure/audittrail"
	rediscache "github.com/iqc-hub/iqc-community-bot/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE USER FIELD COMMAND
// Admin escape hatch to overwrite one member field directly. An iqc edit
// recomputes the level; level itself is derived and never editable.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateUserFieldCommand contains the data to overwrite a member field.
type UpdateUserFieldCommand struct {
	TelegramID user.TelegramID

	// Field is one of iqc, name, username.
	Field string

	// Value is the raw new value; iqc values must parse as integers.
	Value string

	// AdminID identifies the editing moderator.
	AdminID string

	// Origin is request provenance recorded in the audit trail.
	Origin string
}

// Validate validates the command.
func (c UpdateUserFieldCommand) Validate() error {
	if strings.TrimSpace(string(c.TelegramID)) == "" {
		return shared.ErrTelegramIDMissing
	}
	if strings.TrimSpace(c.Field) == "" {
		return shared.NewDomainError("user", "SetField", shared.ErrEmptyValue, "field name is required")
	}
	return nil
}

// UpdateUserFieldResult contains the updated user.
type UpdateUserFieldResult struct {
	User *user.User
}

// UpdateUserFieldHandler handles the UpdateUserFieldCommand.
type UpdateUserFieldHandler struct {
	users    user.Repository
	recorder *audittrail.Recorder
	cache    *rediscache.LeaderboardCache
}

// NewUpdateUserFieldHandler creates a new UpdateUserFieldHandler.
func NewUpdateUserFieldHandler(
	users user.Repository,
	recorder *audittrail.Recorder,
	cache *rediscache.LeaderboardCache,
) *UpdateUserFieldHandler {
	return &UpdateUserFieldHandler{users: users, recorder: recorder, cache: cache}
}

// Handle executes the update user field command.
func (h *UpdateUserFieldHandler) Handle(ctx context.Context, cmd UpdateUserFieldCommand) (*UpdateUserFieldResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	u, err := h.users.SetField(ctx, cmd.TelegramID, cmd.Field, cmd.Value)
	if err != nil {
		return nil, err
	}

	h.recorder.Record(audittrail.Entry{
		UserID:  cmd.TelegramID,
		Action:  audit.ActionUserFieldEdit,
		AdminID: cmd.AdminID,
		Reason:  fmt.Sprintf("%s=%s", cmd.Field, cmd.Value),
		Origin:  cmd.Origin,
	})

	if cmd.Field == "iqc" {
		_ = h.cache.Invalidate(ctx)
	}

	return &UpdateUserFieldResult{User: u}, nil
}
