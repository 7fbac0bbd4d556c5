// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/audit"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
	"github.com/iqc-hub/iqc-community-bot/internal/infrastructure/audittrail"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER USER COMMAND
// First contact creates the member at level one with zero balance; repeat
// contact only refreshes identity fields. Registration is idempotent.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterUserCommand contains the data to register or refresh a member.
type RegisterUserCommand struct {
	// TelegramID is the external messenger identity.
	TelegramID user.TelegramID

	// Username is the handle, may be empty.
	Username string

	// Name is the display name, may be empty.
	Name string

	// Origin is request provenance recorded in the audit trail.
	Origin string
}

// Validate validates the command.
func (c RegisterUserCommand) Validate() error {
	if strings.TrimSpace(string(c.TelegramID)) == "" {
		return shared.ErrTelegramIDMissing
	}
	return nil
}

// RegisterUserResult contains the result of a registration.
type RegisterUserResult struct {
	User *user.User

	// IsNew is true only on first contact.
	IsNew bool
}

// RegisterUserHandler handles the RegisterUserCommand.
type RegisterUserHandler struct {
	users    user.Repository
	recorder *audittrail.Recorder
}

// NewRegisterUserHandler creates a new RegisterUserHandler.
func NewRegisterUserHandler(users user.Repository, recorder *audittrail.Recorder) *RegisterUserHandler {
	return &RegisterUserHandler{users: users, recorder: recorder}
}

// Handle executes the register user command.
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd RegisterUserCommand) (*RegisterUserResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	res, err := h.users.Upsert(ctx, cmd.TelegramID, cmd.Username, cmd.Name)
	if err != nil {
		return nil, fmt.Errorf("register_user: upsert failed: %w", err)
	}

	// Only first contact is an auditable mutation; a refresh is not.
	if res.IsNew {
		h.recorder.Record(audittrail.Entry{
			UserID: cmd.TelegramID,
			Action: audit.ActionRegister,
			Origin: cmd.Origin,
		})
	}

	return &RegisterUserResult{User: res.User, IsNew: res.IsNew}, nil
}
