package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/audit"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/challenge"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
	"github.com/iqc-hub/iqc-community-bot/internal/infrastructure/audittrail"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOIN CHALLENGE COMMAND
// Adds a registered member to a challenge's participant set. Rejections
// are checked in a fixed order: unknown challenge, already joined, window
// closed. Joining changes no balance.
// ══════════════════════════════════════════════════════════════════════════════

// JoinChallengeCommand contains the data to join a challenge.
type JoinChallengeCommand struct {
	ChallengeID string
	TelegramID  user.TelegramID

	// Origin is request provenance recorded in the audit trail.
	Origin string
}

// Validate validates the command.
func (c JoinChallengeCommand) Validate() error {
	if strings.TrimSpace(c.ChallengeID) == "" {
		return shared.NewDomainError("challenge", "Join", shared.ErrEmptyValue, "challenge ID is required")
	}
	if strings.TrimSpace(string(c.TelegramID)) == "" {
		return shared.ErrTelegramIDMissing
	}
	return nil
}

// JoinChallengeResult contains the updated challenge.
type JoinChallengeResult struct {
	Challenge *challenge.Challenge
}

// JoinChallengeHandler handles the JoinChallengeCommand.
type JoinChallengeHandler struct {
	challenges challenge.Repository
	users      user.Repository
	recorder   *audittrail.Recorder
}

// NewJoinChallengeHandler creates a new JoinChallengeHandler.
func NewJoinChallengeHandler(
	challenges challenge.Repository,
	users user.Repository,
	recorder *audittrail.Recorder,
) *JoinChallengeHandler {
	return &JoinChallengeHandler{challenges: challenges, users: users, recorder: recorder}
}

// Handle executes the join challenge command.
func (h *JoinChallengeHandler) Handle(ctx context.Context, cmd JoinChallengeCommand) (*JoinChallengeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if _, err := h.users.GetByTelegramID(ctx, cmd.TelegramID); err != nil {
		return nil, fmt.Errorf("join_challenge: %w", err)
	}

	c, err := h.challenges.Join(ctx, cmd.ChallengeID, cmd.TelegramID)
	if err != nil {
		return nil, err
	}

	h.recorder.Record(audittrail.Entry{
		UserID: cmd.TelegramID,
		Action: audit.ActionChallengeJoin,
		Reason: c.Title,
		Origin: cmd.Origin,
	})

	return &JoinChallengeResult{Challenge: c}, nil
}
