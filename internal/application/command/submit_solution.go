package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/audit"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/challenge"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/submission"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
	"github.com/iqc-hub/iqc-community-bot/internal/infrastructure/audittrail"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT SOLUTION COMMAND
// Records a member's claimed solution link against an open challenge.
// Repeat submissions to the same challenge are allowed; only review is
// gated. Submitting awards nothing until a moderator accepts.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitSolutionCommand contains the data to file a submission.
type SubmitSolutionCommand struct {
	ChallengeID string
	TelegramID  user.TelegramID

	// Link points at the solution. Must start with http:// or https://.
	Link string

	// Origin is request provenance recorded in the audit trail.
	Origin string
}

// Validate validates the command.
func (c SubmitSolutionCommand) Validate() error {
	if strings.TrimSpace(c.ChallengeID) == "" {
		return shared.NewDomainError("submission", "Create", shared.ErrEmptyValue, "challenge ID is required")
	}
	if strings.TrimSpace(string(c.TelegramID)) == "" {
		return shared.ErrTelegramIDMissing
	}
	if !submission.ValidLink(c.Link) {
		return shared.ErrInvalidLink
	}
	return nil
}

// SubmitSolutionResult contains the filed submission.
type SubmitSolutionResult struct {
	Submission *submission.Submission
}

// SubmitSolutionHandler handles the SubmitSolutionCommand.
type SubmitSolutionHandler struct {
	submissions submission.Repository
	challenges  challenge.Repository
	users       user.Repository
	recorder    *audittrail.Recorder
	clock       shared.Clock
}

// NewSubmitSolutionHandler creates a new SubmitSolutionHandler.
func NewSubmitSolutionHandler(
	submissions submission.Repository,
	challenges challenge.Repository,
	users user.Repository,
	recorder *audittrail.Recorder,
	clock shared.Clock,
) *SubmitSolutionHandler {
	return &SubmitSolutionHandler{
		submissions: submissions,
		challenges:  challenges,
		users:       users,
		recorder:    recorder,
		clock:       clock,
	}
}

// Handle executes the submit solution command.
func (h *SubmitSolutionHandler) Handle(ctx context.Context, cmd SubmitSolutionCommand) (*SubmitSolutionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if _, err := h.users.GetByTelegramID(ctx, cmd.TelegramID); err != nil {
		return nil, fmt.Errorf("submit_solution: %w", err)
	}

	c, err := h.challenges.GetByID(ctx, cmd.ChallengeID)
	if err != nil {
		return nil, fmt.Errorf("submit_solution: %w", err)
	}
	if c.IsClosed(h.clock.Now()) {
		return nil, shared.ErrChallengeEnded
	}

	s := submission.New(uuid.NewString(), cmd.TelegramID, cmd.ChallengeID, cmd.Link, h.clock.Now())
	if err := h.submissions.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("submit_solution: %w", err)
	}

	h.recorder.Record(audittrail.Entry{
		UserID: cmd.TelegramID,
		Action: audit.ActionSubmissionCreate,
		Reason: c.Title,
		Origin: cmd.Origin,
	})

	return &SubmitSolutionResult{Submission: s}, nil
}
