package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/audit"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/notification"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/submission"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
	"github.com/iqc-hub/iqc-community-bot/internal/infrastructure/audittrail"
	rediscache "github.com/iqc-hub/iqc-community-bot/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW SUBMISSION COMMAND
// Moves a pending submission to accepted or rejected, exactly once.
// Acceptance with a score credits it to the author's balance; acceptance
// without one, like rejection, only records the verdict. A second review
// of the same submission fails with ErrAlreadyReviewed and changes
// nothing.
// ══════════════════════════════════════════════════════════════════════════════

// ReviewSubmissionCommand contains the data to review a submission.
type ReviewSubmissionCommand struct {
	SubmissionID string

	// Action is accept or reject.
	Action submission.Action

	// Score is the awarded points. Used only on accept; an accept with
	// no score records the verdict without crediting the balance.
	Score int

	// Note is an optional reviewer remark passed to the author.
	Note string

	// AdminID identifies the reviewing moderator.
	AdminID string

	// Origin is request provenance recorded in the audit trail.
	Origin string
}

// Validate validates the command.
func (c ReviewSubmissionCommand) Validate() error {
	if strings.TrimSpace(c.SubmissionID) == "" {
		return shared.NewDomainError("submission", "Review", shared.ErrEmptyValue, "submission ID is required")
	}
	if !c.Action.IsValid() {
		return shared.ErrInvalidAction
	}
	if c.Score < 0 {
		return shared.NewDomainError("submission", "Review", shared.ErrValidation, "score cannot be negative")
	}
	return nil
}

// ReviewSubmissionResult contains the terminal submission and, on
// acceptance, the resulting balance change.
type ReviewSubmissionResult struct {
	Submission *submission.Submission

	// Change is nil on rejection and on an accept without a score.
	Change *user.BalanceChange
}

// ReviewSubmissionHandler handles the ReviewSubmissionCommand.
type ReviewSubmissionHandler struct {
	submissions submission.Repository
	users       user.Repository
	recorder    *audittrail.Recorder
	notifier    notification.Notifier
	cache       *rediscache.LeaderboardCache
}

// NewReviewSubmissionHandler creates a new ReviewSubmissionHandler.
func NewReviewSubmissionHandler(
	submissions submission.Repository,
	users user.Repository,
	recorder *audittrail.Recorder,
	notifier notification.Notifier,
	cache *rediscache.LeaderboardCache,
) *ReviewSubmissionHandler {
	return &ReviewSubmissionHandler{
		submissions: submissions,
		users:       users,
		recorder:    recorder,
		notifier:    notifier,
		cache:       cache,
	}
}

// Handle executes the review submission command.
func (h *ReviewSubmissionHandler) Handle(ctx context.Context, cmd ReviewSubmissionCommand) (*ReviewSubmissionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	accepted := cmd.Action == submission.ActionAccept
	score := 0
	if accepted {
		score = cmd.Score
	}

	s, err := h.submissions.Review(ctx, cmd.SubmissionID, cmd.Action.Terminal(), score, cmd.Note)
	if err != nil {
		return nil, err
	}

	result := &ReviewSubmissionResult{Submission: s}

	if accepted && score > 0 {
		reason := fmt.Sprintf("challenge submission accepted (%s)", s.ChallengeID)
		change, err := h.users.AdjustBalance(ctx, s.UserID, score, reason)
		if err != nil {
			// The review already landed; surface the credit failure so an
			// operator can reconcile from the audit trail.
			return nil, fmt.Errorf("review_submission: credit failed after accept: %w", err)
		}
		result.Change = change
		_ = h.cache.Invalidate(ctx)
	}

	h.recorder.Record(audittrail.Entry{
		UserID:  s.UserID,
		Action:  audit.ActionSubmissionReview,
		AdminID: cmd.AdminID,
		Delta:   score,
		Reason:  string(cmd.Action),
		Origin:  cmd.Origin,
	})

	h.notifier.Notify(ctx, s.UserID, notification.SubmissionReviewed(accepted, score, cmd.Note))
	if result.Change != nil && result.Change.Promoted() {
		h.notifier.Notify(ctx, s.UserID, notification.LevelPromotion(result.Change))
	}

	return result, nil
}
