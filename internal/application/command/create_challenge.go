package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/audit"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/challenge"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/notification"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
	"github.com/iqc-hub/iqc-community-bot/internal/infrastructure/audittrail"
	"github.com/iqc-hub/iqc-community-bot/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE CHALLENGE COMMAND
// Admins open a new challenge; every registered member gets an
// announcement. The broadcast runs in the background and never delays or
// fails the creation itself.
// ══════════════════════════════════════════════════════════════════════════════

// CreateChallengeCommand contains the data to open a challenge.
type CreateChallengeCommand struct {
	Title       string
	Description string

	// Type is solo, team or mini. Unknown values fall back to solo.
	Type challenge.Type

	// Reward is the point value an accepted submission earns.
	Reward int

	// EndAt closes the joining and submission window. A past end time is
	// accepted so closed challenges can be recorded for history.
	EndAt time.Time

	// AdminID identifies the creating moderator.
	AdminID string

	// Origin is request provenance recorded in the audit trail.
	Origin string
}

// CreateChallengeResult contains the created challenge.
type CreateChallengeResult struct {
	Challenge *challenge.Challenge

	// Notified is how many members the announcement was queued for.
	Notified int
}

// CreateChallengeHandler handles the CreateChallengeCommand.
type CreateChallengeHandler struct {
	challenges challenge.Repository
	users      user.Repository
	recorder   *audittrail.Recorder
	notifier   notification.Notifier
	clock      shared.Clock
	log        *logger.Logger
}

// NewCreateChallengeHandler creates a new CreateChallengeHandler.
func NewCreateChallengeHandler(
	challenges challenge.Repository,
	users user.Repository,
	recorder *audittrail.Recorder,
	notifier notification.Notifier,
	clock shared.Clock,
	log *logger.Logger,
) *CreateChallengeHandler {
	return &CreateChallengeHandler{
		challenges: challenges,
		users:      users,
		recorder:   recorder,
		notifier:   notifier,
		clock:      clock,
		log:        log,
	}
}

// Handle executes the create challenge command.
func (h *CreateChallengeHandler) Handle(ctx context.Context, cmd CreateChallengeCommand) (*CreateChallengeResult, error) {
	c := challenge.New(
		uuid.NewString(),
		cmd.Title,
		cmd.Description,
		cmd.Type,
		cmd.Reward,
		cmd.EndAt,
		h.clock.Now(),
	)
	if !c.Validate() {
		return nil, shared.ErrChallengeInvalid
	}

	if err := h.challenges.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create_challenge: %w", err)
	}

	h.recorder.Record(audittrail.Entry{
		Action:  audit.ActionChallengeCreate,
		AdminID: cmd.AdminID,
		Reason:  c.Title,
		Origin:  cmd.Origin,
	})

	notified := h.broadcast(ctx, c)

	return &CreateChallengeResult{Challenge: c, Notified: notified}, nil
}

// broadcast queues the announcement for every member. Delivery is
// fire-and-forget per recipient; the notifier logs its own failures.
func (h *CreateChallengeHandler) broadcast(ctx context.Context, c *challenge.Challenge) int {
	members, err := h.users.ListAll(ctx)
	if err != nil {
		h.log.Warn("challenge broadcast skipped",
			logger.ChallengeID(c.ID),
			logger.Err(err),
		)
		return 0
	}

	text := notification.NewChallenge(c)
	bg := context.WithoutCancel(ctx)
	go func() {
		for _, m := range members {
			h.notifier.Notify(bg, m.TelegramID, text)
		}
	}()

	return len(members)
}
