// Package notification defines the outbound notification capability.
// Delivery is best-effort: a failed notification is logged by the
// implementation and never surfaces to the operation that triggered it.
package notification

import (
	"context"
	"fmt"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/challenge"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/moderation"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
)

// Notifier delivers a message to one member, or logs the failure and
// moves on. Implementations must never return delivery errors to the
// caller and must never block the triggering operation for long.
type Notifier interface {
	Notify(ctx context.Context, userID user.TelegramID, text string)
}

// NopNotifier discards all notifications. Used in tests and when the
// bot transport is not configured.
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, userID user.TelegramID, text string) {}

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGE BUILDERS
// ══════════════════════════════════════════════════════════════════════════════

// LevelPromotion builds the promotion notice for a balance change.
func LevelPromotion(c *user.BalanceChange) string {
	return fmt.Sprintf(
		"Congratulations, you have been promoted!\n\n"+
			"Old level: %d - %s\nNew level: %d - %s\n\nCurrent balance: %d IQC",
		c.OldLevel, c.OldLevel.Name(),
		c.NewLevel, c.NewLevel.Name(),
		c.NewIQC,
	)
}

// PointsAdjusted builds the notice sent after an admin point adjustment.
func PointsAdjusted(delta int, reason string, newIQC user.IQC) string {
	sign := ""
	if delta > 0 {
		sign = "+"
	}
	return fmt.Sprintf(
		"Your points were adjusted: %s%d\nReason: %s\n\nNew balance: %d IQC",
		sign, delta, reason, newIQC,
	)
}

// NewChallenge builds the broadcast notice for a freshly created challenge.
func NewChallenge(c *challenge.Challenge) string {
	desc := c.Description
	if r := []rune(desc); len(r) > 150 {
		desc = string(r[:150]) + "..."
	}
	return fmt.Sprintf(
		"New challenge available!\n\n%s\n\n%s\n\nReward: %d IQC\nEnds: %s\n\nJoin now: /challenges",
		c.Title, desc, c.Reward, c.EndAt.Format("2006-01-02"),
	)
}

// Banned builds the notice sent to a member when they are banned.
func Banned(b *moderation.Ban, hours int) string {
	return fmt.Sprintf(
		"Your account has been temporarily suspended.\n\n"+
			"Duration: %d hours\nReason: %s\nUntil: %s",
		hours, b.Reason, b.Until.Format("2006-01-02 15:04 MST"),
	)
}

// SubmissionReviewed builds the notice sent after a review decision.
func SubmissionReviewed(accepted bool, score int, note string) string {
	if accepted {
		msg := "Your submission was accepted!"
		if score > 0 {
			msg = fmt.Sprintf("Your submission was accepted! You earned %d IQC.", score)
		}
		if note != "" {
			msg += "\nModerator note: " + note
		}
		return msg
	}
	msg := "Your submission was not accepted this time."
	if note != "" {
		msg += "\nModerator note: " + note
	}
	return msg
}
