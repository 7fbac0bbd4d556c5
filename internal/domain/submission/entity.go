// Package submission contains the challenge submission domain model and
// its review state machine: pending -> accepted | rejected, terminal
// states are final.
package submission

import (
	"regexp"
	"time"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
)

// Status is the review state of a submission.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Action is a moderator review decision.
type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
)

// IsValid reports whether the action is accept or reject.
func (a Action) IsValid() bool {
	return a == ActionAccept || a == ActionReject
}

// Terminal returns the status the action transitions to.
func (a Action) Terminal() Status {
	if a == ActionAccept {
		return StatusAccepted
	}
	return StatusRejected
}

// linkPattern accepts any http(s) URL. Deliberately loose - moderators
// review the link by hand anyway.
var linkPattern = regexp.MustCompile(`^https?://.+`)

// ValidLink reports whether the link has an http(s) prefix.
func ValidLink(link string) bool {
	return linkPattern.MatchString(link)
}

// Submission is a member's claimed solution to a challenge. Members may
// submit multiple times to the same challenge - duplicates are allowed
// by design, only review is gated.
type Submission struct {
	ID          string
	UserID      user.TelegramID
	ChallengeID string
	Link        string
	Status      Status
	Score       int
	Note        string
	CreatedAt   time.Time
}

// New creates a pending submission.
func New(id string, userID user.TelegramID, challengeID, link string, now time.Time) *Submission {
	return &Submission{
		ID:          id,
		UserID:      userID,
		ChallengeID: challengeID,
		Link:        link,
		Status:      StatusPending,
		Score:       0,
		Note:        "",
		CreatedAt:   now,
	}
}
