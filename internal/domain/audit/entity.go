// Package audit contains the append-only trail of state mutations.
// Records are never updated or deleted.
package audit

import (
	"time"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
)

// Action tags classify audit records. One tag per logical mutation.
const (
	ActionRegister         = "REGISTER"
	ActionPointsAdjust     = "POINTS_ADJUST"
	ActionChallengeCreate  = "CHALLENGE_CREATE"
	ActionChallengeJoin    = "CHALLENGE_JOIN"
	ActionSubmissionCreate = "SUBMISSION_CREATE"
	ActionSubmissionReview = "SUBMISSION_REVIEW"
	ActionUserBan          = "USER_BAN"
	ActionUserUnban        = "USER_UNBAN"
	ActionUserFieldEdit    = "USER_FIELD_EDIT"
)

// Record is one immutable audit entry describing a state mutation.
type Record struct {
	ID        string
	UserID    user.TelegramID // acting (or affected) member
	Action    string
	AdminID   string // empty unless an admin triggered the mutation
	Delta     int    // point delta, zero when not applicable
	Reason    string
	Origin    string // origin metadata, e.g. remote address
	Timestamp time.Time
}
