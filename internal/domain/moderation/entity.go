// Package moderation contains time-bound suspension (ban) records.
// A ban is active iff until > now; expired bans are inert and may stay
// in storage until the purge job removes them.
package moderation

import (
	"time"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
)

// Ban is a time-bound suspension of one member. At most one ban record
// exists per member - a new ban overwrites the old one.
type Ban struct {
	UserID    user.TelegramID
	Reason    string
	Until     time.Time
	CreatedAt time.Time
}

// New creates a ban lasting the given number of hours from now.
func New(userID user.TelegramID, reason string, hours int, now time.Time) *Ban {
	return &Ban{
		UserID:    userID,
		Reason:    reason,
		Until:     now.Add(time.Duration(hours) * time.Hour),
		CreatedAt: now,
	}
}

// IsActive reports whether the ban is still in effect.
func (b *Ban) IsActive(now time.Time) bool {
	return b.Until.After(now)
}
