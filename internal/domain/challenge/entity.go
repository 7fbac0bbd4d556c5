// Package challenge contains the time-bounded challenge domain model.
// A challenge is open while now < endAt; there is no explicit close
// mutation - closed state is always derived from the clock.
package challenge

import (
	"strings"
	"time"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
)

// Type classifies a challenge.
type Type string

const (
	TypeSolo Type = "solo"
	TypeTeam Type = "team"
	TypeMini Type = "mini"
)

// IsValid reports whether the type is one of the known challenge types.
func (t Type) IsValid() bool {
	switch t {
	case TypeSolo, TypeTeam, TypeMini:
		return true
	default:
		return false
	}
}

// Challenge is a time-bounded activity members can join and submit to.
type Challenge struct {
	ID          string
	Title       string
	Description string
	Type        Type
	Reward      int
	StartAt     time.Time
	EndAt       time.Time
	// Participants is an ordered set of member IDs - no duplicates.
	Participants []user.TelegramID
	CreatedAt    time.Time
}

// New creates a challenge. Past end times are accepted deliberately so
// admins can record already-closed challenges for history.
func New(id, title, description string, typ Type, reward int, endAt, now time.Time) *Challenge {
	if !typ.IsValid() {
		typ = TypeSolo
	}
	return &Challenge{
		ID:           id,
		Title:        title,
		Description:  description,
		Type:         typ,
		Reward:       reward,
		StartAt:      now,
		EndAt:        endAt,
		Participants: []user.TelegramID{},
		CreatedAt:    now,
	}
}

// Validate checks the required creation fields.
func (c *Challenge) Validate() bool {
	return strings.TrimSpace(c.Title) != "" &&
		strings.TrimSpace(c.Description) != "" &&
		c.Reward > 0 &&
		!c.EndAt.IsZero()
}

// IsClosed reports whether the challenge window has passed.
func (c *Challenge) IsClosed(now time.Time) bool {
	return now.After(c.EndAt)
}

// HasParticipant reports whether the member already joined.
func (c *Challenge) HasParticipant(id user.TelegramID) bool {
	for _, p := range c.Participants {
		if p == id {
			return true
		}
	}
	return false
}
