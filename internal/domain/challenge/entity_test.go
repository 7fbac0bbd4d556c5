package challenge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_DefaultsInvalidType(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c := New("ch-1", "Title", "Desc", Type("raid"), 100, now.Add(time.Hour), now)

	assert.Equal(t, TypeSolo, c.Type)
	assert.Empty(t, c.Participants)
	assert.Equal(t, now, c.StartAt)
}

func TestValidate(t *testing.T) {
	now := time.Now().UTC()

	ok := New("ch-1", "Title", "Desc", TypeMini, 50, now.Add(time.Hour), now)
	assert.True(t, ok.Validate())

	noTitle := New("ch-2", "  ", "Desc", TypeSolo, 50, now.Add(time.Hour), now)
	assert.False(t, noTitle.Validate())

	noReward := New("ch-3", "Title", "Desc", TypeSolo, 0, now.Add(time.Hour), now)
	assert.False(t, noReward.Validate())
}

func TestIsClosed(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c := New("ch-1", "Title", "Desc", TypeSolo, 100, now.Add(time.Hour), now)

	assert.False(t, c.IsClosed(now))
	// The end instant itself is still open; only after it the window closes.
	assert.False(t, c.IsClosed(now.Add(time.Hour)))
	assert.True(t, c.IsClosed(now.Add(time.Hour+time.Second)))

	// A past end time is legal at creation and immediately closed.
	past := New("ch-2", "Old", "Desc", TypeSolo, 100, now.Add(-time.Hour), now)
	assert.True(t, past.IsClosed(now))
}

func TestHasParticipant(t *testing.T) {
	now := time.Now().UTC()
	c := New("ch-1", "Title", "Desc", TypeTeam, 100, now.Add(time.Hour), now)
	c.Participants = append(c.Participants, "1001")

	assert.True(t, c.HasParticipant("1001"))
	assert.False(t, c.HasParticipant("1002"))
}
