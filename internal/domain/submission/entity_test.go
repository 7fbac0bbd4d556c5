package submission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidLink(t *testing.T) {
	assert.True(t, ValidLink("https://github.com/alice/solution"))
	assert.True(t, ValidLink("http://example.com"))

	assert.False(t, ValidLink(""))
	assert.False(t, ValidLink("github.com/alice/solution"))
	assert.False(t, ValidLink("ftp://example.com/file"))
	assert.False(t, ValidLink("https://"))
	assert.False(t, ValidLink("  https://example.com"))
}

func TestAction(t *testing.T) {
	assert.True(t, ActionAccept.IsValid())
	assert.True(t, ActionReject.IsValid())
	assert.False(t, Action("approve").IsValid())

	assert.Equal(t, StatusAccepted, ActionAccept.Terminal())
	assert.Equal(t, StatusRejected, ActionReject.Terminal())
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusAccepted.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
}

func TestNew_StartsPending(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := New("sub-1", "1001", "ch-1", "https://example.com", now)

	assert.Equal(t, StatusPending, s.Status)
	assert.Zero(t, s.Score)
	assert.Empty(t, s.Note)
	assert.Equal(t, now, s.CreatedAt)
}
