package notification

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/challenge"
)

func TestNewChallenge_TruncatesOnRuneBoundary(t *testing.T) {
	c := &challenge.Challenge{
		Title:       "Weekly puzzle",
		Description: strings.Repeat("⚡", 200),
		Reward:      50,
		EndAt:       time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}

	msg := NewChallenge(c)
	assert.True(t, utf8.ValidString(msg))
	assert.Contains(t, msg, strings.Repeat("⚡", 150)+"...")
	assert.NotContains(t, msg, strings.Repeat("⚡", 151))
}

func TestNewChallenge_ShortDescriptionUntouched(t *testing.T) {
	c := &challenge.Challenge{
		Title:       "Weekly puzzle",
		Description: "solve it",
		Reward:      50,
		EndAt:       time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}

	msg := NewChallenge(c)
	assert.Contains(t, msg, "solve it")
	assert.NotContains(t, msg, "...")
}

func TestSubmissionReviewed_ScorelessAccept(t *testing.T) {
	msg := SubmissionReviewed(true, 0, "")
	assert.Contains(t, msg, "accepted")
	assert.NotContains(t, msg, "0 IQC")
}
