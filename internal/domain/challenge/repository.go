package challenge

import (
	"context"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
)

// Repository defines storage operations for challenges.
type Repository interface {
	// Create persists a new challenge.
	Create(ctx context.Context, c *Challenge) error

	// GetByID returns a challenge by ID.
	// Returns shared.ErrChallengeNotFound if missing.
	GetByID(ctx context.Context, id string) (*Challenge, error)

	// ListOpen returns challenges with endAt >= now, ordered by creation
	// time descending (most recent first).
	ListOpen(ctx context.Context) ([]*Challenge, error)

	// Join atomically appends the member to the participant set.
	// The check-then-append is a single operation per (challenge, member)
	// pair: concurrent joins by the same member must not both succeed.
	// Returns shared.ErrChallengeNotFound, shared.ErrAlreadyJoined or
	// shared.ErrChallengeEnded.
	Join(ctx context.Context, challengeID string, memberID user.TelegramID) (*Challenge, error)
}
