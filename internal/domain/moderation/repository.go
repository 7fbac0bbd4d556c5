package moderation

import (
	"context"
	"time"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
)

// Repository defines storage operations for bans.
type Repository interface {
	// Upsert stores the ban, overwriting any existing ban for the same
	// member. Overwriting is intended, not a conflict.
	Upsert(ctx context.Context, b *Ban) error

	// GetActive returns the member's ban if it is still in effect at now,
	// or nil. Expired bans are treated as absent without eager cleanup.
	GetActive(ctx context.Context, userID user.TelegramID, now time.Time) (*Ban, error)

	// Remove deletes the member's ban record. Removing a missing ban is
	// not an error.
	Remove(ctx context.Context, userID user.TelegramID) error

	// PurgeExpired deletes ban records that expired before the cutoff and
	// returns how many were removed.
	PurgeExpired(ctx context.Context, cutoff time.Time) (int, error)
}
