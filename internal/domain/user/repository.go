package user

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Implementations live in infrastructure/persistence (postgres and memory)
// and must behave identically from the caller's perspective.
// ══════════════════════════════════════════════════════════════════════════════

// UpsertResult reports whether an upsert created a new user.
type UpsertResult struct {
	User  *User
	IsNew bool
}

// Repository defines storage operations for users.
type Repository interface {
	// GetByTelegramID returns a user by external ID.
	// Returns shared.ErrUserNotFound if the user does not exist.
	GetByTelegramID(ctx context.Context, id TelegramID) (*User, error)

	// Upsert creates the user on first contact or refreshes identity fields
	// (username, name, last-active) on subsequent contact. Balance, level
	// and role are never touched by an upsert of an existing user.
	Upsert(ctx context.Context, id TelegramID, username, name string) (*UpsertResult, error)

	// AdjustBalance atomically applies a point delta to the user's balance,
	// clamping at zero and recomputing the level. The read-modify-write is
	// atomic per user record: two concurrent calls must serialize, never
	// both read the same starting balance.
	// Returns shared.ErrUserNotFound if the user does not exist.
	AdjustBalance(ctx context.Context, id TelegramID, delta int, reason string) (*BalanceChange, error)

	// SetField overwrites a single editable field (iqc, name, username)
	// on the user. An iqc edit recomputes the level; level itself is
	// derived and never directly editable.
	// Returns shared.ErrUnknownUserField for any other field name.
	SetField(ctx context.Context, id TelegramID, field, value string) (*User, error)

	// ListTop returns up to limit users ordered by balance descending.
	ListTop(ctx context.Context, limit int) ([]*User, error)

	// ListAll returns every user. Used for challenge broadcasts.
	ListAll(ctx context.Context) ([]*User, error)

	// Count returns the total number of users.
	Count(ctx context.Context) (int, error)
}
