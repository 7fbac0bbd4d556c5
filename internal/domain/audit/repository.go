package audit

import "context"

// Repository defines storage operations for the audit trail.
type Repository interface {
	// Append stores one record. Records are never mutated afterwards.
	Append(ctx context.Context, r *Record) error

	// ListRecent returns up to limit records, newest first.
	ListRecent(ctx context.Context, limit int) ([]*Record, error)

	// Count returns the total number of records.
	Count(ctx context.Context) (int, error)
}
