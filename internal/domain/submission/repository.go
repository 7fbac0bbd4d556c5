package submission

import "context"

// Repository defines storage operations for submissions.
type Repository interface {
	// Create persists a new pending submission.
	Create(ctx context.Context, s *Submission) error

	// GetByID returns a submission by ID.
	// Returns shared.ErrSubmissionNotFound if missing.
	GetByID(ctx context.Context, id string) (*Submission, error)

	// ListPending returns up to limit pending submissions, newest first.
	ListPending(ctx context.Context, limit int) ([]*Submission, error)

	// Review atomically moves a pending submission to the terminal status,
	// recording score and note. The transition happens exactly once: if the
	// submission is already terminal the call fails with
	// shared.ErrAlreadyReviewed and changes nothing.
	Review(ctx context.Context, id string, status Status, score int, note string) (*Submission, error)
}
