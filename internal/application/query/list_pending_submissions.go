package query

import (
	"context"
	"fmt"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/submission"
)

// DefaultPendingLimit applies when the caller requests no limit.
const DefaultPendingLimit = 50

// ListPendingSubmissionsQuery contains the review queue parameters.
type ListPendingSubmissionsQuery struct {
	// Limit caps the number of rows. Zero or negative means the default.
	Limit int
}

// ListPendingSubmissionsResult contains pending submissions, newest first.
type ListPendingSubmissionsResult struct {
	Submissions []*submission.Submission
}

// ListPendingSubmissionsHandler handles the ListPendingSubmissionsQuery.
type ListPendingSubmissionsHandler struct {
	submissions submission.Repository
}

// NewListPendingSubmissionsHandler creates a new ListPendingSubmissionsHandler.
func NewListPendingSubmissionsHandler(submissions submission.Repository) *ListPendingSubmissionsHandler {
	return &ListPendingSubmissionsHandler{submissions: submissions}
}

// Handle executes the list pending submissions query.
func (h *ListPendingSubmissionsHandler) Handle(ctx context.Context, q ListPendingSubmissionsQuery) (*ListPendingSubmissionsResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPendingLimit
	}

	list, err := h.submissions.ListPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list_pending_submissions: %w", err)
	}
	return &ListPendingSubmissionsResult{Submissions: list}, nil
}
