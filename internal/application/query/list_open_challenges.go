package query

import (
	"context"
	"fmt"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/challenge"
)

// ListOpenChallengesQuery has no parameters; open means endAt has not
// passed yet.
type ListOpenChallengesQuery struct{}

// ListOpenChallengesResult contains open challenges, most recent first.
type ListOpenChallengesResult struct {
	Challenges []*challenge.Challenge
}

// ListOpenChallengesHandler handles the ListOpenChallengesQuery.
type ListOpenChallengesHandler struct {
	challenges challenge.Repository
}

// NewListOpenChallengesHandler creates a new ListOpenChallengesHandler.
func NewListOpenChallengesHandler(challenges challenge.Repository) *ListOpenChallengesHandler {
	return &ListOpenChallengesHandler{challenges: challenges}
}

// Handle executes the list open challenges query.
func (h *ListOpenChallengesHandler) Handle(ctx context.Context, _ ListOpenChallengesQuery) (*ListOpenChallengesResult, error) {
	list, err := h.challenges.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_open_challenges: %w", err)
	}
	return &ListOpenChallengesResult{Challenges: list}, nil
}
