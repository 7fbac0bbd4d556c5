package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
)

// GetProfileQuery contains the profile request parameters.
type GetProfileQuery struct {
	TelegramID user.TelegramID
}

// GetProfileResult contains the member and their leaderboard position.
type GetProfileResult struct {
	User *user.User

	// Rank is 1-based; members with equal balance share a rank.
	Rank int
}

// GetProfileHandler handles the GetProfileQuery.
type GetProfileHandler struct {
	users user.Repository
}

// NewGetProfileHandler creates a new GetProfileHandler.
func NewGetProfileHandler(users user.Repository) *GetProfileHandler {
	return &GetProfileHandler{users: users}
}

// Handle executes the profile query.
func (h *GetProfileHandler) Handle(ctx context.Context, q GetProfileQuery) (*GetProfileResult, error) {
	if strings.TrimSpace(string(q.TelegramID)) == "" {
		return nil, shared.ErrTelegramIDMissing
	}

	u, err := h.users.GetByTelegramID(ctx, q.TelegramID)
	if err != nil {
		return nil, err
	}

	all, err := h.users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_profile: %w", err)
	}

	rank := 1
	for _, other := range all {
		if other.IQC > u.IQC {
			rank++
		}
	}

	return &GetProfileResult{User: u, Rank: rank}, nil
}
