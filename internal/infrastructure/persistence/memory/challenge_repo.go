package memory

import (
	"context"
	"sort"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/challenge"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
)

// challengeRepo implements challenge.Repository on the in-memory store.
type challengeRepo struct {
	store *Store
}

func (r *challengeRepo) Create(ctx context.Context, c *challenge.Challenge) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := cloneChallenge(c)
	r.store.challenges = append(r.store.challenges, cp)
	return nil
}

func (r *challengeRepo) GetByID(ctx context.Context, id string) (*challenge.Challenge, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c := r.findLocked(id)
	if c == nil {
		return nil, shared.ErrChallengeNotFound
	}
	return cloneChallenge(c), nil
}

func (r *challengeRepo) ListOpen(ctx context.Context) ([]*challenge.Challenge, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := r.store.clock.Now()
	open := make([]*challenge.Challenge, 0)
	for _, c := range r.store.challenges {
		if !c.EndAt.Before(now) {
			open = append(open, cloneChallenge(c))
		}
	}

	sort.SliceStable(open, func(i, j int) bool {
		return open[i].CreatedAt.After(open[j].CreatedAt)
	})
	return open, nil
}

// Join performs check-then-append under the store lock, so concurrent
// joins by the same member serialize and exactly one succeeds.
func (r *challengeRepo) Join(ctx context.Context, challengeID string, memberID user.TelegramID) (*challenge.Challenge, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c := r.findLocked(challengeID)
	if c == nil {
		return nil, shared.ErrChallengeNotFound
	}
	if c.HasParticipant(memberID) {
		return nil, shared.ErrAlreadyJoined
	}
	if c.IsClosed(r.store.clock.Now()) {
		return nil, shared.ErrChallengeEnded
	}

	c.Participants = append(c.Participants, memberID)
	return cloneChallenge(c), nil
}

func (r *challengeRepo) findLocked(id string) *challenge.Challenge {
	for _, c := range r.store.challenges {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func cloneChallenge(c *challenge.Challenge) *challenge.Challenge {
	cp := *c
	cp.Participants = append([]user.TelegramID(nil), c.Participants...)
	return &cp
}
