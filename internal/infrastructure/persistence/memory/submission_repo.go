package memory

import (
	"context"
	"sort"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/submission"
)

// submissionRepo implements submission.Repository on the in-memory store.
type submissionRepo struct {
	store *Store
}

func (r *submissionRepo) Create(ctx context.Context, s *submission.Submission) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *s
	r.store.submissions = append(r.store.submissions, &cp)
	return nil
}

func (r *submissionRepo) GetByID(ctx context.Context, id string) (*submission.Submission, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s := r.findLocked(id)
	if s == nil {
		return nil, shared.ErrSubmissionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *submissionRepo) ListPending(ctx context.Context, limit int) ([]*submission.Submission, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	pending := make([]*submission.Submission, 0)
	for _, s := range r.store.submissions {
		if s.Status == submission.StatusPending {
			cp := *s
			pending = append(pending, &cp)
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].CreatedAt.After(pending[j].CreatedAt)
	})

	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// Review transitions a pending submission to its terminal status. The
// status check and the write happen under one lock, so the transition
// fires exactly once even under concurrent review attempts.
func (r *submissionRepo) Review(ctx context.Context, id string, status submission.Status, score int, note string) (*submission.Submission, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s := r.findLocked(id)
	if s == nil {
		return nil, shared.ErrSubmissionNotFound
	}
	if s.Status.IsTerminal() {
		return nil, shared.ErrAlreadyReviewed
	}

	s.Status = status
	s.Score = score
	s.Note = note

	cp := *s
	return &cp, nil
}

func (r *submissionRepo) findLocked(id string) *submission.Submission {
	for _, s := range r.store.submissions {
		if s.ID == id {
			return s
		}
	}
	return nil
}
