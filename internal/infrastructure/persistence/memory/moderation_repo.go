package memory

import (
	"context"
	"time"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/moderation"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
)

// moderationRepo implements moderation.Repository on the in-memory store.
type moderationRepo struct {
	store *Store
}

func (r *moderationRepo) Upsert(ctx context.Context, b *moderation.Ban) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *b
	r.store.bans[b.UserID] = &cp
	return nil
}

func (r *moderationRepo) GetActive(ctx context.Context, userID user.TelegramID, now time.Time) (*moderation.Ban, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	b, ok := r.store.bans[userID]
	if !ok || !b.IsActive(now) {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *moderationRepo) Remove(ctx context.Context, userID user.TelegramID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.bans, userID)
	return nil
}

func (r *moderationRepo) PurgeExpired(ctx context.Context, cutoff time.Time) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	purged := 0
	for id, b := range r.store.bans {
		if b.Until.Before(cutoff) {
			delete(r.store.bans, id)
			purged++
		}
	}
	return purged, nil
}
