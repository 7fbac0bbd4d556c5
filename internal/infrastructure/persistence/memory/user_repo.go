package memory

import (
	"context"
	"sort"
	"strconv"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
)

// userRepo implements user.Repository on the in-memory store.
type userRepo struct {
	store *Store
}

func (r *userRepo) GetByTelegramID(ctx context.Context, id user.TelegramID) (*user.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) Upsert(ctx context.Context, id user.TelegramID, username, name string) (*user.UpsertResult, error) {
	if !id.IsValid() {
		return nil, shared.ErrTelegramIDMissing
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := r.store.clock.Now()

	if existing, ok := r.store.users[id]; ok {
		if username != "" {
			existing.Username = username
		}
		if name != "" {
			existing.Name = name
		}
		existing.LastActive = now
		existing.UpdatedAt = now
		cp := *existing
		return &user.UpsertResult{User: &cp, IsNew: false}, nil
	}

	u := user.New(id, username, name, now)
	r.store.users[id] = u
	r.store.userOrder = append(r.store.userOrder, id)
	cp := *u
	return &user.UpsertResult{User: &cp, IsNew: true}, nil
}

func (r *userRepo) AdjustBalance(ctx context.Context, id user.TelegramID, delta int, reason string) (*user.BalanceChange, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}

	oldIQC := u.IQC
	oldLevel := u.Level

	u.IQC = user.ClampBalance(u.IQC, delta)
	u.Level = user.ComputeLevel(u.IQC)
	u.UpdatedAt = r.store.clock.Now()

	cp := *u
	return &user.BalanceChange{
		User:         &cp,
		OldIQC:       oldIQC,
		NewIQC:       u.IQC,
		OldLevel:     oldLevel,
		NewLevel:     u.Level,
		LevelChanged: u.Level != oldLevel,
		Reason:       reason,
	}, nil
}

func (r *userRepo) SetField(ctx context.Context, id user.TelegramID, field, value string) (*user.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}

	switch field {
	case "iqc":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, shared.WrapError("user", "SetField", shared.ErrInvalidInput, "iqc must be an integer", err)
		}
		u.IQC = user.ClampBalance(0, n)
		u.Level = user.ComputeLevel(u.IQC)
	case "name":
		u.Name = value
	case "username":
		u.Username = value
	default:
		return nil, shared.ErrUnknownUserField
	}

	u.UpdatedAt = r.store.clock.Now()
	cp := *u
	return &cp, nil
}

func (r *userRepo) ListTop(ctx context.Context, limit int) ([]*user.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	all := make([]*user.User, 0, len(r.store.users))
	for _, id := range r.store.userOrder {
		cp := *r.store.users[id]
		all = append(all, &cp)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].IQC > all[j].IQC
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *userRepo) ListAll(ctx context.Context) ([]*user.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	all := make([]*user.User, 0, len(r.store.users))
	for _, id := range r.store.userOrder {
		cp := *r.store.users[id]
		all = append(all, &cp)
	}
	return all, nil
}

func (r *userRepo) Count(ctx context.Context) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return len(r.store.users), nil
}
