package memory

import (
	"context"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/audit"
)

// auditRepo implements audit.Repository on the in-memory store.
type auditRepo struct {
	store *Store
}

func (r *auditRepo) Append(ctx context.Context, rec *audit.Record) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *rec
	r.store.audits = append(r.store.audits, &cp)
	return nil
}

func (r *auditRepo) ListRecent(ctx context.Context, limit int) ([]*audit.Record, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	n := len(r.store.audits)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]*audit.Record, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		cp := *r.store.audits[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *auditRepo) Count(ctx context.Context) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return len(r.store.audits), nil
}
