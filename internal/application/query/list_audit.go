package query

import (
	"context"
	"fmt"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/audit"
)

// DefaultAuditLimit applies when the caller requests no limit.
const DefaultAuditLimit = 100

// ListAuditQuery contains the audit trail request parameters.
type ListAuditQuery struct {
	// Limit caps the number of rows. Zero or negative means the default.
	Limit int
}

// ListAuditResult contains audit records, newest first.
type ListAuditResult struct {
	Records []*audit.Record
	Total   int
}

// ListAuditHandler handles the ListAuditQuery.
type ListAuditHandler struct {
	audits audit.Repository
}

// NewListAuditHandler creates a new ListAuditHandler.
func NewListAuditHandler(audits audit.Repository) *ListAuditHandler {
	return &ListAuditHandler{audits: audits}
}

// Handle executes the audit trail query.
func (h *ListAuditHandler) Handle(ctx context.Context, q ListAuditQuery) (*ListAuditResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultAuditLimit
	}

	records, err := h.audits.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list_audit: %w", err)
	}
	total, err := h.audits.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_audit: %w", err)
	}
	return &ListAuditResult{Records: records, Total: total}, nil
}
