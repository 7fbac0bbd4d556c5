package postgres

import (
	"context"
	"fmt"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/audit"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
)

// AuditRepository implements audit.Repository for PostgreSQL.
// Records are append-only; there is no update or delete path.
type AuditRepository struct {
	conn *Connection
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(conn *Connection) *AuditRepository {
	return &AuditRepository{conn: conn}
}

// Append stores one record.
func (r *AuditRepository) Append(ctx context.Context, rec *audit.Record) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO audits (id, user_telegram_id, action, admin_id, delta, reason, origin, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, string(rec.UserID), rec.Action, rec.AdminID, rec.Delta, rec.Reason, rec.Origin, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

// ListRecent returns up to limit records, newest first.
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]*audit.Record, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, user_telegram_id, action, admin_id, delta, reason, origin, timestamp
		FROM audits
		ORDER BY timestamp DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	records := make([]*audit.Record, 0)
	for rows.Next() {
		var rec audit.Record
		var id string
		if err := rows.Scan(&rec.ID, &id, &rec.Action, &rec.AdminID, &rec.Delta, &rec.Reason, &rec.Origin, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		rec.UserID = user.TelegramID(id)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit records: %w", err)
	}
	return records, nil
}

// Count returns the total number of records.
func (r *AuditRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM audits`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count audit records: %w", err)
	}
	return n, nil
}
