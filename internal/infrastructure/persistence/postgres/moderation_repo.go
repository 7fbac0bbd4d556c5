package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/moderation"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
)

// ModerationRepository implements moderation.Repository for PostgreSQL.
type ModerationRepository struct {
	conn *Connection
}

// NewModerationRepository creates a new ModerationRepository.
func NewModerationRepository(conn *Connection) *ModerationRepository {
	return &ModerationRepository{conn: conn}
}

// Upsert stores the ban, overwriting any existing ban for the member.
func (r *ModerationRepository) Upsert(ctx context.Context, b *moderation.Ban) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO bans (user_telegram_id, reason, until, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_telegram_id) DO UPDATE SET
			reason = EXCLUDED.reason,
			until = EXCLUDED.until,
			created_at = EXCLUDED.created_at`,
		string(b.UserID), b.Reason, b.Until, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert ban: %w", err)
	}
	return nil
}

// GetActive returns the member's non-expired ban, or nil.
func (r *ModerationRepository) GetActive(ctx context.Context, userID user.TelegramID, now time.Time) (*moderation.Ban, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT user_telegram_id, reason, until, created_at
		FROM bans
		WHERE user_telegram_id = $1 AND until > $2`,
		string(userID), now,
	)

	var b moderation.Ban
	var id string
	err := row.Scan(&id, &b.Reason, &b.Until, &b.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active ban: %w", err)
	}
	b.UserID = user.TelegramID(id)
	return &b, nil
}

// Remove deletes the member's ban record.
func (r *ModerationRepository) Remove(ctx context.Context, userID user.TelegramID) error {
	if _, err := r.conn.Exec(ctx,
		`DELETE FROM bans WHERE user_telegram_id = $1`, string(userID),
	); err != nil {
		return fmt.Errorf("remove ban: %w", err)
	}
	return nil
}

// PurgeExpired deletes ban records that expired before the cutoff.
func (r *ModerationRepository) PurgeExpired(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := r.conn.Exec(ctx, `DELETE FROM bans WHERE until < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge expired bans: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
