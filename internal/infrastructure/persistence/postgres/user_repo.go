package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
)

const userColumns = `telegram_id, username, name, iqc, level, role, last_active, created_at, updated_at`

// UserRepository implements user.Repository for PostgreSQL.
type UserRepository struct {
	conn  *Connection
	clock shared.Clock
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection, clock shared.Clock) *UserRepository {
	return &UserRepository{conn: conn, clock: clock}
}

// GetByTelegramID returns a user by external ID.
func (r *UserRepository) GetByTelegramID(ctx context.Context, id user.TelegramID) (*user.User, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE telegram_id = $1`,
		string(id),
	)
	return scanUser(row)
}

// Upsert creates the user on first contact or refreshes identity fields.
// Balance, level and role of an existing user are never touched.
func (r *UserRepository) Upsert(ctx context.Context, id user.TelegramID, username, name string) (*user.UpsertResult, error) {
	if !id.IsValid() {
		return nil, shared.ErrTelegramIDMissing
	}

	now := r.clock.Now()
	row := r.conn.QueryRow(ctx, `
		INSERT INTO users (telegram_id, username, name, last_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4, $4)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = CASE WHEN EXCLUDED.username <> '' THEN EXCLUDED.username ELSE users.username END,
			name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE users.name END,
			last_active = EXCLUDED.last_active,
			updated_at = EXCLUDED.updated_at
		RETURNING `+userColumns+`, (created_at = updated_at) AS is_new`,
		string(id), username, name, now,
	)

	var u user.User
	var isNew bool
	if err := scanUserInto(row, &u, &isNew); err != nil {
		return nil, err
	}
	return &user.UpsertResult{User: &u, IsNew: isNew}, nil
}

// AdjustBalance applies a point delta inside a transaction holding a row
// lock on the user, so concurrent deltas for the same user serialize.
func (r *UserRepository) AdjustBalance(ctx context.Context, id user.TelegramID, delta int, reason string) (*user.BalanceChange, error) {
	var change *user.BalanceChange

	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`SELECT iqc, level FROM users WHERE telegram_id = $1 FOR UPDATE`,
			string(id),
		)

		var oldIQC, oldLevel int
		if err := row.Scan(&oldIQC, &oldLevel); err != nil {
			if IsNoRows(err) {
				return shared.ErrUserNotFound
			}
			return fmt.Errorf("lock user row: %w", err)
		}

		newIQC := user.ClampBalance(user.IQC(oldIQC), delta)
		newLevel := user.ComputeLevel(newIQC)

		updated := tx.QueryRow(ctx, `
			UPDATE users SET iqc = $1, level = $2, updated_at = $3
			WHERE telegram_id = $4
			RETURNING `+userColumns,
			int(newIQC), int(newLevel), r.clock.Now(), string(id),
		)

		u, err := scanUser(updated)
		if err != nil {
			return err
		}

		change = &user.BalanceChange{
			User:         u,
			OldIQC:       user.IQC(oldIQC),
			NewIQC:       newIQC,
			OldLevel:     user.Level(oldLevel),
			NewLevel:     newLevel,
			LevelChanged: newLevel != user.Level(oldLevel),
			Reason:       reason,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}

// SetField overwrites one editable field. An iqc edit recomputes level
// under the same row lock as a balance adjustment.
func (r *UserRepository) SetField(ctx context.Context, id user.TelegramID, field, value string) (*user.User, error) {
	switch field {
	case "iqc":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, shared.WrapError("user", "SetField", shared.ErrInvalidInput, "iqc must be an integer", err)
		}
		change, err := r.setBalance(ctx, id, n)
		if err != nil {
			return nil, err
		}
		return change, nil
	case "name", "username":
		row := r.conn.QueryRow(ctx, `
			UPDATE users SET `+field+` = $1, updated_at = $2
			WHERE telegram_id = $3
			RETURNING `+userColumns,
			value, r.clock.Now(), string(id),
		)
		return scanUser(row)
	default:
		return nil, shared.ErrUnknownUserField
	}
}

func (r *UserRepository) setBalance(ctx context.Context, id user.TelegramID, balance int) (*user.User, error) {
	iqc := user.ClampBalance(0, balance)
	level := user.ComputeLevel(iqc)

	row := r.conn.QueryRow(ctx, `
		UPDATE users SET iqc = $1, level = $2, updated_at = $3
		WHERE telegram_id = $4
		RETURNING `+userColumns,
		int(iqc), int(level), r.clock.Now(), string(id),
	)
	return scanUser(row)
}

// ListTop returns up to limit users ordered by balance descending.
func (r *UserRepository) ListTop(ctx context.Context, limit int) ([]*user.User, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY iqc DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list top users: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// ListAll returns every user.
func (r *UserRepository) ListAll(ctx context.Context) ([]*user.User, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list all users: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// Count returns the total number of users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	var telegramID, role string
	var iqc, level int
	var lastActive, createdAt, updatedAt time.Time

	err := row.Scan(&telegramID, &u.Username, &u.Name, &iqc, &level, &role, &lastActive, &createdAt, &updatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.TelegramID = user.TelegramID(telegramID)
	u.IQC = user.IQC(iqc)
	u.Level = user.Level(level)
	u.Role = user.Role(role)
	u.LastActive = lastActive
	u.CreatedAt = createdAt
	u.UpdatedAt = updatedAt
	return &u, nil
}

func scanUserInto(row pgx.Row, u *user.User, isNew *bool) error {
	var telegramID, role string
	var iqc, level int

	err := row.Scan(&telegramID, &u.Username, &u.Name, &iqc, &level, &role, &u.LastActive, &u.CreatedAt, &u.UpdatedAt, isNew)
	if err != nil {
		return fmt.Errorf("scan upserted user: %w", err)
	}

	u.TelegramID = user.TelegramID(telegramID)
	u.IQC = user.IQC(iqc)
	u.Level = user.Level(level)
	u.Role = user.Role(role)
	return nil
}

func scanUsers(rows pgx.Rows) ([]*user.User, error) {
	users := make([]*user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}
