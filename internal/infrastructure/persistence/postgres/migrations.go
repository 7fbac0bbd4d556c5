package postgres

import (
	"context"
	"fmt"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEMA
// One migration per table group, applied in order and tracked in
// schema_migrations. Down migrations are intentionally omitted - the bot
// never rolls its schema back in place.
// ══════════════════════════════════════════════════════════════════════════════

const migration001Users = `
CREATE TABLE IF NOT EXISTS users (
    telegram_id TEXT PRIMARY KEY,
    username TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL,
    iqc INTEGER NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 1,
    role TEXT NOT NULL DEFAULT 'member',
    last_active TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_iqc CHECK (iqc >= 0),
    CONSTRAINT valid_role CHECK (role IN ('member', 'mentor', 'admin'))
);

CREATE INDEX IF NOT EXISTS idx_users_iqc ON users(iqc DESC);
`

const migration002Challenges = `
CREATE TABLE IF NOT EXISTS challenges (
    id UUID PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    type TEXT NOT NULL DEFAULT 'solo',
    reward INTEGER NOT NULL DEFAULT 100,
    start_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    end_at TIMESTAMP WITH TIME ZONE NOT NULL,
    participants TEXT[] NOT NULL DEFAULT '{}',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_type CHECK (type IN ('solo', 'team', 'mini'))
);

CREATE INDEX IF NOT EXISTS idx_challenges_end_at ON challenges(end_at);
CREATE INDEX IF NOT EXISTS idx_challenges_created_at ON challenges(created_at DESC);
`

const migration003Submissions = `
CREATE TABLE IF NOT EXISTS submissions (
    id UUID PRIMARY KEY,
    user_telegram_id TEXT NOT NULL,
    challenge_id UUID NOT NULL,
    link TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    score INTEGER NOT NULL DEFAULT 0,
    note TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_status CHECK (status IN ('pending', 'accepted', 'rejected'))
);

CREATE INDEX IF NOT EXISTS idx_submissions_user ON submissions(user_telegram_id);
CREATE INDEX IF NOT EXISTS idx_submissions_pending ON submissions(created_at DESC) WHERE status = 'pending';
`

const migration004Bans = `
CREATE TABLE IF NOT EXISTS bans (
    user_telegram_id TEXT PRIMARY KEY,
    reason TEXT NOT NULL,
    until TIMESTAMP WITH TIME ZONE NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_bans_until ON bans(until);
`

const migration005Audits = `
CREATE TABLE IF NOT EXISTS audits (
    id UUID PRIMARY KEY,
    user_telegram_id TEXT NOT NULL,
    action TEXT NOT NULL,
    admin_id TEXT NOT NULL DEFAULT '',
    delta INTEGER NOT NULL DEFAULT 0,
    reason TEXT NOT NULL DEFAULT '',
    origin TEXT NOT NULL DEFAULT '',
    timestamp TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_audits_user ON audits(user_telegram_id);
CREATE INDEX IF NOT EXISTS idx_audits_timestamp ON audits(timestamp DESC);
`

// Migration represents one database migration.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
}

// GetMigrations returns all embedded migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_users", UpSQL: migration001Users},
		{Version: 2, Name: "create_challenges", UpSQL: migration002Challenges},
		{Version: 3, Name: "create_submissions", UpSQL: migration003Submissions},
		{Version: 4, Name: "create_bans", UpSQL: migration004Bans},
		{Version: 5, Name: "create_audits", UpSQL: migration005Audits},
	}
}

// Migrate applies any pending migrations.
func Migrate(ctx context.Context, conn *Connection) error {
	_, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("%w: ensure migration table: %v", ErrMigrationFailed, err)
	}

	applied := make(map[int]bool)
	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("%w: read applied versions: %v", ErrMigrationFailed, err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("%w: scan version: %v", ErrMigrationFailed, err)
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: iterate versions: %v", ErrMigrationFailed, err)
	}

	for _, m := range GetMigrations() {
		if applied[m.Version] {
			continue
		}
		if _, err := conn.Exec(ctx, m.UpSQL); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMigrationFailed, m.Name, err)
		}
		if _, err := conn.Exec(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
			m.Version, m.Name,
		); err != nil {
			return fmt.Errorf("%w: record %s: %v", ErrMigrationFailed, m.Name, err)
		}
	}

	return nil
}
