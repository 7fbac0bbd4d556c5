package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/challenge"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
)

const challengeColumns = `id, title, description, type, reward, start_at, end_at, participants, created_at`

// ChallengeRepository implements challenge.Repository for PostgreSQL.
type ChallengeRepository struct {
	conn  *Connection
	clock shared.Clock
}

// NewChallengeRepository creates a new ChallengeRepository.
func NewChallengeRepository(conn *Connection, clock shared.Clock) *ChallengeRepository {
	return &ChallengeRepository{conn: conn, clock: clock}
}

// Create persists a new challenge.
func (r *ChallengeRepository) Create(ctx context.Context, c *challenge.Challenge) error {
	participants := make([]string, len(c.Participants))
	for i, p := range c.Participants {
		participants[i] = string(p)
	}

	_, err := r.conn.Exec(ctx, `
		INSERT INTO challenges (id, title, description, type, reward, start_at, end_at, participants, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.Title, c.Description, string(c.Type), c.Reward, c.StartAt, c.EndAt, participants, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create challenge: %w", err)
	}
	return nil
}

// GetByID returns a challenge by ID.
func (r *ChallengeRepository) GetByID(ctx context.Context, id string) (*challenge.Challenge, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id,
	)
	return scanChallenge(row)
}

// ListOpen returns challenges with endAt >= now, most recent first.
func (r *ChallengeRepository) ListOpen(ctx context.Context) ([]*challenge.Challenge, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE end_at >= $1 ORDER BY created_at DESC`,
		r.clock.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("list open challenges: %w", err)
	}
	defer rows.Close()

	challenges := make([]*challenge.Challenge, 0)
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		challenges = append(challenges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate challenges: %w", err)
	}
	return challenges, nil
}

// Join appends the member to the participant set while holding a row lock
// on the challenge, so concurrent joins by the same member cannot both
// pass the membership check.
func (r *ChallengeRepository) Join(ctx context.Context, challengeID string, memberID user.TelegramID) (*challenge.Challenge, error) {
	var joined *challenge.Challenge

	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`SELECT `+challengeColumns+` FROM challenges WHERE id = $1 FOR UPDATE`,
			challengeID,
		)

		c, err := scanChallenge(row)
		if err != nil {
			return err
		}
		if c.HasParticipant(memberID) {
			return shared.ErrAlreadyJoined
		}
		if c.IsClosed(r.clock.Now()) {
			return shared.ErrChallengeEnded
		}

		if _, err := tx.Exec(ctx,
			`UPDATE challenges SET participants = array_append(participants, $1) WHERE id = $2`,
			string(memberID), challengeID,
		); err != nil {
			return fmt.Errorf("append participant: %w", err)
		}

		c.Participants = append(c.Participants, memberID)
		joined = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return joined, nil
}

func scanChallenge(row pgx.Row) (*challenge.Challenge, error) {
	var c challenge.Challenge
	var typ string
	var participants []string

	err := row.Scan(&c.ID, &c.Title, &c.Description, &typ, &c.Reward, &c.StartAt, &c.EndAt, &participants, &c.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrChallengeNotFound
		}
		return nil, fmt.Errorf("scan challenge: %w", err)
	}

	c.Type = challenge.Type(typ)
	c.Participants = make([]user.TelegramID, len(participants))
	for i, p := range participants {
		c.Participants[i] = user.TelegramID(p)
	}
	return &c, nil
}
