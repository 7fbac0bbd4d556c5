package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/submission"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
)

const submissionColumns = `id, user_telegram_id, challenge_id, link, status, score, note, created_at`

// SubmissionRepository implements submission.Repository for PostgreSQL.
type SubmissionRepository struct {
	conn *Connection
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(conn *Connection) *SubmissionRepository {
	return &SubmissionRepository{conn: conn}
}

// Create persists a new pending submission.
func (r *SubmissionRepository) Create(ctx context.Context, s *submission.Submission) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO submissions (id, user_telegram_id, challenge_id, link, status, score, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, string(s.UserID), s.ChallengeID, s.Link, string(s.Status), s.Score, s.Note, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// GetByID returns a submission by ID.
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*submission.Submission, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id,
	)
	return scanSubmission(row)
}

// ListPending returns up to limit pending submissions, newest first.
func (r *SubmissionRepository) ListPending(ctx context.Context, limit int) ([]*submission.Submission, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT `+submissionColumns+` FROM submissions
		WHERE status = 'pending'
		ORDER BY created_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending submissions: %w", err)
	}
	defer rows.Close()

	submissions := make([]*submission.Submission, 0)
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return submissions, nil
}

// Review transitions a pending submission to the terminal status with a
// conditional update: the WHERE clause on status makes the transition
// fire exactly once even under concurrent review attempts.
func (r *SubmissionRepository) Review(ctx context.Context, id string, status submission.Status, score int, note string) (*submission.Submission, error) {
	row := r.conn.QueryRow(ctx, `
		UPDATE submissions SET status = $1, score = $2, note = $3
		WHERE id = $4 AND status = 'pending'
		RETURNING `+submissionColumns,
		string(status), score, note, id,
	)

	reviewed, err := scanSubmission(row)
	if err == nil {
		return reviewed, nil
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}

	// No pending row matched: either the submission is missing or it has
	// already been reviewed - distinguish the two.
	var existing string
	probe := r.conn.QueryRow(ctx, `SELECT status FROM submissions WHERE id = $1`, id)
	if scanErr := probe.Scan(&existing); scanErr != nil {
		if IsNoRows(scanErr) {
			return nil, shared.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("probe submission status: %w", scanErr)
	}
	return nil, shared.ErrAlreadyReviewed
}

func scanSubmission(row pgx.Row) (*submission.Submission, error) {
	var s submission.Submission
	var userID, status string

	err := row.Scan(&s.ID, &userID, &s.ChallengeID, &s.Link, &status, &s.Score, &s.Note, &s.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("scan submission: %w", err)
	}

	s.UserID = user.TelegramID(userID)
	s.Status = submission.Status(status)
	return &s, nil
}
