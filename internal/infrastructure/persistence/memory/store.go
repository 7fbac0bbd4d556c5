// Package memory implements the in-memory fallback persistence backend.
// It exists to keep the bot operable when the durable store is unreachable
// at startup. Semantics are identical to the postgres backend; durability
// is not - all state is lost on process restart.
package memory

import (
	"sync"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/audit"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/challenge"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/moderation"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/submission"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
)

// Store holds all in-memory state behind a single mutex. One mutex keeps
// every read-modify-write (balance adjust, challenge join, review) atomic
// without per-record bookkeeping; contention is irrelevant at bot scale.
type Store struct {
	mu sync.Mutex

	clock shared.Clock

	users       map[user.TelegramID]*user.User
	userOrder   []user.TelegramID // insertion order, for stable listings
	challenges  []*challenge.Challenge
	submissions []*submission.Submission
	bans        map[user.TelegramID]*moderation.Ban
	audits      []*audit.Record
}

// NewStore creates an empty in-memory store.
func NewStore(clock shared.Clock) *Store {
	return &Store{
		clock: clock,
		users: make(map[user.TelegramID]*user.User),
		bans:  make(map[user.TelegramID]*moderation.Ban),
	}
}

// Users returns the user repository view of the store.
func (s *Store) Users() user.Repository { return &userRepo{store: s} }

// Challenges returns the challenge repository view of the store.
func (s *Store) Challenges() challenge.Repository { return &challengeRepo{store: s} }

// Submissions returns the submission repository view of the store.
func (s *Store) Submissions() submission.Repository { return &submissionRepo{store: s} }

// Bans returns the moderation repository view of the store.
func (s *Store) Bans() moderation.Repository { return &moderationRepo{store: s} }

// Audits returns the audit repository view of the store.
func (s *Store) Audits() audit.Repository { return &auditRepo{store: s} }
