package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/audit"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/challenge"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/submission"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
	"github.com/iqc-hub/iqc-community-bot/internal/infrastructure/audittrail"
	"github.com/iqc-hub/iqc-community-bot/internal/infrastructure/persistence/memory"
	"github.com/iqc-hub/iqc-community-bot/pkg/logger"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNote
}

type sentNote struct {
	userID user.TelegramID
	text   string
}

func (n *recordingNotifier) Notify(ctx context.Context, userID user.TelegramID, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNote{userID: userID, text: text})
}

func (n *recordingNotifier) countFor(id user.TelegramID) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, s := range n.sent {
		if s.userID == id {
			count++
		}
	}
	return count
}

// env bundles the fixtures every command test needs.
type env struct {
	clock    *fakeClock
	store    *memory.Store
	recorder *audittrail.Recorder
	notifier *recordingNotifier
}

func newEnv(t *testing.T) *env {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	store := memory.NewStore(clock)
	recorder := audittrail.NewRecorder(store.Audits(), clock, logger.Default())
	recorder.Start()
	t.Cleanup(recorder.Stop)
	return &env{clock: clock, store: store, recorder: recorder, notifier: &recordingNotifier{}}
}

// auditActions flushes the recorder and returns the recorded action tags,
// oldest first.
func (e *env) auditActions(t *testing.T) []string {
	t.Helper()
	e.recorder.Stop()

	records, err := e.store.Audits().ListRecent(context.Background(), 100)
	require.NoError(t, err)

	actions := make([]string, len(records))
	for i, r := range records {
		actions[len(records)-1-i] = r.Action
	}
	return actions
}

func (e *env) seedUser(t *testing.T, id user.TelegramID) {
	t.Helper()
	_, err := e.store.Users().Upsert(context.Background(), id, "", "")
	require.NoError(t, err)
}

func (e *env) seedChallenge(t *testing.T, id string, ttl time.Duration) {
	t.Helper()
	now := e.clock.Now()
	c := challenge.New(id, "Title", "Desc", challenge.TypeSolo, 100, now.Add(ttl), now)
	require.NoError(t, e.store.Challenges().Create(context.Background(), c))
}

// ──────────────────────────────────────────────────────────────────────────────
// RegisterUser
// ──────────────────────────────────────────────────────────────────────────────

func TestRegisterUser_AuditsOnlyFirstContact(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	h := NewRegisterUserHandler(e.store.Users(), e.recorder)

	first, err := h.Handle(ctx, RegisterUserCommand{TelegramID: "1001", Username: "alice"})
	require.NoError(t, err)
	assert.True(t, first.IsNew)

	second, err := h.Handle(ctx, RegisterUserCommand{TelegramID: "1001", Username: "alice"})
	require.NoError(t, err)
	assert.False(t, second.IsNew)

	assert.Equal(t, []string{audit.ActionRegister}, e.auditActions(t))
}

func TestRegisterUser_RequiresID(t *testing.T) {
	e := newEnv(t)
	h := NewRegisterUserHandler(e.store.Users(), e.recorder)

	_, err := h.Handle(context.Background(), RegisterUserCommand{})
	assert.ErrorIs(t, err, shared.ErrTelegramIDMissing)
}

// ──────────────────────────────────────────────────────────────────────────────
// AdjustPoints
// ──────────────────────────────────────────────────────────────────────────────

func TestAdjustPoints_RequiresReason(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "1001")
	h := NewAdjustPointsHandler(e.store.Users(), e.recorder, e.notifier, nil)

	_, err := h.Handle(context.Background(), AdjustPointsCommand{TelegramID: "1001", Delta: 10})
	assert.ErrorIs(t, err, shared.ErrReasonMissing)

	assert.Empty(t, e.auditActions(t), "a rejected command records nothing")
}

func TestAdjustPoints_NotifiesPromotion(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.seedUser(t, "1001")
	h := NewAdjustPointsHandler(e.store.Users(), e.recorder, e.notifier, nil)

	res, err := h.Handle(ctx, AdjustPointsCommand{
		TelegramID: "1001",
		Delta:      150,
		Reason:     "community event",
		AdminID:    "42",
	})
	require.NoError(t, err)
	assert.Equal(t, user.IQC(150), res.Change.NewIQC)
	assert.True(t, res.Change.Promoted())

	// One balance notice plus one promotion notice.
	assert.Equal(t, 2, e.notifier.countFor("1001"))
	assert.Equal(t, []string{audit.ActionPointsAdjust}, e.auditActions(t))
}

// ──────────────────────────────────────────────────────────────────────────────
// Challenges
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateChallenge_BroadcastsToAllMembers(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.seedUser(t, "1001")
	e.seedUser(t, "1002")

	h := NewCreateChallengeHandler(e.store.Challenges(), e.store.Users(), e.recorder, e.notifier, e.clock, logger.Default())
	res, err := h.Handle(ctx, CreateChallengeCommand{
		Title:       "Build a parser",
		Description: "Anything goes",
		Type:        challenge.TypeSolo,
		Reward:      200,
		EndAt:       e.clock.Now().Add(72 * time.Hour),
		AdminID:     "42",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Notified)
	assert.NotEmpty(t, res.Challenge.ID)

	assert.Eventually(t, func() bool {
		return e.notifier.countFor("1001") == 1 && e.notifier.countFor("1002") == 1
	}, time.Second, 5*time.Millisecond)
}

func TestCreateChallenge_Invalid(t *testing.T) {
	e := newEnv(t)
	h := NewCreateChallengeHandler(e.store.Challenges(), e.store.Users(), e.recorder, e.notifier, e.clock, logger.Default())

	_, err := h.Handle(context.Background(), CreateChallengeCommand{Title: "No reward"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestJoinChallenge_UnknownUser(t *testing.T) {
	e := newEnv(t)
	e.seedChallenge(t, "ch-1", time.Hour)
	h := NewJoinChallengeHandler(e.store.Challenges(), e.store.Users(), e.recorder)

	_, err := h.Handle(context.Background(), JoinChallengeCommand{ChallengeID: "ch-1", TelegramID: "ghost"})
	assert.ErrorIs(t, err, shared.ErrUserNotFound)
}

func TestJoinChallenge_DoubleJoin(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.seedUser(t, "1001")
	e.seedChallenge(t, "ch-1", time.Hour)
	h := NewJoinChallengeHandler(e.store.Challenges(), e.store.Users(), e.recorder)

	_, err := h.Handle(ctx, JoinChallengeCommand{ChallengeID: "ch-1", TelegramID: "1001"})
	require.NoError(t, err)

	_, err = h.Handle(ctx, JoinChallengeCommand{ChallengeID: "ch-1", TelegramID: "1001"})
	assert.ErrorIs(t, err, shared.ErrAlreadyJoined)

	assert.Equal(t, []string{audit.ActionChallengeJoin}, e.auditActions(t))
}

// ──────────────────────────────────────────────────────────────────────────────
// Submissions
// ──────────────────────────────────────────────────────────────────────────────

func TestSubmitSolution_Validation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.seedUser(t, "1001")
	e.seedChallenge(t, "ch-1", time.Hour)
	h := NewSubmitSolutionHandler(e.store.Submissions(), e.store.Challenges(), e.store.Users(), e.recorder, e.clock)

	_, err := h.Handle(ctx, SubmitSolutionCommand{ChallengeID: "ch-1", TelegramID: "1001", Link: "not-a-link"})
	assert.ErrorIs(t, err, shared.ErrInvalidLink)

	e.clock.Advance(2 * time.Hour)
	_, err = h.Handle(ctx, SubmitSolutionCommand{ChallengeID: "ch-1", TelegramID: "1001", Link: "https://example.com"})
	assert.ErrorIs(t, err, shared.ErrChallengeEnded)
}

func TestSubmitSolution_AllowsRepeats(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.seedUser(t, "1001")
	e.seedChallenge(t, "ch-1", time.Hour)
	h := NewSubmitSolutionHandler(e.store.Submissions(), e.store.Challenges(), e.store.Users(), e.recorder, e.clock)

	first, err := h.Handle(ctx, SubmitSolutionCommand{ChallengeID: "ch-1", TelegramID: "1001", Link: "https://example.com/v1"})
	require.NoError(t, err)
	second, err := h.Handle(ctx, SubmitSolutionCommand{ChallengeID: "ch-1", TelegramID: "1001", Link: "https://example.com/v2"})
	require.NoError(t, err)

	assert.NotEqual(t, first.Submission.ID, second.Submission.ID)
	assert.Equal(t, submission.StatusPending, second.Submission.Status)
}

func TestReviewSubmission_AcceptCreditsScore(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.seedUser(t, "1001")
	e.seedChallenge(t, "ch-1", time.Hour)

	submit := NewSubmitSolutionHandler(e.store.Submissions(), e.store.Challenges(), e.store.Users(), e.recorder, e.clock)
	filed, err := submit.Handle(ctx, SubmitSolutionCommand{ChallengeID: "ch-1", TelegramID: "1001", Link: "https://example.com"})
	require.NoError(t, err)

	review := NewReviewSubmissionHandler(e.store.Submissions(), e.store.Users(), e.recorder, e.notifier, nil)
	res, err := review.Handle(ctx, ReviewSubmissionCommand{
		SubmissionID: filed.Submission.ID,
		Action:       submission.ActionAccept,
		Score:        120,
		Note:         "nice work",
		AdminID:      "42",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Change)
	assert.Equal(t, user.IQC(120), res.Change.NewIQC)
	assert.True(t, res.Change.Promoted())

	// Review notice plus promotion notice.
	assert.Equal(t, 2, e.notifier.countFor("1001"))

	// Second verdict fails, whatever direction it takes.
	_, err = review.Handle(ctx, ReviewSubmissionCommand{
		SubmissionID: filed.Submission.ID,
		Action:       submission.ActionReject,
		AdminID:      "42",
	})
	assert.ErrorIs(t, err, shared.ErrAlreadyReviewed)

	u, err := e.store.Users().GetByTelegramID(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, user.IQC(120), u.IQC, "balance unchanged by the failed re-review")

	assert.Equal(t, []string{audit.ActionSubmissionCreate, audit.ActionSubmissionReview}, e.auditActions(t))
}

func TestReviewSubmission_RejectAwardsNothing(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.seedUser(t, "1001")
	e.seedChallenge(t, "ch-1", time.Hour)

	submit := NewSubmitSolutionHandler(e.store.Submissions(), e.store.Challenges(), e.store.Users(), e.recorder, e.clock)
	filed, err := submit.Handle(ctx, SubmitSolutionCommand{ChallengeID: "ch-1", TelegramID: "1001", Link: "https://example.com"})
	require.NoError(t, err)

	review := NewReviewSubmissionHandler(e.store.Submissions(), e.store.Users(), e.recorder, e.notifier, nil)
	res, err := review.Handle(ctx, ReviewSubmissionCommand{
		SubmissionID: filed.Submission.ID,
		Action:       submission.ActionReject,
		Score:        999, // ignored on reject
		Note:         "off topic",
	})
	require.NoError(t, err)
	assert.Nil(t, res.Change)
	assert.Zero(t, res.Submission.Score)

	u, err := e.store.Users().GetByTelegramID(ctx, "1001")
	require.NoError(t, err)
	assert.Zero(t, u.IQC)
}

func TestReviewSubmission_AcceptWithoutScoreCreditsNothing(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.seedUser(t, "1001")
	e.seedChallenge(t, "ch-1", time.Hour)

	submit := NewSubmitSolutionHandler(e.store.Submissions(), e.store.Challenges(), e.store.Users(), e.recorder, e.clock)
	filed, err := submit.Handle(ctx, SubmitSolutionCommand{ChallengeID: "ch-1", TelegramID: "1001", Link: "https://example.com"})
	require.NoError(t, err)

	review := NewReviewSubmissionHandler(e.store.Submissions(), e.store.Users(), e.recorder, e.notifier, nil)
	res, err := review.Handle(ctx, ReviewSubmissionCommand{
		SubmissionID: filed.Submission.ID,
		Action:       submission.ActionAccept,
		Note:         "well done",
	})
	require.NoError(t, err)
	assert.Equal(t, submission.StatusAccepted, res.Submission.Status)
	assert.Nil(t, res.Change, "a scoreless accept records the verdict only")

	u, err := e.store.Users().GetByTelegramID(ctx, "1001")
	require.NoError(t, err)
	assert.Zero(t, u.IQC)
}

func TestReviewSubmission_RejectsNegativeScore(t *testing.T) {
	e := newEnv(t)
	review := NewReviewSubmissionHandler(e.store.Submissions(), e.store.Users(), e.recorder, e.notifier, nil)

	_, err := review.Handle(context.Background(), ReviewSubmissionCommand{
		SubmissionID: "sub-1",
		Action:       submission.ActionAccept,
		Score:        -10,
	})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

// ──────────────────────────────────────────────────────────────────────────────
// Moderation
// ──────────────────────────────────────────────────────────────────────────────

func TestBanUser_Flow(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.seedUser(t, "1001")

	ban := NewBanUserHandler(e.store.Bans(), e.store.Users(), e.recorder, e.notifier, e.clock)
	res, err := ban.Handle(ctx, BanUserCommand{TelegramID: "1001", Reason: "spam", Hours: 24, AdminID: "42"})
	require.NoError(t, err)
	assert.Equal(t, e.clock.Now().Add(24*time.Hour), res.Ban.Until)
	assert.Equal(t, 1, e.notifier.countFor("1001"))

	unban := NewUnbanUserHandler(e.store.Bans(), e.recorder, e.clock)
	lifted, err := unban.Handle(ctx, UnbanUserCommand{TelegramID: "1001", AdminID: "42"})
	require.NoError(t, err)
	assert.True(t, lifted.WasBanned)

	again, err := unban.Handle(ctx, UnbanUserCommand{TelegramID: "1001", AdminID: "42"})
	require.NoError(t, err, "unbanning a non-banned member is not an error")
	assert.False(t, again.WasBanned)

	assert.Equal(t, []string{audit.ActionUserBan, audit.ActionUserUnban, audit.ActionUserUnban}, e.auditActions(t))
}

func TestBanUser_Validation(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "1001")
	ban := NewBanUserHandler(e.store.Bans(), e.store.Users(), e.recorder, e.notifier, e.clock)

	_, err := ban.Handle(context.Background(), BanUserCommand{TelegramID: "1001", Reason: "spam", Hours: 0})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = ban.Handle(context.Background(), BanUserCommand{TelegramID: "1001", Hours: 4})
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}

// ──────────────────────────────────────────────────────────────────────────────
// UpdateUserField
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdateUserField(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.seedUser(t, "1001")
	h := NewUpdateUserFieldHandler(e.store.Users(), e.recorder, nil)

	res, err := h.Handle(ctx, UpdateUserFieldCommand{TelegramID: "1001", Field: "iqc", Value: "2500", AdminID: "42"})
	require.NoError(t, err)
	assert.Equal(t, user.IQC(2500), res.User.IQC)
	assert.Equal(t, user.Level(6), res.User.Level)

	_, err = h.Handle(ctx, UpdateUserFieldCommand{TelegramID: "1001", Field: "role", Value: "admin"})
	assert.ErrorIs(t, err, shared.ErrUnknownUserField)

	assert.Equal(t, []string{audit.ActionUserFieldEdit}, e.auditActions(t))
}
