package telegram

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iqc-hub/iqc-community-bot/internal/application/command"
	"github.com/iqc-hub/iqc-community-bot/internal/application/gate"
	"github.com/iqc-hub/iqc-community-bot/internal/application/query"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/notification"
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

// fakeReplier records outgoing replies.
type fakeReplier struct {
	mu      sync.Mutex
	replies []string
}

func (r *fakeReplier) SendMessage(ctx context.Context, chatID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, text)
	return nil
}

func (r *fakeReplier) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.replies) == 0 {
		return ""
	}
	return r.replies[len(r.replies)-1]
}

func newTestRouter(t *testing.T) (*Router, *fakeReplier, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	store := memory.NewStore(clock)
	log := logger.Default()

	recorder := audittrail.NewRecorder(store.Audits(), clock, log)
	recorder.Start()
	t.Cleanup(recorder.Stop)

	notifier := notification.NopNotifier{}
	replier := &fakeReplier{}
	g := gate.New(store.Bans(), clock)

	handlers := Handlers{
		RegisterUser:    command.NewRegisterUserHandler(store.Users(), recorder),
		AdjustPoints:    command.NewAdjustPointsHandler(store.Users(), recorder, notifier, nil),
		CreateChallenge: command.NewCreateChallengeHandler(store.Challenges(), store.Users(), recorder, notifier, clock, log),
		JoinChallenge:   command.NewJoinChallengeHandler(store.Challenges(), store.Users(), recorder),
		SubmitSolution:  command.NewSubmitSolutionHandler(store.Submissions(), store.Challenges(), store.Users(), recorder, clock),
		ReviewSub:       command.NewReviewSubmissionHandler(store.Submissions(), store.Users(), recorder, notifier, nil),
		BanUser:         command.NewBanUserHandler(store.Bans(), store.Users(), recorder, notifier, clock),
		UnbanUser:       command.NewUnbanUserHandler(store.Bans(), recorder, clock),
		UpdateUserField: command.NewUpdateUserFieldHandler(store.Users(), recorder, nil),
		Leaderboard:     query.NewGetLeaderboardHandler(store.Users(), nil, log),
		Profile:         query.NewGetProfileHandler(store.Users()),
		OpenList:        query.NewListOpenChallengesHandler(store.Challenges()),
		PendingList:     query.NewListPendingSubmissionsHandler(store.Submissions()),
	}

	return NewRouter(handlers, g, replier, []string{"9000"}, log), replier, clock
}

func msg(fromID int64, username, text string) *Update {
	return &Update{
		UpdateID: 1,
		Message: &Message{
			From: &Sender{ID: fromID, Username: username, FirstName: "Test"},
			Chat: Chat{ID: fromID, Type: "private"},
			Text: text,
		},
	}
}

func TestRouter_StartRegisters(t *testing.T) {
	ctx := context.Background()
	router, replier, _ := newTestRouter(t)

	router.HandleUpdate(ctx, msg(1001, "alice", "/start"))
	assert.Contains(t, replier.last(), "Welcome, Test")
}

func TestRouter_StartTwice(t *testing.T) {
	ctx := context.Background()
	router, replier, clock := newTestRouter(t)

	router.HandleUpdate(ctx, msg(1001, "alice", "/start"))
	require.Contains(t, replier.last(), "Welcome, Test")

	clock.Advance(2 * time.Second)
	router.HandleUpdate(ctx, msg(1001, "alice", "/start"))
	assert.Contains(t, replier.last(), "Welcome back")
}

func TestRouter_Throttle(t *testing.T) {
	ctx := context.Background()
	router, replier, _ := newTestRouter(t)

	router.HandleUpdate(ctx, msg(1001, "alice", "/start"))
	router.HandleUpdate(ctx, msg(1001, "alice", "/start"))
	assert.Contains(t, replier.last(), "Slow down")
}

func TestRouter_AdminCommandHiddenFromMembers(t *testing.T) {
	ctx := context.Background()
	router, replier, _ := newTestRouter(t)

	router.HandleUpdate(ctx, msg(1001, "alice", "/adjust 1001 50 because"))
	assert.Contains(t, replier.last(), "Unknown command")
}

func TestRouter_AdminAdjust(t *testing.T) {
	ctx := context.Background()
	router, replier, clock := newTestRouter(t)

	router.HandleUpdate(ctx, msg(1001, "alice", "/start"))
	clock.Advance(time.Second)

	router.HandleUpdate(ctx, msg(9000, "admin", "/adjust 1001 150 community event"))
	last := replier.last()
	assert.Contains(t, last, "0 → 150")
	assert.Contains(t, last, "level 2")
}

func TestRouter_AdjustRequiresReason(t *testing.T) {
	ctx := context.Background()
	router, replier, clock := newTestRouter(t)

	router.HandleUpdate(ctx, msg(1001, "alice", "/start"))
	clock.Advance(time.Second)

	router.HandleUpdate(ctx, msg(9000, "admin", "/adjust 1001 50"))
	assert.Contains(t, replier.last(), "Usage:")
}

func TestRouter_BannedMemberRejected(t *testing.T) {
	ctx := context.Background()
	router, replier, clock := newTestRouter(t)

	router.HandleUpdate(ctx, msg(1001, "alice", "/start"))
	clock.Advance(time.Second)

	router.HandleUpdate(ctx, msg(9000, "admin", "/ban_user 1001 24 spamming"))
	require.Contains(t, replier.last(), "Banned until")

	clock.Advance(time.Second)
	router.HandleUpdate(ctx, msg(1001, "alice", "/profile"))
	assert.Contains(t, replier.last(), "banned")
	assert.Contains(t, replier.last(), "spamming")
}

func TestRouter_IgnoresNonCommands(t *testing.T) {
	ctx := context.Background()
	router, replier, _ := newTestRouter(t)

	router.HandleUpdate(ctx, msg(1001, "alice", "hello there"))
	router.HandleUpdate(ctx, &Update{UpdateID: 2})
	assert.Empty(t, replier.last())
}

func TestRouter_StripsBotSuffix(t *testing.T) {
	ctx := context.Background()
	router, replier, _ := newTestRouter(t)

	router.HandleUpdate(ctx, msg(1001, "alice", "/start@iqc_community_bot"))
	assert.Contains(t, replier.last(), "Welcome")
}

func TestSplitCommand(t *testing.T) {
	cmd, args := splitCommand("/submit ch-1 https://example.com")
	assert.Equal(t, "/submit", cmd)
	assert.Equal(t, "ch-1 https://example.com", args)

	cmd, args = splitCommand("/top@somebot")
	assert.Equal(t, "/top", cmd)
	assert.Empty(t, args)
}
