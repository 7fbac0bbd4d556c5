package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/challenge"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/submission"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
	"github.com/iqc-hub/iqc-community-bot/internal/infrastructure/persistence/memory"
	"github.com/iqc-hub/iqc-community-bot/pkg/logger"
)

func seedUsers(t *testing.T, store *memory.Store, balances map[user.TelegramID]int) {
	t.Helper()
	ctx := context.Background()
	for id, balance := range balances {
		_, err := store.Users().Upsert(ctx, id, "u"+string(id), "")
		require.NoError(t, err)
		if balance > 0 {
			_, err = store.Users().AdjustBalance(ctx, id, balance, "seed")
			require.NoError(t, err)
		}
	}
}

func TestGetLeaderboard_FallsBackWithoutCache(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(shared.SystemClock{})
	seedUsers(t, store, map[user.TelegramID]int{"1": 50, "2": 300, "3": 120})

	// A nil cache always misses; reads go straight to storage.
	h := NewGetLeaderboardHandler(store.Users(), nil, logger.Default())

	res, err := h.Handle(ctx, GetLeaderboardQuery{Limit: 2})
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	require.Len(t, res.Rows, 2)

	assert.Equal(t, 1, res.Rows[0].Rank)
	assert.Equal(t, user.TelegramID("2"), res.Rows[0].TelegramID)
	assert.Equal(t, user.IQC(300), res.Rows[0].IQC)
	assert.Equal(t, 2, res.Rows[1].Rank)
	assert.Equal(t, user.TelegramID("3"), res.Rows[1].TelegramID)
}

func TestGetLeaderboard_DefaultLimit(t *testing.T) {
	store := memory.NewStore(shared.SystemClock{})
	balances := make(map[user.TelegramID]int)
	for i := 0; i < 30; i++ {
		balances[user.TelegramID(rune('a'+i%26))+user.TelegramID(rune('a'+i/26))] = i + 1
	}
	seedUsers(t, store, balances)

	h := NewGetLeaderboardHandler(store.Users(), nil, logger.Default())
	res, err := h.Handle(context.Background(), GetLeaderboardQuery{})
	require.NoError(t, err)
	assert.Len(t, res.Rows, DefaultLeaderboardLimit)
}

func TestGetProfile_RankCountsHigherBalances(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(shared.SystemClock{})
	seedUsers(t, store, map[user.TelegramID]int{"1": 50, "2": 300, "3": 120, "4": 120})

	h := NewGetProfileHandler(store.Users())

	top, err := h.Handle(ctx, GetProfileQuery{TelegramID: "2"})
	require.NoError(t, err)
	assert.Equal(t, 1, top.Rank)

	mid, err := h.Handle(ctx, GetProfileQuery{TelegramID: "3"})
	require.NoError(t, err)
	assert.Equal(t, 2, mid.Rank, "equal balances share a rank")

	last, err := h.Handle(ctx, GetProfileQuery{TelegramID: "1"})
	require.NoError(t, err)
	assert.Equal(t, 4, last.Rank)

	_, err = h.Handle(ctx, GetProfileQuery{TelegramID: "ghost"})
	assert.ErrorIs(t, err, shared.ErrUserNotFound)
}

func TestListOpenChallenges(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(shared.SystemClock{})
	now := time.Now().UTC()

	open := challenge.New("open", "Open", "D", challenge.TypeSolo, 10, now.Add(time.Hour), now)
	closed := challenge.New("closed", "Closed", "D", challenge.TypeSolo, 10, now.Add(-time.Hour), now)
	require.NoError(t, store.Challenges().Create(ctx, open))
	require.NoError(t, store.Challenges().Create(ctx, closed))

	h := NewListOpenChallengesHandler(store.Challenges())
	res, err := h.Handle(ctx, ListOpenChallengesQuery{})
	require.NoError(t, err)
	require.Len(t, res.Challenges, 1)
	assert.Equal(t, "open", res.Challenges[0].ID)
}

func TestListPendingSubmissions_DefaultLimit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(shared.SystemClock{})
	now := time.Now().UTC()

	for i := 0; i < DefaultPendingLimit+10; i++ {
		s := submission.New(
			"sub-"+string(rune('a'+i%26))+string(rune('a'+i/26)),
			"1001", "ch-1", "https://example.com", now.Add(time.Duration(i)*time.Second),
		)
		require.NoError(t, store.Submissions().Create(ctx, s))
	}

	h := NewListPendingSubmissionsHandler(store.Submissions())
	res, err := h.Handle(ctx, ListPendingSubmissionsQuery{})
	require.NoError(t, err)
	assert.Len(t, res.Submissions, DefaultPendingLimit)
}
