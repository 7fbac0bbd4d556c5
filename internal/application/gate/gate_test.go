package gate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/moderation"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/infrastructure/persistence/memory"
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

func newGate(t *testing.T) (*Gate, *fakeClock, moderation.Repository) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	bans := memory.NewStore(clock).Bans()
	return New(bans, clock), clock, bans
}

func TestGate_ThrottleOnePerSecond(t *testing.T) {
	ctx := context.Background()
	g, clock, _ := newGate(t)

	require.NoError(t, g.CheckMutating(ctx, "1001"))

	err := g.CheckMutating(ctx, "1001")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrRateLimited)

	var throttled *shared.ThrottledError
	require.ErrorAs(t, err, &throttled)
	assert.Greater(t, throttled.RetryAfter, time.Duration(0))

	// Other members are unaffected.
	assert.NoError(t, g.CheckMutating(ctx, "1002"))

	clock.Advance(time.Second)
	assert.NoError(t, g.CheckMutating(ctx, "1001"))
}

func TestGate_ReadsAreNotThrottled(t *testing.T) {
	ctx := context.Background()
	g, _, _ := newGate(t)

	require.NoError(t, g.CheckMutating(ctx, "1001"))
	for i := 0; i < 5; i++ {
		assert.NoError(t, g.Check(ctx, "1001"))
	}
}

func TestGate_RejectedActionKeepsSlot(t *testing.T) {
	ctx := context.Background()
	g, clock, bans := newGate(t)

	require.NoError(t, bans.Upsert(ctx, moderation.New("1001", "spam", 1, clock.Now())))

	// A banned member fails the ban check before touching the throttle.
	err := g.CheckMutating(ctx, "1001")
	assert.ErrorIs(t, err, shared.ErrForbidden)

	// After the ban lapses the very next action passes: the rejected
	// attempts consumed no throttle slot.
	clock.Advance(2 * time.Hour)
	assert.NoError(t, g.CheckMutating(ctx, "1001"))
}

func TestGate_BannedError(t *testing.T) {
	ctx := context.Background()
	g, clock, bans := newGate(t)

	b := moderation.New("1001", "spam", 24, clock.Now())
	require.NoError(t, bans.Upsert(ctx, b))

	err := g.Check(ctx, "1001")
	var banned *shared.BannedError
	require.ErrorAs(t, err, &banned)
	assert.Equal(t, "spam", banned.Reason)
	assert.Equal(t, b.Until, banned.Until)
}
