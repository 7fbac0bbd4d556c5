package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCovers(t *testing.T) {
	// Built for 20, holds 20: a read of 100 may be missing rows.
	assert.False(t, covers(20, 20, 100))

	// Built for 20, holds 20: reads at or under the built limit are fine.
	assert.True(t, covers(20, 20, 20))
	assert.True(t, covers(20, 20, 5))

	// Built for 20 but only 7 members exist: the list is complete, so
	// any larger read is still answerable.
	assert.True(t, covers(20, 7, 100))
}

func TestNilCacheIsInert(t *testing.T) {
	ctx := context.Background()
	var c *LeaderboardCache

	_, err := c.Get(ctx, 20)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, c.Set(ctx, nil, 20))
	assert.NoError(t, c.Invalidate(ctx))
	assert.NoError(t, c.Close())
}
