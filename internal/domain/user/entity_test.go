package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeLevel_Thresholds(t *testing.T) {
	cases := []struct {
		balance IQC
		level   Level
	}{
		{0, 1},
		{1, 1},
		{100, 1},
		{101, 2},
		{250, 2},
		{251, 3},
		{500, 3},
		{501, 4},
		{1000, 4},
		{1001, 5},
		{2000, 5},
		{2001, 6},
		{4000, 6},
		{4001, 7},
		{8000, 7},
		{8001, 8},
		{1000000, 8},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.level, ComputeLevel(tc.balance), "balance %d", tc.balance)
	}
}

func TestComputeLevel_Monotonic(t *testing.T) {
	prev := Level(0)
	for balance := IQC(0); balance <= 10000; balance++ {
		level := ComputeLevel(balance)
		assert.GreaterOrEqual(t, level, prev, "level dropped at balance %d", balance)
		prev = level
	}
}

func TestClampBalance(t *testing.T) {
	assert.Equal(t, IQC(140), ClampBalance(90, 50))
	assert.Equal(t, IQC(40), ClampBalance(90, -50))
	assert.Equal(t, IQC(0), ClampBalance(90, -90))
	assert.Equal(t, IQC(0), ClampBalance(90, -200), "negative balances clamp to zero")
	assert.Equal(t, IQC(0), ClampBalance(0, 0))
}

func TestLevelName(t *testing.T) {
	assert.Equal(t, "Seeker", Level(1).Name())
	assert.Equal(t, "Learner", Level(2).Name())
	assert.Equal(t, "Architect", Level(8).Name())
	assert.Equal(t, "Unknown", Level(42).Name())
}

func TestNew_StartsAtLevelOne(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	u := New("1001", "alice", "Alice", now)

	assert.Equal(t, IQC(0), u.IQC)
	assert.Equal(t, Level(1), u.Level)
	assert.Equal(t, RoleMember, u.Role)
	assert.Equal(t, now, u.CreatedAt)
}

func TestBalanceChange_Promoted(t *testing.T) {
	promo := BalanceChange{OldLevel: 1, NewLevel: 2, LevelChanged: true}
	assert.True(t, promo.Promoted())

	demo := BalanceChange{OldLevel: 2, NewLevel: 1, LevelChanged: true}
	assert.False(t, demo.Promoted(), "a demotion is a level change but not a promotion")

	flat := BalanceChange{OldLevel: 3, NewLevel: 3}
	assert.False(t, flat.Promoted())
}
