// Package user contains the community member domain model and the scoring
// rules that turn IQC points into levels. This is the core of the points
// economy - no external dependencies here.
package user

import (
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// TelegramID is the stable external identity of a community member.
// Telegram delivers it as a number but the bot treats it as an opaque string.
type TelegramID string

// IsValid reports whether the TelegramID is non-empty.
func (t TelegramID) IsValid() bool {
	return strings.TrimSpace(string(t)) != ""
}

// String returns the string representation of the ID.
func (t TelegramID) String() string {
	return string(t)
}

// IQC represents a member's accumulated community points.
type IQC int

// IsValid reports whether the balance is non-negative.
func (q IQC) IsValid() bool {
	return q >= 0
}

// Level represents the tier derived from IQC.
type Level int

// levelThreshold maps a level to the minimum IQC required for it.
type levelThreshold struct {
	Level  Level
	MinIQC IQC
}

// LevelThresholds are the fixed, ascending promotion thresholds of the
// community progression system.
var LevelThresholds = []levelThreshold{
	{Level: 1, MinIQC: 0},    // Seeker
	{Level: 2, MinIQC: 101},  // Learner
	{Level: 3, MinIQC: 251},  // Builder
	{Level: 4, MinIQC: 501},  // Creator
	{Level: 5, MinIQC: 1001}, // Expert
	{Level: 6, MinIQC: 2001}, // Master
	{Level: 7, MinIQC: 4001}, // Legend
	{Level: 8, MinIQC: 8001}, // Architect
}

// levelNames are the display names shown in promotion notices.
var levelNames = map[Level]string{
	1: "Seeker",
	2: "Learner",
	3: "Builder",
	4: "Creator",
	5: "Expert",
	6: "Master",
	7: "Legend",
	8: "Architect",
}

// ComputeLevel returns the highest level whose threshold is <= balance.
// Negative balances never occur (ClampBalance), but map to level 1 anyway.
func ComputeLevel(balance IQC) Level {
	for i := len(LevelThresholds) - 1; i >= 0; i-- {
		if balance >= LevelThresholds[i].MinIQC {
			return LevelThresholds[i].Level
		}
	}
	return 1
}

// ClampBalance applies a delta to a balance, clamping the result at zero.
func ClampBalance(balance IQC, delta int) IQC {
	next := IQC(int(balance) + delta)
	if next < 0 {
		return 0
	}
	return next
}

// Name returns the display name of the level, or "Unknown".
func (l Level) Name() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "Unknown"
}

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Role defines a member's role in the community.
type Role string

const (
	// RoleMember is a regular community member.
	RoleMember Role = "member"
	// RoleMentor is a member who mentors others.
	RoleMentor Role = "mentor"
	// RoleAdmin can review submissions and moderate members.
	RoleAdmin Role = "admin"
)

// IsValid reports whether the role is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleMember, RoleMentor, RoleAdmin:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// User is a community member. Created on first contact with the bot,
// mutated by scoring and admin field edits, never deleted.
type User struct {
	TelegramID TelegramID
	Username   string // Telegram handle, may be empty
	Name       string // display name
	IQC        IQC
	Level      Level
	Role       Role
	LastActive time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// New creates a user with zero balance at level 1.
func New(telegramID TelegramID, username, name string, now time.Time) *User {
	return &User{
		TelegramID: telegramID,
		Username:   username,
		Name:       name,
		IQC:        0,
		Level:      1,
		Role:       RoleMember,
		LastActive: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// BalanceChange describes the outcome of one applied point delta.
type BalanceChange struct {
	User       *User
	OldIQC     IQC
	NewIQC     IQC
	OldLevel   Level
	NewLevel   Level
	// LevelChanged is true for promotions and demotions alike - a clamp to
	// zero can demote, and callers need to know either way.
	LevelChanged bool
	Reason       string
}

// Promoted reports whether the change raised the level.
func (c *BalanceChange) Promoted() bool {
	return c.NewLevel > c.OldLevel
}
