// Package presenter formats query results as chat replies.
package presenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/iqc-hub/iqc-community-bot/internal/application/query"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/challenge"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/submission"
)

// Profile renders the member card.
func Profile(res *query.GetProfileResult) string {
	u := res.User
	name := u.Name
	if name == "" {
		name = u.Username
	}
	if name == "" {
		name = string(u.TelegramID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👤 %s\n", name)
	fmt.Fprintf(&b, "Level %d - %s\n", u.Level, u.Level.Name())
	fmt.Fprintf(&b, "IQC: %d\n", u.IQC)
	fmt.Fprintf(&b, "Rank: #%d", res.Rank)
	return b.String()
}

// Leaderboard renders the ranked standings.
func Leaderboard(rows []query.LeaderboardRow) string {
	if len(rows) == 0 {
		return "The leaderboard is empty. Earn some IQC first!"
	}

	var b strings.Builder
	b.WriteString("🏆 Leaderboard\n")
	for _, r := range rows {
		name := r.Name
		if name == "" {
			name = r.Username
		}
		if name == "" {
			name = string(r.TelegramID)
		}
		fmt.Fprintf(&b, "%d. %s - %d IQC (L%d)\n", r.Rank, name, r.IQC, r.Level)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Challenges renders open challenges, most recent first.
func Challenges(list []*challenge.Challenge) string {
	if len(list) == 0 {
		return "No open challenges right now. Check back soon!"
	}

	var b strings.Builder
	b.WriteString("📋 Open challenges\n")
	for _, c := range list {
		fmt.Fprintf(&b, "• %s [%s] - %d IQC, until %s\n  ID: %s\n",
			c.Title, c.Type, c.Reward, c.EndAt.Format("2006-01-02 15:04"), c.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}

// PendingSubmissions renders the review queue.
func PendingSubmissions(list []*submission.Submission) string {
	if len(list) == 0 {
		return "Review queue is empty."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📝 Pending submissions (%d)\n", len(list))
	for _, s := range list {
		fmt.Fprintf(&b, "• %s by %s\n  %s\n  filed %s\n",
			s.ID, s.UserID, s.Link, s.CreatedAt.Format("2006-01-02 15:04"))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Welcome renders the /start reply.
func Welcome(name string, isNew bool) string {
	if isNew {
		return fmt.Sprintf("Welcome, %s! You start at Level 1 with 0 IQC. Use /challenges to find something to work on.", name)
	}
	return fmt.Sprintf("Welcome back, %s!", name)
}

// Banned renders the rejection reply for a banned member.
func Banned(reason string, until time.Time) string {
	return fmt.Sprintf("⛔ You are banned until %s. Reason: %s", until.Format("2006-01-02 15:04"), reason)
}

// Throttled renders the rejection reply for a too-fast member.
func Throttled(retryAfter time.Duration) string {
	return fmt.Sprintf("Slow down - try again in %.0fs.", retryAfter.Seconds()+0.5)
}

// Help renders the command reference.
func Help(isAdmin bool) string {
	var b strings.Builder
	b.WriteString("Commands:\n")
	b.WriteString("/profile - your level, IQC and rank\n")
	b.WriteString("/top - leaderboard\n")
	b.WriteString("/challenges - open challenges\n")
	b.WriteString("/join <challenge_id>\n")
	b.WriteString("/submit <challenge_id> <link>\n")
	if isAdmin {
		b.WriteString("\nAdmin:\n")
		b.WriteString("/review_list - pending submissions\n")
		b.WriteString("/review <submission_id> <accept|reject> [score] [note]\n")
		b.WriteString("/adjust <user_id> <delta> <reason>\n")
		b.WriteString("/create_challenge <title> | <description> | <type> | <reward> | <end RFC3339>\n")
		b.WriteString("/ban_user <user_id> <hours> <reason>\n")
		b.WriteString("/unban_user <user_id>\n")
		b.WriteString("/update_user <user_id> <field> <value>\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
