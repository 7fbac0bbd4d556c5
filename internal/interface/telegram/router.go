package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/iqc-hub/iqc-community-bot/internal/application/command"
	"github.com/iqc-hub/iqc-community-bot/internal/application/gate"
	"github.com/iqc-hub/iqc-community-bot/internal/application/query"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/challenge"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/submission"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
	"github.com/iqc-hub/iqc-community-bot/internal/interface/telegram/presenter"
	"github.com/iqc-hub/iqc-community-bot/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// Parses bot commands out of webhook updates and dispatches them to the
// application layer. Every gated action passes the moderation gate first;
// mutating actions also consume the per-member throttle slot.
// ══════════════════════════════════════════════════════════════════════════════

// Replier sends chat replies. The production implementation is the bot
// API client; tests use a recording fake.
type Replier interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// Handlers bundles the application entry points the router dispatches to.
type Handlers struct {
	RegisterUser    *command.RegisterUserHandler
	AdjustPoints    *command.AdjustPointsHandler
	CreateChallenge *command.CreateChallengeHandler
	JoinChallenge   *command.JoinChallengeHandler
	SubmitSolution  *command.SubmitSolutionHandler
	ReviewSub       *command.ReviewSubmissionHandler
	BanUser         *command.BanUserHandler
	UnbanUser       *command.UnbanUserHandler
	UpdateUserField *command.UpdateUserFieldHandler

	Leaderboard *query.GetLeaderboardHandler
	Profile     *query.GetProfileHandler
	OpenList    *query.ListOpenChallengesHandler
	PendingList *query.ListPendingSubmissionsHandler
}

// Router dispatches updates to handlers.
type Router struct {
	handlers Handlers
	gate     *gate.Gate
	replier  Replier
	admins   map[string]struct{}
	log      *logger.Logger
}

// NewRouter creates a Router. adminIDs lists the external IDs allowed to
// run moderator commands.
func NewRouter(handlers Handlers, g *gate.Gate, replier Replier, adminIDs []string, log *logger.Logger) *Router {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Router{handlers: handlers, gate: g, replier: replier, admins: admins, log: log}
}

// HandleUpdate processes one update. Non-command and authorless messages
// are dropped silently; errors are rendered as chat replies, never
// propagated, so the webhook worker keeps running.
func (r *Router) HandleUpdate(ctx context.Context, u *Update) {
	if u.Message == nil || u.Message.From == nil {
		return
	}
	text := strings.TrimSpace(u.Message.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}

	cmd, args := splitCommand(text)
	chatID := strconv.FormatInt(u.Message.Chat.ID, 10)
	from := u.Message.From

	reply, err := r.dispatch(ctx, cmd, args, from)
	if err != nil {
		reply = renderError(err)
	}
	if reply == "" {
		return
	}
	if err := r.replier.SendMessage(ctx, chatID, reply); err != nil {
		r.log.Warn("reply delivery failed",
			logger.UserID(from.TelegramID()),
			logger.String("command", cmd),
			logger.Err(err),
		)
	}
}

// splitCommand separates the command token from its argument tail and
// strips a @botname suffix from group-chat commands.
func splitCommand(text string) (cmd, args string) {
	cmd, args, _ = strings.Cut(text, " ")
	if at := strings.Index(cmd, "@"); at != -1 {
		cmd = cmd[:at]
	}
	return cmd, strings.TrimSpace(args)
}

func (r *Router) isAdmin(s *Sender) bool {
	_, ok := r.admins[s.TelegramID()]
	return ok
}

func (r *Router) dispatch(ctx context.Context, cmd, args string, from *Sender) (string, error) {
	id := user.TelegramID(from.TelegramID())

	switch cmd {
	case "/start":
		return r.handleStart(ctx, from)
	case "/help":
		return presenter.Help(r.isAdmin(from)), nil
	case "/profile":
		return r.handleProfile(ctx, id)
	case "/top":
		return r.handleTop(ctx, id)
	case "/challenges":
		return r.handleChallenges(ctx, id)
	case "/join":
		return r.handleJoin(ctx, id, args)
	case "/submit":
		return r.handleSubmit(ctx, id, args)
	}

	if !r.isAdmin(from) {
		// Unknown commands and moderator commands from regular members
		// get the same quiet hint.
		return "Unknown command. Try /help.", nil
	}

	switch cmd {
	case "/review_list":
		return r.handleReviewList(ctx)
	case "/review":
		return r.handleReview(ctx, from, args)
	case "/adjust":
		return r.handleAdjust(ctx, from, args)
	case "/create_challenge":
		return r.handleCreateChallenge(ctx, from, args)
	case "/ban_user":
		return r.handleBan(ctx, from, args)
	case "/unban_user":
		return r.handleUnban(ctx, from, args)
	case "/update_user":
		return r.handleUpdateUser(ctx, from, args)
	}

	return "Unknown command. Try /help.", nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Member commands
// ──────────────────────────────────────────────────────────────────────────────

func (r *Router) handleStart(ctx context.Context, from *Sender) (string, error) {
	id := user.TelegramID(from.TelegramID())
	if err := r.gate.CheckMutating(ctx, id); err != nil {
		return "", err
	}

	res, err := r.handlers.RegisterUser.Handle(ctx, command.RegisterUserCommand{
		TelegramID: id,
		Username:   from.Username,
		Name:       from.DisplayName(),
		Origin:     "telegram",
	})
	if err != nil {
		return "", err
	}

	name := from.DisplayName()
	if name == "" {
		name = from.Username
	}
	return presenter.Welcome(name, res.IsNew), nil
}

func (r *Router) handleProfile(ctx context.Context, id user.TelegramID) (string, error) {
	if err := r.gate.Check(ctx, id); err != nil {
		return "", err
	}
	res, err := r.handlers.Profile.Handle(ctx, query.GetProfileQuery{TelegramID: id})
	if err != nil {
		return "", err
	}
	return presenter.Profile(res), nil
}

func (r *Router) handleTop(ctx context.Context, id user.TelegramID) (string, error) {
	if err := r.gate.Check(ctx, id); err != nil {
		return "", err
	}
	res, err := r.handlers.Leaderboard.Handle(ctx, query.GetLeaderboardQuery{})
	if err != nil {
		return "", err
	}
	return presenter.Leaderboard(res.Rows), nil
}

func (r *Router) handleChallenges(ctx context.Context, id user.TelegramID) (string, error) {
	if err := r.gate.Check(ctx, id); err != nil {
		return "", err
	}
	res, err := r.handlers.OpenList.Handle(ctx, query.ListOpenChallengesQuery{})
	if err != nil {
		return "", err
	}
	return presenter.Challenges(res.Challenges), nil
}

func (r *Router) handleJoin(ctx context.Context, id user.TelegramID, args string) (string, error) {
	if args == "" {
		return "Usage: /join <challenge_id>", nil
	}
	if err := r.gate.CheckMutating(ctx, id); err != nil {
		return "", err
	}
	res, err := r.handlers.JoinChallenge.Handle(ctx, command.JoinChallengeCommand{
		ChallengeID: args,
		TelegramID:  id,
		Origin:      "telegram",
	})
	if err != nil {
		return "", err
	}
	return "You joined \"" + res.Challenge.Title + "\". Good luck!", nil
}

func (r *Router) handleSubmit(ctx context.Context, id user.TelegramID, args string) (string, error) {
	challengeID, link, ok := strings.Cut(args, " ")
	if !ok {
		return "Usage: /submit <challenge_id> <link>", nil
	}
	if err := r.gate.CheckMutating(ctx, id); err != nil {
		return "", err
	}
	res, err := r.handlers.SubmitSolution.Handle(ctx, command.SubmitSolutionCommand{
		ChallengeID: challengeID,
		TelegramID:  id,
		Link:        strings.TrimSpace(link),
		Origin:      "telegram",
	})
	if err != nil {
		return "", err
	}
	return "Submission filed (" + res.Submission.ID + "). A moderator will review it.", nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Moderator commands
// ──────────────────────────────────────────────────────────────────────────────

func (r *Router) handleReviewList(ctx context.Context) (string, error) {
	res, err := r.handlers.PendingList.Handle(ctx, query.ListPendingSubmissionsQuery{})
	if err != nil {
		return "", err
	}
	return presenter.PendingSubmissions(res.Submissions), nil
}

func (r *Router) handleReview(ctx context.Context, from *Sender, args string) (string, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return "Usage: /review <submission_id> <accept|reject> [score] [note]", nil
	}

	cmd := command.ReviewSubmissionCommand{
		SubmissionID: fields[0],
		Action:       submission.Action(fields[1]),
		AdminID:      from.TelegramID(),
		Origin:       "telegram",
	}
	rest := fields[2:]
	if len(rest) > 0 {
		if score, err := strconv.Atoi(rest[0]); err == nil {
			cmd.Score = score
			rest = rest[1:]
		}
	}
	cmd.Note = strings.Join(rest, " ")

	res, err := r.handlers.ReviewSub.Handle(ctx, cmd)
	if err != nil {
		return "", err
	}
	if res.Submission.Status != submission.StatusAccepted {
		return "Rejected.", nil
	}
	if res.Change == nil {
		return "Accepted without a score.", nil
	}
	return "Accepted. " + string(res.Submission.UserID) + " earned " +
		strconv.Itoa(res.Submission.Score) + " IQC.", nil
}

func (r *Router) handleAdjust(ctx context.Context, from *Sender, args string) (string, error) {
	fields := strings.SplitN(args, " ", 3)
	if len(fields) < 3 {
		return "Usage: /adjust <user_id> <delta> <reason>", nil
	}
	delta, err := strconv.Atoi(fields[1])
	if err != nil {
		return "Delta must be an integer.", nil
	}

	res, err := r.handlers.AdjustPoints.Handle(ctx, command.AdjustPointsCommand{
		TelegramID: user.TelegramID(fields[0]),
		Delta:      delta,
		Reason:     fields[2],
		AdminID:    from.TelegramID(),
		Origin:     "telegram",
	})
	if err != nil {
		return "", err
	}
	c := res.Change
	return "Balance updated: " + strconv.Itoa(int(c.OldIQC)) + " → " +
		strconv.Itoa(int(c.NewIQC)) + " IQC (level " + strconv.Itoa(int(c.NewLevel)) + ").", nil
}

func (r *Router) handleCreateChallenge(ctx context.Context, from *Sender, args string) (string, error) {
	parts := strings.Split(args, "|")
	if len(parts) != 5 {
		return "Usage: /create_challenge <title> | <description> | <solo|team|mini> | <reward> | <end RFC3339>", nil
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	reward, err := strconv.Atoi(parts[3])
	if err != nil {
		return "Reward must be an integer.", nil
	}
	endAt, err := time.Parse(time.RFC3339, parts[4])
	if err != nil {
		return "End time must be RFC3339, e.g. 2026-09-01T18:00:00Z.", nil
	}

	res, err := r.handlers.CreateChallenge.Handle(ctx, command.CreateChallengeCommand{
		Title:       parts[0],
		Description: parts[1],
		Type:        challenge.Type(parts[2]),
		Reward:      reward,
		EndAt:       endAt,
		AdminID:     from.TelegramID(),
		Origin:      "telegram",
	})
	if err != nil {
		return "", err
	}
	return "Challenge created (" + res.Challenge.ID + "). Announced to " +
		strconv.Itoa(res.Notified) + " members.", nil
}

func (r *Router) handleBan(ctx context.Context, from *Sender, args string) (string, error) {
	fields := strings.SplitN(args, " ", 3)
	if len(fields) < 3 {
		return "Usage: /ban_user <user_id> <hours> <reason>", nil
	}
	hours, err := strconv.Atoi(fields[1])
	if err != nil {
		return "Hours must be an integer.", nil
	}

	res, err := r.handlers.BanUser.Handle(ctx, command.BanUserCommand{
		TelegramID: user.TelegramID(fields[0]),
		Reason:     fields[2],
		Hours:      hours,
		AdminID:    from.TelegramID(),
		Origin:     "telegram",
	})
	if err != nil {
		return "", err
	}
	return "Banned until " + res.Ban.Until.Format("2006-01-02 15:04") + ".", nil
}

func (r *Router) handleUnban(ctx context.Context, from *Sender, args string) (string, error) {
	if args == "" {
		return "Usage: /unban_user <user_id>", nil
	}
	res, err := r.handlers.UnbanUser.Handle(ctx, command.UnbanUserCommand{
		TelegramID: user.TelegramID(args),
		AdminID:    from.TelegramID(),
		Origin:     "telegram",
	})
	if err != nil {
		return "", err
	}
	if !res.WasBanned {
		return "No active ban; record cleared anyway.", nil
	}
	return "Ban lifted.", nil
}

func (r *Router) handleUpdateUser(ctx context.Context, from *Sender, args string) (string, error) {
	fields := strings.SplitN(args, " ", 3)
	if len(fields) < 3 {
		return "Usage: /update_user <user_id> <field> <value>", nil
	}
	res, err := r.handlers.UpdateUserField.Handle(ctx, command.UpdateUserFieldCommand{
		TelegramID: user.TelegramID(fields[0]),
		Field:      fields[1],
		Value:      fields[2],
		AdminID:    from.TelegramID(),
		Origin:     "telegram",
	})
	if err != nil {
		return "", err
	}
	return "Updated. " + string(res.User.TelegramID) + " now has " +
		strconv.Itoa(int(res.User.IQC)) + " IQC at level " + strconv.Itoa(int(res.User.Level)) + ".", nil
}

// renderError maps application errors to chat replies. Internal details
// never leak; structured rejections render their own context.
func renderError(err error) string {
	var banned *shared.BannedError
	if errors.As(err, &banned) {
		return presenter.Banned(banned.Reason, banned.Until)
	}
	var throttled *shared.ThrottledError
	if errors.As(err, &throttled) {
		return presenter.Throttled(throttled.RetryAfter)
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) &&
		!errors.Is(err, shared.ErrInternal) &&
		!errors.Is(err, shared.ErrServiceUnavailable) {
		return "⚠️ " + domainErr.Message
	}
	return "Something went wrong, please try again later."
}
