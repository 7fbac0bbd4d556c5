package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/iqc-hub/iqc-community-bot/internal/application/command"
	"github.com/iqc-hub/iqc-community-bot/internal/application/query"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/audit"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/challenge"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/submission"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
)

// adminHeader carries the acting moderator's ID for audit attribution.
const adminHeader = "x-admin-id"

func adminID(r *http.Request) string {
	return r.Header.Get(adminHeader)
}

func origin(r *http.Request) string {
	return "rest:" + r.RemoteAddr
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

// ──────────────────────────────────────────────────────────────────────────────
// DTOs
// ──────────────────────────────────────────────────────────────────────────────

type userDTO struct {
	TelegramID string    `json:"telegram_id"`
	Username   string    `json:"username,omitempty"`
	Name       string    `json:"name,omitempty"`
	IQC        int       `json:"iqc"`
	Level      int       `json:"level"`
	LevelName  string    `json:"level_name"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

func toUserDTO(u *user.User) userDTO {
	return userDTO{
		TelegramID: string(u.TelegramID),
		Username:   u.Username,
		Name:       u.Name,
		IQC:        int(u.IQC),
		Level:      int(u.Level),
		LevelName:  u.Level.Name(),
		Role:       string(u.Role),
		CreatedAt:  u.CreatedAt,
	}
}

type challengeDTO struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Type         string    `json:"type"`
	Reward       int       `json:"reward"`
	EndAt        time.Time `json:"end_at"`
	Participants int       `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

func toChallengeDTO(c *challenge.Challenge) challengeDTO {
	return challengeDTO{
		ID:           c.ID,
		Title:        c.Title,
		Description:  c.Description,
		Type:         string(c.Type),
		Reward:       c.Reward,
		EndAt:        c.EndAt,
		Participants: len(c.Participants),
		CreatedAt:    c.CreatedAt,
	}
}

type submissionDTO struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ChallengeID string    `json:"challenge_id"`
	Link        string    `json:"link"`
	Status      string    `json:"status"`
	Score       int       `json:"score"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toSubmissionDTO(s *submission.Submission) submissionDTO {
	return submissionDTO{
		ID:          s.ID,
		UserID:      string(s.UserID),
		ChallengeID: s.ChallengeID,
		Link:        s.Link,
		Status:      string(s.Status),
		Score:       s.Score,
		Note:        s.Note,
		CreatedAt:   s.CreatedAt,
	}
}

type balanceChangeDTO struct {
	TelegramID   string `json:"telegram_id"`
	OldIQC       int    `json:"old_iqc"`
	NewIQC       int    `json:"new_iqc"`
	OldLevel     int    `json:"old_level"`
	NewLevel     int    `json:"new_level"`
	LevelChanged bool   `json:"level_changed"`
}

func toBalanceChangeDTO(c *user.BalanceChange) balanceChangeDTO {
	return balanceChangeDTO{
		TelegramID:   string(c.User.TelegramID),
		OldIQC:       int(c.OldIQC),
		NewIQC:       int(c.NewIQC),
		OldLevel:     int(c.OldLevel),
		NewLevel:     int(c.NewLevel),
		LevelChanged: c.LevelChanged,
	}
}

type auditDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Action    string    `json:"action"`
	AdminID   string    `json:"admin_id,omitempty"`
	Delta     int       `json:"delta,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Origin    string    `json:"origin,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func toAuditDTO(rec *audit.Record) auditDTO {
	return auditDTO{
		ID:        rec.ID,
		UserID:    string(rec.UserID),
		Action:    rec.Action,
		AdminID:   rec.AdminID,
		Delta:     rec.Delta,
		Reason:    rec.Reason,
		Origin:    rec.Origin,
		Timestamp: rec.Timestamp,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Health
// ──────────────────────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// ──────────────────────────────────────────────────────────────────────────────
// Reads
// ──────────────────────────────────────────────────────────────────────────────

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Leaderboard.Handle(r.Context(), query.GetLeaderboardQuery{Limit: queryInt(r, "limit")})
	if err != nil {
		respondDomainErr(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, res.Rows)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Profile.Handle(r.Context(), query.GetProfileQuery{
		TelegramID: user.TelegramID(chi.URLParam(r, "id")),
	})
	if err != nil {
		respondDomainErr(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]any{
		"user": toUserDTO(res.User),
		"rank": res.Rank,
	})
}

func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.OpenList.Handle(r.Context(), query.ListOpenChallengesQuery{})
	if err != nil {
		respondDomainErr(w, r, err)
		return
	}
	out := make([]challengeDTO, 0, len(res.Challenges))
	for _, c := range res.Challenges {
		out = append(out, toChallengeDTO(c))
	}
	respond(w, r, http.StatusOK, out)
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.PendingList.Handle(r.Context(), query.ListPendingSubmissionsQuery{Limit: queryInt(r, "limit")})
	if err != nil {
		respondDomainErr(w, r, err)
		return
	}
	out := make([]submissionDTO, 0, len(res.Submissions))
	for _, sub := range res.Submissions {
		out = append(out, toSubmissionDTO(sub))
	}
	respond(w, r, http.StatusOK, out)
}

func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.AuditList.Handle(r.Context(), query.ListAuditQuery{Limit: queryInt(r, "limit")})
	if err != nil {
		respondDomainErr(w, r, err)
		return
	}
	out := make([]auditDTO, 0, len(res.Records))
	for _, rec := range res.Records {
		out = append(out, toAuditDTO(rec))
	}
	respond(w, r, http.StatusOK, map[string]any{"records": out, "total": res.Total})
}

// ──────────────────────────────────────────────────────────────────────────────
// Writes
// ──────────────────────────────────────────────────────────────────────────────

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TelegramID string `json:"telegram_id"`
		Username   string `json:"username"`
		Name       string `json:"name"`
	}
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "bad_payload", "malformed JSON body")
		return
	}

	memberID := user.TelegramID(req.TelegramID)
	if err := s.deps.Gate.CheckMutating(r.Context(), memberID); err != nil {
		respondDomainErr(w, r, err)
		return
	}

	res, err := s.deps.RegisterUser.Handle(r.Context(), command.RegisterUserCommand{
		TelegramID: memberID,
		Username:   req.Username,
		Name:       req.Name,
		Origin:     origin(r),
	})
	if err != nil {
		respondDomainErr(w, r, err)
		return
	}

	status := http.StatusOK
	if res.IsNew {
		status = http.StatusCreated
	}
	respond(w, r, status, toUserDTO(res.User))
}

func (s *Server) handleAdjustPoints(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta  int    `json:"delta"`
		Reason string `json:"reason"`
	}
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "bad_payload", "malformed JSON body")
		return
	}

	res, err := s.deps.AdjustPoints.Handle(r.Context(), command.AdjustPointsCommand{
		TelegramID: user.TelegramID(chi.URLParam(r, "id")),
		Delta:      req.Delta,
		Reason:     req.Reason,
		AdminID:    adminID(r),
		Origin:     origin(r),
	})
	if err != nil {
		respondDomainErr(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, toBalanceChangeDTO(res.Change))
}

func (s *Server) handleUpdateUserField(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "bad_payload", "malformed JSON body")
		return
	}

	res, err := s.deps.UpdateUserField.Handle(r.Context(), command.UpdateUserFieldCommand{
		TelegramID: user.TelegramID(chi.URLParam(r, "id")),
		Field:      req.Field,
		Value:      req.Value,
		AdminID:    adminID(r),
		Origin:     origin(r),
	})
	if err != nil {
		respondDomainErr(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, toUserDTO(res.User))
}

func (s *Server) handleBanUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
		Hours  int    `json:"hours"`
	}
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "bad_payload", "malformed JSON body")
		return
	}

	res, err := s.deps.BanUser.Handle(r.Context(), command.BanUserCommand{
		TelegramID: user.TelegramID(chi.URLParam(r, "id")),
		Reason:     req.Reason,
		Hours:      req.Hours,
		AdminID:    adminID(r),
		Origin:     origin(r),
	})
	if err != nil {
		respondDomainErr(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]any{
		"user_id": string(res.Ban.UserID),
		"reason":  res.Ban.Reason,
		"until":   res.Ban.Until,
	})
}

func (s *Server) handleUnbanUser(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.UnbanUser.Handle(r.Context(), command.UnbanUserCommand{
		TelegramID: user.TelegramID(chi.URLParam(r, "id")),
		AdminID:    adminID(r),
		Origin:     origin(r),
	})
	if err != nil {
		respondDomainErr(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]bool{"was_banned": res.WasBanned})
}

func (s *Server) handleCreateChallenge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		Type        string    `json:"type"`
		Reward      int       `json:"reward"`
		EndAt       time.Time `json:"end_at"`
	}
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "bad_payload", "malformed JSON body")
		return
	}

	res, err := s.deps.CreateChallenge.Handle(r.Context(), command.CreateChallengeCommand{
		Title:       req.Title,
		Description: req.Description,
		Type:        challenge.Type(req.Type),
		Reward:      req.Reward,
		EndAt:       req.EndAt,
		AdminID:     adminID(r),
		Origin:      origin(r),
	})
	if err != nil {
		respondDomainErr(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, toChallengeDTO(res.Challenge))
}

func (s *Server) handleJoinChallenge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TelegramID string `json:"telegram_id"`
	}
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "bad_payload", "malformed JSON body")
		return
	}

	memberID := user.TelegramID(req.TelegramID)
	if err := s.deps.Gate.CheckMutating(r.Context(), memberID); err != nil {
		respondDomainErr(w, r, err)
		return
	}

	res, err := s.deps.JoinChallenge.Handle(r.Context(), command.JoinChallengeCommand{
		ChallengeID: chi.URLParam(r, "id"),
		TelegramID:  memberID,
		Origin:      origin(r),
	})
	if err != nil {
		respondDomainErr(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, toChallengeDTO(res.Challenge))
}

func (s *Server) handleSubmitSolution(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChallengeID string `json:"challenge_id"`
		TelegramID  string `json:"telegram_id"`
		Link        string `json:"link"`
	}
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "bad_payload", "malformed JSON body")
		return
	}

	memberID := user.TelegramID(req.TelegramID)
	if err := s.deps.Gate.CheckMutating(r.Context(), memberID); err != nil {
		respondDomainErr(w, r, err)
		return
	}

	res, err := s.deps.SubmitSolution.Handle(r.Context(), command.SubmitSolutionCommand{
		ChallengeID: req.ChallengeID,
		TelegramID:  memberID,
		Link:        req.Link,
		Origin:      origin(r),
	})
	if err != nil {
		respondDomainErr(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, toSubmissionDTO(res.Submission))
}

func (s *Server) handleReviewSubmission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
		Score  int    `json:"score"`
		Note   string `json:"note"`
	}
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "bad_payload", "malformed JSON body")
		return
	}

	res, err := s.deps.ReviewSub.Handle(r.Context(), command.ReviewSubmissionCommand{
		SubmissionID: chi.URLParam(r, "id"),
		Action:       submission.Action(req.Action),
		Score:        req.Score,
		Note:         req.Note,
		AdminID:      adminID(r),
		Origin:       origin(r),
	})
	if err != nil {
		respondDomainErr(w, r, err)
		return
	}

	out := map[string]any{"submission": toSubmissionDTO(res.Submission)}
	if res.Change != nil {
		out["change"] = toBalanceChangeDTO(res.Change)
	}
	respond(w, r, http.StatusOK, out)
}
