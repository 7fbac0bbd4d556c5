package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iqc-hub/iqc-community-bot/internal/application/command"
	"github.com/iqc-hub/iqc-community-bot/internal/application/gate"
	"github.com/iqc-hub/iqc-community-bot/internal/application/query"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/infrastructure/audittrail"
	"github.com/iqc-hub/iqc-community-bot/internal/infrastructure/persistence/memory"
	"github.com/iqc-hub/iqc-community-bot/internal/interface/http/idempotency"
	"github.com/iqc-hub/iqc-community-bot/internal/interface/telegram"
	"github.com/iqc-hub/iqc-community-bot/pkg/logger"
)

type nopReplier struct{}

func (nopReplier) SendMessage(ctx context.Context, chatID, text string) error { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	clock := shared.SystemClock{}
	store := memory.NewStore(clock)
	g := gate.New(store.Bans(), clock)
	log := logger.Default()

	recorder := audittrail.NewRecorder(store.Audits(), clock, log)
	recorder.Start()
	t.Cleanup(recorder.Stop)

	router := telegram.NewRouter(telegram.Handlers{}, g, nopReplier{}, nil, log)

	cfg := DefaultConfig()
	cfg.BotSecret = "rest-secret"
	cfg.WebhookSecret = "hook-secret"

	return NewServer(cfg, Dependencies{
		RegisterUser: command.NewRegisterUserHandler(store.Users(), recorder),
		Leaderboard:  query.NewGetLeaderboardHandler(store.Users(), nil, log),
		Profile:      query.NewGetProfileHandler(store.Users()),
		OpenList:     query.NewListOpenChallengesHandler(store.Challenges()),
		PendingList:  query.NewListPendingSubmissionsHandler(store.Submissions()),
		AuditList:    query.NewListAuditHandler(store.Audits()),
		Gate:         g,
		UpdateRouter: router,
		Window:       idempotency.NewWindow(0),
		Logger:       log,
	})
}

func postWebhook(srv *Server, body, contentType, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/telegram", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if secret != "" {
		req.Header.Set("x-telegram-bot-api-secret-token", secret)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestWebhook_AcceptThenDuplicate(t *testing.T) {
	srv := newTestServer(t)
	body := `{"update_id": 7001}`

	first := postWebhook(srv, body, "application/json", "hook-secret")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Contains(t, first.Body.String(), `"accepted"`)

	second := postWebhook(srv, body, "application/json", "hook-secret")
	require.Equal(t, http.StatusOK, second.Code, "duplicates still ACK with 200")
	assert.Contains(t, second.Body.String(), `"duplicate"`)
}

func TestWebhook_RejectsBadFraming(t *testing.T) {
	srv := newTestServer(t)

	wrongType := postWebhook(srv, `{"update_id": 1}`, "text/plain", "hook-secret")
	assert.Equal(t, http.StatusUnsupportedMediaType, wrongType.Code)

	wrongSecret := postWebhook(srv, `{"update_id": 1}`, "application/json", "wrong")
	assert.Equal(t, http.StatusForbidden, wrongSecret.Code)

	noSecret := postWebhook(srv, `{"update_id": 1}`, "application/json", "")
	assert.Equal(t, http.StatusForbidden, noSecret.Code)

	badJSON := postWebhook(srv, `{"update_id":`, "application/json", "hook-secret")
	assert.Equal(t, http.StatusBadRequest, badJSON.Code)

	missingID := postWebhook(srv, `{}`, "application/json", "hook-secret")
	assert.Equal(t, http.StatusBadRequest, missingID.Code)
}

func TestWebhook_PostOnly(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/webhook/telegram", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWebhook_RejectionDoesNotConsumeID(t *testing.T) {
	srv := newTestServer(t)
	body := `{"update_id": 8002}`

	rejected := postWebhook(srv, body, "application/json", "wrong")
	require.Equal(t, http.StatusForbidden, rejected.Code)

	// The same update_id must still be fresh after a rejected delivery.
	accepted := postWebhook(srv, body, "application/json", "hook-secret")
	require.Equal(t, http.StatusOK, accepted.Code)
	assert.Contains(t, accepted.Body.String(), `"accepted"`)
}

func TestRESTAuth(t *testing.T) {
	srv := newTestServer(t)

	unauth := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, unauth)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	auth := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard", nil)
	auth.Header.Set("x-bot-secret", "rest-secret")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, auth)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
}

func TestRESTProfile_NotFound(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/ghost", nil)
	req.Header.Set("x-bot-secret", "rest-secret")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"not_found"`)
}

func TestRESTRegister_Throttled(t *testing.T) {
	srv := newTestServer(t)

	post := func() *httptest.ResponseRecorder {
		body := `{"telegram_id":"1001","username":"alex","name":"Alex"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(body))
		req.Header.Set("x-bot-secret", "rest-secret")
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		return rec
	}

	first := post()
	assert.Equal(t, http.StatusCreated, first.Code)

	// Same member again inside the one-second window passes the gate on
	// this transport too, not just on the bot commands.
	second := post()
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestHealth_NoAuthRequired(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
