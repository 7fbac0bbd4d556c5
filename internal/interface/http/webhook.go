package http

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"time"

	"github.com/iqc-hub/iqc-community-bot/internal/interface/telegram"
	"github.com/iqc-hub/iqc-community-bot/pkg/logger"
)

// webhookSecretHeader is set by the bot platform on every delivery when
// a secret token was registered with setWebhook.
const webhookSecretHeader = "x-telegram-bot-api-secret-token"

// maxWebhookBody bounds a single update payload.
const maxWebhookBody = 1 << 20

// processTimeout bounds the async handling of one update.
const processTimeout = 30 * time.Second

// handleWebhook ingests one bot update. The contract with the delivery
// side: validate framing, deduplicate on update_id, ACK immediately with
// 200, then process in the background. Slow handling must never cause a
// redelivery storm.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || ct != "application/json" {
		respondError(w, r, http.StatusUnsupportedMediaType, "bad_content_type", "expected application/json")
		return
	}

	if s.config.WebhookSecret != "" && r.Header.Get(webhookSecretHeader) != s.config.WebhookSecret {
		s.log.Warn("webhook secret mismatch", logger.String("ip", r.RemoteAddr))
		respondError(w, r, http.StatusForbidden, "forbidden", "invalid secret token")
		return
	}

	var update telegram.Update
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err := dec.Decode(&update); err != nil {
		respondError(w, r, http.StatusBadRequest, "bad_payload", "malformed update")
		return
	}
	if update.UpdateID == 0 {
		respondError(w, r, http.StatusBadRequest, "bad_payload", "update_id is required")
		return
	}

	if s.deps.Window.Observe(update.EventID()) {
		s.log.Debug("duplicate update dropped", logger.EventID(update.EventID()))
		respond(w, r, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}

	// ACK first; the work happens after the response is on the wire.
	respond(w, r, http.StatusOK, map[string]string{"status": "accepted"})

	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), processTimeout)
		defer cancel()
		s.deps.UpdateRouter.HandleUpdate(ctx, &update)
	}()
}
