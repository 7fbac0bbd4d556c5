package telegram

import (
	"context"
	"time"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
	"github.com/iqc-hub/iqc-community-bot/pkg/logger"
)

// notifyTimeout bounds one delivery attempt chain so a slow Telegram API
// cannot hold up the operation that triggered the notification.
const notifyTimeout = 15 * time.Second

// Notifier adapts the Bot API client to the deliver-or-log contract of
// notification.Notifier. Delivery failures are logged, never returned.
type Notifier struct {
	client *Client
	log    *logger.Logger
}

// NewNotifier creates a Notifier on top of the client.
func NewNotifier(client *Client, log *logger.Logger) *Notifier {
	return &Notifier{
		client: client,
		log:    log.With(logger.Component("notifier")),
	}
}

// Notify delivers the text to the member's chat, detached from the
// caller's context so cancellation of the triggering request does not
// cut a notification short.
func (n *Notifier) Notify(ctx context.Context, userID user.TelegramID, text string) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := n.client.SendMessage(sendCtx, string(userID), text); err != nil {
		n.log.Warn("failed to deliver notification",
			logger.UserID(string(userID)),
			logger.Err(err),
		)
	}
}
