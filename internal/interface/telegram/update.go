// Package telegram routes incoming bot updates to application commands
// and queries. Updates arrive through the webhook endpoint; this package
// only parses and dispatches, all rules live in the application layer.
package telegram

import "strconv"

// Update is the incoming wire envelope. Only the message branch is
// handled; other update kinds are acknowledged and dropped.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// EventID returns the update's deduplication key.
func (u *Update) EventID() string {
	return strconv.FormatInt(u.UpdateID, 10)
}

// Message is an incoming chat message.
type Message struct {
	MessageID int64   `json:"message_id"`
	From      *Sender `json:"from,omitempty"`
	Chat      Chat    `json:"chat"`
	Text      string  `json:"text"`
}

// Sender identifies the message author.
type Sender struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// TelegramID returns the author's external ID as stored in the system.
func (s *Sender) TelegramID() string {
	return strconv.FormatInt(s.ID, 10)
}

// DisplayName joins the author's first and last name.
func (s *Sender) DisplayName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// Chat identifies where the message was sent.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}
