// Package telegram implements a minimal Telegram Bot API client used for
// outbound notifications. Message formatting, keyboards and the rest of
// the chat surface live outside the core and are not modeled here.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iqc-hub/iqc-community-bot/pkg/logger"
	"github.com/iqc-hub/iqc-community-bot/pkg/retry"
)

// ClientConfig contains configuration for the Telegram client.
type ClientConfig struct {
	// Token is the Telegram Bot API token.
	Token string

	// BaseURL is the Bot API base URL (default: https://api.telegram.org).
	BaseURL string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(token string) ClientConfig {
	return ClientConfig{
		Token:   token,
		BaseURL: "https://api.telegram.org",
		Timeout: 10 * time.Second,
	}
}

// Client is a thin Bot API wrapper.
type Client struct {
	config  ClientConfig
	http    *http.Client
	retrier *retry.Retrier
	log     *logger.Logger
}

// NewClient creates a new Telegram client.
func NewClient(cfg ClientConfig, log *logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.telegram.org"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		config:  cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		retrier: retry.TelegramRetrier(),
		log:     log.With(logger.Component("telegram")),
	}
}

// apiResponse is the Bot API envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

// sendMessageRequest is the payload for the sendMessage method.
type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// SendMessage delivers a text message to one chat. Retries transient
// failures with backoff; client errors (4xx) are permanent.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	return c.retrier.Do(ctx, func(ctx context.Context) error {
		err := c.sendOnce(ctx, chatID, text)
		if err == nil {
			return nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != 429 {
			return retry.Permanent(err)
		}
		return retry.Retryable(err)
	})
}

func (c *Client) sendOnce(ctx context.Context, chatID, text string) error {
	payload, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("telegram: marshal sendMessage: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.config.BaseURL, c.config.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("telegram: read response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return fmt.Errorf("telegram: decode response: %w", err)
	}
	if !apiResp.OK {
		return &APIError{Code: apiResp.ErrorCode, Description: apiResp.Description}
	}
	return nil
}

// APIError is a non-OK Bot API response.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: API error %d: %s", e.Code, e.Description)
}
