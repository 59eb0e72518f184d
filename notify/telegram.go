package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultAPIBase is the Telegram Bot API endpoint.
const DefaultAPIBase = "https://api.telegram.org"

// TelegramConfig holds the bot credentials and recipient.
type TelegramConfig struct {
	BotToken string
	ChatID   string
	APIBase  string
	Timeout  time.Duration
}

// TelegramNotifier sends messages through the Telegram Bot API sendMessage
// method.
type TelegramNotifier struct {
	config TelegramConfig
	client *http.Client
	logger zerolog.Logger
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// NewTelegramNotifier creates a Telegram notifier. An empty APIBase selects
// DefaultAPIBase and a zero Timeout selects 10 seconds.
func NewTelegramNotifier(config TelegramConfig, logger zerolog.Logger) *TelegramNotifier {
	if config.APIBase == "" {
		config.APIBase = DefaultAPIBase
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &TelegramNotifier{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

// Notify makes one delivery attempt. Transport errors, non-2xx responses and
// responses with "ok": false are logged and reported as false.
func (t *TelegramNotifier) Notify(ctx context.Context, text string) bool {
	if err := t.send(ctx, text); err != nil {
		t.logger.Error().Err(err).Msg("failed to send telegram message")
		return false
	}

	t.logger.Debug().Msg("telegram message sent")
	return true
}

func (t *TelegramNotifier) send(ctx context.Context, text string) error {
	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    t.config.ChatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	url := strings.TrimSuffix(t.config.APIBase, "/") + "/bot" + t.config.BotToken + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// The URL carries the bot token; keep it out of the logs.
		return fmt.Errorf("send request: %w", redactToken(err, t.config.BotToken))
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		if readErr != nil {
			return fmt.Errorf("telegram returned %d (read response: %v): %s", resp.StatusCode, readErr, strings.TrimSpace(string(body)))
		}
		return fmt.Errorf("telegram returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if readErr != nil {
		return fmt.Errorf("read response: %w", readErr)
	}

	var result sendMessageResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram rejected message: %s", result.Description)
	}

	return nil
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redactToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "<redacted>"), err: err}
}
