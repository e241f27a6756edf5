package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultTelegramAPI is the public Bot API endpoint.
const DefaultTelegramAPI = "https://api.telegram.org"

// TelegramConfig holds the bot credentials and target chat.
type TelegramConfig struct {
	Token  string
	ChatID string
	// APIBase overrides DefaultTelegramAPI (tests, self-hosted Bot API).
	APIBase string
}

// Telegram posts lead text through the Bot API sendMessage method.
type Telegram struct {
	cfg    TelegramConfig
	client *http.Client
}

// NewTelegram returns a channel using client, or http.DefaultClient when nil.
func NewTelegram(cfg TelegramConfig, client *http.Client) *Telegram {
	if client == nil {
		client = http.DefaultClient
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultTelegramAPI
	}
	return &Telegram{cfg: cfg, client: client}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Configured() bool {
	return t.cfg.Token != "" && t.cfg.ChatID != ""
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// Send implements Channel. Any non-2xx response is a failure.
func (t *Telegram) Send(ctx context.Context, msg Message) error {
	if !t.Configured() {
		return ErrNotConfigured
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:                t.cfg.ChatID,
		Text:                  msg.Text,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return err
	}

	endpoint := t.cfg.APIBase + "/bot" + t.cfg.Token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.New("telegram: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: %w", stripURL(err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("telegram: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// stripURL drops the request URL from transport errors; it embeds the bot
// token.
func stripURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}
