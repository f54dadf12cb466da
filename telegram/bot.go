package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultAPIBase = "https://api.telegram.org"

// Update is the subset of a Bot API update the webhook cares about.
type Update struct {
	Message *IncomingMessage `json:"message"`
}

type IncomingMessage struct {
	Chat Chat   `json:"chat"`
	Text string `json:"text"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type sendMessageRequest struct {
	ChatID      int64        `json:"chat_id"`
	Text        string       `json:"text"`
	ReplyMarkup *replyMarkup `json:"reply_markup,omitempty"`
}

type replyMarkup struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type inlineButton struct {
	Text   string      `json:"text"`
	WebApp *webAppInfo `json:"web_app,omitempty"`
}

type webAppInfo struct {
	URL string `json:"url"`
}

// Bot issues outbound sends through the Telegram Bot API. BaseURL and Client
// are overridable for tests.
type Bot struct {
	Token   string
	BaseURL string
	Client  *http.Client
}

func NewBot(token string) *Bot {
	return &Bot{
		Token:   token,
		BaseURL: defaultAPIBase,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// SendLaunchMessage replies to a /start command with the mini-app launch button.
func (b *Bot) SendLaunchMessage(ctx context.Context, chatID int64, webAppURL string) error {
	req := sendMessageRequest{
		ChatID: chatID,
		Text:   "👻 GhostChat - Анонимный Мессенджер\n\nНажмите кнопку ниже:",
		ReplyMarkup: &replyMarkup{
			InlineKeyboard: [][]inlineButton{{
				{Text: "🚀 Открыть GhostChat", WebApp: &webAppInfo{URL: webAppURL}},
			}},
		},
	}
	return b.sendMessage(ctx, req)
}

func (b *Bot) sendMessage(ctx context.Context, req sendMessageRequest) error {
	if b.Token == "" {
		return fmt.Errorf("telegram: bot token is not configured")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+"/bot"+b.Token+"/sendMessage", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.Client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("telegram: send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram: send returned status %d", resp.StatusCode)
	}
	return nil
}
