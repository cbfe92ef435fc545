package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultTelegramAPI = "https://api.telegram.org"

// Telegram posts alerts through the Bot API sendMessage method.
type Telegram struct {
	APIBase string
	Token   string
	ChatID  string
	Client  *http.Client
}

func NewTelegram(apiBase, token, chatID string) *Telegram {
	if token == "" || chatID == "" {
		return nil
	}
	if apiBase == "" {
		apiBase = DefaultTelegramAPI
	}
	return &Telegram{
		APIBase: strings.TrimRight(apiBase, "/"),
		Token:   token,
		ChatID:  chatID,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type telegramPayload struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

func emoji(k Kind) string {
	if k == KindRecovered {
		return "✅"
	}
	return "🔥"
}

// FormatHTML renders an alert in Telegram's HTML parse mode.
func FormatHTML(a Alert) string {
	var b strings.Builder
	b.WriteString(emoji(a.Kind))
	b.WriteString(" <b>")
	b.WriteString(html.EscapeString(a.Title))
	b.WriteString("</b>: <code>")
	b.WriteString(html.EscapeString(a.Subject))
	b.WriteString("</code>")
	if a.Detail != "" {
		b.WriteString("\n")
		b.WriteString(html.EscapeString(a.Detail))
	}
	return b.String()
}

func (t *Telegram) Send(ctx context.Context, a Alert) error {
	if t == nil || t.Token == "" {
		return errors.New("telegram disabled")
	}
	body, _ := json.Marshal(telegramPayload{
		ChatID:                t.ChatID,
		Text:                  FormatHTML(a),
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	url := t.APIBase + "/bot" + t.Token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &SendError{Transport: "telegram", Status: resp.StatusCode, Body: string(b)}
	}
	return nil
}
