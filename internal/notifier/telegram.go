package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTelegramAPI is the Bot API endpoint.
const DefaultTelegramAPI = "https://api.telegram.org"

// maxMessageLen is the Bot API limit on message text.
const maxMessageLen = 4096

// Notifier delivers a formatted message to the player.
type Notifier interface {
	Send(text string) error
}

// CommandHandler is called when a user command is received and returns the reply.
type CommandHandler func(command string) string

// TelegramNotifier pushes wager results to one chat and answers its commands.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	APIBase  string
	Client   *http.Client
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		APIBase:  DefaultTelegramAPI,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	ReplyToMessageID      int    `json:"reply_to_message_id,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *TelegramNotifier) endpoint(method string) string {
	base := strings.TrimRight(t.APIBase, "/")
	if base == "" {
		base = DefaultTelegramAPI
	}
	return fmt.Sprintf("%s/bot%s/%s", base, t.BotToken, method)
}

// Send pushes an HTML message, such as a wager result, to the configured chat.
func (t *TelegramNotifier) Send(text string) error {
	return t.sendMessage(sendMessageRequest{ChatID: t.ChatID, Text: text})
}

// Reply answers a command in chatID, threaded under the message that asked.
func (t *TelegramNotifier) Reply(chatID string, messageID int, text string) error {
	return t.sendMessage(sendMessageRequest{ChatID: chatID, Text: text, ReplyToMessageID: messageID})
}

func (t *TelegramNotifier) sendMessage(msg sendMessageRequest) error {
	msg.Text = truncateMessage(msg.Text)
	msg.ParseMode = "HTML"
	msg.DisableWebPagePreview = true
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	resp, err := t.Client.Post(t.endpoint("sendMessage"), "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	respBody, _ := io.ReadAll(resp.Body)
	var apiErr apiResponse
	if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Description != "" {
		return fmt.Errorf("telegram API error: status %d: %s", resp.StatusCode, apiErr.Description)
	}
	return fmt.Errorf("telegram API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
}

// truncateMessage cuts text to the Bot API limit on a line boundary when it can.
func truncateMessage(text string) string {
	if len(text) <= maxMessageLen {
		return text
	}
	const marker = "\n…"
	cut := text[:maxMessageLen-len(marker)]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return strings.ToValidUTF8(cut, "") + marker
}

// SendWithRetry sends a message, backing off exponentially between attempts.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if lastErr = t.Send(text); lastErr == nil {
			return nil
		}
		if i == maxRetries {
			break
		}
		backoff := time.Duration(1<<uint(i)) * time.Second
		log.Printf("[WARN] result push failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, lastErr, backoff)
		if !sleepCtx(ctx, backoff) {
			return ctx.Err()
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", maxRetries+1, lastErr)
}
