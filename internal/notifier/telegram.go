package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	telegramAPIBase = "https://api.telegram.org"

	// Telegram hard limits.
	maxMessageLength = 4096
	maxCaptionLength = 1024

	// splitTarget keeps split parts comfortably under the hard limit so
	// closing tags and part counters still fit.
	splitTarget = 3500
)

// Client sends messages to a Telegram channel through the Bot API.
// Sends are paced with a shared limiter to stay under the per-chat flood
// limits.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func New() *Client {
	return &Client{
		baseURL: telegramAPIBase,
		client:  &http.Client{Timeout: 30 * time.Second},
		// One message per second with a small burst, matching Telegram's
		// documented per-chat guidance.
		limiter: rate.NewLimiter(rate.Limit(1), 3),
	}
}

// NewWithBaseURL is used by tests to point the client at a fake API.
func NewWithBaseURL(baseURL string) *Client {
	c := New()
	c.baseURL = baseURL
	return c
}

type sendMessagePayload struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

type sendPhotoPayload struct {
	ChatID    string `json:"chat_id"`
	Photo     string `json:"photo"`
	Caption   string `json:"caption,omitempty"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// SendMessage delivers text to the channel, splitting messages that exceed
// the Telegram length limit. Returns the ID of the first delivered message.
func (c *Client) SendMessage(ctx context.Context, botToken, chatID, text, parseMode string) (string, error) {
	if botToken == "" || chatID == "" {
		return "", fmt.Errorf("telegram credentials not configured")
	}

	parts := SplitMessage(text, splitTarget)
	var firstID string
	for i, part := range parts {
		if err := c.limiter.Wait(ctx); err != nil {
			return firstID, err
		}
		payload := sendMessagePayload{
			ChatID:                chatID,
			Text:                  part,
			ParseMode:             parseMode,
			DisableWebPagePreview: true,
		}
		id, err := c.call(ctx, botToken, "sendMessage", payload)
		if err != nil {
			return firstID, fmt.Errorf("send part %d/%d: %w", i+1, len(parts), err)
		}
		if firstID == "" {
			firstID = id
		}
	}
	return firstID, nil
}

// SendPhoto delivers a photo with a caption, truncating the caption to the
// Telegram limit.
func (c *Client) SendPhoto(ctx context.Context, botToken, chatID, photoURL, caption, parseMode string) (string, error) {
	if botToken == "" || chatID == "" {
		return "", fmt.Errorf("telegram credentials not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	payload := sendPhotoPayload{
		ChatID:    chatID,
		Photo:     photoURL,
		Caption:   TruncateRunes(caption, maxCaptionLength),
		ParseMode: parseMode,
	}
	return c.call(ctx, botToken, "sendPhoto", payload)
}

func (c *Client) call(ctx context.Context, botToken, method string, payload interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, botToken, method)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("telegram %s: decode response: %w", method, err)
	}
	if !parsed.OK {
		return "", fmt.Errorf("telegram %s failed: %s", method, parsed.Description)
	}
	return strconv.FormatInt(parsed.Result.MessageID, 10), nil
}

// SplitMessage breaks text into parts no longer than limit runes, preferring
// line boundaries so formatting entities are not cut mid-tag. A single line
// longer than the limit is split by runes as a last resort.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = splitTarget
	}
	if len([]rune(text)) <= limit {
		return []string{text}
	}

	var parts []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			parts = append(parts, strings.TrimRight(current.String(), "\n"))
			current.Reset()
			currentLen = 0
		}
	}

	for _, line := range strings.Split(text, "\n") {
		lineRunes := []rune(line)
		for len(lineRunes) > limit {
			flush()
			parts = append(parts, string(lineRunes[:limit]))
			lineRunes = lineRunes[limit:]
		}
		if currentLen+len(lineRunes)+1 > limit {
			flush()
		}
		current.WriteString(string(lineRunes))
		current.WriteString("\n")
		currentLen += len(lineRunes) + 1
	}
	flush()
	return parts
}

// TruncateRunes limits s to n runes, appending an ellipsis when cut.
func TruncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return string(runes[:n])
	}
	return string(runes[:n-1]) + "…"
}

// markdownV2Specials are the characters Telegram requires escaped in
// MarkdownV2 text.
const markdownV2Specials = "_*[]()~`>#+-=|{}.!"

// EscapeMarkdownV2 escapes text for use inside a MarkdownV2 message.
func EscapeMarkdownV2(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(markdownV2Specials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
