// Package telegram implements delivery over the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	requestTimeout = 30 * time.Second
)

// ErrChatNotFound reports that the API does not know the requested chat.
var ErrChatNotFound = errors.New("telegram: chat not found")

// RateLimitedError reports that the API throttled a request and how long to
// wait before retrying.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("telegram: rate limited, retry after %s", e.RetryAfter)
}

// Config configures a Client.
type Config struct {
	Token      string
	HTTPClient *http.Client
	BaseURL    string     // overridable in tests
	SendRate   rate.Limit // messages per second; 0 means 1/s
}

// Client talks to the Bot API. Outgoing calls are paced by a rate limiter to
// stay under the per-chat send quota.
type Client struct {
	token   string
	baseURL string
	httpc   *http.Client
	limiter *rate.Limiter
}

// New returns a Client for the given bot token.
func New(cfg Config) *Client {
	c := &Client{
		token:   cfg.Token,
		baseURL: cfg.BaseURL,
		httpc:   cfg.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = defaultAPIBase
	}
	if c.httpc == nil {
		c.httpc = &http.Client{Timeout: requestTimeout}
	}
	sendRate := cfg.SendRate
	if sendRate == 0 {
		sendRate = 1
	}
	c.limiter = rate.NewLimiter(sendRate, 1)
	return c
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

func (c *Client) call(ctx context.Context, method string, params any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("%s: encode params: %w", method, err)
	}

	url := c.baseURL + "/bot" + c.token + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", method, err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(data, &apiResp); err != nil {
		return fmt.Errorf("%s: decode response (HTTP %d): %w", method, resp.StatusCode, err)
	}
	if apiResp.OK {
		return nil
	}

	switch {
	case apiResp.ErrorCode == http.StatusTooManyRequests:
		return &RateLimitedError{RetryAfter: time.Duration(apiResp.Parameters.RetryAfter) * time.Second}
	case strings.Contains(strings.ToLower(apiResp.Description), "chat not found"):
		return fmt.Errorf("%s: %w", method, ErrChatNotFound)
	}
	return fmt.Errorf("%s: api error %d: %s", method, apiResp.ErrorCode, apiResp.Description)
}

// SendText sends plain text to chat with link previews disabled.
func (c *Client) SendText(ctx context.Context, chat, text string) error {
	params := map[string]any{
		"chat_id": chat,
		"text":    text,
		"link_preview_options": map[string]any{
			"is_disabled": true,
		},
	}
	return c.call(ctx, "sendMessage", params)
}

// SendPhoto sends a photo by transport file reference with an optional
// caption.
func (c *Client) SendPhoto(ctx context.Context, chat, fileRef, caption string) error {
	params := map[string]any{
		"chat_id": chat,
		"photo":   fileRef,
	}
	if caption != "" {
		params["caption"] = caption
	}
	return c.call(ctx, "sendPhoto", params)
}

// SendDocument sends a document by transport file reference with an optional
// caption.
func (c *Client) SendDocument(ctx context.Context, chat, fileRef, caption string) error {
	params := map[string]any{
		"chat_id":  chat,
		"document": fileRef,
	}
	if caption != "" {
		params["caption"] = caption
	}
	return c.call(ctx, "sendDocument", params)
}

// Forward relays an existing message from its source chat.
func (c *Client) Forward(ctx context.Context, chat, fromChat string, messageID int64) error {
	params := map[string]any{
		"chat_id":      chat,
		"from_chat_id": fromChat,
		"message_id":   messageID,
	}
	return c.call(ctx, "forwardMessage", params)
}

// GetChat resolves a chat identifier, returning ErrChatNotFound when the API
// does not know it.
func (c *Client) GetChat(ctx context.Context, chat string) error {
	return c.call(ctx, "getChat", map[string]any{"chat_id": chat})
}
