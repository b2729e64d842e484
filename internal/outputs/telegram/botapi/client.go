package botapi

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
	"time"

	"github.com/bakkerme/feedwatch/internal/outputs/telegram"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// maxResponseBytes bounds how much of a Bot API reply is read.
const maxResponseBytes = 1 << 20

// Client sends messages through the Bot API sendMessage method. The bot token
// never appears in returned errors.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewClient(token, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

func (c *Client) Send(ctx context.Context, message telegram.Message) error {
	if c.token == "" {
		return fmt.Errorf("telegram bot token is required")
	}
	if message.ChatID == "" {
		return fmt.Errorf("telegram chat id is required")
	}

	payload, err := json.Marshal(sendMessageRequest{ChatID: message.ChatID, Text: message.Text})
	if err != nil {
		return fmt.Errorf("encode sendMessage request: %w", err)
	}

	endpoint := c.baseURL + "/bot" + c.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build sendMessage request: %s", c.redact(err.Error()))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = c.redact(urlErr.URL)
		}
		return fmt.Errorf("sendMessage: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read sendMessage response: %w", err)
	}

	var decoded apiResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("sendMessage: unexpected status %d", resp.StatusCode)
		}
		return fmt.Errorf("decode sendMessage response: %w", err)
	}
	if !decoded.OK || resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sendMessage: status %d: %s", resp.StatusCode, c.redact(decoded.Description))
	}
	return nil
}

func (c *Client) redact(s string) string {
	if c.token == "" {
		return s
	}
	return strings.ReplaceAll(s, c.token, "<redacted>")
}
