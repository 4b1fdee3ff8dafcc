// Package graph is a minimal client for the Meta Graph API endpoints the
// auto-replier uses: post captions, comment replies, direct messages and
// sender profiles.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// PermissionErrorCode is returned when the app lacks the messaging permission
// (instagram_manage_messages) for the recipient.
const PermissionErrorCode = 3

const maxResponseBytes = 1 << 20

// Client calls the Graph API as the configured page/account.
type Client interface {
	GetPostCaption(ctx context.Context, postID string) (string, error)
	ReplyToComment(ctx context.Context, commentID, message string) (SendResult, error)
	SendDirectMessage(ctx context.Context, recipientID, message string) (SendResult, error)
	GetSenderName(ctx context.Context, senderID string) string
}

type Config struct {
	AccessToken string
	BaseURL     string
	Version     string
	Timeout     time.Duration
}

// SendResult is a delivered reply. ID is the created comment or message id.
type SendResult struct {
	ID  string
	Raw json.RawMessage
}

// APIError is a Graph API rejection. Raw keeps the response body for the
// failed-reply record.
type APIError struct {
	StatusCode int
	Code       int
	Type       string
	Message    string
	Raw        json.RawMessage
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("graph api error (status %d, code %d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("graph api error (status %d): %s", e.StatusCode, e.Message)
}

// PermissionDenied reports the code 3 permission error.
func (e *APIError) PermissionDenied() bool {
	return e.Code == PermissionErrorCode
}

type client struct {
	http    *http.Client
	token   string
	baseURL string
	version string
}

func New(cfg Config) Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	version := cfg.Version
	if version == "" {
		version = "v22.0"
	}

	return &client{
		http:    &http.Client{Timeout: timeout},
		token:   cfg.AccessToken,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		version: version,
	}
}

func (c *client) GetPostCaption(ctx context.Context, postID string) (string, error) {
	var post struct {
		Caption string `json:"caption"`
	}
	query := url.Values{"fields": {"caption"}}
	if _, err := c.do(ctx, http.MethodGet, c.endpoint(postID), query, nil, "", &post); err != nil {
		return "", fmt.Errorf("fetching caption for post %s: %w", postID, err)
	}
	return post.Caption, nil
}

func (c *client) ReplyToComment(ctx context.Context, commentID, message string) (SendResult, error) {
	form := url.Values{"message": {message}}
	body := strings.NewReader(form.Encode())
	return c.send(ctx, c.endpoint(commentID, "replies"), body, "application/x-www-form-urlencoded")
}

func (c *client) SendDirectMessage(ctx context.Context, recipientID, message string) (SendResult, error) {
	payload := map[string]any{
		"recipient": map[string]string{"id": recipientID},
		"message":   map[string]string{"text": message},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return SendResult{}, fmt.Errorf("encoding message: %w", err)
	}
	return c.send(ctx, c.endpoint("me", "messages"), bytes.NewReader(data), "application/json")
}

// GetSenderName looks up a display name for logs. Lookup failures fall back
// to a name derived from the id.
func (c *client) GetSenderName(ctx context.Context, senderID string) string {
	var profile struct {
		Name     string `json:"name"`
		Username string `json:"username"`
	}
	query := url.Values{"fields": {"name,username"}}
	if _, err := c.do(ctx, http.MethodGet, c.endpoint(senderID), query, nil, "", &profile); err != nil {
		slog.DebugContext(ctx, "sender profile lookup failed", "error", err)
		return FallbackSenderName(senderID)
	}

	switch {
	case profile.Name != "":
		return profile.Name
	case profile.Username != "":
		return profile.Username
	default:
		return FallbackSenderName(senderID)
	}
}

// FallbackSenderName returns "User_" plus the last four characters of id.
func FallbackSenderName(senderID string) string {
	if len(senderID) > 4 {
		senderID = senderID[len(senderID)-4:]
	}
	return "User_" + senderID
}

func (c *client) send(ctx context.Context, endpoint string, body io.Reader, contentType string) (SendResult, error) {
	var resp struct {
		ID        string `json:"id"`
		MessageID string `json:"message_id"`
	}
	raw, err := c.do(ctx, http.MethodPost, endpoint, nil, body, contentType, &resp)
	if err != nil {
		return SendResult{}, err
	}

	id := resp.ID
	if id == "" {
		id = resp.MessageID
	}
	if id == "" {
		return SendResult{}, &APIError{
			StatusCode: http.StatusOK,
			Message:    "response carried no id",
			Raw:        raw,
		}
	}

	return SendResult{ID: id, Raw: raw}, nil
}

func (c *client) endpoint(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.baseURL + "/" + c.version + "/" + strings.Join(escaped, "/")
}

// do performs the request and decodes a 2xx body into out. Any response with
// an "error" object, or a non-2xx status, becomes an *APIError. The token
// travels in the Authorization header so it never appears in URLs or
// transport errors.
func (c *client) do(ctx context.Context, method, endpoint string, query url.Values, body io.Reader, contentType string, out any) (json.RawMessage, error) {
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling graph api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading graph api response: %w", err)
	}

	var envelope struct {
		Error *struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	_ = json.Unmarshal(raw, &envelope)

	if envelope.Error != nil {
		return raw, &APIError{
			StatusCode: resp.StatusCode,
			Code:       envelope.Error.Code,
			Type:       envelope.Error.Type,
			Message:    envelope.Error.Message,
			Raw:        raw,
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Raw:        raw,
		}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return raw, fmt.Errorf("decoding graph api response: %w", err)
		}
	}
	return raw, nil
}
