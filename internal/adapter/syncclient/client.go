// Package syncclient delivers queued mutations to a NutraMind server over
// HTTP.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nutramind/internal/domain"
	"nutramind/internal/offline"
)

// UserAgent identifies the client. Sessions are bound to the user agent that
// created them, so Login and Apply must send the same value.
const UserAgent = "nutrasync/1"

const sessionCookie = "session"

// StatusError is returned for non-2xx answers.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sync: server answered %d: %s", e.Code, e.Message)
}

// Client implements offline.Remote against /api/sync/apply.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

var (
	_ offline.Remote = (*Client)(nil)
	_ offline.Pinger = (*Client)(nil)
)

// New creates a Client for the server at baseURL. token is a session token
// from an earlier Login and may be empty when the server runs without auth.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Token returns the current session token.
func (c *Client) Token() string { return c.token }

// Login exchanges credentials for a session token and keeps it for later
// calls.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := c.do(ctx, "/api/login", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return "", err
	}
	for _, ck := range resp.Cookies() {
		if ck.Name == sessionCookie && ck.Value != "" {
			c.token = ck.Value
			return c.token, nil
		}
	}
	return "", fmt.Errorf("sync: login response carried no session")
}

// Apply sends m to the server and returns the id of the record it touched.
// The server derives the user from the session; userID is only used in
// errors.
func (c *Client) Apply(ctx context.Context, userID int64, m domain.Mutation) (string, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal mutation: %w", err)
	}
	resp, err := c.do(ctx, "/api/sync/apply", body)
	if err != nil {
		return "", fmt.Errorf("sync user %d: %w", userID, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var res struct {
		Key      string `json:"key"`
		RemoteID string `json:"remoteId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("decode sync result: %w", err)
	}
	if res.Key != m.Key {
		return "", fmt.Errorf("sync: result for key %q, sent %q", res.Key, m.Key)
	}
	return res.RemoteID, nil
}

// Ping checks that the server answers its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", UserAgent)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

func (c *Client) do(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	if c.token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: c.token})
	}
	return c.client.Do(req)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(raw))
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &e) == nil && e.Error != "" {
		msg = e.Error
	}
	return &StatusError{Code: resp.StatusCode, Message: msg}
}
