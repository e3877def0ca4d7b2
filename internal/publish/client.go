// Package publish posts validated events to the RuniUni API over a
// JWT-authenticated session.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/event"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/logger"
)

const (
	// tokenLifetime is assumed when the login response does not state one.
	tokenLifetime = 24 * time.Hour
	// refreshBuffer forces a re-login slightly before the token expires so
	// an in-flight request never carries a stale token.
	refreshBuffer = 5 * time.Minute

	loginPath       = "/user/login"
	createEventPath = "/events/music/createEvent"
)

// tokenKeys are the response fields a login token may arrive under,
// checked in order.
var tokenKeys = []string{"token", "access", "jwt", "id_token", "auth_token", "token_access"}

// Config holds the API credentials and endpoint.
type Config struct {
	Username string
	Password string
	BaseURL  string
}

// Client is a JWT-authenticated RuniUni API client. Usernames are
// case-insensitive on the server; passwords are not.
type Client struct {
	username string
	password string
	baseURL  string

	httpClient *http.Client
	now        func() time.Time

	token       string
	tokenExpiry time.Time
}

// New creates a client. It does not log in; the first request does.
func New(cfg Config) *Client {
	return &Client{
		username:   strings.ToLower(cfg.Username),
		password:   cfg.Password,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

// Login obtains a fresh JWT token.
func (c *Client) Login(ctx context.Context) error {
	url := c.baseURL + loginPath
	logger.Info("logging in to event API", "username", c.username, "url", url)

	payload, err := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})
	if err != nil {
		return fmt.Errorf("encoding login payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("login failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return fmt.Errorf("decoding login response: %w", err)
	}

	token := ""
	for _, key := range tokenKeys {
		if v, ok := data[key].(string); ok && v != "" {
			token = v
			break
		}
	}
	if token == "" {
		return fmt.Errorf("no token in login response (keys: %s)", strings.Join(mapKeys(data), ", "))
	}

	c.token = token
	c.tokenExpiry = c.now().Add(tokenLifetime)
	logger.Info("login successful")
	return nil
}

// ensureAuthenticated logs in when the token is missing or near expiry.
func (c *Client) ensureAuthenticated(ctx context.Context) error {
	if c.token != "" && c.now().Before(c.tokenExpiry.Add(-refreshBuffer)) {
		return nil
	}
	return c.Login(ctx)
}

// Result records the outcome of posting one event.
type Result struct {
	Name     string `json:"name"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Response any    `json:"response,omitempty"`
}

// PostEvent posts one event. A 401 triggers a single re-login and retry;
// the server expires tokens on its own schedule regardless of ours.
func (c *Client) PostEvent(ctx context.Context, ev event.Event) Result {
	if err := c.ensureAuthenticated(ctx); err != nil {
		return Result{Name: ev.Name, Message: fmt.Sprintf("authentication failed: %v", err)}
	}

	result, retry := c.postOnce(ctx, ev)
	if retry {
		logger.Info("token rejected, logging in again", "event", ev.Name)
		if err := c.Login(ctx); err != nil {
			return Result{Name: ev.Name, Message: fmt.Sprintf("re-authentication failed: %v", err)}
		}
		result, _ = c.postOnce(ctx, ev)
	}
	return result
}

// postOnce performs one create-event request. The second return value is
// true when the request failed with 401 and is worth retrying.
func (c *Client) postOnce(ctx context.Context, ev event.Event) (Result, bool) {
	url := c.baseURL + createEventPath
	logger.Info("posting event", "event", ev.Name, "url", url)

	payload, err := json.Marshal(ev)
	if err != nil {
		return Result{Name: ev.Name, Message: fmt.Sprintf("encoding event: %v", err)}, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Result{Name: ev.Name, Message: fmt.Sprintf("building request: %v", err)}, false
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Name: ev.Name, Message: fmt.Sprintf("posting event: %v", err)}, false
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var response any
	if err := json.Unmarshal(body, &response); err != nil {
		response = strings.TrimSpace(string(body))
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		logger.Info("event created", "event", ev.Name)
		return Result{Name: ev.Name, Success: true, Message: "event created successfully", Response: response}, false
	case resp.StatusCode == http.StatusUnauthorized:
		return Result{Name: ev.Name, Message: "unauthorized"}, true
	default:
		logger.Error("event creation failed", "event", ev.Name, "status", resp.StatusCode)
		return Result{Name: ev.Name, Message: fmt.Sprintf("API error: %d", resp.StatusCode), Response: response}, false
	}
}

// Summary aggregates the outcome of a batch post.
type Summary struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Total   int      `json:"total"`
	Posted  int      `json:"posted"`
	Failed  int      `json:"failed"`
	Results []Result `json:"results,omitempty"`
}

// PostAll posts every event in order, pausing between requests to stay
// under the API's rate limit.
func (c *Client) PostAll(ctx context.Context, events []event.Event, delay time.Duration) Summary {
	if len(events) == 0 {
		logger.Warn("no events to post")
		return Summary{Success: true, Message: "no events to post"}
	}
	logger.Info("posting events", "count", len(events))

	if err := c.ensureAuthenticated(ctx); err != nil {
		logger.Error("authentication failed", "error", err)
		return Summary{
			Message: fmt.Sprintf("authentication failed: %v", err),
			Total:   len(events),
			Failed:  len(events),
		}
	}

	summary := Summary{Total: len(events)}
	for i, ev := range events {
		logger.Info("posting event", "index", i+1, "total", len(events), "event", ev.Name)

		result := c.PostEvent(ctx, ev)
		summary.Results = append(summary.Results, result)
		if result.Success {
			summary.Posted++
		} else {
			summary.Failed++
		}

		if delay > 0 && i < len(events)-1 {
			select {
			case <-ctx.Done():
				summary.Message = "cancelled"
				return summary
			case <-time.After(delay):
			}
		}
	}

	summary.Success = summary.Failed == 0
	summary.Message = fmt.Sprintf("posted %d/%d events successfully", summary.Posted, summary.Total)
	logger.Info("finished posting events", "posted", summary.Posted, "failed", summary.Failed)
	return summary
}

func mapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
