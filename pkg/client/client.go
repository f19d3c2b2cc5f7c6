// Package client keeps an in-memory mirror of one user's server state: the
// signed-in user, the watchlist and the notifications shown about them.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/logging"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/models"
)

// Config configures a Client.
type Config struct {
	// BaseURL is the server root, without the /api/v1 prefix.
	BaseURL string
	// HTTPClient is used as is when set; its Jar must keep the session cookie.
	HTTPClient *http.Client
	// NotificationTTL defaults to DefaultNotificationTTL.
	NotificationTTL time.Duration
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// Client talks to the account API and mirrors what it returns. It is safe for
// concurrent use.
type Client struct {
	baseURL       string
	http          *http.Client
	notifications *notificationCenter

	mu        sync.RWMutex
	user      *models.User
	watchlist []models.WatchlistEntry
}

// New creates a Client with its own cookie jar.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		httpClient = &http.Client{Jar: jar}
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/") + "/api/v1",
		http:          httpClient,
		notifications: newNotificationCenter(cfg.NotificationTTL),
	}, nil
}

// envelope is the union of the response bodies the client reads.
type envelope struct {
	Success   bool                    `json:"success"`
	Message   string                  `json:"message"`
	User      *models.User            `json:"user"`
	Watchlist []models.WatchlistEntry `json:"watchlist"`
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	var out envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil && resp.StatusCode < 300 {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	if resp.StatusCode >= 300 || (len(raw) > 0 && !out.Success) {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: out.Message}
	}
	return &out, nil
}

// User returns the signed-in user, or nil.
func (c *Client) User() *models.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

func (c *Client) setUser(u *models.User) {
	c.mu.Lock()
	c.user = u
	c.mu.Unlock()
}

// SignupRequest is the body of a signup.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup registers an account and signs it in.
func (c *Client) Signup(ctx context.Context, req SignupRequest) error {
	out, err := c.do(ctx, http.MethodPost, "/auth/signup", req)
	if err != nil {
		c.setUser(nil)
		c.notifications.add(Notification{
			Type:    NotificationError,
			Title:   "Signup Failed",
			Message: messageOr(err, "An error occurred while creating your account."),
		})
		return err
	}
	c.setUser(out.User)
	c.notifications.add(Notification{
		Type:    NotificationSuccess,
		Title:   "Account Created",
		Message: fmt.Sprintf("Welcome %s! Your account has been created successfully.", req.Username),
	})
	return nil
}

// Login signs in by email when identifier contains "@", by username otherwise.
func (c *Client) Login(ctx context.Context, identifier, password string) error {
	body := map[string]string{"password": password}
	if strings.Contains(identifier, "@") {
		body["email"] = identifier
	} else {
		body["username"] = identifier
	}

	out, err := c.do(ctx, http.MethodPost, "/auth/login", body)
	if err != nil {
		c.setUser(nil)
		return err
	}
	c.setUser(out.User)
	return nil
}

// Logout ends the session and forgets the user and the watchlist.
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.do(ctx, http.MethodPost, "/auth/logout", nil); err != nil {
		return err
	}
	c.mu.Lock()
	c.user = nil
	c.watchlist = nil
	c.mu.Unlock()
	return nil
}

// AuthCheck refreshes the user from the session cookie. A missing or rejected
// session is not an error: it reports false.
func (c *Client) AuthCheck(ctx context.Context) (bool, error) {
	out, err := c.do(ctx, http.MethodGet, "/auth/authCheck", nil)
	if IsUnauthorized(err) {
		c.setUser(nil)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	c.setUser(out.User)
	return true, nil
}

// Notifications returns the live notifications, newest first.
func (c *Client) Notifications() []Notification {
	return c.notifications.list()
}

// AddNotification shows n and returns its id.
func (c *Client) AddNotification(n Notification) int64 {
	return c.notifications.add(n)
}

func (c *Client) RemoveNotification(id int64) {
	c.notifications.remove(id)
}

func (c *Client) ClearNotifications() {
	c.notifications.clear()
}

func messageOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	logging.Debug().Err(err).Msg("request failed without a server message")
	return fallback
}
