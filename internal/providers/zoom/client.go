// Package zoom implements the video-conferencing collaborator against the
// Zoom REST API using server-to-server OAuth.
package zoom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/example/event-publisher/internal/conflict"
	"github.com/example/event-publisher/internal/event"
)

// Config wires endpoints and credentials for the client.
type Config struct {
	BaseURL      string
	TokenURL     string
	AccountID    string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
}

// Client queries sub-account availability and schedules meetings. Meetings
// are always created on a specific sub-account selected by the conflict
// classifier.
type Client struct {
	cfg  Config
	http *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient builds a client from the given configuration.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, http: httpClient}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type userList struct {
	Users []struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"users"`
}

type meetingList struct {
	Meetings []struct {
		Topic     string    `json:"topic"`
		StartTime time.Time `json:"start_time"`
		Duration  int       `json:"duration"` // minutes
	} `json:"meetings"`
}

type meetingCreated struct {
	JoinURL string `json:"join_url"`
}

// ListAvailability enumerates every sub-account and the meetings it has
// intersecting the window, in the API's user order.
func (c *Client) ListAvailability(ctx context.Context, window event.TimeWindow) ([]conflict.AccountBookings, error) {
	var users userList
	if err := c.get(ctx, "/users?status=active&page_size=300", &users); err != nil {
		return nil, fmt.Errorf("zoom: list users: %w", err)
	}

	out := make([]conflict.AccountBookings, 0, len(users.Users))
	for _, user := range users.Users {
		var meetings meetingList
		path := fmt.Sprintf("/users/%s/meetings?type=upcoming&page_size=300", url.PathEscape(user.ID))
		if err := c.get(ctx, path, &meetings); err != nil {
			return nil, fmt.Errorf("zoom: list meetings for %s: %w", user.Email, err)
		}

		entry := conflict.AccountBookings{Account: user.Email}
		for _, m := range meetings.Meetings {
			booking := event.Booking{
				Title: m.Topic,
				Start: m.StartTime,
				End:   m.StartTime.Add(time.Duration(m.Duration) * time.Minute),
			}
			if booking.Window().Overlaps(window) {
				entry.Bookings = append(entry.Bookings, booking)
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

// CreateMeeting schedules a meeting on the given sub-account and returns the
// join link. The account is the email returned by ListAvailability; Zoom
// accepts it as the user path segment.
func (c *Client) CreateMeeting(ctx context.Context, title string, window event.TimeWindow, account string) (string, error) {
	body := map[string]any{
		"topic":      title,
		"type":       2, // scheduled meeting
		"start_time": window.Start.UTC().Format("2006-01-02T15:04:05Z"),
		"duration":   int(window.Duration().Minutes()),
		"timezone":   "UTC",
	}

	var created meetingCreated
	path := fmt.Sprintf("/users/%s/meetings", url.PathEscape(account))
	if err := c.post(ctx, path, body, &created); err != nil {
		return "", fmt.Errorf("zoom: create meeting on %s: %w", account, err)
	}
	if created.JoinURL == "" {
		return "", fmt.Errorf("zoom: create meeting on %s: response missing join_url", account)
	}
	return created.JoinURL, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = strings.NewReader(string(raw))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// token returns a cached access token, fetching a fresh one when the cached
// token is within a minute of expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "account_credentials")
	form.Set("account_id", c.cfg.AccountID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("zoom: build token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("zoom: fetch token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("zoom: fetch token: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("zoom: decode token: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("zoom: token response missing access_token")
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return c.accessToken, nil
}
