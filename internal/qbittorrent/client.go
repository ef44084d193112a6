package qbittorrent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"seedvault/internal/services"
)

// HTTPDoer describes the HTTP client used by the qBittorrent service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Torrent mirrors the fields of the torrents/info response the driver needs.
type Torrent struct {
	Hash         string  `json:"hash"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Tags         string  `json:"tags"`
	SavePath     string  `json:"save_path"`
	ContentPath  string  `json:"content_path"`
	Size         int64   `json:"size"`
	Progress     float64 `json:"progress"`
	State        string  `json:"state"`
	AddedOn      int64   `json:"added_on"`
	CompletionOn int64   `json:"completion_on"`
}

// LocalPath returns the absolute on-disk location of the torrent content.
// content_path distinguishes single-file torrents from their save directory.
func (t Torrent) LocalPath() string {
	if strings.TrimSpace(t.ContentPath) != "" {
		return t.ContentPath
	}
	return filepath.Join(t.SavePath, t.Name)
}

// AddedAt converts the added_on epoch to a time.
func (t Torrent) AddedAt() time.Time {
	return time.Unix(t.AddedOn, 0).UTC()
}

// CompletedAt converts the completion_on epoch to a time, nil when unset.
func (t Torrent) CompletedAt() *time.Time {
	if t.CompletionOn <= 0 {
		return nil
	}
	ts := time.Unix(t.CompletionOn, 0).UTC()
	return &ts
}

// Client talks to a single qBittorrent WebUI instance.
type Client struct {
	baseURL  string
	username string
	password string
	client   HTTPDoer

	mu       sync.Mutex
	loggedIn bool
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient injects a custom HTTP client (primarily for tests). The
// default client carries a cookie jar for the SID session cookie.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.client = doer
		}
	}
}

// New constructs a WebUI client. requestTimeout bounds individual API calls.
func New(baseURL, username, password string, requestTimeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "qbittorrent", "new", "base URL required", nil)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	client := &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
		client: &http.Client{
			Jar:     jar,
			Timeout: requestTimeout,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ListCompleted returns torrents whose download has finished and whose state
// is idle, seeding, or paused. The session is established lazily and renewed
// once when the WebUI rejects the request.
func (c *Client) ListCompleted(ctx context.Context) ([]Torrent, error) {
	body, err := c.getWithReauth(ctx, "/api/v2/torrents/info?filter=completed")
	if err != nil {
		return nil, err
	}

	var all []Torrent
	if err := json.Unmarshal(body, &all); err != nil {
		return nil, services.Wrap(services.ErrTransient, "qbittorrent", "list", "decode torrents/info response", err)
	}

	completed := make([]Torrent, 0, len(all))
	for _, torrent := range all {
		if torrent.Progress >= 1 && IsFinishedState(torrent.State) {
			completed = append(completed, torrent)
		}
	}
	return completed, nil
}

// Delete removes torrents from the client, optionally deleting their files.
func (c *Client) Delete(ctx context.Context, hash string, deleteFiles bool) error {
	form := url.Values{
		"hashes":      {hash},
		"deleteFiles": {fmt.Sprintf("%t", deleteFiles)},
	}
	_, err := c.postWithReauth(ctx, "/api/v2/torrents/delete", form)
	return err
}

func (c *Client) getWithReauth(ctx context.Context, path string) ([]byte, error) {
	return c.withReauth(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		return c.client.Do(req)
	})
}

func (c *Client) postWithReauth(ctx context.Context, path string, form url.Values) ([]byte, error) {
	return c.withReauth(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return c.client.Do(req)
	})
}

// withReauth performs a request, logging in first when no session exists and
// retrying exactly once after a fresh login when the WebUI answers 403.
func (c *Client) withReauth(ctx context.Context, do func() (*http.Response, error)) ([]byte, error) {
	if err := c.ensureSession(ctx, false); err != nil {
		return nil, err
	}

	body, status, err := drain(do())
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "qbittorrent", "request", "webui request failed", err)
	}
	if status == http.StatusForbidden {
		if err := c.ensureSession(ctx, true); err != nil {
			return nil, err
		}
		body, status, err = drain(do())
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "qbittorrent", "request", "webui request failed after re-login", err)
		}
	}
	if status != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, "qbittorrent", "request", fmt.Sprintf("webui returned status %d", status), nil)
	}
	return body, nil
}

func (c *Client) ensureSession(ctx context.Context, force bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loggedIn && !force {
		return nil
	}

	form := url.Values{
		"username": {c.username},
		"password": {c.password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", c.baseURL)

	body, status, err := drain(c.client.Do(req))
	if err != nil {
		return services.Wrap(services.ErrTransient, "qbittorrent", "login", "login request failed", err)
	}
	if status != http.StatusOK || strings.TrimSpace(string(body)) == "Fails." {
		c.loggedIn = false
		return services.Wrap(services.ErrConfiguration, "qbittorrent", "login", fmt.Sprintf("login rejected (status %d)", status), nil)
	}
	c.loggedIn = true
	return nil
}

func drain(resp *http.Response, err error) ([]byte, int, error) {
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if readErr != nil {
		return nil, resp.StatusCode, readErr
	}
	return body, resp.StatusCode, nil
}
