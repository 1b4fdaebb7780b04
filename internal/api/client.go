package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ButyrinIA/postboard/internal/filter"
	"github.com/ButyrinIA/postboard/internal/models"
)

// Client wraps the dashboard REST backend. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	mu             sync.RWMutex
	token          string
	onUnauthorized func()
}

type Option func(*Client)

// WithHTTPClient replaces the default instrumented client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithUnauthorizedHandler registers fn to run when an authenticated call fails
// with an authorization error.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
			Transport: otelhttp.NewTransport(&http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
			}),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// OnUnauthorized registers the session-expiry hook after construction.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	var out models.LoginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/login", nil, body, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.doJSON(ctx, http.MethodGet, "/profile", nil, nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, name, email string) (*models.ProfileUpdate, error) {
	var out models.ProfileUpdate
	body := map[string]string{"name": name, "email": email}
	if err := c.doJSON(ctx, http.MethodPut, "/profile", nil, body, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Groups(ctx context.Context) ([]models.Group, error) {
	var out struct {
		Groups []models.Group `json:"groups"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/groups", nil, nil, true, &out); err != nil {
		return nil, err
	}
	return out.Groups, nil
}

// Posts fetches one page of posts matching criteria.
func (c *Client) Posts(ctx context.Context, criteria filter.Criteria, page, perPage int) (*models.PostPage, error) {
	var out models.PostPage
	if err := c.doJSON(ctx, http.MethodGet, "/posts", criteria.PageQuery(page, perPage), nil, true, &out); err != nil {
		return nil, err
	}
	if out.Posts == nil {
		out.Posts = []models.Post{}
	}
	return &out, nil
}

// Post fetches a single post by its identifier (the post URL).
func (c *Client) Post(ctx context.Context, postID string) (*models.Post, error) {
	var out models.Post
	if err := c.doJSON(ctx, http.MethodGet, "/posts/"+url.PathEscape(postID), nil, nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	var out models.Stats
	if err := c.doJSON(ctx, http.MethodGet, "/stats", nil, nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Export requests the whole filtered result set in the given format. The
// caller must close the returned body.
func (c *Client) Export(ctx context.Context, criteria filter.Criteria, format string) (io.ReadCloser, error) {
	q := criteria.Query()
	q.Set("format", format)
	resp, err := c.do(ctx, http.MethodGet, "/posts/export", q, nil, true)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/health", nil, nil, false)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

var facebookHosts = []string{"facebook.com", "fbcdn.net", "fbcdn.", "scontent."}

// ImageURL returns the URL to load an image from. Facebook CDN URLs are routed
// through the backend image proxy, which bypasses referrer and CORS blocks.
func (c *Client) ImageURL(raw string) string {
	if raw == "" {
		return raw
	}
	lower := strings.ToLower(raw)
	for _, h := range facebookHosts {
		if strings.Contains(lower, h) {
			return c.baseURL + "/image-proxy?url=" + url.QueryEscape(raw)
		}
	}
	return raw
}

func (c *Client) doJSON(ctx context.Context, method, path string, q url.Values, in any, authed bool, out any) error {
	resp, err := c.do(ctx, method, path, q, in, authed)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// do sends the request and returns the response for 2xx statuses. Any other
// status is drained, closed and normalized into *Error.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, in any, authed bool) (*http.Response, error) {
	endpoint := c.baseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	sentToken := ""
	if authed {
		sentToken = c.Token()
		if sentToken != "" {
			req.Header.Set("Authorization", "Bearer "+sentToken)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return resp, nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()

	apiErr := newError(resp.StatusCode, raw, authed)
	slog.Debug("backend request failed",
		"method", method, "path", path, "status", resp.StatusCode, "request_id", req.Header.Get("X-Request-ID"))

	if apiErr.authFailure {
		c.mu.RLock()
		hook, current := c.onUnauthorized, c.token
		c.mu.RUnlock()
		// ответ на запрос со старым токеном не должен сбрасывать новую сессию
		if hook != nil && current == sentToken {
			hook()
		}
	}
	return nil, apiErr
}
