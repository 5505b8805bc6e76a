// Package sdk provides the Mindxandria Go SDK for interacting with the
// Mindxandria library API.
package sdk

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

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mindxandria/mindxandria-go/auth"
	"github.com/mindxandria/mindxandria-go/headers"
	"github.com/mindxandria/mindxandria-go/session"
)

const defaultBaseURL = "http://localhost:8080"
const defaultUserAgent = "mindxandria-sdk/0.4"

// Config wires authentication, base URL, and telemetry for the API client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	// TokenStore holds the session's token pair. Defaults to an in-memory
	// store; use session.NewFileStore for a session that survives restarts.
	TokenStore session.Store
	Logger     *zerolog.Logger
	Telemetry  TelemetryHooks
	UserAgent  string
	// OnAuthRequired runs when a 401 could not be healed by a refresh;
	// hook for sending the user back to the login entry point.
	OnAuthRequired func()
	// OnLogout runs after an explicit logout; hook for navigating to the
	// application root.
	OnLogout func()
}

// Client provides high-level helpers for interacting with the library API.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	telemetry      TelemetryHooks
	userAgent      string
	onAuthRequired func()

	store   session.Store
	session *session.Manager

	// Grouped service clients.
	Auth  *AuthClient
	Users *UsersClient
	Books *BooksClient
}

// NewClient validates the configuration and returns a ready-to-use Client.
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	normalized, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	store := cfg.TokenStore
	if store == nil {
		store = session.NewMemoryStore()
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	credentials, err := auth.NewClient(auth.Config{
		BaseURL:    normalized,
		HTTPClient: httpClient,
		UserAgent:  ua,
	})
	if err != nil {
		return nil, err
	}
	client := &Client{
		baseURL:        normalized,
		httpClient:     httpClient,
		telemetry:      cfg.Telemetry,
		userAgent:      ua,
		onAuthRequired: cfg.OnAuthRequired,
		store:          store,
	}
	client.Auth = &AuthClient{client: client, api: credentials}
	client.Users = &UsersClient{client: client}
	client.Books = &BooksClient{client: client}

	manager, err := session.NewManager(session.Config{
		Store: store,
		Refresh: func(ctx context.Context, refreshToken string) (session.TokenPair, error) {
			tokens, err := credentials.Refresh(ctx, auth.RefreshRequest{RefreshToken: refreshToken})
			if err != nil {
				return session.TokenPair{}, err
			}
			return session.TokenPair{
				AccessToken:  tokens.AccessToken,
				RefreshToken: tokens.RefreshToken,
			}, nil
		},
		Profile: func(ctx context.Context) (session.Identity, error) {
			user, err := client.Users.Me(ctx)
			if err != nil {
				return session.Identity{}, err
			}
			return session.Identity{Email: user.Email, Name: user.Name}, nil
		},
		Logger:   cfg.Logger,
		OnLogout: cfg.OnLogout,
	})
	if err != nil {
		return nil, err
	}
	client.session = manager
	return client, nil
}

// Session returns the session manager owning the token lifecycle.
func (c *Client) Session() *session.Manager {
	return c.session
}

// TokenStore returns the store holding the access/refresh token pair.
func (c *Client) TokenStore() session.Store {
	return c.store
}

// Close detaches the client from the token store's event bus.
func (c *Client) Close() {
	c.session.Close()
}

func normalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("sdk: base URL required")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("sdk: invalid base URL: %w", err)
	}
	if u.Scheme == "" {
		return "", errors.New("sdk: base URL missing scheme (http/https)")
	}
	if u.Host == "" {
		return "", errors.New("sdk: base URL missing host")
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return strings.TrimSuffix(u.String(), "/"), nil
}

// apiRequest is a replayable request description. The wrapper needs to be
// able to issue the same logical request twice, which *http.Request alone
// cannot do once its body has been consumed.
type apiRequest struct {
	method      string
	path        string
	contentType string
	header      http.Header
	body        []byte
}

func (c *Client) newRequest(ctx context.Context, r apiRequest, token, requestID string) (*http.Request, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, c.buildURL(r.path), body)
	if err != nil {
		return nil, err
	}
	for key, values := range r.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(headers.RequestID, requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	injectTraceparent(ctx, req)
	return req, nil
}

// do performs an authenticated request, transparently healing an expiring
// or just-expired access token. Guarantees: at most one reissue of the
// same logical request, and at most one network refresh per expiry event
// across concurrent callers (the manager's single-flight).
func (c *Client) do(ctx context.Context, r apiRequest) (*http.Response, error) {
	token := c.store.AccessToken()
	if token != "" && auth.IsExpiringSoon(token) && !c.session.Refreshing() {
		fresh, err := c.session.EnsureFresh(ctx)
		if err != nil {
			// Proceed without a token; the request surfaces the 401 and the
			// reactive path below takes over.
			token = ""
		} else {
			token = fresh
		}
	}

	requestID := uuid.NewString()
	resp, err := c.roundTrip(ctx, r, token, requestID)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	if c.session.Refreshing() {
		// A refresh is already in flight; hand the 401 back rather than
		// waiting on it.
		return resp, nil
	}
	fresh, err := c.session.EnsureFresh(ctx)
	if err != nil {
		if c.onAuthRequired != nil {
			c.onAuthRequired()
		}
		return resp, nil
	}
	//nolint:errcheck // original response is replaced by the reissue
	_ = resp.Body.Close()
	return c.roundTrip(ctx, r, fresh, requestID)
}

func (c *Client) roundTrip(ctx context.Context, r apiRequest, token, requestID string) (*http.Response, error) {
	req, err := c.newRequest(ctx, r, token, requestID)
	if err != nil {
		return nil, err
	}
	if c.telemetry.OnHTTPRequest != nil {
		c.telemetry.OnHTTPRequest(ctx, req)
	}
	c.telemetry.log(ctx, LogLevelInfo, "http_request", map[string]any{
		"method": req.Method,
		"url":    req.URL.String(),
	})
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.telemetry.OnHTTPResponse != nil {
		c.telemetry.OnHTTPResponse(ctx, req, resp, err, time.Since(start))
	}
	c.telemetry.metric(ctx, "sdk_http_request_latency_ms", float64(time.Since(start).Milliseconds()), map[string]string{
		"path": r.path,
	})
	if err != nil {
		return nil, &TransportError{Cause: err}
	}
	return resp, nil
}

// Do is the generic authenticated entry point: it carries the same healing
// behavior as the typed helpers for callers composing their own requests.
// The caller owns the returned response body.
func (c *Client) Do(ctx context.Context, method, path string, header http.Header, body []byte) (*http.Response, error) {
	return c.do(ctx, apiRequest{method: method, path: path, header: header, body: body})
}

// sendAndDecode performs an authenticated JSON request and decodes the
// response into out (skipped when out is nil).
func (c *Client) sendAndDecode(ctx context.Context, method, path string, payload, out any) error {
	r := apiRequest{method: method, path: path}
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		r.body = encoded
		r.contentType = "application/json"
	}
	resp, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	//nolint:errcheck // best-effort cleanup on return
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) buildURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}
