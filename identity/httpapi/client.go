package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/ketabplus/frontend/domain"
	"github.com/ketabplus/frontend/identity"
	"github.com/ketabplus/frontend/pkg/token"
)

const (
	defaultCookieName = "ketab_session"
	defaultTimeout    = 10 * time.Second

	pathCurrent      = "/api/v1/auth/me"
	pathAuthenticate = "/api/v1/auth/login"
	pathInvalidate   = "/api/v1/auth/logout"
	pathHealth       = "/health"
)

// Config controls the identity client transport.
type Config struct {
	BaseURL    string
	CookieName string
	Timeout    time.Duration
	// Dial overrides the transport dialer, e.g. for in-memory listeners.
	Dial fasthttp.DialFunc
}

// Client talks to the platform identity API over fasthttp. It owns the
// ambient session credentials: the session cookie captured from the
// login response is replayed on every subsequent call.
type Client struct {
	http   *fasthttp.Client
	cfg    Config
	logger *zap.Logger

	mu     sync.Mutex
	cookie string
	bearer string
}

// New builds an identity client for the given base URL.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http: &fasthttp.Client{
			Name: "ketabplus-frontend",
			Dial: cfg.Dial,
		},
		cfg:    cfg,
		logger: logger,
	}
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *apiError       `json:"error"`
}

type authPayload struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
}

func (c *Client) Current(ctx context.Context) (*domain.User, error) {
	status, body, err := c.do(ctx, fasthttp.MethodGet, pathCurrent, nil)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeService, "identity service unreachable", err)
	}

	switch {
	case status == http.StatusOK:
		payload, err := decodeAuthPayload(body)
		if err != nil {
			return nil, err
		}
		return c.hydrate(payload), nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, domain.ErrUnauthenticated
	default:
		return nil, domain.NewError(domain.ErrCodeService, serverMessage(body, "identity lookup failed"))
	}
}

func (c *Client) Authenticate(ctx context.Context, identifier, secret string) (*domain.User, error) {
	reqBody, err := json.Marshal(map[string]string{
		"identifier": identifier,
		"secret":     secret,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "invalid credentials payload", err)
	}

	status, body, err := c.do(ctx, fasthttp.MethodPost, pathAuthenticate, reqBody)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeService, "identity service unreachable", err)
	}

	switch {
	case status == http.StatusOK || status == http.StatusCreated:
		payload, err := decodeAuthPayload(body)
		if err != nil {
			return nil, err
		}
		if payload.AccessToken != "" {
			c.mu.Lock()
			c.bearer = payload.AccessToken
			c.mu.Unlock()
		}
		return c.hydrate(payload), nil
	case status == http.StatusBadRequest || status == http.StatusUnauthorized || status == http.StatusUnprocessableEntity:
		return nil, domain.NewError(domain.ErrCodeInvalidCredentials, serverMessage(body, "invalid email or password"))
	default:
		return nil, domain.NewError(domain.ErrCodeService, serverMessage(body, "login failed"))
	}
}

func (c *Client) Invalidate(ctx context.Context) error {
	status, body, err := c.do(ctx, fasthttp.MethodPost, pathInvalidate, nil)

	// Drop local credentials no matter what the server said.
	c.mu.Lock()
	c.cookie = ""
	c.bearer = ""
	c.mu.Unlock()

	if err != nil {
		return domain.WrapError(domain.ErrCodeService, "identity service unreachable", err)
	}
	if status >= http.StatusInternalServerError {
		return domain.NewError(domain.ErrCodeService, serverMessage(body, "logout failed"))
	}
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	status, _, err := c.do(ctx, fasthttp.MethodGet, pathHealth, nil)
	if err != nil {
		return domain.WrapError(domain.ErrCodeService, "identity service unreachable", err)
	}
	if status >= http.StatusInternalServerError {
		return domain.NewError(domain.ErrCodeService, "identity service degraded")
	}
	return nil
}

// hydrate fills role data from the access token when the identity
// payload omits it.
func (c *Client) hydrate(payload *authPayload) *domain.User {
	user := payload.User
	if user == nil || len(user.Roles) > 0 || payload.AccessToken == "" {
		return user
	}
	claims, err := token.Decode(payload.AccessToken)
	if err != nil {
		c.logger.Debug("access token decode failed", zap.Error(err))
		return user
	}
	user.Roles = claims.Roles
	if user.Email == "" {
		user.Email = claims.Email
	}
	if user.Name == "" {
		user.Name = claims.Name
	}
	return user
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI(c.cfg.BaseURL + path)
	req.Header.SetContentType("application/json")
	if body != nil {
		req.SetBody(body)
	}

	c.mu.Lock()
	if c.cookie != "" {
		req.Header.SetCookie(c.cfg.CookieName, c.cookie)
	}
	if c.bearer != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+c.bearer)
	}
	c.mu.Unlock()

	deadline := time.Now().Add(c.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return 0, nil, err
	}

	c.captureCookie(resp)

	out := append([]byte(nil), resp.Body()...)
	return resp.StatusCode(), out, nil
}

// captureCookie keeps the session cookie fresh; the server may rotate
// it on any response.
func (c *Client) captureCookie(resp *fasthttp.Response) {
	cookie := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(cookie)

	cookie.SetKey(c.cfg.CookieName)
	if !resp.Header.Cookie(cookie) {
		return
	}
	c.mu.Lock()
	c.cookie = string(cookie.Value())
	c.mu.Unlock()
}

func decodeAuthPayload(body []byte) (*authPayload, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, domain.WrapError(domain.ErrCodeService, "malformed identity response", err)
	}

	var payload authPayload
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, domain.WrapError(domain.ErrCodeService, "malformed identity payload", err)
		}
	}
	if payload.User == nil {
		return nil, domain.NewError(domain.ErrCodeService, "identity response missing user")
	}
	return &payload, nil
}

func serverMessage(body []byte, fallback string) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil && env.Error.Message != "" {
		return env.Error.Message
	}
	return fallback
}

var _ identity.Service = (*Client)(nil)
