// Package apiclient is the single egress pipeline to the Garansi+ API.
//
// Every request picks up the stored bearer token. Every failure is reduced
// to one *Error with a displayable message, and a 401/403 outside the login
// endpoint invalidates the stored session.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"garansi-console/internal/events"
	"garansi-console/internal/rbac"
	"garansi-console/pkg/logger"
)

const (
	DefaultBaseURL   = "https://api.garansiplus.id"
	DefaultTimeout   = 15 * time.Second
	DefaultLoginPath = "/api/auth/login"

	// ExpiredMessage is what the operator sees after a forced logout.
	ExpiredMessage = "Your session has expired. Please sign in again."
)

type Config struct {
	BaseURL string
	Timeout time.Duration
	// LoginPath is the API endpoint whose 401s mean bad credentials rather
	// than an expired session.
	LoginPath string
	// LoginRoute is the console page operators are sent to.
	LoginRoute string
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.LoginPath == "" {
		c.LoginPath = DefaultLoginPath
	}
	if c.LoginRoute == "" {
		c.LoginRoute = rbac.PathLogin
	}
	return c
}

// TokenSource is the part of the token store the pipeline needs.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// Notifier receives session invalidations. *events.Bus satisfies it.
type Notifier interface {
	PublishSessionExpired(ev events.SessionExpired)
}

type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the whole body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("apiclient: empty response body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("apiclient: decode response: %w", err)
	}
	return nil
}

// DecodeData unmarshals the "data" member when the body is an object that
// has one, otherwise the whole body.
func (r *Response) DecodeData(v any) error {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if json.Unmarshal(r.Body, &wrapper) == nil && len(wrapper.Data) > 0 && string(wrapper.Data) != "null" {
		if err := json.Unmarshal(wrapper.Data, v); err != nil {
			return fmt.Errorf("apiclient: decode response data: %w", err)
		}
		return nil
	}
	return r.Decode(v)
}

type Client struct {
	rc     *resty.Client
	cfg    Config
	tokens TokenSource
	notify Notifier
	log    *slog.Logger
}

func New(cfg Config, tokens TokenSource, notify Notifier, log *slog.Logger) *Client {
	cfg = cfg.withDefaults()
	if log == nil {
		log = slog.Default()
	}
	c := &Client{cfg: cfg, tokens: tokens, notify: notify, log: log}

	c.rc = resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{log: log})
	c.rc.OnBeforeRequest(c.attachCredentials)
	return c
}

func (c *Client) Config() Config { return c.cfg }

// attachCredentials never fails the request; a store read error just means
// the call goes out unauthenticated.
func (c *Client) attachCredentials(_ *resty.Client, r *resty.Request) error {
	ctx := r.Context()
	if c.tokens != nil {
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			logger.From(ctx, c.log).WarnContext(ctx, "token store read failed, sending unauthenticated", "err", err)
		} else if tok != "" {
			r.SetAuthToken(tok)
		}
	}
	if r.Header.Get(logger.HeaderRequestID) == "" {
		rid := logger.RequestID(ctx)
		if rid == "" {
			rid = uuid.NewString()
		}
		r.SetHeader(logger.HeaderRequestID, rid)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

// Do sends req. Successful responses pass through untouched; failures come
// back as *Error after the session side effects have run.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	r := c.rc.R().SetContext(ctx)
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	if req.Body != nil {
		r.SetHeader("Content-Type", "application/json").SetBody(req.Body)
	}

	start := time.Now()
	resp, err := r.Execute(req.Method, req.Path)
	apiDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	if err != nil {
		apiRequests.WithLabelValues(req.Method, statusClass(0)).Inc()
		return nil, c.fail(ctx, req, nil, err)
	}

	out := &Response{Status: resp.StatusCode(), Header: resp.Header(), Body: resp.Body()}
	apiRequests.WithLabelValues(req.Method, statusClass(out.Status)).Inc()
	if resp.IsError() || out.Status >= http.StatusBadRequest {
		return out, c.fail(ctx, req, out, nil)
	}
	return out, nil
}

func (c *Client) fail(ctx context.Context, req Request, resp *Response, cause error) error {
	e := &Error{Method: req.Method, Path: req.Path, Err: cause}
	if resp != nil {
		e.Status = resp.Status
		e.Header = resp.Header
		e.Body = resp.Body
	}
	if cause != nil {
		e.timeout = isTimeout(cause)
	}
	e.Message = c.message(e)

	if (e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden) && !c.isLoginRequest(req.Path) {
		e.sessionExpired = true
		c.invalidate(ctx, e)
	}

	logger.From(ctx, c.log).WarnContext(ctx, "api request failed",
		"method", e.Method,
		"path", e.Path,
		"status", e.Status,
		"message", e.Message,
		"session_expired", e.sessionExpired,
	)
	return e
}

func (c *Client) message(e *Error) string {
	if msg := serverMessage(e.Body); msg != "" {
		return msg
	}
	switch {
	case e.timeout:
		return fmt.Sprintf("timeout of %s exceeded", c.cfg.Timeout)
	case e.Err != nil && e.Err.Error() != "":
		return e.Err.Error()
	case e.Status > 0:
		return fmt.Sprintf("%s with status code %d", FallbackMessage, e.Status)
	}
	return FallbackMessage
}

// isLoginRequest matches the login endpoint exactly, so neighbours such as
// /api/auth/login-history still invalidate the session.
func (c *Client) isLoginRequest(p string) bool {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if u, err := url.Parse(p); err == nil && u.Path != "" {
		p = u.Path
	}
	return cleanPath(p) == cleanPath(c.cfg.LoginPath)
}

func cleanPath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// invalidate clears storage, announces the expiry and moves the current page
// to the login route. Concurrent 401s may each run it; every step is safe to
// repeat.
func (c *Client) invalidate(ctx context.Context, e *Error) {
	sessionInvalidations.Inc()
	// the caller's deadline must not stop the credential from being removed
	clearCtx := context.WithoutCancel(ctx)
	if c.tokens != nil {
		if err := c.tokens.Clear(clearCtx); err != nil {
			logger.From(ctx, c.log).ErrorContext(ctx, "clear token store after rejection", "err", err)
		}
	}
	if c.notify != nil {
		c.notify.PublishSessionExpired(events.SessionExpired{
			Message: ExpiredMessage,
			Status:  e.Status,
			Path:    e.Path,
		})
	}
	if nav, ok := NavigatorFrom(ctx); ok && nav.CurrentPath() != c.cfg.LoginRoute {
		nav.Redirect(c.cfg.LoginRoute)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// restyLogger routes resty's own diagnostics into slog.
type restyLogger struct {
	log *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) { l.log.Error(fmt.Sprintf(format, v...)) }
func (l restyLogger) Warnf(format string, v ...any)  { l.log.Warn(fmt.Sprintf(format, v...)) }
func (l restyLogger) Debugf(format string, v ...any) { l.log.Debug(fmt.Sprintf(format, v...)) }
