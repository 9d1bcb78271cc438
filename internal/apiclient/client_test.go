package apiclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"garansi-console/internal/auth"
	"garansi-console/internal/events"
	"garansi-console/internal/rbac"
	"garansi-console/internal/tokenstore"
	"garansi-console/pkg/logger"
)

type recordingNav struct {
	mu        sync.Mutex
	path      string
	redirects []string
}

func (n *recordingNav) CurrentPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path
}

func (n *recordingNav) Redirect(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.redirects = append(n.redirects, path)
	n.path = path
}

type fixture struct {
	srv    *httptest.Server
	client *Client
	store  *tokenstore.Store
	mem    *tokenstore.MemoryBackend
	bus    *events.Bus

	mu      sync.Mutex
	expired []events.SessionExpired
}

func newFixture(t *testing.T, h http.HandlerFunc, cfg Config) *fixture {
	t.Helper()
	f := &fixture{srv: httptest.NewServer(h), mem: tokenstore.NewMemory(), bus: events.New()}
	t.Cleanup(f.srv.Close)

	f.store = tokenstore.New(f.mem, logger.Discard())
	if _, err := f.bus.OnSessionExpired(func(ev events.SessionExpired) {
		f.mu.Lock()
		f.expired = append(f.expired, ev)
		f.mu.Unlock()
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cfg.BaseURL = f.srv.URL
	f.client = New(cfg, f.store, f.bus, logger.Discard())
	return f
}

func (f *fixture) login(t *testing.T, token string) {
	t.Helper()
	u := auth.User{ID: "1", Name: "Maya", Phone: "0811111111", Role: rbac.RoleManager}
	if err := f.store.Set(context.Background(), token, u); err != nil {
		t.Fatalf("seed store: %v", err)
	}
}

func (f *fixture) expiredCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.expired)
}

func TestDo_AttachesBearerToken(t *testing.T) {
	var gotAuth, gotRID string
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRID = r.Header.Get(logger.HeaderRequestID)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}, Config{})
	f.login(t, "abc")

	resp, err := f.client.Get(context.Background(), "/api/managers/products", nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("status: %d", resp.Status)
	}
	if gotAuth != "Bearer abc" {
		t.Fatalf("authorization header: %q", gotAuth)
	}
	if gotRID == "" {
		t.Fatalf("expected request id header")
	}
}

func TestDo_ForwardsConsoleRequestID(t *testing.T) {
	var gotRID string
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotRID = r.Header.Get(logger.HeaderRequestID)
	}, Config{})

	ctx := logger.WithRequestID(context.Background(), "rid-42")
	if _, err := f.client.Get(ctx, "/api/ping", nil); err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotRID != "rid-42" {
		t.Fatalf("request id: %q", gotRID)
	}
}

func TestDo_WithoutTokenSendsUnauthenticated(t *testing.T) {
	gotAuth := "unset"
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}, Config{})

	if _, err := f.client.Get(context.Background(), "/api/public", nil); err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("expected no authorization header, got %q", gotAuth)
	}
}

func TestDo_UnauthorizedInvalidatesSession(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"jwt expired"}`))
	}, Config{})
	f.login(t, "abc")

	nav := &recordingNav{path: "/products"}
	ctx := WithNavigator(context.Background(), nav)
	_, err := f.client.Get(ctx, "/api/managers/products", nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if MessageOf(err) != "jwt expired" {
		t.Fatalf("message: %q", MessageOf(err))
	}
	if StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("status: %d", StatusOf(err))
	}
	if snap := f.mem.Snapshot(); len(snap) != 0 {
		t.Fatalf("expected empty store, got %v", snap)
	}
	if f.expiredCount() != 1 {
		t.Fatalf("expected one session:expired event, got %d", f.expiredCount())
	}
	if f.expired[0].Message != ExpiredMessage || f.expired[0].Status != http.StatusUnauthorized {
		t.Fatalf("event: %+v", f.expired[0])
	}
	if len(nav.redirects) != 1 || nav.redirects[0] != rbac.PathLogin {
		t.Fatalf("redirects: %v", nav.redirects)
	}
}

func TestDo_ForbiddenOnLoginPageDoesNotRedirect(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}, Config{})
	f.login(t, "abc")

	nav := &recordingNav{path: rbac.PathLogin}
	_, err := f.client.Get(WithNavigator(context.Background(), nav), "/api/sales/customers", nil)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if len(nav.redirects) != 0 {
		t.Fatalf("unexpected redirects: %v", nav.redirects)
	}
	if len(f.mem.Snapshot()) != 0 {
		t.Fatalf("expected store cleared")
	}
}

func TestDo_LoginRejectionKeepsStore(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid phone or password"}`))
	}, Config{})
	f.login(t, "abc")

	nav := &recordingNav{path: rbac.PathLogin}
	_, err := f.client.Post(WithNavigator(context.Background(), nav), DefaultLoginPath, map[string]string{"phone": "0811111111"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if errors.Is(err, ErrSessionExpired) {
		t.Fatalf("login rejection must not expire the session")
	}
	if MessageOf(err) != "Invalid phone or password" {
		t.Fatalf("message: %q", MessageOf(err))
	}
	if tok, _ := f.store.Token(context.Background()); tok != "abc" {
		t.Fatalf("token changed: %q", tok)
	}
	if f.expiredCount() != 0 || len(nav.redirects) != 0 {
		t.Fatalf("unexpected side effects: events=%d redirects=%v", f.expiredCount(), nav.redirects)
	}
}

func TestIsLoginRequest_MatchesEndpointExactly(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1"}, nil, nil, logger.Discard())
	cases := map[string]bool{
		"/api/auth/login":          true,
		"/api/auth/login/":         true,
		"api/auth/login":           true,
		"/api/auth/login?next=x":   true,
		"/api/auth/login-history":  false,
		"/api/auth/login/history":  false,
		"/api/managers/auth/login": false,
		"/api/auth/password":       false,
	}
	for p, want := range cases {
		if got := c.isLoginRequest(p); got != want {
			t.Fatalf("isLoginRequest(%q) = %v, want %v", p, got, want)
		}
	}
}

func TestDo_LoginNeighbourRejectionInvalidates(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, Config{})
	f.login(t, "abc")

	_, err := f.client.Get(context.Background(), "/api/auth/login-history", nil)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if len(f.mem.Snapshot()) != 0 || f.expiredCount() != 1 {
		t.Fatalf("expected invalidation: store=%v events=%d", f.mem.Snapshot(), f.expiredCount())
	}
}

func TestDo_ErrorMessagePriority(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"server message", 422, `{"message":"Phone already registered","error":"conflict"}`, "Phone already registered"},
		{"error string", 400, `{"error":"bad filter"}`, "bad filter"},
		{"nested error", 400, `{"error":{"message":"nested"}}`, "nested"},
		{"no body", 500, ``, "Request failed with status code 500"},
		{"non json", 502, `<html>gateway</html>`, "Request failed with status code 502"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}, Config{})
			_, err := f.client.Get(context.Background(), "/api/x", nil)
			if got := MessageOf(err); got != tc.want {
				t.Fatalf("message: got %q want %q", got, tc.want)
			}
			var apiErr *Error
			if !errors.As(err, &apiErr) || string(apiErr.Body) != tc.body {
				t.Fatalf("expected raw body to be preserved, got %v", err)
			}
		})
	}
}

func TestDo_TransportErrorUsesTransportText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := New(Config{BaseURL: base}, nil, nil, logger.Discard())
	_, err := c.Get(context.Background(), "/api/x", nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	msg := MessageOf(err)
	if msg == "" || msg == FallbackMessage {
		t.Fatalf("expected transport text, got %q", msg)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Err == nil || apiErr.Status != 0 {
		t.Fatalf("expected wrapped transport error, got %#v", err)
	}
}

func TestDo_Timeout(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, Config{Timeout: 50 * time.Millisecond})

	_, err := f.client.Get(context.Background(), "/api/slow", nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if !strings.Contains(MessageOf(err), "timeout") {
		t.Fatalf("message: %q", MessageOf(err))
	}
}

func TestDo_ConcurrentUnauthorized(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, Config{})
	f.login(t, "abc")

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.client.Get(context.Background(), "/api/managers/stores", nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
	}
	if len(f.mem.Snapshot()) != 0 {
		t.Fatalf("expected store cleared")
	}
	if f.expiredCount() == 0 {
		t.Fatalf("expected at least one event")
	}
}

func TestDo_SendsJSONBody(t *testing.T) {
	var gotType string
	var gotBody []byte
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}, Config{})

	_, err := f.client.Post(context.Background(), "/api/managers/products", map[string]string{"name": "Kulkas"})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if !strings.HasPrefix(gotType, "application/json") {
		t.Fatalf("content type: %q", gotType)
	}
	if strings.TrimSpace(string(gotBody)) != `{"name":"Kulkas"}` {
		t.Fatalf("body: %s", gotBody)
	}
}

func TestResponse_DecodeData(t *testing.T) {
	var v struct {
		Token string `json:"token"`
	}
	wrapped := &Response{Body: []byte(`{"data":{"token":"abc"}}`)}
	if err := wrapped.DecodeData(&v); err != nil || v.Token != "abc" {
		t.Fatalf("wrapped: %v %+v", err, v)
	}
	v.Token = ""
	flat := &Response{Body: []byte(`{"token":"xyz"}`)}
	if err := flat.DecodeData(&v); err != nil || v.Token != "xyz" {
		t.Fatalf("flat: %v %+v", err, v)
	}
	if err := (&Response{}).Decode(&v); err == nil {
		t.Fatalf("expected error for empty body")
	}
}
