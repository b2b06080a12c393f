package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	appmiddleware "github.com/anomaly/labs-api/internal/middleware"
)

type fakeSessions struct {
	err   error
	calls int
}

func (f *fakeSessions) WithSession(ctx context.Context, fn func(context.Context, *sql.Conn) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return fn(ctx, nil)
}

type recordedEvent struct {
	event   string
	payload map[string]string
}

type fakeEmitter struct {
	events []recordedEvent
}

func (f *fakeEmitter) Emit(_ context.Context, event string, payload map[string]string) {
	f.events = append(f.events, recordedEvent{event: event, payload: payload})
}

type testEnv struct {
	router   chi.Router
	api      huma.API
	sessions *fakeSessions
	emitter  *fakeEmitter
}

func newTestEnv(t *testing.T, mutate ...func(cfg *huma.Config)) *testEnv {
	t.Helper()

	router := chi.NewRouter()
	router.Use(
		appmiddleware.RequestID(),
		appmiddleware.RequestLogger(),
		appmiddleware.Recoverer(),
	)

	cfg := huma.DefaultConfig("Labs API", "test")
	for _, fn := range mutate {
		fn(&cfg)
	}
	api := humachi.New(router, cfg)

	env := &testEnv{
		router:   router,
		api:      api,
		sessions: &fakeSessions{},
		emitter:  &fakeEmitter{},
	}
	Register(api, Deps{AppName: "labs-api", Sessions: env.sessions, Events: env.emitter})
	NormalizeOperationIDs(api)
	return env
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "application/json")
	resp := httptest.NewRecorder()
	e.router.ServeHTTP(resp, req)
	return resp
}

func decodeMessage(t *testing.T, resp *httptest.ResponseRecorder) MessageData {
	t.Helper()
	var data MessageData
	if err := json.Unmarshal(resp.Body.Bytes(), &data); err != nil {
		t.Fatalf("failed to decode body %q: %v", resp.Body.String(), err)
	}
	return data
}

func TestEchoAlwaysReturnsFixedMessage(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/echo", "/echo?verbose=1&x=y"} {
		resp := env.get(t, path)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.Code)
		}
		if data := decodeMessage(t, resp); data.Message != "Hello, world!" {
			t.Fatalf("%s: unexpected message %q", path, data.Message)
		}
	}
}

func TestHealthcheckReturnsOKWhenSessionAvailable(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/healthcheck")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if data := decodeMessage(t, resp); data.Message != "ok" {
		t.Fatalf("unexpected message %q", data.Message)
	}
	if env.sessions.calls != 1 {
		t.Fatalf("expected exactly one session acquisition, got %d", env.sessions.calls)
	}
}

func TestHealthcheckSurfacesSessionFailureAsServerError(t *testing.T) {
	env := newTestEnv(t)
	env.sessions.err = errors.New("connection refused")

	resp := env.get(t, "/healthcheck")
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if data := decodeMessage(t, resp); data.Message == "ok" {
		t.Fatal("expected no ok body on session failure")
	}
}

func TestLogEmitsExactlyOneFollowEvent(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/log")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if data := decodeMessage(t, resp); data.Message != "ok" {
		t.Fatalf("unexpected message %q", data.Message)
	}

	if len(env.emitter.events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(env.emitter.events))
	}
	ev := env.emitter.events[0]
	if ev.event != "follow" {
		t.Fatalf("expected event follow, got %q", ev.event)
	}
	if ev.payload["from"] != "userA" || ev.payload["to"] != "userB" {
		t.Fatalf("unexpected payload %v", ev.payload)
	}
}

func TestRootReportsEmptyPrefixWhenUnmounted(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var data RootData
	if err := json.Unmarshal(resp.Body.Bytes(), &data); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if data.RootPath != "" {
		t.Fatalf("expected empty root path, got %q", data.RootPath)
	}
	if data.Message != "Welcome to the labs-api API" {
		t.Fatalf("unexpected welcome message %q", data.Message)
	}
}

func TestRootReportsConfiguredMountPrefix(t *testing.T) {
	env := newTestEnv(t, func(cfg *huma.Config) {
		cfg.Servers = []*huma.Server{{URL: "https://api.example.com/api/v1"}}
	})

	resp := env.get(t, "/")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var data RootData
	if err := json.Unmarshal(resp.Body.Bytes(), &data); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if data.RootPath != "/api/v1" {
		t.Fatalf("expected root path /api/v1, got %q", data.RootPath)
	}
}

func collectOperationIDs(api huma.API) map[string]string {
	ids := map[string]string{}
	for path, item := range api.OpenAPI().Paths {
		for _, op := range pathOperations(item) {
			if op != nil {
				ids[path] = op.OperationID
			}
		}
	}
	return ids
}

func TestNormalizeOperationIDsUsesHandlerNames(t *testing.T) {
	env := newTestEnv(t)

	ids := collectOperationIDs(env.api)
	want := map[string]string{
		"/":            "root",
		"/echo":        "echo",
		"/healthcheck": "healthcheck",
		"/log":         "log",
	}
	for path, id := range want {
		if ids[path] != id {
			t.Fatalf("path %s: expected operation ID %q, got %q", path, id, ids[path])
		}
	}
}

func TestNormalizeOperationIDsIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	first := collectOperationIDs(env.api)
	NormalizeOperationIDs(env.api)
	second := collectOperationIDs(env.api)

	if len(first) != len(second) {
		t.Fatalf("operation count changed: %d vs %d", len(first), len(second))
	}
	for path, id := range first {
		if second[path] != id {
			t.Fatalf("path %s: operation ID changed from %q to %q", path, id, second[path])
		}
	}
}

func TestHandlerNameResolution(t *testing.T) {
	h := &handlers{}
	if got := handlerName(h.echo); got != "echo" {
		t.Fatalf("expected method name echo, got %q", got)
	}
	if got := handlerName(handlerName); got != "handlerName" {
		t.Fatalf("expected function name handlerName, got %q", got)
	}
}
