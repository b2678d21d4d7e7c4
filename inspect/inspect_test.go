package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/iockit/di"
	"github.com/kbukum/iockit/event"
	"github.com/kbukum/iockit/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newTestContainer(t *testing.T) *di.Container {
	t.Helper()
	return di.New(di.WithLogger(logger.Nop()))
}

func define(t *testing.T, c *di.Container, key string, deps []string, impl di.Implementation) {
	t.Helper()
	if err := c.Define(key, deps, impl); err != nil {
		t.Fatalf("Define(%q) failed: %v", key, err)
	}
}

func do(t *testing.T, h http.Handler, method, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid JSON %q: %v", method, path, w.Body.String(), err)
	}
	return w, env
}

func decode(t *testing.T, raw json.RawMessage, v any) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("failed to decode data %s: %v", raw, err)
	}
}

func testAPI(t *testing.T, c *di.Container) (*API, *gin.Engine) {
	t.Helper()
	a := New(c, WithLogger(logger.Nop()), WithService("orders", "1.2.0"))
	t.Cleanup(a.Close)
	return a, a.Engine()
}

func TestListModules(t *testing.T) {
	c := newTestContainer(t)
	define(t, c, "config", nil, di.Value(map[string]string{"dsn": "mem"}))
	define(t, c, "db", []string{"config"}, di.Factory(func(deps ...any) (any, error) {
		return "db", nil
	}))
	_, h := testAPI(t, c)

	w, env := do(t, h, http.MethodGet, "/modules")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var views []ModuleView
	decode(t, env.Data, &views)
	if len(views) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(views))
	}
	if views[0].Key != "config" || views[1].Key != "db" {
		t.Errorf("expected registration order [config db], got [%s %s]", views[0].Key, views[1].Key)
	}
	if views[1].Kind != "factory" {
		t.Errorf("expected db kind factory, got %q", views[1].Kind)
	}
	if len(views[1].Dependencies) != 1 || views[1].Dependencies[0] != "config" {
		t.Errorf("expected db dependencies [config], got %v", views[1].Dependencies)
	}
	if views[1].Instantiated || views[1].Complete {
		t.Error("expected db to be untouched before any request")
	}
}

func TestGetModule(t *testing.T) {
	c := newTestContainer(t)
	define(t, c, "db/primary", nil, di.Value("primary"))
	_, h := testAPI(t, c)

	t.Run("nested key", func(t *testing.T) {
		w, env := do(t, h, http.MethodGet, "/modules/db/primary")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var v ModuleView
		decode(t, env.Data, &v)
		if v.Key != "db/primary" {
			t.Errorf("expected key db/primary, got %q", v.Key)
		}
	})

	t.Run("dotted key is normalized", func(t *testing.T) {
		w, _ := do(t, h, http.MethodGet, "/modules/DB.Primary")
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		w, env := do(t, h, http.MethodGet, "/modules/cache")
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
		if env.Error.Code != "UNKNOWN_MODULE" {
			t.Errorf("expected UNKNOWN_MODULE, got %q", env.Error.Code)
		}
	})
}

func TestNamespaces(t *testing.T) {
	c := newTestContainer(t)
	define(t, c, "db", nil, di.Value("db"))
	define(t, c, "db/primary", nil, di.Value("primary"))
	define(t, c, "db/replica", nil, di.Value("replica"))
	define(t, c, "mailer", nil, di.Value("mailer"))
	_, h := testAPI(t, c)

	tests := []struct {
		path string
		want []string
	}{
		{"/namespaces", []string{"db", "mailer"}},
		{"/namespaces?prefix=db", []string{"db", "db/primary", "db/replica"}},
		{"/namespaces?prefix=cache", nil},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, env := do(t, h, http.MethodGet, tt.path)
			var got map[string]ModuleView
			decode(t, env.Data, &got)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d modules, got %d: %v", len(tt.want), len(got), got)
			}
			for _, k := range tt.want {
				if _, ok := got[k]; !ok {
					t.Errorf("expected %q in namespace", k)
				}
			}
		})
	}
}

func TestInitializeConflict(t *testing.T) {
	c := newTestContainer(t)
	define(t, c, "api", []string{"db"}, di.Value("api"))
	_, h := testAPI(t, c)

	w, env := do(t, h, http.MethodPost, "/initialize")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if env.Error.Code != "UNRESOLVED_DEPENDENCY" {
		t.Errorf("expected UNRESOLVED_DEPENDENCY, got %q", env.Error.Code)
	}
	if mods, _ := env.Error.Details["modules"].([]any); len(mods) != 1 || mods[0] != "api" {
		t.Errorf("expected unresolved [api], got %v", env.Error.Details["modules"])
	}

	_, env = do(t, h, http.MethodGet, "/unresolved")
	var unresolved struct {
		Initialized bool     `json:"initialized"`
		Modules     []string `json:"modules"`
	}
	decode(t, env.Data, &unresolved)
	if unresolved.Initialized {
		t.Error("expected container to stay uninitialized")
	}
	if len(unresolved.Modules) != 1 || unresolved.Modules[0] != "api" {
		t.Errorf("expected unresolved [api], got %v", unresolved.Modules)
	}

	w, _ = do(t, h, http.MethodGet, "/health")
	if w.Code != http.StatusOK {
		t.Errorf("expected degraded health to answer 200, got %d", w.Code)
	}
	var health struct {
		Service string `json:"service"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("invalid health JSON: %v", err)
	}
	if health.Status != "degraded" || health.Service != "orders" {
		t.Errorf("expected degraded orders health, got %+v", health)
	}

	// Defining the missing module lets a retry succeed.
	define(t, c, "db", nil, di.Value("db"))
	w, _ = do(t, h, http.MethodPost, "/initialize")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on retry, got %d", w.Code)
	}
	w, _ = do(t, h, http.MethodGet, "/health")
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("invalid health JSON: %v", err)
	}
	if health.Status != "up" {
		t.Errorf("expected up after initialize, got %q", health.Status)
	}
}

func TestInstance(t *testing.T) {
	c := newTestContainer(t)
	define(t, c, "port", nil, di.Value(8080))
	define(t, c, "api", []string{"missing"}, di.Value("api"))
	_, h := testAPI(t, c)

	tests := []struct {
		name string
		path string
		code int
		err  string
	}{
		{"resolvable", "/instances/port", http.StatusOK, ""},
		{"unknown", "/instances/nope", http.StatusNotFound, "UNKNOWN_MODULE"},
		{"unresolvable", "/instances/api", http.StatusConflict, "UNRESOLVED_DEPENDENCY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, h, http.MethodGet, tt.path)
			if w.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, w.Code)
			}
			if env.Error.Code != tt.err {
				t.Errorf("expected error code %q, got %q", tt.err, env.Error.Code)
			}
		})
	}

	_, env := do(t, h, http.MethodGet, "/instances/port")
	var got struct {
		Type string `json:"type"`
	}
	decode(t, env.Data, &got)
	if got.Type != "int" {
		t.Errorf("expected type int, got %q", got.Type)
	}
}

func TestEvents(t *testing.T) {
	c := newTestContainer(t)
	define(t, c, "a", []string{"b"}, di.Value("a"))
	define(t, c, "b", []string{"a"}, di.Value("b"))
	define(t, c, "api", []string{"missing"}, di.Value("api"))
	_, h := testAPI(t, c)

	do(t, h, http.MethodGet, "/instances/a")
	do(t, h, http.MethodGet, "/instances/api")

	_, env := do(t, h, http.MethodGet, "/events")
	var entries []Entry
	decode(t, env.Data, &entries)

	var circular, failed []Entry
	for _, e := range entries {
		switch e.Event {
		case di.EventCircular:
			circular = append(circular, e)
		case di.EventResolveError:
			failed = append(failed, e)
		}
	}
	if len(circular) != 1 || circular[0].Module != "b" || circular[0].Dependency != "a" {
		t.Errorf("expected one circular edge b->a, got %+v", circular)
	}
	if len(failed) == 0 {
		t.Fatal("expected resolve errors to be recorded")
	}

	id := failed[0].ResolutionID
	_, env = do(t, h, http.MethodGet, "/events?resolution_id="+id)
	var filtered []Entry
	decode(t, env.Data, &filtered)
	for _, e := range filtered {
		if e.ResolutionID != id {
			t.Errorf("expected only resolution %s, got %s", id, e.ResolutionID)
		}
	}
	if len(filtered) == 0 {
		t.Error("expected filtered events")
	}

	_, env = do(t, h, http.MethodGet, "/events?resolution_id="+uuid.NewString())
	decode(t, env.Data, &filtered)
	if len(filtered) != 0 {
		t.Errorf("expected no events for an unknown resolution, got %d", len(filtered))
	}

	w, env := do(t, h, http.MethodGet, "/events?resolution_id=nope")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a malformed resolution id, got %d", w.Code)
	}
	if env.Error.Code != "INVALID_INPUT" {
		t.Errorf("expected INVALID_INPUT, got %q", env.Error.Code)
	}
}

func TestEventLogCapacity(t *testing.T) {
	bus := event.New()
	l := NewEventLog(bus, 2)
	defer l.Close()

	for i := 0; i < 3; i++ {
		bus.Emit(di.EventResolveError, di.ResolveError{Key: fmt.Sprintf("m%d", i), ResolutionID: uuid.New()})
	}
	bus.Emit(di.EventModuleCreate, nil)

	got := l.Entries(uuid.Nil)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Key != "m1" || got[1].Key != "m2" {
		t.Errorf("expected [m1 m2], got [%s %s]", got[0].Key, got[1].Key)
	}

	l.Close()
	bus.Emit(di.EventResolveError, di.ResolveError{Key: "late"})
	if n := len(l.Entries(uuid.Nil)); n != 2 {
		t.Errorf("expected closed log to ignore events, got %d entries", n)
	}
}

func TestRecoveryAndRequestID(t *testing.T) {
	c := newTestContainer(t)
	define(t, c, "boom", nil, di.Factory(func(...any) (any, error) {
		panic("factory exploded")
	}))
	_, h := testAPI(t, c)

	w, env := do(t, h, http.MethodGet, "/instances/boom")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if env.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("expected INTERNAL_ERROR, got %q", env.Error.Code)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Error("expected a generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/modules", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "req-42" {
		t.Errorf("expected request id req-42 to be echoed, got %q", got)
	}

	// The mutex must be released after a panic.
	w, _ = do(t, h, http.MethodGet, "/modules")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 after recovery, got %d", w.Code)
	}
}

func TestServer(t *testing.T) {
	c := newTestContainer(t)
	define(t, c, "db", nil, di.Value("db"))

	srv := NewServer("127.0.0.1:0", Handler(c, WithLogger(logger.Nop())), logger.Nop())
	gin.SetMode(gin.TestMode)
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() {
		if err := srv.Stop(context.Background()); err != nil {
			t.Errorf("Stop failed: %v", err)
		}
	}()

	if h := srv.CheckHealth(context.Background()); h.Status != "up" {
		t.Errorf("expected running server to be up, got %s", h.Status)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/modules/db")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", resp.StatusCode, body)
	}
}

func TestHealthIncludesCheckers(t *testing.T) {
	c := newTestContainer(t)
	define(t, c, "db", nil, di.Value("db"))
	if err := c.Initialize(nil, nil); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	stopped := NewServer("127.0.0.1:0", http.NotFoundHandler(), logger.Nop())
	gin.SetMode(gin.TestMode)
	a := New(c, WithLogger(logger.Nop()), WithCheckers(stopped))
	defer a.Close()
	h := a.Engine()

	w, _ := do(t, h, http.MethodGet, "/health")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with a down component, got %d", w.Code)
	}
	var health struct {
		Status     string `json:"status"`
		Components []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"components"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("invalid health JSON: %v", err)
	}
	if health.Status != "down" {
		t.Errorf("expected down, got %q", health.Status)
	}
	if len(health.Components) != 2 || health.Components[1].Name != "inspect" {
		t.Errorf("expected container and inspect components, got %+v", health.Components)
	}
}

func TestEventLogCreatedBeforeInitialize(t *testing.T) {
	bus := event.New()
	c := di.New(di.WithNotifier(bus), di.WithLogger(logger.Nop()))
	define(t, c, "a", []string{"b"}, di.Value("a"))
	define(t, c, "b", []string{"a"}, di.Value("b"))

	events := NewEventLog(bus, 0)
	defer events.Close()
	if err := c.Initialize(nil, nil); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	a := New(c, WithLogger(logger.Nop()), WithEventLog(events))
	defer a.Close()
	h := a.Engine()
	do(t, h, http.MethodGet, "/instances/a")
	do(t, h, http.MethodGet, "/instances/b")

	_, env := do(t, h, http.MethodGet, "/events")
	var entries []Entry
	decode(t, env.Data, &entries)
	if len(entries) != 1 || entries[0].Event != di.EventCircular {
		t.Fatalf("expected the startup circular edge, got %+v", entries)
	}
	if entries[0].Module != "b" || entries[0].Dependency != "a" {
		t.Errorf("expected edge b -> a, got %s -> %s", entries[0].Module, entries[0].Dependency)
	}
}

func TestServerAddrDuringStart(t *testing.T) {
	srv := NewServer("127.0.0.1:0", http.NotFoundHandler(), logger.Nop())

	stop := make(chan struct{})
	seen := make(chan string, 1)
	go func() {
		last := ""
		for {
			select {
			case <-stop:
				seen <- last
				return
			default:
				last = srv.Addr()
			}
		}
	}()

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer srv.Stop(context.Background())
	close(stop)
	<-seen

	if addr := srv.Addr(); addr == "127.0.0.1:0" {
		t.Errorf("expected the bound address after start, got %q", addr)
	}
}
