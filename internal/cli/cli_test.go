package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/kbukum/iockit/errors"
	"github.com/kbukum/iockit/manifest"
)

func memFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for p, content := range files {
		if err := afero.WriteFile(fs, p, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", p, err)
		}
	}
	return fs
}

func run(t *testing.T, args []string, opts ...Option) (string, error) {
	t.Helper()
	cmd := New(opts...)
	var out, stderr bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheck(t *testing.T) {
	factories := manifest.Factories{
		"app": func(deps ...any) (any, error) { return "app", nil },
	}

	tests := []struct {
		name     string
		files    map[string]string
		wantOut  []string
		wantCode errors.ErrorCode
	}{
		{
			name: "resolvable",
			files: map[string]string{
				"/m/config.yaml": "modules:\n  - key: config\n    value: {port: 8080}\n",
				"/m/app.yaml":    "modules:\n  - key: app\n    dependencies: [config]\n    factory: app\n",
			},
			wantOut: []string{"loaded 2 modules from /m", "ok"},
		},
		{
			name: "circular edge is reported",
			files: map[string]string{
				"/m/pair.yaml": "modules:\n  - key: a\n    dependencies: [b]\n    value: 1\n  - key: b\n    dependencies: [a]\n    value: 2\n",
			},
			wantOut: []string{"circular: b -> a", "ok"},
		},
		{
			name: "unresolved module",
			files: map[string]string{
				"/m/api.yaml": "modules:\n  - key: api\n    dependencies: [db]\n    value: api\n",
			},
			wantOut:  []string{"unresolved: api (dependencies: [db])"},
			wantCode: errors.ErrCodeUnresolvedDependency,
		},
		{
			name: "unknown factory",
			files: map[string]string{
				"/m/api.yaml": "modules:\n  - key: api\n    factory: server\n",
			},
			wantCode: errors.ErrCodeInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, []string{"check", "--dir", "/m"},
				WithFs(memFs(t, tt.files)), WithFactories(factories))

			if tt.wantCode == "" && err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if tt.wantCode != "" && !errors.HasCode(err, tt.wantCode) {
				t.Fatalf("expected %s, got %v", tt.wantCode, err)
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(out, want) {
					t.Errorf("expected output to contain %q, got:\n%s", want, out)
				}
			}
		})
	}
}

func TestCheckNamespacedDir(t *testing.T) {
	fs := memFs(t, map[string]string{
		"/m/db/primary.yaml": "modules:\n  - key: primary\n    value: pg\n",
		"/m/api.yaml":        "modules:\n  - key: api\n    dependencies: [db/primary]\n    value: api\n",
	})
	out, err := run(t, []string{"check", "--dir", "/m"}, WithFs(fs))
	if err != nil {
		t.Fatalf("expected namespaced dependency to resolve, got %v\n%s", err, out)
	}
}

func TestCheckMissingDir(t *testing.T) {
	_, err := run(t, []string{"check", "--dir", "/absent"}, WithFs(afero.NewMemMapFs()))
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := run(t, []string{"version", "--json"})
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	var info struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", out, err)
	}
	if info.Version == "" {
		t.Error("expected a version")
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	fs := memFs(t, map[string]string{
		"/m/db.yaml": "modules:\n  - key: db\n    value: pg\n",
	})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	cmd := New(WithFs(fs))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"serve", "--dir", "/m", "--addr", "127.0.0.1:0"})

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve failed: %v\n%s", err, out.String())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancellation")
	}
}

// serveAsync runs serve until ctx is done and returns its result channel.
func serveAsync(ctx context.Context, args []string, opts ...Option) (<-chan error, *bytes.Buffer) {
	cmd := New(opts...)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"serve"}, args...))

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()
	return done, &out
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve a port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func TestServeListsStartupCircularEdges(t *testing.T) {
	t.Setenv("IOC_CONTAINER_INITIALIZE", "true")
	fs := memFs(t, map[string]string{
		"/m/pair.yaml": "modules:\n  - key: a\n    dependencies: [b]\n    value: 1\n  - key: b\n    dependencies: [a]\n    value: 2\n",
	})
	addr := freeAddr(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done, out := serveAsync(ctx, []string{"--dir", "/m", "--addr", addr}, WithFs(fs))

	var resp *http.Response
	deadline := time.Now().Add(5 * time.Second)
	for {
		var err error
		resp, err = http.Get("http://" + addr + "/events")
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never answered: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	defer resp.Body.Close()

	var body struct {
		Data []struct {
			Event      string `json:"event"`
			Module     string `json:"module"`
			Dependency string `json:"dependency"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("invalid /events JSON: %v", err)
	}
	var circular int
	for _, e := range body.Data {
		if e.Event == "circular" {
			circular++
			if e.Module != "b" || e.Dependency != "a" {
				t.Errorf("expected edge b -> a, got %s -> %s", e.Module, e.Dependency)
			}
		}
	}
	if circular != 1 {
		t.Errorf("expected the startup circular edge to be listed once, got %d: %+v", circular, body.Data)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("serve failed: %v\n%s", err, out.String())
	}
}

func TestServeInspectDisabled(t *testing.T) {
	// Holding the port makes any attempt to start the server fail.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve a port: %v", err)
	}
	defer ln.Close()
	args := []string{"--dir", "/m", "--addr", ln.Addr().String()}
	files := map[string]string{"/m/db.yaml": "modules:\n  - key: db\n    value: pg\n"}

	tests := []struct {
		name     string
		disabled string
		wantErr  bool
	}{
		{"disabled skips the server", "true", false},
		{"enabled binds the address", "false", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("IOC_INSPECT_DISABLED", tt.disabled)
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			done, out := serveAsync(ctx, args, WithFs(memFs(t, files)))
			select {
			case err := <-done:
				if (err != nil) != tt.wantErr {
					t.Errorf("expected error=%t, got %v\n%s", tt.wantErr, err, out.String())
				}
			case <-time.After(5 * time.Second):
				t.Fatal("serve did not return")
			}
		})
	}
}

func TestCheckStrictFailsOnCircularEdge(t *testing.T) {
	fs := memFs(t, map[string]string{
		"/m/pair.yaml": "modules:\n  - key: a\n    dependencies: [b]\n    value: 1\n  - key: b\n    dependencies: [a]\n    value: 2\n",
	})
	out, err := run(t, []string{"check", "--dir", "/m", "--strict"}, WithFs(fs))
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeCircularDependency {
		t.Fatalf("expected CIRCULAR_DEPENDENCY, got %v", err)
	}
	if appErr.Details["module"] != "b" || appErr.Details["dependency"] != "a" {
		t.Errorf("expected edge b -> a, got %v", appErr.Details)
	}
	edges, _ := appErr.Details["edges"].([]string)
	if len(edges) != 1 || edges[0] != "b -> a" {
		t.Errorf("expected edges [b -> a], got %v", appErr.Details["edges"])
	}
	if strings.Contains(out, "ok") {
		t.Errorf("expected no ok line in strict failure, got:\n%s", out)
	}
}
