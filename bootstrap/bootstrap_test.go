package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/whisper-srt/component"
	"github.com/kbukum/whisper-srt/config"
	"github.com/kbukum/whisper-srt/logger"
)

type testConfig struct {
	config.ServiceConfig
}

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   component.Health
	started  bool
	stopped  bool
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	m.started = true
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	m.stopped = true
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) component.Health {
	return m.health
}

type describedComponent struct {
	mockComponent
	desc   component.Description
	routes []component.Route
}

func (m *describedComponent) Describe() component.Description { return m.desc }
func (m *describedComponent) Routes() []component.Route       { return m.routes }

func newTestConfig(name, version string) *testConfig {
	return &testConfig{
		ServiceConfig: config.ServiceConfig{
			Name:        name,
			Version:     version,
			Environment: "development",
		},
	}
}

func newTestApp(t *testing.T, opts ...Option) *App[*testConfig] {
	t.Helper()
	opts = append([]Option{WithLogger(logger.NewNop()), WithSummaryWriter(io.Discard)}, opts...)
	app, err := NewApp(newTestConfig("whisper-srt", "1.0.0"), opts...)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func healthy(name string) *mockComponent {
	return &mockComponent{name: name, health: component.Health{Name: name, Status: component.StatusHealthy}}
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t)
	if app.Name != "whisper-srt" || app.Version != "1.0.0" {
		t.Errorf("unexpected identity %q %q", app.Name, app.Version)
	}
	if app.Components == nil || app.Logger == nil || app.Summary == nil {
		t.Fatal("expected registry, logger and summary to be set")
	}
	if app.Cfg.Name != "whisper-srt" {
		t.Errorf("expected typed config, got %q", app.Cfg.Name)
	}
	if app.gracefulTimeout != 15*time.Second {
		t.Errorf("expected default 15s, got %v", app.gracefulTimeout)
	}
}

func TestNewAppValidation(t *testing.T) {
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Environment: "development"}}
	if _, err := NewApp(cfg, WithLogger(logger.NewNop())); err == nil {
		t.Error("expected error for missing name")
	}
}

func TestNewAppOptions(t *testing.T) {
	custom := logger.NewNop()
	app := newTestApp(t, WithGracefulTimeout(5*time.Second), WithLogger(custom), WithoutSummary())
	if app.gracefulTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %v", app.gracefulTimeout)
	}
	if app.Logger != custom {
		t.Error("expected custom logger")
	}
	if app.Summary != nil {
		t.Error("expected summary to be disabled")
	}
}

func TestRegisterComponentDuplicate(t *testing.T) {
	app := newTestApp(t)
	if err := app.RegisterComponent(healthy("worker")); err != nil {
		t.Fatalf("RegisterComponent failed: %v", err)
	}
	if app.Components.Get("worker") == nil {
		t.Error("expected component to be registered")
	}
	if err := app.RegisterComponent(healthy("worker")); err == nil {
		t.Error("expected error for duplicate component registration")
	}
}

func TestRunHooks(t *testing.T) {
	var order []string
	hooks := []Hook{
		func(ctx context.Context) error { order = append(order, "first"); return nil },
		func(ctx context.Context) error { return fmt.Errorf("fail") },
		func(ctx context.Context) error { order = append(order, "third"); return nil },
	}
	if err := runHooks(context.Background(), hooks); err == nil {
		t.Error("expected error from failing hook")
	}
	if len(order) != 1 || order[0] != "first" {
		t.Errorf("expected execution to stop at the failing hook, got %v", order)
	}
}

func TestReadyCheck(t *testing.T) {
	tests := []struct {
		name    string
		comps   []*mockComponent
		wantErr bool
	}{
		{"empty", nil, false},
		{"all healthy", []*mockComponent{healthy("redis"), healthy("worker")}, false},
		{"unhealthy", []*mockComponent{healthy("redis"), {
			name:   "kafka",
			health: component.Health{Name: "kafka", Status: component.StatusUnhealthy, Message: "timeout"},
		}}, true},
		{"degraded", []*mockComponent{{
			name:   "worker",
			health: component.Health{Name: "worker", Status: component.StatusDegraded, Message: "backlog full"},
		}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			for _, c := range tt.comps {
				app.RegisterComponent(c)
			}
			err := app.ReadyCheck(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("ReadyCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunTaskLifecycleOrder(t *testing.T) {
	app := newTestApp(t)
	comp := healthy("worker")
	app.RegisterComponent(comp)

	var order []string
	app.OnStart(func(ctx context.Context) error { order = append(order, "start"); return nil })
	app.OnConfigure(func(ctx context.Context, a *App[*testConfig]) error {
		if a.Cfg.Name != "whisper-srt" {
			t.Errorf("expected typed config in configure, got %q", a.Cfg.Name)
		}
		order = append(order, "configure")
		return nil
	})
	app.OnReady(func(ctx context.Context) error { order = append(order, "ready"); return nil })
	app.OnStop(func(ctx context.Context) error { order = append(order, "stop"); return nil })

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		if !comp.started {
			t.Error("expected component to be started before the task")
		}
		order = append(order, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}

	expected := []string{"start", "configure", "ready", "task", "stop"}
	if strings.Join(order, ",") != strings.Join(expected, ",") {
		t.Errorf("expected %v, got %v", expected, order)
	}
	if !comp.stopped {
		t.Error("expected component to be stopped after the task")
	}
}

func TestRunTaskError(t *testing.T) {
	app := newTestApp(t)
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		return fmt.Errorf("task error")
	})
	if err == nil || err.Error() != "task error" {
		t.Errorf("expected 'task error', got %v", err)
	}
}

func TestRunTaskCancellation(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	err := app.RunTask(ctx, func(taskCtx context.Context) error {
		cancel()
		<-taskCtx.Done()
		return taskCtx.Err()
	})
	if err == nil {
		t.Error("expected error from canceled task")
	}
}

func TestRunTaskStartupFailures(t *testing.T) {
	fail := func(ctx context.Context) error { return fmt.Errorf("boom") }
	tests := []struct {
		name  string
		setup func(app *App[*testConfig])
	}{
		{"start hook", func(app *App[*testConfig]) { app.OnStart(fail) }},
		{"configure", func(app *App[*testConfig]) {
			app.OnConfigure(func(ctx context.Context, a *App[*testConfig]) error { return fail(ctx) })
		}},
		{"ready hook", func(app *App[*testConfig]) { app.OnReady(fail) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			comp := healthy("worker")
			app.RegisterComponent(comp)
			tt.setup(app)

			ran := false
			err := app.RunTask(context.Background(), func(ctx context.Context) error {
				ran = true
				return nil
			})
			if err == nil {
				t.Fatal("expected startup error")
			}
			if ran {
				t.Error("task must not run after a failed startup")
			}
			if !comp.stopped {
				t.Error("expected started components to be stopped after a failed startup")
			}
		})
	}
}

func TestRunTaskComponentErrors(t *testing.T) {
	app := newTestApp(t)
	app.RegisterComponent(&mockComponent{name: "bad", startErr: fmt.Errorf("start failed")})
	if err := app.RunTask(context.Background(), func(ctx context.Context) error { return nil }); err == nil {
		t.Error("expected error from component start failure")
	}

	app = newTestApp(t)
	app.RegisterComponent(&mockComponent{
		name:    "worker",
		stopErr: fmt.Errorf("stop failed"),
		health:  component.Health{Name: "worker", Status: component.StatusHealthy},
	})
	if err := app.RunTask(context.Background(), func(ctx context.Context) error { return nil }); err == nil {
		t.Error("expected error from component stop failure")
	}

	app = newTestApp(t)
	app.OnStop(func(ctx context.Context) error { return fmt.Errorf("stop hook failed") })
	if err := app.RunTask(context.Background(), func(ctx context.Context) error { return nil }); err == nil {
		t.Error("expected error from failing stop hook")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	app := newTestApp(t)
	comp := healthy("server")
	app.RegisterComponent(comp)

	ctx, cancel := context.WithCancel(context.Background())
	app.OnReady(func(context.Context) error {
		cancel()
		return nil
	})
	if err := app.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !comp.started || !comp.stopped {
		t.Errorf("expected full lifecycle, started=%v stopped=%v", comp.started, comp.stopped)
	}
	// a second shutdown has nothing left to stop
	if err := app.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestWaitForSignalContextCancellation(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if sig := app.WaitForSignal(ctx); sig != nil {
		t.Errorf("expected nil signal for context cancellation, got %v", sig)
	}
}

func TestSummaryDisplay(t *testing.T) {
	registry := component.NewRegistry(logger.NewNop())
	registry.Register(&describedComponent{
		mockComponent: *healthy("http-server"),
		desc:          component.Description{Name: "HTTP Server", Type: "server", Details: "0.0.0.0:5000", Port: 5000},
		routes: []component.Route{
			{Method: "POST", Path: "/transcribe", Handler: "Transcribe"},
			{Method: "GET", Path: "/tasks/:task_id", Handler: "GetTask"},
		},
	})
	registry.Register(&mockComponent{
		name:   "kafka",
		health: component.Health{Name: "kafka", Status: component.StatusUnhealthy, Message: "connection refused"},
	})

	var buf bytes.Buffer
	s := NewSummary("whisper-srt", "1.2.3")
	s.SetOutput(&buf)
	s.SetStartupDuration(250 * time.Millisecond)
	s.AddSetting("provider", "whisper")
	s.Display(context.Background(), registry)

	out := buf.String()
	for _, want := range []string{
		"whisper-srt v1.2.3 started in 0.25s",
		"[server] HTTP Server: 0.0.0.0:5000 (:5000)",
		"provider: whisper",
		"Routes (2)",
		"/tasks/:task_id",
		"kafka: unhealthy (connection refused)",
		"(1/2 healthy)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if len(s.infrastructure) != 1 || len(s.routes) != 2 {
		t.Errorf("expected 1 infrastructure and 2 routes, got %d and %d", len(s.infrastructure), len(s.routes))
	}

	// collecting twice must not duplicate entries
	s.Display(context.Background(), registry)
	if len(s.routes) != 2 {
		t.Errorf("expected routes to be recollected, got %d", len(s.routes))
	}
}

func TestSummaryDisplayNilRegistry(t *testing.T) {
	var buf bytes.Buffer
	s := NewSummary("whisper-srt", "1.0.0")
	s.SetOutput(&buf)
	s.Display(context.Background(), nil)
	if !strings.Contains(buf.String(), "whisper-srt v1.0.0") {
		t.Errorf("expected header, got %q", buf.String())
	}
}

func TestTreePrefix(t *testing.T) {
	if p := treePrefix(2, 3); p != "└──" {
		t.Errorf("expected '└──' for last item, got %q", p)
	}
	if p := treePrefix(0, 3); p != "├──" {
		t.Errorf("expected '├──' for non-last item, got %q", p)
	}
}

func TestHealthStatusIcon(t *testing.T) {
	tests := []struct {
		status component.HealthStatus
		icon   string
	}{
		{component.StatusHealthy, "✅"},
		{component.StatusDegraded, "⚠️"},
		{component.StatusUnhealthy, "❌"},
		{"unknown", "❓"},
	}
	for _, tc := range tests {
		if got := healthStatusIcon(tc.status); got != tc.icon {
			t.Errorf("healthStatusIcon(%q) = %q, expected %q", tc.status, got, tc.icon)
		}
	}
}
