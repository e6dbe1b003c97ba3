package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kbukum/whisper-srt/component"
	"github.com/kbukum/whisper-srt/logger"
)

const defaultGracefulTimeout = 15 * time.Second

var shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// App drives a service through startup, serving and shutdown. C is the
// service's config type, kept concrete so callbacks see its own fields.
//
//	app, err := bootstrap.NewApp(cfg)
//	app.RegisterComponent(pool)
//	app.RegisterComponent(srv)
//	err = app.Run(ctx)
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Components *component.Registry
	Logger     *logger.Logger
	Summary    *Summary

	gracefulTimeout time.Duration
	onConfigure     []func(ctx context.Context, app *App[C]) error
	onStart         []Hook
	onReady         []Hook
	onStop          []Hook
}

// NewApp defaults and validates cfg, then sets up logging and an empty
// component registry.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	o := newSettings(opts)
	svc := cfg.GetServiceConfig()

	log := o.log
	if log == nil {
		log = logger.Init(svc.Logging, svc.Name)
	}

	app := &App[C]{
		Name:            svc.Name,
		Version:         svc.Version,
		Cfg:             cfg,
		Logger:          log,
		Components:      component.NewRegistry(log),
		gracefulTimeout: o.grace,
	}
	app.Components.SetStopTimeout(o.grace)

	if !o.quiet {
		app.Summary = NewSummary(svc.Name, svc.Version)
		if o.summary != nil {
			app.Summary.SetOutput(o.summary)
		}
	}
	return app, nil
}

// RegisterComponent adds c to the registry. Register dependencies first.
func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// OnConfigure adds a callback that runs once every component is started.
func (a *App[C]) OnConfigure(fn func(ctx context.Context, app *App[C]) error) {
	a.onConfigure = append(a.onConfigure, fn)
}

// ReadyCheck fails when any component reports something other than healthy.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	var bad []string
	for _, h := range a.Components.HealthAll(ctx) {
		if h.OK() {
			continue
		}
		entry := fmt.Sprintf("%s=%s", h.Name, h.Status)
		if h.Message != "" {
			entry += "(" + h.Message + ")"
		}
		bad = append(bad, entry)
	}
	if bad != nil {
		return fmt.Errorf("unhealthy components: [%s]", strings.Join(bad, " "))
	}
	return nil
}

// Run starts the service and blocks until a shutdown signal arrives or ctx
// ends, then stops it.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.startup(ctx); err != nil {
		return err
	}
	a.Logger.Info("Application ready, waiting for shutdown signal")
	a.WaitForSignal(ctx)
	return a.stop()
}

// RunTask starts the service, runs task and stops the service when task
// returns. A shutdown signal cancels the task's context. The task's error
// takes precedence over a shutdown error.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.startup(ctx); err != nil {
		return err
	}

	taskCtx, cancel := signal.NotifyContext(ctx, shutdownSignals...)
	taskErr := task(taskCtx)
	cancel()

	stopErr := a.stop()
	if taskErr != nil {
		return taskErr
	}
	return stopErr
}

// startupPhase is one step of startup. Phases after the components are up
// roll them back on failure.
type startupPhase struct {
	name     string
	run      func(ctx context.Context) error
	rollback bool
	warnOnly bool
}

func (a *App[C]) startup(ctx context.Context) error {
	began := time.Now()
	a.Logger.Info("Starting application", map[string]interface{}{
		"name":    a.Name,
		"version": a.Version,
	})

	phases := []startupPhase{
		{name: "initialization", run: a.Components.StartAll},
		{name: "onStart hook", run: func(ctx context.Context) error { return runHooks(ctx, a.onStart) }, rollback: true},
		{name: "configuration", run: a.configure, rollback: true},
		{name: "ready check", run: a.ReadyCheck, warnOnly: true},
		{name: "onReady hook", run: func(ctx context.Context) error { return runHooks(ctx, a.onReady) }, rollback: true},
	}
	for _, p := range phases {
		err := p.run(ctx)
		if err == nil {
			continue
		}
		if p.warnOnly {
			a.Logger.Warn("Startup phase reported issues", map[string]interface{}{
				"phase": p.name,
				"error": err.Error(),
			})
			continue
		}
		if p.rollback {
			a.rollback()
		}
		return fmt.Errorf("%s failed: %w", p.name, err)
	}

	if a.Summary != nil {
		a.Summary.SetStartupDuration(time.Since(began))
		a.Summary.Display(ctx, a.Components)
	}
	return nil
}

func (a *App[C]) configure(ctx context.Context) error {
	for i, fn := range a.onConfigure {
		if err := fn(ctx, a); err != nil {
			return fmt.Errorf("callback %d: %w", i, err)
		}
	}
	return nil
}

// rollback stops the components a failed startup left running.
func (a *App[C]) rollback() {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()
	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.Error("Cleanup after failed startup", map[string]interface{}{"error": err.Error()})
	}
}

// WaitForSignal blocks until SIGINT or SIGTERM arrives, returning it, or
// until ctx is done, returning nil.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, shutdownSignals...)
	defer signal.Stop(sigs)

	select {
	case sig := <-sigs:
		a.Logger.Info("Received shutdown signal", map[string]interface{}{"signal": sig.String()})
		return sig
	case <-ctx.Done():
		a.Logger.Info("Context canceled, shutting down")
		return nil
	}
}

// Shutdown stops the application when the caller drives the lifecycle.
func (a *App[C]) Shutdown(context.Context) error {
	return a.stop()
}

// stop runs the stop hooks and then the components under one deadline.
// Both run even if the hooks fail.
func (a *App[C]) stop() error {
	a.Logger.Info("Shutting down application", map[string]interface{}{
		"timeout": a.gracefulTimeout.String(),
	})
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	hookErr := runHooks(ctx, a.onStop)
	if hookErr != nil {
		a.Logger.Error("OnStop hook error", map[string]interface{}{"error": hookErr.Error()})
	}
	stopErr := a.Components.StopAll(ctx)
	if stopErr != nil {
		a.Logger.Error("Shutdown completed with errors", map[string]interface{}{"error": stopErr.Error()})
	}

	a.Logger.Info("Application shutdown complete")
	return errors.Join(hookErr, stopErr)
}
