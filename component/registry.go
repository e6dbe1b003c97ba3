package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/whisper-srt/logger"
)

const defaultStopTimeout = 10 * time.Second

// Registry owns the service's components. They start in registration order
// and stop in reverse, so a component may rely on anything registered
// before it.
type Registry struct {
	mu          sync.RWMutex
	components  []Component
	byName      map[string]Component
	running     int // components[:running] have been started
	stopTimeout time.Duration
	log         *logger.Logger
}

// NewRegistry returns an empty registry logging through log, or through the
// global logger when log is nil.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Registry{
		byName:      make(map[string]Component),
		stopTimeout: defaultStopTimeout,
		log:         log.WithComponent("components"),
	}
}

// SetStopTimeout bounds each component's Stop. Non-positive values are ignored.
func (r *Registry) SetStopTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	r.mu.Lock()
	r.stopTimeout = d
	r.mu.Unlock()
}

// Register appends c. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("component %s already registered", name)
	}
	r.components = append(r.components, c)
	r.byName[name] = c
	r.log.Debug("Component registered", map[string]interface{}{"component": name})
	return nil
}

// StartAll starts every component not yet running. If one fails, the ones
// started so far are stopped again and the start error is returned.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Info("Starting components", map[string]interface{}{"count": len(r.components) - r.running})
	for r.running < len(r.components) {
		c := r.components[r.running]
		if err := c.Start(ctx); err != nil {
			r.log.Error("Component start failed", map[string]interface{}{
				"component": c.Name(),
				"error":     err.Error(),
			})
			if stopErr := r.unwind(ctx); stopErr != nil {
				r.log.Warn("Rollback after failed start was incomplete", map[string]interface{}{"error": stopErr.Error()})
			}
			return fmt.Errorf("failed to start %s: %w", c.Name(), err)
		}
		r.running++
		r.log.Debug("Component started", map[string]interface{}{"component": c.Name()})
	}
	r.log.Info("All components started")
	return nil
}

// StopAll stops the running components, last started first. Every component
// gets its own stop deadline; failures are collected rather than aborting.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Info("Stopping components", map[string]interface{}{"count": r.running})
	if err := r.unwind(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	r.log.Info("All components stopped")
	return nil
}

// unwind stops components[:running] in reverse. Callers hold mu.
func (r *Registry) unwind(ctx context.Context) error {
	var errs []error
	for r.running > 0 {
		r.running--
		c := r.components[r.running]

		stopCtx, cancel := context.WithTimeout(ctx, r.stopTimeout)
		err := c.Stop(stopCtx)
		cancel()
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", c.Name(), err))
			r.log.Error("Component stop failed", map[string]interface{}{
				"component": c.Name(),
				"error":     err.Error(),
			})
			continue
		}
		r.log.Info("Component stopped", map[string]interface{}{"component": c.Name()})
	}
	return errors.Join(errs...)
}

// HealthAll checks every registered component in registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Health, len(r.components))
	for i, c := range r.components {
		out[i] = c.Health(ctx)
	}
	return out
}

// Get looks a component up by name.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// All returns the components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Component(nil), r.components...)
}
