package bootstrap

import (
	"context"
	"fmt"
)

// Hook runs at a fixed point of the lifecycle. An error from a start or
// ready hook aborts startup.
type Hook func(ctx context.Context) error

// OnStart hooks run once every component has started.
func (a *App[C]) OnStart(hooks ...Hook) { a.onStart = append(a.onStart, hooks...) }

// OnReady hooks run after the ready check, just before Run blocks.
func (a *App[C]) OnReady(hooks ...Hook) { a.onReady = append(a.onReady, hooks...) }

// OnStop hooks run first on shutdown, while components are still up.
func (a *App[C]) OnStop(hooks ...Hook) { a.onStop = append(a.onStop, hooks...) }

func runHooks(ctx context.Context, hooks []Hook) error {
	for i, hook := range hooks {
		if err := hook(ctx); err != nil {
			return fmt.Errorf("hook #%d: %w", i+1, err)
		}
	}
	return nil
}
