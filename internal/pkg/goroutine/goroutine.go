// Package goroutine runs fire-and-forget background work with bounded
// concurrency and panic containment.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/nursyahid/leadpipe/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine multiplies NumCPU when NewManager gets a
// non-positive limit.
const DefaultMaxGoroutine int = 100

// Manager runs background tasks with bounded concurrency, recovers
// panics, and collects errors until Wait is called.
type Manager struct {
	mu      sync.Mutex
	errs    []error
	wg      *sync.WaitGroup
	slots   chan struct{}
	stateMu sync.RWMutex
	closed  bool
}

// NewManager creates a Manager limited to maxGoroutine concurrent tasks.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{
		wg:    &sync.WaitGroup{},
		slots: make(chan struct{}, maxGoroutine),
	}
}

func (g *Manager) collect(err error) {
	g.mu.Lock()
	g.errs = append(g.errs, err)
	g.mu.Unlock()
}

// Go schedules f when capacity is available. A task that cannot be
// started is dropped with a warning, never queued.
func (g *Manager) Go(pCtx context.Context, f func(ctx context.Context) error) {
	if g == nil {
		return
	}

	g.stateMu.RLock()
	if g.closed {
		g.stateMu.RUnlock()
		slog.WarnContext(pCtx, "goroutine manager is closed, skipping new goroutine")
		return
	}

	select {
	case g.slots <- struct{}{}:
	default:
		g.stateMu.RUnlock()
		slog.WarnContext(pCtx, "maximum goroutine limit reached, failed to start new goroutine")
		return
	}

	// The read lock is released inside the task so Wait cannot flip
	// closed between the check above and the goroutine starting.
	g.wg.Go(func() {
		g.stateMu.RUnlock()
		defer func() {
			<-g.slots

			if rvr := recover(); rvr != nil {
				stack := debug.Stack()
				if frames := stacktrace.InternalPaths(stack); len(frames) > 0 {
					slog.ErrorContext(pCtx, "panic occurred in goroutine", "stack", frames)
				} else {
					slog.ErrorContext(pCtx, "panic occurred in goroutine", "stack", string(stack))
				}
			}
		}()

		select {
		case <-pCtx.Done():
			slog.WarnContext(pCtx, "goroutine canceled", "because", pCtx.Err())
		default:
			if err := f(pCtx); err != nil {
				g.collect(err)
			}
		}
	})
}

// Wait closes the manager, blocks for running tasks, and returns the
// joined task errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.stateMu.Lock()
	g.closed = true
	g.stateMu.Unlock()

	g.wg.Wait()

	return errors.Join(g.errs...)
}
