package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/nursyahid/leadpipe/internal/pkg/stacktrace"
)

// callHandlerWithRecover converts a panicking consumer handler into an
// error so one bad message cannot take the consumer down.
func callHandlerWithRecover(ctx context.Context, kind string, fn func() error) (err error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}

		stack := debug.Stack()
		if frames := stacktrace.InternalPaths(stack); len(frames) > 0 {
			slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "panic", rvr, "stack", frames)
		} else {
			slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "panic", rvr, "stack", string(stack))
		}
		err = fmt.Errorf("pkgmessage: panic in %s handler: %v", kind, rvr)
	}()

	return fn()
}

func concurrencyOrDefault(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
