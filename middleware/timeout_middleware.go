package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/534591395/zoodubbo/message"
)

var ErrTimeout = errors.New("request timed out")

// TimeOutMiddleware bounds each invocation by its own timeout, or by fallback when
// the invocation carries none. A non-positive bound disables the check.
func TimeOutMiddleware(fallback time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, inv *message.Invocation) message.Outcome {
			timeout := inv.Timeout
			if timeout <= 0 {
				timeout = fallback
			}
			if timeout <= 0 {
				return next(ctx, inv)
			}

			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			done := make(chan message.Outcome, 1)
			go func() {
				done <- next(ctx, inv)
			}()

			select {
			case out := <-done:
				return out
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return message.Outcome{Err: fmt.Errorf("%w after %s: %s.%s: %w", ErrTimeout, timeout, inv.Path, inv.Method, ctx.Err())}
				}
				return message.Outcome{Err: ctx.Err()}
			}
		}
	}
}
