package middleware

import (
	"context"
	"time"

	"github.com/534591395/zoodubbo/message"
	"github.com/534591395/zoodubbo/observability"
)

// MetricsMiddleware records every settled invocation in the client metrics.
func MetricsMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, inv *message.Invocation) message.Outcome {
			start := time.Now()
			out := next(ctx, inv)
			observability.RecordCall(inv.Path, inv.Method, observability.OutcomeLabel(out.Err, out.Result.Void), time.Since(start))
			return out
		}
	}
}
