package middleware

import (
	"context"
	"time"

	"github.com/534591395/zoodubbo/message"
	"go.uber.org/zap"
)

func LoggingMiddleware(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, inv *message.Invocation) message.Outcome {
			start := time.Now()
			out := next(ctx, inv)
			fields := []zap.Field{
				zap.String("path", inv.Path),
				zap.String("method", inv.Method),
				zap.Duration("duration", time.Since(start)),
			}
			if out.Err != nil {
				logger.Warn("invocation failed", append(fields, zap.Error(out.Err))...)
				return out
			}
			logger.Debug("invocation done", append(fields, zap.Bool("void", out.Result.Void))...)
			return out
		}
	}
}
