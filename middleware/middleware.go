// Package middleware wraps client invocations with cross-cutting behaviour.
package middleware

import (
	"context"

	"github.com/534591395/zoodubbo/message"
)

// HandlerFunc runs one invocation to its single outcome.
type HandlerFunc func(ctx context.Context, inv *message.Invocation) message.Outcome

type Middleware func(next HandlerFunc) HandlerFunc

// Chain 将多个中间件组合成一个中间件
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
