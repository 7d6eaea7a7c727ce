package middleware

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/mbeoliero/parley/pkg/response"
)

// Limiter decides whether a key still has budget
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// RateLimit throttles write routes per caller. A nil limiter lets every
// request through.
func RateLimit(limiter Limiter) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if limiter == nil {
			c.Next(ctx)
			return
		}
		key := GetUserId(c)
		if key == "" {
			key = c.ClientIP()
		}
		if !limiter.Allow(ctx, key) {
			response.TooManyRequests(ctx, c)
			c.Abort()
			return
		}
		c.Next(ctx)
	}
}
