package middleware

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/mbeoliero/parley/internal/repository/zapadapter"
)

// RequestIdHeader carries the request id back to the client
const RequestIdHeader = "X-Request-Id"

// AccessLog stamps every request with an id, which also tags the SQL log
// lines of that request, and logs the outcome
func AccessLog(logger *zap.Logger) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		id := string(c.GetHeader(RequestIdHeader))
		if id == "" {
			id = xid.New().String()
		}
		ctx = zapadapter.NewContextWithID(ctx, id)
		c.Header(RequestIdHeader, id)

		start := time.Now()
		c.Next(ctx)

		logger.Info("http request",
			zap.String("id", id),
			zap.String("method", string(c.Method())),
			zap.String("uri", string(c.Request.URI().RequestURI())),
			zap.String("ip", c.ClientIP()),
			zap.Int("status", c.Response.StatusCode()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
