package gateway

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/websocket"
	"github.com/mbeoliero/kit/log"

	"github.com/mbeoliero/parley/internal/middleware"
	"github.com/mbeoliero/parley/pkg/errcode"
	"github.com/mbeoliero/parley/pkg/response"
)

// HandleHertzConnection upgrades an authenticated request and serves the
// connection until it closes
func (s *WsServer) HandleHertzConnection(ctx context.Context, c *app.RequestContext, upgrader *websocket.HertzUpgrader) {
	if int64(s.GetOnlineConnCount()) >= s.cfg.MaxConnNum {
		c.JSON(http.StatusServiceUnavailable, response.Response{
			Code: errcode.ErrConnOverLimit.Code,
			Msg:  errcode.ErrConnOverLimit.Msg,
		})
		return
	}

	userId := middleware.GetUserId(c)
	err := upgrader.Upgrade(c, func(conn *websocket.Conn) {
		s.serve(newHertzConn(conn, s.cfg), userId)
	})
	if err != nil {
		log.CtxWarn(ctx, "websocket upgrade failed: user_id=%s, error=%v", userId, err)
	}
}
