package router

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/websocket"
	"go.uber.org/zap"

	"github.com/mbeoliero/parley/internal/config"
	"github.com/mbeoliero/parley/internal/gateway"
	"github.com/mbeoliero/parley/internal/handler"
	"github.com/mbeoliero/parley/internal/metrics"
	"github.com/mbeoliero/parley/internal/middleware"
)

// Handlers holds all HTTP handlers
type Handlers struct {
	User         *handler.UserHandler
	Conversation *handler.ConversationHandler
	Message      *handler.MessageHandler
	Activity     *handler.ActivityHandler
}

// Deps are the collaborators the middleware chain needs
type Deps struct {
	Users   middleware.UserResolver
	Limiter middleware.Limiter
	Logger  *zap.Logger
}

// SetupRouter sets up all routes
func SetupRouter(h *server.Hertz, cfg *config.Config, handlers *Handlers, wsServer *gateway.WsServer, deps Deps) {
	if deps.Logger != nil {
		h.Use(middleware.AccessLog(deps.Logger))
	}
	h.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	h.GET("/health", func(ctx context.Context, c *app.RequestContext) {
		c.JSON(consts.StatusOK, map[string]string{"status": "ok"})
	})
	h.GET("/metrics", adaptor.HertzHandler(metrics.Handler()))

	auth := middleware.JWTAuth(&cfg.Auth, deps.Users)
	synced := middleware.RequireUser()
	limit := middleware.RateLimit(deps.Limiter)

	// Sync and me work before the caller has a user row
	identityGroup := h.Group("/user", auth)
	{
		identityGroup.POST("/sync", limit, handlers.User.Sync)
		identityGroup.GET("/me", handlers.User.GetMe)
	}

	userGroup := h.Group("/user", auth, synced)
	{
		userGroup.GET("/list", handlers.User.ListUsers)
		userGroup.GET("/info/:user_id", handlers.User.GetUserInfoById)
		userGroup.POST("/batch", handlers.User.BatchGetUsers)
	}

	convGroup := h.Group("/conversation", auth, synced)
	{
		convGroup.POST("/direct", limit, handlers.Conversation.CreateDirect)
		convGroup.POST("/group", limit, handlers.Conversation.CreateGroup)
		convGroup.GET("/info", handlers.Conversation.GetConversation)
		convGroup.GET("/list", handlers.Conversation.GetConversationList)
		convGroup.POST("/delete", limit, handlers.Conversation.DeleteConversation)
		convGroup.POST("/mark_read", limit, handlers.Conversation.MarkRead)
		convGroup.GET("/read_receipt", handlers.Conversation.GetReadReceipt)
	}

	msgGroup := h.Group("/msg", auth, synced)
	{
		msgGroup.POST("/send", limit, handlers.Message.SendMessage)
		msgGroup.POST("/delete", limit, handlers.Message.DeleteMessage)
		msgGroup.GET("/list", handlers.Message.ListMessages)
		msgGroup.POST("/reaction", limit, handlers.Message.ToggleReaction)
	}

	presenceGroup := h.Group("/presence", auth, synced)
	{
		presenceGroup.POST("/heartbeat", limit, handlers.Activity.Heartbeat)
		presenceGroup.GET("/online", handlers.Activity.GetOnlineUsers)
	}

	typingGroup := h.Group("/typing", auth, synced)
	{
		typingGroup.POST("/set", limit, handlers.Activity.SetTyping)
		typingGroup.GET("/list", handlers.Activity.GetTypingUsers)
	}

	allowedOrigins := cfg.Server.AllowedOrigins
	upgrader := &websocket.HertzUpgrader{
		CheckOrigin: func(ctx *app.RequestContext) bool {
			return checkOrigin(ctx, allowedOrigins)
		},
	}
	h.GET("/ws", auth, synced, func(ctx context.Context, c *app.RequestContext) {
		wsServer.HandleHertzConnection(ctx, c, upgrader)
	})
}

// checkOrigin validates the Origin header against allowed origins
func checkOrigin(ctx *app.RequestContext, allowedOrigins []string) bool {
	origin := string(ctx.Request.Header.Peek("Origin"))

	// Non-browser clients send no origin
	if origin == "" {
		return true
	}
	if len(allowedOrigins) == 0 {
		return false
	}

	for _, allowed := range allowedOrigins {
		if allowed == "*" || strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}
