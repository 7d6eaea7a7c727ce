package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/mbeoliero/parley/internal/middleware"
	"github.com/mbeoliero/parley/internal/service"
	"github.com/mbeoliero/parley/pkg/errcode"
	"github.com/mbeoliero/parley/pkg/response"
)

// ActivityHandler serves presence and typing signals
type ActivityHandler struct {
	presence *service.PresenceService
	typing   *service.TypingService
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(presence *service.PresenceService, typing *service.TypingService) *ActivityHandler {
	return &ActivityHandler{presence: presence, typing: typing}
}

// OnlineUsersResponse lists online users and the heartbeat cadence clients
// should keep to stay in it
type OnlineUsersResponse struct {
	UserIds             []string `json:"user_ids"`
	HeartbeatIntervalMs int64    `json:"heartbeat_interval_ms"`
}

// Heartbeat marks the caller online
func (h *ActivityHandler) Heartbeat(ctx context.Context, c *app.RequestContext) {
	if err := h.presence.Heartbeat(ctx, middleware.GetUserId(c)); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, nil)
}

// GetOnlineUsers handles online user list request
func (h *ActivityHandler) GetOnlineUsers(ctx context.Context, c *app.RequestContext) {
	ids, err := h.presence.ListOnline(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, &OnlineUsersResponse{
		UserIds:             ids,
		HeartbeatIntervalMs: h.presence.HeartbeatInterval().Milliseconds(),
	})
}

// SetTyping records a typing signal from the caller
func (h *ActivityHandler) SetTyping(ctx context.Context, c *app.RequestContext) {
	var req ConversationIdRequest
	if err := c.BindAndValidate(&req); err != nil || req.ConversationId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	if err := h.typing.Touch(ctx, req.ConversationId, middleware.GetUserId(c)); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, nil)
}

// GetTypingUsers lists who else is typing in a conversation
func (h *ActivityHandler) GetTypingUsers(ctx context.Context, c *app.RequestContext) {
	conversationId := c.Query("conversation_id")
	if conversationId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	users, err := h.typing.ListTyping(ctx, conversationId, middleware.GetUserId(c))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, users)
}
