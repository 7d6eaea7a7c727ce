package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/mbeoliero/parley/internal/middleware"
	"github.com/mbeoliero/parley/internal/service"
	"github.com/mbeoliero/parley/pkg/errcode"
	"github.com/mbeoliero/parley/pkg/response"
)

// MessageHandler handles message-related requests
type MessageHandler struct {
	msgService      *service.MessageService
	reactionService *service.ReactionService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(msgService *service.MessageService, reactionService *service.ReactionService) *MessageHandler {
	return &MessageHandler{msgService: msgService, reactionService: reactionService}
}

// MessageIdRequest addresses one message
type MessageIdRequest struct {
	MessageId string `json:"message_id"`
}

// ToggleReactionRequest represents toggle reaction request
type ToggleReactionRequest struct {
	MessageId string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

// SendMessage handles send message request
func (h *MessageHandler) SendMessage(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)

	var req service.SendMessageRequest
	if err := c.BindAndValidate(&req); err != nil || req.ConversationId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	msgId, err := h.msgService.Send(ctx, userId, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]string{"message_id": msgId})
}

// DeleteMessage soft-deletes one of the caller's messages
func (h *MessageHandler) DeleteMessage(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)

	var req MessageIdRequest
	if err := c.BindAndValidate(&req); err != nil || req.MessageId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	if err := h.msgService.Delete(ctx, userId, req.MessageId); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, nil)
}

// ListMessages returns the enriched history of a conversation
func (h *MessageHandler) ListMessages(ctx context.Context, c *app.RequestContext) {
	conversationId := c.Query("conversation_id")
	if conversationId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	msgs, err := h.msgService.List(ctx, conversationId, middleware.GetUserId(c))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, msgs)
}

// ToggleReaction adds or removes one of the caller's reactions
func (h *MessageHandler) ToggleReaction(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)

	var req ToggleReactionRequest
	if err := c.BindAndValidate(&req); err != nil || req.MessageId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	active, err := h.reactionService.Toggle(ctx, req.MessageId, userId, req.Emoji)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]bool{"active": active})
}
