package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/mbeoliero/parley/internal/middleware"
	"github.com/mbeoliero/parley/internal/service"
	"github.com/mbeoliero/parley/pkg/errcode"
	"github.com/mbeoliero/parley/pkg/response"
)

// ConversationHandler handles conversation-related requests
type ConversationHandler struct {
	convService    *service.ConversationService
	viewService    *service.ViewService
	receiptService *service.ReceiptService
}

// NewConversationHandler creates a new ConversationHandler
func NewConversationHandler(svcs *service.Services) *ConversationHandler {
	return &ConversationHandler{
		convService:    svcs.Conversation,
		viewService:    svcs.View,
		receiptService: svcs.Receipt,
	}
}

// CreateDirectRequest represents get-or-create 1:1 conversation request
type CreateDirectRequest struct {
	OtherUserId string `json:"other_user_id"`
}

// ConversationIdRequest is the body of writes addressed to one conversation
type ConversationIdRequest struct {
	ConversationId string `json:"conversation_id"`
}

// CreateDirect returns the caller's 1:1 conversation with another user
func (h *ConversationHandler) CreateDirect(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)

	var req CreateDirectRequest
	if err := c.BindAndValidate(&req); err != nil || req.OtherUserId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	convId, err := h.convService.GetOrCreateDirect(ctx, userId, req.OtherUserId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]string{"conversation_id": convId})
}

// CreateGroup handles create group conversation request
func (h *ConversationHandler) CreateGroup(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)

	var req service.CreateGroupRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	convId, err := h.convService.CreateGroup(ctx, userId, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]string{"conversation_id": convId})
}

// GetConversation returns one conversation, null when absent
func (h *ConversationHandler) GetConversation(ctx context.Context, c *app.RequestContext) {
	conversationId := c.Query("conversation_id")
	if conversationId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	conv, err := h.convService.Get(ctx, conversationId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, conv)
}

// GetConversationList returns the caller's conversation summaries
func (h *ConversationHandler) GetConversationList(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)

	summaries, err := h.viewService.GetConversations(ctx, userId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, summaries)
}

// DeleteConversation deletes a conversation and everything in it
func (h *ConversationHandler) DeleteConversation(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)

	var req ConversationIdRequest
	if err := c.BindAndValidate(&req); err != nil || req.ConversationId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	if err := h.convService.Delete(ctx, userId, req.ConversationId); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, nil)
}

// MarkRead moves the caller's read watermark to now
func (h *ConversationHandler) MarkRead(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)

	var req ConversationIdRequest
	if err := c.BindAndValidate(&req); err != nil || req.ConversationId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	if err := h.receiptService.MarkRead(ctx, req.ConversationId, userId); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, nil)
}

// GetReadReceipt returns the watermark of user_id, the caller by default
func (h *ConversationHandler) GetReadReceipt(ctx context.Context, c *app.RequestContext) {
	conversationId := c.Query("conversation_id")
	if conversationId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}
	userId := c.DefaultQuery("user_id", middleware.GetUserId(c))

	watermark, err := h.receiptService.Watermark(ctx, conversationId, userId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]int64{"last_read_time": watermark})
}
