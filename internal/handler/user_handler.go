package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/mbeoliero/parley/internal/middleware"
	"github.com/mbeoliero/parley/internal/service"
	"github.com/mbeoliero/parley/pkg/errcode"
	"github.com/mbeoliero/parley/pkg/response"
)

// UserHandler handles user-related requests
type UserHandler struct {
	identity *service.IdentityService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(identity *service.IdentityService) *UserHandler {
	return &UserHandler{identity: identity}
}

// SyncUserRequest lets the client override the profile carried by the token
type SyncUserRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	AvatarUrl   string `json:"avatar_url"`
}

// Sync creates or refreshes the caller's user from their token claims
func (h *UserHandler) Sync(ctx context.Context, c *app.RequestContext) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	var req SyncUserRequest
	if len(c.Request.Body()) > 0 {
		if err := c.BindAndValidate(&req); err != nil {
			response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
			return
		}
	}

	upsert := &service.UpsertUserRequest{
		ExternalId:  claims.ExternalId(),
		Email:       firstNonEmpty(req.Email, claims.Email),
		DisplayName: firstNonEmpty(req.DisplayName, claims.Name),
		AvatarUrl:   firstNonEmpty(req.AvatarUrl, claims.Picture),
	}
	userId, err := h.identity.Upsert(ctx, upsert)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]string{"user_id": userId})
}

// GetMe returns the caller, null when they have not synced
func (h *UserHandler) GetMe(ctx context.Context, c *app.RequestContext) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	info, err := h.identity.GetCurrent(ctx, claims.ExternalId())
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, info)
}

// ListUsers returns every other user, filtered by the optional q parameter
func (h *UserHandler) ListUsers(ctx context.Context, c *app.RequestContext) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	users, err := h.identity.List(ctx, claims.ExternalId(), c.Query("q"))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, users)
}

// GetUserInfoById handles get user info by Id request
func (h *UserHandler) GetUserInfoById(ctx context.Context, c *app.RequestContext) {
	userId := c.Param("user_id")
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	info, err := h.identity.GetById(ctx, userId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, info)
}

// BatchGetUsersRequest represents batch user lookup request
type BatchGetUsersRequest struct {
	UserIds []string `json:"user_ids"`
}

// BatchGetUsers resolves ids in order, with null for unknown ids
func (h *UserHandler) BatchGetUsers(ctx context.Context, c *app.RequestContext) {
	var req BatchGetUsersRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	infos, err := h.identity.GetByIds(ctx, req.UserIds)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, infos)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
