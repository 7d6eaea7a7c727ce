package service

import (
	"context"
	"errors"
	"strings"

	"github.com/mbeoliero/kit/log"

	"github.com/mbeoliero/parley/internal/entity"
	"github.com/mbeoliero/parley/pkg/constant"
	"github.com/mbeoliero/parley/pkg/errcode"
)

// IdentityService maps identity-provider accounts to internal users
type IdentityService struct {
	*deps
}

func newIdentityService(d *deps) *IdentityService {
	return &IdentityService{deps: d}
}

// UpsertUserRequest carries the profile asserted by the identity provider
type UpsertUserRequest struct {
	ExternalId  string `json:"external_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	AvatarUrl   string `json:"avatar_url"`
}

// Upsert creates the user on first sign-in and refreshes the profile
// afterwards. Returns the internal id, which never changes.
func (s *IdentityService) Upsert(ctx context.Context, req *UpsertUserRequest) (id string, err error) {
	defer observe("upsert_user", &err)

	externalId := strings.TrimSpace(req.ExternalId)
	if externalId == "" {
		return "", errcode.ErrInvalidParam.Wrap(errors.New("external_id is required"))
	}

	newId, err := s.nextId(ctx)
	if err != nil {
		return "", err
	}

	now := s.now()
	user := &entity.User{
		Id:          newId,
		ExternalId:  externalId,
		Email:       strings.TrimSpace(req.Email),
		DisplayName: strings.TrimSpace(req.DisplayName),
		AvatarUrl:   strings.TrimSpace(req.AvatarUrl),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repos.User.Upsert(ctx, user); err != nil {
		log.CtxError(ctx, "upsert user failed: external_id=%s, error=%v", externalId, err)
		return "", errcode.ErrInternalServer
	}

	stored, err := s.repos.User.GetByExternalId(ctx, externalId)
	if err != nil || stored == nil {
		log.CtxError(ctx, "reload user failed: external_id=%s, error=%v", externalId, err)
		return "", errcode.ErrInternalServer
	}

	s.notifier.Publish(ctx, constant.TopicUsers)
	log.CtxInfo(ctx, "user synced: user_id=%s, external_id=%s", stored.Id, externalId)
	return stored.Id, nil
}

// ResolveExternal returns the internal user for an identity-provider id,
// nil when the user never synced.
func (s *IdentityService) ResolveExternal(ctx context.Context, externalId string) (*entity.User, error) {
	user, err := s.repos.User.GetByExternalId(ctx, externalId)
	if err != nil {
		log.CtxError(ctx, "get user by external id failed: external_id=%s, error=%v", externalId, err)
		return nil, errcode.ErrInternalServer
	}
	return user, nil
}

// GetCurrent returns the caller's user, nil when absent
func (s *IdentityService) GetCurrent(ctx context.Context, externalId string) (*entity.UserInfo, error) {
	user, err := s.ResolveExternal(ctx, externalId)
	if err != nil {
		return nil, err
	}
	return user.ToUserInfo(), nil
}

// List returns every user except the caller, optionally filtered by a
// case-insensitive substring of display name or email.
func (s *IdentityService) List(ctx context.Context, excludeExternalId, query string) ([]*entity.UserInfo, error) {
	users, err := s.repos.User.List(ctx, excludeExternalId, query)
	if err != nil {
		log.CtxError(ctx, "list users failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	return entity.ToUserInfos(users), nil
}

// GetById returns a user, nil when absent
func (s *IdentityService) GetById(ctx context.Context, userId string) (*entity.UserInfo, error) {
	user, err := s.repos.User.GetById(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "get user failed: user_id=%s, error=%v", userId, err)
		return nil, errcode.ErrInternalServer
	}
	return user.ToUserInfo(), nil
}

// GetByIds resolves ids position by position. Unknown ids yield nil
// entries, so the result always has len(userIds) elements.
func (s *IdentityService) GetByIds(ctx context.Context, userIds []string) ([]*entity.UserInfo, error) {
	byId, err := s.repos.User.GetMapByIds(ctx, userIds)
	if err != nil {
		log.CtxError(ctx, "get users failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	infos := make([]*entity.UserInfo, len(userIds))
	for i, id := range userIds {
		infos[i] = byId[id].ToUserInfo()
	}
	return infos, nil
}

// resolveExisting resolves ids and drops the unknown ones, order preserved
func (s *IdentityService) resolveExisting(ctx context.Context, userIds []string) ([]*entity.UserInfo, error) {
	infos, err := s.GetByIds(ctx, userIds)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.UserInfo, 0, len(infos))
	for _, info := range infos {
		if info != nil {
			out = append(out, info)
		}
	}
	return out, nil
}
