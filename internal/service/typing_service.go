package service

import (
	"context"

	"github.com/mbeoliero/kit/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mbeoliero/parley/internal/entity"
	"github.com/mbeoliero/parley/pkg/constant"
	"github.com/mbeoliero/parley/pkg/errcode"
)

// TypingService tracks who is composing in a conversation. There is no stop
// signal; an indicator simply ages out of the typing window.
type TypingService struct {
	*deps
}

func newTypingService(d *deps) *TypingService {
	return &TypingService{deps: d}
}

// Touch records a keystroke signal from userId
func (s *TypingService) Touch(ctx context.Context, conversationId, userId string) (err error) {
	defer observe("set_typing", &err)

	now := s.now()
	err = s.repos.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.lockParticipant(ctx, tx, conversationId, userId, clause.LockingStrengthShare); err != nil {
			return err
		}
		return s.repos.Typing.Touch(ctx, tx, conversationId, userId, now)
	})
	if err != nil {
		return bizError(ctx, err, "touch typing")
	}
	s.notifier.Publish(ctx, constant.TopicConversation(conversationId))
	return nil
}

// ListTyping returns the users currently typing, excluding the viewer.
// Users whose record is gone are skipped.
func (s *TypingService) ListTyping(ctx context.Context, conversationId, viewerId string) ([]*entity.UserInfo, error) {
	cutoff := entity.WindowCutoff(s.now(), s.cfg.Typing.Window)
	ids, err := s.repos.Typing.ListTypedAfter(ctx, conversationId, viewerId, cutoff)
	if err != nil {
		log.CtxError(ctx, "list typing failed: conversation_id=%s, error=%v", conversationId, err)
		return nil, errcode.ErrInternalServer
	}

	byId, err := s.repos.User.GetMapByIds(ctx, ids)
	if err != nil {
		log.CtxError(ctx, "resolve typing users failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	users := make([]*entity.UserInfo, 0, len(ids))
	for _, id := range ids {
		if u, ok := byId[id]; ok {
			users = append(users, u.ToUserInfo())
		}
	}
	return users, nil
}
