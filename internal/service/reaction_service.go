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

// ReactionService toggles emoji reactions on messages
type ReactionService struct {
	*deps
}

func newReactionService(d *deps) *ReactionService {
	return &ReactionService{deps: d}
}

// Toggle adds the (message, user, emoji) reaction or removes it when it is
// already there. Returns whether the reaction is active afterwards.
func (s *ReactionService) Toggle(ctx context.Context, messageId, userId, emoji string) (active bool, err error) {
	defer observe("toggle_reaction", &err)

	if !entity.IsAllowedEmoji(emoji) {
		return false, errcode.ErrInvalidEmoji
	}

	reactionId, err := s.nextId(ctx)
	if err != nil {
		return false, err
	}

	var conversationId string
	err = s.repos.Transaction(ctx, func(tx *gorm.DB) error {
		msg, err := s.repos.Message.GetById(ctx, tx, messageId)
		if err != nil {
			return err
		}
		if msg == nil {
			return errcode.ErrMessageNotFound
		}
		if _, err := s.lockParticipant(ctx, tx, msg.ConversationId, userId, clause.LockingStrengthShare); err != nil {
			return err
		}
		// toggles of one message run one at a time
		msg, err = s.repos.Message.GetForUpdate(ctx, tx, messageId)
		if err != nil {
			return err
		}
		if msg == nil {
			return errcode.ErrMessageNotFound
		}
		if msg.IsDeleted {
			return errcode.ErrMessageDeleted
		}
		conversationId = msg.ConversationId

		active, err = s.repos.Reaction.Toggle(ctx, tx, &entity.Reaction{
			Id:        reactionId,
			MessageId: messageId,
			UserId:    userId,
			Emoji:     emoji,
			CreatedAt: s.now(),
		})
		return err
	})
	if err != nil {
		return false, bizError(ctx, err, "toggle reaction")
	}

	s.notifier.Publish(ctx, constant.TopicConversation(conversationId))
	log.CtxDebug(ctx, "reaction toggled: message_id=%s, user_id=%s, emoji=%s, active=%v", messageId, userId, emoji, active)
	return active, nil
}
