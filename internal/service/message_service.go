package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/mbeoliero/kit/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mbeoliero/parley/internal/entity"
	"github.com/mbeoliero/parley/pkg/constant"
	"github.com/mbeoliero/parley/pkg/errcode"
)

// MessageService handles message-related business logic
type MessageService struct {
	*deps
	receipt *ReceiptService
}

func newMessageService(d *deps, receipt *ReceiptService) *MessageService {
	return &MessageService{deps: d, receipt: receipt}
}

// SendMessageRequest represents send message request
type SendMessageRequest struct {
	ConversationId string `json:"conversation_id"`
	Content        string `json:"content"`
}

// Send appends a text message to a conversation and returns its id
func (s *MessageService) Send(ctx context.Context, senderId string, req *SendMessageRequest) (id string, err error) {
	defer observe("send_message", &err)

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return "", errcode.ErrContentEmpty
	}
	if utf8.RuneCountInString(content) > s.cfg.Message.MaxLength {
		return "", errcode.ErrContentTooLong
	}

	msgId, err := s.nextId(ctx)
	if err != nil {
		return "", err
	}
	now := s.now()
	msg := &entity.Message{
		Id:             msgId,
		ConversationId: req.ConversationId,
		SenderId:       senderId,
		Content:        content,
		Type:           constant.MsgTypeText,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err = s.repos.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.lockParticipant(ctx, tx, req.ConversationId, senderId, clause.LockingStrengthShare); err != nil {
			return err
		}
		return s.repos.Message.Create(ctx, tx, msg)
	})
	if err != nil {
		return "", bizError(ctx, err, "send message")
	}

	s.notifier.Publish(ctx, constant.TopicConversation(req.ConversationId))
	log.CtxInfo(ctx, "message sent: message_id=%s, conversation_id=%s, sender_id=%s", msgId, req.ConversationId, senderId)
	return msgId, nil
}

// Delete soft-deletes a message. Only its sender may do so, and deleting an
// already deleted message succeeds without change.
func (s *MessageService) Delete(ctx context.Context, actorId, messageId string) (err error) {
	defer observe("delete_message", &err)

	msg, err := s.repos.Message.GetById(ctx, nil, messageId)
	if err != nil {
		log.CtxError(ctx, "get message failed: message_id=%s, error=%v", messageId, err)
		return errcode.ErrInternalServer
	}
	if msg == nil {
		return errcode.ErrMessageNotFound
	}
	if msg.SenderId != actorId {
		return errcode.ErrNoPermission
	}
	if msg.IsDeleted {
		return nil
	}

	if err := s.repos.Message.MarkDeleted(ctx, messageId, s.now()); err != nil {
		log.CtxError(ctx, "mark message deleted failed: message_id=%s, error=%v", messageId, err)
		return errcode.ErrInternalServer
	}

	s.notifier.Publish(ctx, constant.TopicConversation(msg.ConversationId))
	log.CtxInfo(ctx, "message deleted: message_id=%s, actor_id=%s", messageId, actorId)
	return nil
}

// List returns the messages of a conversation oldest first, each with its
// sender and grouped reactions. An unknown conversation yields an empty list.
// When viewerId is set, the viewer must be a participant and their own
// messages carry a sent/seen status.
func (s *MessageService) List(ctx context.Context, conversationId, viewerId string) ([]*entity.MessageInfo, error) {
	var conv *entity.Conversation
	if viewerId != "" {
		c, err := s.requireParticipant(ctx, nil, conversationId, viewerId)
		if errcode.ErrConvNotFound.Is(err) {
			return []*entity.MessageInfo{}, nil
		}
		if err != nil {
			return nil, err
		}
		conv = c
	}

	msgs, err := s.repos.Message.ListByConversation(ctx, conversationId)
	if err != nil {
		log.CtxError(ctx, "list messages failed: conversation_id=%s, error=%v", conversationId, err)
		return nil, errcode.ErrInternalServer
	}
	if len(msgs) == 0 {
		return []*entity.MessageInfo{}, nil
	}

	senderIds := make([]string, 0, len(msgs))
	seenSender := make(map[string]struct{})
	for _, m := range msgs {
		if _, ok := seenSender[m.SenderId]; !ok {
			seenSender[m.SenderId] = struct{}{}
			senderIds = append(senderIds, m.SenderId)
		}
	}

	var (
		senders    map[string]*entity.User
		reactions  map[string][]*entity.ReactionGroup
		watermarks map[string]int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		senders, err = s.repos.User.GetMapByIds(gctx, senderIds)
		return err
	})
	g.Go(func() error {
		var err error
		reactions, err = s.repos.Reaction.GroupByConversation(gctx, conversationId)
		return err
	})
	if conv != nil {
		g.Go(func() error {
			var err error
			watermarks, err = s.receipt.Watermarks(gctx, conversationId)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		log.CtxError(ctx, "enrich messages failed: conversation_id=%s, error=%v", conversationId, err)
		return nil, errcode.ErrInternalServer
	}

	infos := make([]*entity.MessageInfo, 0, len(msgs))
	for _, m := range msgs {
		info := m.ToMessageInfo()
		info.Sender = senders[m.SenderId].ToUserInfo()
		if !m.IsDeleted {
			if groups, ok := reactions[m.Id]; ok {
				info.Reactions = groups
			}
			if conv != nil && m.SenderId == viewerId {
				info.Status = messageStatus(conv, viewerId, watermarks, m.CreatedAt)
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// messageStatus is seen once every other participant has read up to createdAt
func messageStatus(conv *entity.Conversation, senderId string, watermarks map[string]int64, createdAt int64) string {
	others := conv.OtherParticipants(senderId)
	if len(others) == 0 {
		return constant.MsgStatusSent
	}
	for _, uid := range others {
		if !entity.IsSeen(watermarks[uid], createdAt) {
			return constant.MsgStatusSent
		}
	}
	return constant.MsgStatusSeen
}
