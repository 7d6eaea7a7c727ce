package service

import (
	"context"
	"slices"
	"strings"

	"github.com/mbeoliero/kit/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mbeoliero/parley/internal/entity"
	"github.com/mbeoliero/parley/pkg/constant"
	"github.com/mbeoliero/parley/pkg/errcode"
)

// cascadeChunkSize bounds IN lists while deleting a conversation
const cascadeChunkSize = 500

// ConversationService handles conversation-related business logic
type ConversationService struct {
	*deps
}

func newConversationService(d *deps) *ConversationService {
	return &ConversationService{deps: d}
}

// GetOrCreateDirect returns the 1:1 conversation between two users,
// creating it on first use. Concurrent callers converge on one row.
func (s *ConversationService) GetOrCreateDirect(ctx context.Context, currentUserId, otherUserId string) (id string, err error) {
	defer observe("get_or_create_direct", &err)

	currentUserId = strings.TrimSpace(currentUserId)
	otherUserId = strings.TrimSpace(otherUserId)
	if currentUserId == "" || otherUserId == "" {
		return "", errcode.ErrInvalidParam
	}
	if currentUserId == otherUserId {
		return "", errcode.ErrSameUser
	}

	directKey := entity.GenDirectKey(currentUserId, otherUserId)
	existing, err := s.repos.Conversation.GetByDirectKey(ctx, directKey)
	if err != nil {
		log.CtxError(ctx, "get direct conversation failed: direct_key=%s, error=%v", directKey, err)
		return "", errcode.ErrInternalServer
	}
	if existing != nil {
		return existing.Id, nil
	}

	convId, err := s.nextId(ctx)
	if err != nil {
		return "", err
	}
	now := s.now()
	conv := &entity.Conversation{
		Id:           convId,
		CreatedBy:    currentUserId,
		DirectKey:    &directKey,
		CreatedAt:    now,
		UpdatedAt:    now,
		Participants: []string{currentUserId, otherUserId},
	}

	var (
		stored  *entity.Conversation
		created bool
	)
	err = s.repos.Transaction(ctx, func(tx *gorm.DB) error {
		count, err := s.repos.User.CountByIds(ctx, tx, conv.Participants)
		if err != nil {
			return err
		}
		if count != int64(len(conv.Participants)) {
			return errcode.ErrUserNotFound
		}

		stored, created, err = s.repos.Conversation.CreateDirect(ctx, tx, conv)
		if err != nil {
			return err
		}
		if stored == nil {
			return errcode.ErrConflict
		}
		return nil
	})
	if err != nil {
		return "", bizError(ctx, err, "create direct conversation")
	}

	if created {
		s.notifier.Publish(ctx, constant.TopicUser(currentUserId), constant.TopicUser(otherUserId))
		log.CtxInfo(ctx, "direct conversation created: conversation_id=%s, users=%s", stored.Id, directKey)
	}
	return stored.Id, nil
}

// CreateGroupRequest represents create group request
type CreateGroupRequest struct {
	ParticipantIds []string `json:"participant_ids"`
	GroupName      string   `json:"group_name"`
	GroupImage     string   `json:"group_image"`
}

// CreateGroup creates a named group. The creator is always a participant
// and listed first; duplicate ids are dropped.
func (s *ConversationService) CreateGroup(ctx context.Context, creatorId string, req *CreateGroupRequest) (id string, err error) {
	defer observe("create_group", &err)

	name := strings.TrimSpace(req.GroupName)
	if name == "" {
		return "", errcode.ErrGroupNameEmpty
	}

	participants := dedupParticipants(creatorId, req.ParticipantIds)
	if len(participants) < 2 || len(participants) < s.cfg.Conversation.MinGroupSize {
		return "", errcode.ErrGroupTooSmall
	}

	convId, err := s.nextId(ctx)
	if err != nil {
		return "", err
	}
	now := s.now()
	conv := &entity.Conversation{
		Id:           convId,
		IsGroup:      true,
		GroupName:    name,
		GroupImage:   strings.TrimSpace(req.GroupImage),
		CreatedBy:    creatorId,
		CreatedAt:    now,
		UpdatedAt:    now,
		Participants: participants,
	}

	err = s.repos.Transaction(ctx, func(tx *gorm.DB) error {
		count, err := s.repos.User.CountByIds(ctx, tx, participants)
		if err != nil {
			return err
		}
		if count != int64(len(participants)) {
			return errcode.ErrUserNotFound
		}
		return s.repos.Conversation.Create(ctx, tx, conv)
	})
	if err != nil {
		return "", bizError(ctx, err, "create group")
	}

	s.notifier.Publish(ctx, userTopics(participants)...)
	log.CtxInfo(ctx, "group created: conversation_id=%s, creator_id=%s, members=%d", convId, creatorId, len(participants))
	return convId, nil
}

func dedupParticipants(creatorId string, ids []string) []string {
	out := make([]string, 0, len(ids)+1)
	seen := make(map[string]struct{}, len(ids)+1)
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	add(creatorId)
	for _, id := range ids {
		add(id)
	}
	return out
}

func userTopics(userIds []string) []string {
	topics := make([]string, 0, len(userIds))
	for _, id := range userIds {
		topics = append(topics, constant.TopicUser(id))
	}
	return topics
}

// Get returns a conversation, nil when absent
func (s *ConversationService) Get(ctx context.Context, conversationId string) (*entity.ConversationInfo, error) {
	conv, err := s.repos.Conversation.GetById(ctx, nil, conversationId)
	if err != nil {
		log.CtxError(ctx, "get conversation failed: conversation_id=%s, error=%v", conversationId, err)
		return nil, errcode.ErrInternalServer
	}
	return conv.ToConversationInfo(), nil
}

// Delete removes a conversation together with its messages, their
// reactions, typing indicators and read receipts. Everything goes in one
// transaction holding an exclusive lock on the conversation row, so a
// failure leaves the conversation untouched and no writer can add rows
// under it meanwhile.
func (s *ConversationService) Delete(ctx context.Context, actorId, conversationId string) (err error) {
	defer observe("delete_conversation", &err)

	var participants []string
	err = s.repos.Transaction(ctx, func(tx *gorm.DB) error {
		conv, err := s.lockParticipant(ctx, tx, conversationId, actorId, clause.LockingStrengthUpdate)
		if err != nil {
			return err
		}
		participants = conv.Participants

		msgIds, err := s.repos.Message.ListIdsByConversation(ctx, tx, conversationId)
		if err != nil {
			return err
		}
		for chunk := range slices.Chunk(msgIds, cascadeChunkSize) {
			if err := s.repos.Reaction.DeleteByMessageIds(ctx, tx, chunk); err != nil {
				return err
			}
			if err := s.repos.Message.DeleteByIds(ctx, tx, chunk); err != nil {
				return err
			}
		}
		if err := s.repos.Typing.DeleteByConversation(ctx, tx, conversationId); err != nil {
			return err
		}
		if err := s.repos.Receipt.DeleteByConversation(ctx, tx, conversationId); err != nil {
			return err
		}
		return s.repos.Conversation.Delete(ctx, tx, conversationId)
	})
	if err != nil {
		return bizError(ctx, err, "delete conversation")
	}

	topics := append(userTopics(participants), constant.TopicConversation(conversationId))
	s.notifier.Publish(ctx, topics...)
	log.CtxInfo(ctx, "conversation deleted: conversation_id=%s, actor_id=%s", conversationId, actorId)
	return nil
}

// ListForUser returns the conversations userId participates in
func (s *ConversationService) ListForUser(ctx context.Context, userId string) ([]*entity.Conversation, error) {
	convs, err := s.repos.Conversation.ListByUser(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "list conversations failed: user_id=%s, error=%v", userId, err)
		return nil, errcode.ErrInternalServer
	}
	return convs, nil
}
