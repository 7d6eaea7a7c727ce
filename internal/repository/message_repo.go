package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mbeoliero/parley/internal/entity"
)

// MessageRepo is the repository for message operations
type MessageRepo struct {
	db *gorm.DB
}

// NewMessageRepo creates a new MessageRepo
func NewMessageRepo(db *gorm.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create creates a new message
func (r *MessageRepo) Create(ctx context.Context, tx *gorm.DB, msg *entity.Message) error {
	return conn(ctx, r.db, tx).Create(msg).Error
}

// GetById gets a message, nil when absent
func (r *MessageRepo) GetById(ctx context.Context, tx *gorm.DB, id string) (*entity.Message, error) {
	var msg entity.Message
	err := conn(ctx, r.db, tx).Where("id = ?", id).First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// GetForUpdate re-reads a message under an exclusive row lock held until
// tx ends, nil when absent
func (r *MessageRepo) GetForUpdate(ctx context.Context, tx *gorm.DB, id string) (*entity.Message, error) {
	var msgs []*entity.Message
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("id = ?", id).
		Limit(1).
		Find(&msgs).Error
	if err != nil || len(msgs) == 0 {
		return nil, err
	}
	return msgs[0], nil
}

// MarkDeleted flags a message as deleted. Repeated calls are no-ops.
func (r *MessageRepo) MarkDeleted(ctx context.Context, id string, now int64) error {
	return r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"updated_at": now,
		}).Error
}

// ListByConversation returns every message of a conversation, oldest first.
// Messages sharing a millisecond are ordered by id.
func (r *MessageRepo) ListByConversation(ctx context.Context, conversationId string) ([]*entity.Message, error) {
	var msgs []*entity.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationId).
		Order("created_at ASC").Order("id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// GetLatest returns the newest message of a conversation, nil when empty
func (r *MessageRepo) GetLatest(ctx context.Context, conversationId string) (*entity.Message, error) {
	var msgs []*entity.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationId).
		Order("created_at DESC").Order("id DESC").
		Limit(1).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return msgs[0], nil
}

// CountUnread counts messages from others created strictly after watermark
func (r *MessageRepo) CountUnread(ctx context.Context, conversationId, userId string, watermark int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND created_at > ?", conversationId, userId, watermark).
		Count(&count).Error
	return count, err
}

// ListIdsByConversation returns the ids of all messages in a conversation
func (r *MessageRepo) ListIdsByConversation(ctx context.Context, tx *gorm.DB, conversationId string) ([]string, error) {
	var ids []string
	err := conn(ctx, r.db, tx).Model(&entity.Message{}).
		Where("conversation_id = ?", conversationId).
		Pluck("id", &ids).Error
	return ids, err
}

// DeleteByIds hard-deletes messages, used only by the conversation cascade
func (r *MessageRepo) DeleteByIds(ctx context.Context, tx *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return conn(ctx, r.db, tx).Where("id IN ?", ids).Delete(&entity.Message{}).Error
}

// CountByConversation counts every row, deleted or not
func (r *MessageRepo) CountByConversation(ctx context.Context, conversationId string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Message{}).Where("conversation_id = ?", conversationId).Count(&count).Error
	return count, err
}
