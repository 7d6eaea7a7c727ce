package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mbeoliero/parley/internal/entity"
)

// TypingRepo stores typing indicators
type TypingRepo struct {
	db *gorm.DB
}

// NewTypingRepo creates a new TypingRepo
func NewTypingRepo(db *gorm.DB) *TypingRepo {
	return &TypingRepo{db: db}
}

// Touch upserts last_typed for (conversation, user)
func (r *TypingRepo) Touch(ctx context.Context, tx *gorm.DB, conversationId, userId string, now int64) error {
	return conn(ctx, r.db, tx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_typed"}),
	}).Create(&entity.TypingIndicator{
		ConversationId: conversationId,
		UserId:         userId,
		LastTyped:      now,
	}).Error
}

// ListTypedAfter returns user ids in a conversation whose last signal is
// strictly after cutoff, excluding excludeUserId.
func (r *TypingRepo) ListTypedAfter(ctx context.Context, conversationId, excludeUserId string, cutoff int64) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&entity.TypingIndicator{}).
		Where("conversation_id = ? AND user_id <> ? AND last_typed > ?", conversationId, excludeUserId, cutoff).
		Order("last_typed ASC").Order("user_id ASC").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// DeleteByConversation removes every indicator of a conversation
func (r *TypingRepo) DeleteByConversation(ctx context.Context, tx *gorm.DB, conversationId string) error {
	return conn(ctx, r.db, tx).Where("conversation_id = ?", conversationId).Delete(&entity.TypingIndicator{}).Error
}

// CountByConversation counts indicator rows regardless of age
func (r *TypingRepo) CountByConversation(ctx context.Context, conversationId string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.TypingIndicator{}).Where("conversation_id = ?", conversationId).Count(&count).Error
	return count, err
}
