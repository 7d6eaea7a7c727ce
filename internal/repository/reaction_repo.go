package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/mbeoliero/parley/internal/entity"
)

// ReactionRepo is the repository for reaction operations
type ReactionRepo struct {
	db *gorm.DB
}

// NewReactionRepo creates a new ReactionRepo
func NewReactionRepo(db *gorm.DB) *ReactionRepo {
	return &ReactionRepo{db: db}
}

// Toggle removes the (message, user, emoji) reaction if present, otherwise
// inserts it. Returns true when the reaction is active afterwards. Must run
// in tx.
func (r *ReactionRepo) Toggle(ctx context.Context, tx *gorm.DB, reaction *entity.Reaction) (bool, error) {
	res := tx.WithContext(ctx).
		Where("message_id = ? AND user_id = ? AND emoji = ?", reaction.MessageId, reaction.UserId, reaction.Emoji).
		Delete(&entity.Reaction{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return false, nil
	}
	if err := tx.WithContext(ctx).Create(reaction).Error; err != nil {
		return false, err
	}
	return true, nil
}

// ListByConversation loads every reaction on the messages of a
// conversation, oldest first. The join keeps the statement size constant
// however long the thread is.
func (r *ReactionRepo) ListByConversation(ctx context.Context, conversationId string) ([]*entity.Reaction, error) {
	reactions := make([]*entity.Reaction, 0)
	err := r.db.WithContext(ctx).
		Select("reactions.*").
		Joins("JOIN messages ON messages.id = reactions.message_id").
		Where("messages.conversation_id = ?", conversationId).
		Order("reactions.created_at ASC").Order("reactions.id ASC").
		Find(&reactions).Error
	if err != nil {
		return nil, err
	}
	return reactions, nil
}

// GroupByConversation loads the reactions of a conversation grouped per
// message
func (r *ReactionRepo) GroupByConversation(ctx context.Context, conversationId string) (map[string][]*entity.ReactionGroup, error) {
	reactions, err := r.ListByConversation(ctx, conversationId)
	if err != nil {
		return nil, err
	}
	perMessage := make(map[string][]*entity.Reaction)
	for _, re := range reactions {
		perMessage[re.MessageId] = append(perMessage[re.MessageId], re)
	}
	grouped := make(map[string][]*entity.ReactionGroup, len(perMessage))
	for id, list := range perMessage {
		grouped[id] = entity.GroupReactions(list)
	}
	return grouped, nil
}

// DeleteByMessageIds removes reactions of the given messages
func (r *ReactionRepo) DeleteByMessageIds(ctx context.Context, tx *gorm.DB, messageIds []string) error {
	if len(messageIds) == 0 {
		return nil
	}
	return conn(ctx, r.db, tx).Where("message_id IN ?", messageIds).Delete(&entity.Reaction{}).Error
}

// CountByMessageIds counts reactions on the given messages
func (r *ReactionRepo) CountByMessageIds(ctx context.Context, messageIds []string) (int64, error) {
	var count int64
	if len(messageIds) == 0 {
		return 0, nil
	}
	err := r.db.WithContext(ctx).Model(&entity.Reaction{}).Where("message_id IN ?", messageIds).Count(&count).Error
	return count, err
}
