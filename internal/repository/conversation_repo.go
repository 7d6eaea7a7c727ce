package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mbeoliero/parley/internal/entity"
)

// ConversationRepo is the repository for conversation operations
type ConversationRepo struct {
	db *gorm.DB
}

// NewConversationRepo creates a new ConversationRepo
func NewConversationRepo(db *gorm.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// Create inserts a conversation and its participant rows. Must run in tx.
func (r *ConversationRepo) Create(ctx context.Context, tx *gorm.DB, conv *entity.Conversation) error {
	if err := tx.WithContext(ctx).Create(conv).Error; err != nil {
		return err
	}
	return r.insertParticipants(ctx, tx, conv)
}

// CreateDirect inserts a 1:1 conversation unless a row with the same
// direct key already exists. It returns the row that owns the key, which
// is conv itself only when this call inserted it. Must run in tx.
func (r *ConversationRepo) CreateDirect(ctx context.Context, tx *gorm.DB, conv *entity.Conversation) (*entity.Conversation, bool, error) {
	res := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "direct_key"}},
		DoNothing: true,
	}).Create(conv)
	if res.Error != nil {
		return nil, false, res.Error
	}

	if res.RowsAffected == 0 {
		existing, err := r.getByDirectKey(ctx, tx, *conv.DirectKey)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	if err := r.insertParticipants(ctx, tx, conv); err != nil {
		return nil, false, err
	}
	return conv, true, nil
}

func (r *ConversationRepo) insertParticipants(ctx context.Context, tx *gorm.DB, conv *entity.Conversation) error {
	rows := make([]*entity.ConversationParticipant, 0, len(conv.Participants))
	for i, userId := range conv.Participants {
		rows = append(rows, &entity.ConversationParticipant{
			ConversationId: conv.Id,
			UserId:         userId,
			Position:       i,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&rows).Error
}

// GetByDirectKey gets the 1:1 conversation of a user pair, nil when absent
func (r *ConversationRepo) GetByDirectKey(ctx context.Context, directKey string) (*entity.Conversation, error) {
	return r.getByDirectKey(ctx, nil, directKey)
}

func (r *ConversationRepo) getByDirectKey(ctx context.Context, tx *gorm.DB, directKey string) (*entity.Conversation, error) {
	var conv entity.Conversation
	err := conn(ctx, r.db, tx).Where("direct_key = ?", directKey).First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadParticipants(ctx, tx, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetById gets a conversation with its participants, nil when absent
func (r *ConversationRepo) GetById(ctx context.Context, tx *gorm.DB, id string) (*entity.Conversation, error) {
	var conv entity.Conversation
	err := conn(ctx, r.db, tx).Where("id = ?", id).First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadParticipants(ctx, tx, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *ConversationRepo) loadParticipants(ctx context.Context, tx *gorm.DB, conv *entity.Conversation) error {
	var userIds []string
	err := conn(ctx, r.db, tx).Model(&entity.ConversationParticipant{}).
		Where("conversation_id = ?", conv.Id).
		Order("position ASC").
		Pluck("user_id", &userIds).Error
	if err != nil {
		return err
	}
	conv.Participants = userIds
	return nil
}

// Lock takes a row lock of the given strength on the conversation until
// tx ends. Returns false when the conversation does not exist. SQLite drops
// the clause and relies on its single pooled connection instead.
func (r *ConversationRepo) Lock(ctx context.Context, tx *gorm.DB, id, strength string) (bool, error) {
	var ids []string
	err := tx.WithContext(ctx).Model(&entity.Conversation{}).
		Clauses(clause.Locking{Strength: strength}).
		Where("id = ?", id).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// ListByUser returns every conversation userId participates in, with
// participants loaded.
func (r *ConversationRepo) ListByUser(ctx context.Context, userId string) ([]*entity.Conversation, error) {
	var convs []*entity.Conversation
	err := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&entity.ConversationParticipant{}).Select("conversation_id").Where("user_id = ?", userId)).
		Order("created_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	if len(convs) == 0 {
		return convs, nil
	}

	ids := make([]string, 0, len(convs))
	byId := make(map[string]*entity.Conversation, len(convs))
	for _, c := range convs {
		ids = append(ids, c.Id)
		byId[c.Id] = c
	}

	var rows []*entity.ConversationParticipant
	err = r.db.WithContext(ctx).
		Where("conversation_id IN ?", ids).
		Order("conversation_id ASC").Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, p := range rows {
		c := byId[p.ConversationId]
		c.Participants = append(c.Participants, p.UserId)
	}
	return convs, nil
}

// Delete removes the conversation row and its participant links. Must run
// in tx after everything hanging off the conversation is gone.
func (r *ConversationRepo) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	if err := tx.WithContext(ctx).Where("conversation_id = ?", id).Delete(&entity.ConversationParticipant{}).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).Where("id = ?", id).Delete(&entity.Conversation{}).Error
}
