package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mbeoliero/parley/internal/entity"
)

// ReceiptRepo stores read watermarks
type ReceiptRepo struct {
	db *gorm.DB
}

// NewReceiptRepo creates a new ReceiptRepo
func NewReceiptRepo(db *gorm.DB) *ReceiptRepo {
	return &ReceiptRepo{db: db}
}

// Advance moves the watermark of (conversation, user) to readAt unless it
// is already at or beyond it. The comparison happens inside the upsert, so
// concurrent calls settle on the largest value.
func (r *ReceiptRepo) Advance(ctx context.Context, tx *gorm.DB, conversationId, userId string, readAt int64) error {
	db := conn(ctx, r.db, tx)
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_read_time": maxWatermark(db.Dialector.Name()),
		}),
	}).Create(&entity.ReadReceipt{
		ConversationId: conversationId,
		UserId:         userId,
		LastReadTime:   readAt,
	}).Error
}

func maxWatermark(dialect string) clause.Expr {
	switch dialect {
	case "mysql":
		return gorm.Expr("GREATEST(last_read_time, VALUES(last_read_time))")
	case "postgres":
		return gorm.Expr("GREATEST(read_receipts.last_read_time, excluded.last_read_time)")
	default:
		return gorm.Expr("MAX(last_read_time, excluded.last_read_time)")
	}
}

// Get returns the receipt of (conversation, user), nil when absent
func (r *ReceiptRepo) Get(ctx context.Context, conversationId, userId string) (*entity.ReadReceipt, error) {
	var rows []*entity.ReadReceipt
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationId, userId).
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// ListByConversation returns every receipt of a conversation
func (r *ReceiptRepo) ListByConversation(ctx context.Context, conversationId string) ([]*entity.ReadReceipt, error) {
	var rows []*entity.ReadReceipt
	err := r.db.WithContext(ctx).Where("conversation_id = ?", conversationId).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteByConversation removes every receipt of a conversation
func (r *ReceiptRepo) DeleteByConversation(ctx context.Context, tx *gorm.DB, conversationId string) error {
	return conn(ctx, r.db, tx).Where("conversation_id = ?", conversationId).Delete(&entity.ReadReceipt{}).Error
}

// CountByConversation counts receipt rows
func (r *ReceiptRepo) CountByConversation(ctx context.Context, conversationId string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.ReadReceipt{}).Where("conversation_id = ?", conversationId).Count(&count).Error
	return count, err
}
