package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mbeoliero/parley/internal/entity"
)

// PresenceRepo stores user heartbeats
type PresenceRepo struct {
	db *gorm.DB
}

// NewPresenceRepo creates a new PresenceRepo
func NewPresenceRepo(db *gorm.DB) *PresenceRepo {
	return &PresenceRepo{db: db}
}

// Touch upserts last_seen for a user
func (r *PresenceRepo) Touch(ctx context.Context, userId string, now int64) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_seen"}),
	}).Create(&entity.Presence{UserId: userId, LastSeen: now}).Error
}

// ListSeenAfter returns user ids whose last heartbeat is strictly after cutoff
func (r *PresenceRepo) ListSeenAfter(ctx context.Context, cutoff int64) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&entity.Presence{}).
		Where("last_seen > ?", cutoff).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Get returns the heartbeat row of a user, nil when never seen
func (r *PresenceRepo) Get(ctx context.Context, userId string) (*entity.Presence, error) {
	var rows []*entity.Presence
	err := r.db.WithContext(ctx).Where("user_id = ?", userId).Limit(1).Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}
