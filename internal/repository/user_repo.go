package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mbeoliero/parley/internal/entity"
)

// UserRepo is the repository for user operations
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo creates a new UserRepo
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Upsert inserts the user or refreshes the profile of the row holding the
// same external id, in one statement. user.Id is only used on insert.
func (r *UserRepo) Upsert(ctx context.Context, user *entity.User) error {
	user.SearchKey = user.BuildSearchKey()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "display_name", "avatar_url", "search_key", "updated_at",
		}),
	}).Create(user).Error
}

// GetById gets user by Id, nil when absent
func (r *UserRepo) GetById(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByExternalId gets user by identity-provider id, nil when absent
func (r *UserRepo) GetByExternalId(ctx context.Context, externalId string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Where("external_id = ?", externalId).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByIds gets users by Ids in no particular order
func (r *UserRepo) GetByIds(ctx context.Context, ids []string) ([]*entity.User, error) {
	users := make([]*entity.User, 0, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// GetMapByIds returns found users keyed by id
func (r *UserRepo) GetMapByIds(ctx context.Context, ids []string) (map[string]*entity.User, error) {
	users, err := r.GetByIds(ctx, ids)
	if err != nil {
		return nil, err
	}
	m := make(map[string]*entity.User, len(users))
	for _, u := range users {
		m[u.Id] = u
	}
	return m, nil
}

// CountByIds counts how many of ids exist
func (r *UserRepo) CountByIds(ctx context.Context, tx *gorm.DB, ids []string) (int64, error) {
	var count int64
	if len(ids) == 0 {
		return 0, nil
	}
	err := conn(ctx, r.db, tx).Model(&entity.User{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

// List returns every user except excludeExternalId, optionally narrowed to
// display names or emails containing query. Matching is case-insensitive
// for any script.
func (r *UserRepo) List(ctx context.Context, excludeExternalId, query string) ([]*entity.User, error) {
	var users []*entity.User
	q := r.db.WithContext(ctx).Where("external_id <> ?", excludeExternalId)
	if query = strings.TrimSpace(query); query != "" {
		pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
		q = q.Where("search_key LIKE ? ESCAPE '!'", pattern)
	}
	err := q.Order("display_name ASC").Order("id ASC").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
