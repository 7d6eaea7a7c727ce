package entity

import "strings"

// User is a person known to the system. The external id is assigned by the
// identity provider and is unique.
type User struct {
	Id          string `json:"id" gorm:"column:id;primaryKey;size:32"`
	ExternalId  string `json:"external_id" gorm:"column:external_id;size:191;uniqueIndex:uk_users_external_id"`
	Email       string `json:"email" gorm:"column:email;size:191;index:idx_users_email"`
	DisplayName string `json:"display_name" gorm:"column:display_name;size:191"`
	AvatarUrl   string `json:"avatar_url" gorm:"column:avatar_url;size:1024"`
	SearchKey   string `json:"-" gorm:"column:search_key;size:400"`
	CreatedAt   int64  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   int64  `json:"updated_at" gorm:"column:updated_at"`
}

// TableName returns the table name for User
func (User) TableName() string {
	return "users"
}

// BuildSearchKey returns display name and email lower-cased with Unicode
// case rules, matched by user search
func (u *User) BuildSearchKey() string {
	return strings.ToLower(u.DisplayName) + "\n" + strings.ToLower(u.Email)
}

// UserInfo represents public user info
type UserInfo struct {
	Id          string `json:"id"`
	ExternalId  string `json:"external_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	AvatarUrl   string `json:"avatar_url"`
	CreatedAt   int64  `json:"created_at"`
}

// ToUserInfo converts User to UserInfo
func (u *User) ToUserInfo() *UserInfo {
	if u == nil {
		return nil
	}
	return &UserInfo{
		Id:          u.Id,
		ExternalId:  u.ExternalId,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarUrl:   u.AvatarUrl,
		CreatedAt:   u.CreatedAt,
	}
}

// ToUserInfos converts users keeping nil entries in place
func ToUserInfos(users []*User) []*UserInfo {
	infos := make([]*UserInfo, len(users))
	for i, u := range users {
		infos[i] = u.ToUserInfo()
	}
	return infos
}
