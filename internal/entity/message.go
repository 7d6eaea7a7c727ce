package entity

import "github.com/mbeoliero/parley/pkg/constant"

// Message represents a message. Deletion is soft; the row is kept with
// IsDeleted set and its content is never projected afterwards.
type Message struct {
	Id             string `json:"id" gorm:"column:id;primaryKey;size:32"`
	ConversationId string `json:"conversation_id" gorm:"column:conversation_id;size:32;index:idx_messages_conv_created,priority:1"`
	SenderId       string `json:"sender_id" gorm:"column:sender_id;size:32"`
	Content        string `json:"-" gorm:"column:content;type:text"`
	Type           string `json:"type" gorm:"column:type;size:16"`
	IsDeleted      bool   `json:"is_deleted" gorm:"column:is_deleted"`
	CreatedAt      int64  `json:"created_at" gorm:"column:created_at;index:idx_messages_conv_created,priority:2"`
	UpdatedAt      int64  `json:"updated_at" gorm:"column:updated_at"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}

// VisibleContent is the content a consumer may see
func (m *Message) VisibleContent() string {
	if m.IsDeleted {
		return constant.DeletedMessagePlaceholder
	}
	return m.Content
}

// MessageInfo represents message info for API response
type MessageInfo struct {
	Id             string           `json:"id"`
	ConversationId string           `json:"conversation_id"`
	SenderId       string           `json:"sender_id"`
	Sender         *UserInfo        `json:"sender"`
	Content        string           `json:"content"`
	Type           string           `json:"type"`
	IsDeleted      bool             `json:"is_deleted"`
	Reactions      []*ReactionGroup `json:"reactions"`
	Status         string           `json:"status,omitempty"`
	CreatedAt      int64            `json:"created_at"`
}

// ToMessageInfo converts Message to MessageInfo. Reactions start empty and
// stay empty for deleted messages.
func (m *Message) ToMessageInfo() *MessageInfo {
	if m == nil {
		return nil
	}
	return &MessageInfo{
		Id:             m.Id,
		ConversationId: m.ConversationId,
		SenderId:       m.SenderId,
		Content:        m.VisibleContent(),
		Type:           m.Type,
		IsDeleted:      m.IsDeleted,
		Reactions:      []*ReactionGroup{},
		CreatedAt:      m.CreatedAt,
	}
}
