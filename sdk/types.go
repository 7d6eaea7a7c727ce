package sdk

import "encoding/json"

// Response represents the standard API response
type Response struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
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

// ReactionGroup aggregates the reactions of one emoji on a message
type ReactionGroup struct {
	Emoji   string   `json:"emoji"`
	Count   int      `json:"count"`
	UserIds []string `json:"user_ids"`
}

// MessageInfo represents message info
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

// ConversationInfo represents conversation info
type ConversationInfo struct {
	Id           string   `json:"id"`
	IsGroup      bool     `json:"is_group"`
	GroupName    string   `json:"group_name,omitempty"`
	GroupImage   string   `json:"group_image,omitempty"`
	CreatedBy    string   `json:"created_by"`
	Participants []string `json:"participants"`
	CreatedAt    int64    `json:"created_at"`
}

// ConversationSummary is one row of the conversation list
type ConversationSummary struct {
	ConversationInfo
	OtherParticipants []*UserInfo  `json:"other_participants"`
	LastMessage       *MessageInfo `json:"last_message"`
	UnreadCount       int64        `json:"unread_count"`
}

// OnlineUsers lists online users and the heartbeat cadence to keep
type OnlineUsers struct {
	UserIds             []string `json:"user_ids"`
	HeartbeatIntervalMs int64    `json:"heartbeat_interval_ms"`
}

// Message status values on the caller's own messages
const (
	StatusSent = "sent"
	StatusSeen = "seen"
)
