package entity

// Conversation is either a 1:1 chat or a named group. DirectKey is set only
// for 1:1 chats and is unique, so two rows can never exist for one pair.
type Conversation struct {
	Id         string  `json:"id" gorm:"column:id;primaryKey;size:32"`
	IsGroup    bool    `json:"is_group" gorm:"column:is_group"`
	GroupName  string  `json:"group_name" gorm:"column:group_name;size:191"`
	GroupImage string  `json:"group_image" gorm:"column:group_image;size:1024"`
	CreatedBy  string  `json:"created_by" gorm:"column:created_by;size:32"`
	DirectKey  *string `json:"-" gorm:"column:direct_key;size:80;uniqueIndex:uk_conversations_direct_key"`
	CreatedAt  int64   `json:"created_at" gorm:"column:created_at"`
	UpdatedAt  int64   `json:"updated_at" gorm:"column:updated_at"`

	// Participants is loaded from conversation_participants in position order.
	Participants []string `json:"participants" gorm:"-"`
}

// TableName returns the table name for Conversation
func (Conversation) TableName() string {
	return "conversations"
}

// HasParticipant checks membership
func (c *Conversation) HasParticipant(userId string) bool {
	for _, p := range c.Participants {
		if p == userId {
			return true
		}
	}
	return false
}

// OtherParticipants returns the participants except userId, order preserved
func (c *Conversation) OtherParticipants(userId string) []string {
	others := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		if p != userId {
			others = append(others, p)
		}
	}
	return others
}

// ConversationParticipant links a user to a conversation
type ConversationParticipant struct {
	ConversationId string `gorm:"column:conversation_id;primaryKey;size:32"`
	UserId         string `gorm:"column:user_id;primaryKey;size:32;index:idx_participants_user"`
	Position       int    `gorm:"column:position"`
}

// TableName returns the table name for ConversationParticipant
func (ConversationParticipant) TableName() string {
	return "conversation_participants"
}

// ConversationInfo represents conversation info for API response
type ConversationInfo struct {
	Id           string   `json:"id"`
	IsGroup      bool     `json:"is_group"`
	GroupName    string   `json:"group_name,omitempty"`
	GroupImage   string   `json:"group_image,omitempty"`
	CreatedBy    string   `json:"created_by"`
	Participants []string `json:"participants"`
	CreatedAt    int64    `json:"created_at"`
}

// ToConversationInfo converts Conversation to ConversationInfo
func (c *Conversation) ToConversationInfo() *ConversationInfo {
	if c == nil {
		return nil
	}
	return &ConversationInfo{
		Id:           c.Id,
		IsGroup:      c.IsGroup,
		GroupName:    c.GroupName,
		GroupImage:   c.GroupImage,
		CreatedBy:    c.CreatedBy,
		Participants: c.Participants,
		CreatedAt:    c.CreatedAt,
	}
}

// ConversationSummary is one row of a user's conversation list
type ConversationSummary struct {
	*ConversationInfo
	OtherParticipants []*UserInfo  `json:"other_participants"`
	LastMessage       *MessageInfo `json:"last_message"`
	UnreadCount       int64        `json:"unread_count"`
}

// SortTime is the instant the list is ordered by: the last message time,
// or the creation time for empty conversations.
func (s *ConversationSummary) SortTime() int64 {
	if s.LastMessage != nil {
		return s.LastMessage.CreatedAt
	}
	return s.CreatedAt
}
