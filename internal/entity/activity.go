package entity

// Presence holds the last heartbeat of a user. Online is derived from it at
// read time and never stored.
type Presence struct {
	UserId   string `json:"user_id" gorm:"column:user_id;primaryKey;size:32"`
	LastSeen int64  `json:"last_seen" gorm:"column:last_seen;index:idx_presences_last_seen"`
}

// TableName returns the table name for Presence
func (Presence) TableName() string {
	return "presences"
}

// TypingIndicator holds the last keystroke signal of a user in a conversation
type TypingIndicator struct {
	ConversationId string `json:"conversation_id" gorm:"column:conversation_id;primaryKey;size:32"`
	UserId         string `json:"user_id" gorm:"column:user_id;primaryKey;size:32"`
	LastTyped      int64  `json:"last_typed" gorm:"column:last_typed"`
}

// TableName returns the table name for TypingIndicator
func (TypingIndicator) TableName() string {
	return "typing_indicators"
}

// ReadReceipt is a per-user watermark: every message created at or before
// LastReadTime counts as read by that user.
type ReadReceipt struct {
	ConversationId string `json:"conversation_id" gorm:"column:conversation_id;primaryKey;size:32"`
	UserId         string `json:"user_id" gorm:"column:user_id;primaryKey;size:32"`
	LastReadTime   int64  `json:"last_read_time" gorm:"column:last_read_time"`
}

// TableName returns the table name for ReadReceipt
func (ReadReceipt) TableName() string {
	return "read_receipts"
}

// IsSeen reports whether a message created at createdAt is covered by watermark
func IsSeen(watermark, createdAt int64) bool {
	return watermark >= createdAt
}
