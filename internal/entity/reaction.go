package entity

// AllowedEmojis is the closed set of reaction emojis
var AllowedEmojis = []string{"👍", "❤️", "😂", "😮", "😢"}

// IsAllowedEmoji reports whether emoji can be used as a reaction
func IsAllowedEmoji(emoji string) bool {
	for _, e := range AllowedEmojis {
		if e == emoji {
			return true
		}
	}
	return false
}

// Reaction records that a user reacted to a message with an emoji.
// (message_id, user_id, emoji) is unique.
type Reaction struct {
	Id        string `json:"id" gorm:"column:id;primaryKey;size:32"`
	MessageId string `json:"message_id" gorm:"column:message_id;size:32;uniqueIndex:uk_reactions_member,priority:1"`
	UserId    string `json:"user_id" gorm:"column:user_id;size:32;uniqueIndex:uk_reactions_member,priority:2"`
	Emoji     string `json:"emoji" gorm:"column:emoji;size:32;uniqueIndex:uk_reactions_member,priority:3"`
	CreatedAt int64  `json:"created_at" gorm:"column:created_at"`
}

// TableName returns the table name for Reaction
func (Reaction) TableName() string {
	return "reactions"
}

// ReactionGroup aggregates the reactions of one emoji on a message
type ReactionGroup struct {
	Emoji   string   `json:"emoji"`
	Count   int      `json:"count"`
	UserIds []string `json:"user_ids"`
}

// GroupReactions groups reactions by emoji in first-seen order
func GroupReactions(reactions []*Reaction) []*ReactionGroup {
	groups := make([]*ReactionGroup, 0)
	index := make(map[string]*ReactionGroup)
	for _, r := range reactions {
		g, ok := index[r.Emoji]
		if !ok {
			g = &ReactionGroup{Emoji: r.Emoji, UserIds: make([]string, 0, 1)}
			index[r.Emoji] = g
			groups = append(groups, g)
		}
		g.Count++
		g.UserIds = append(g.UserIds, r.UserId)
	}
	return groups
}
