package constant

// Message types
const (
	MsgTypeText = "text"
)

// Receipt status shown on the viewer's own messages
const (
	MsgStatusSent = "sent"
	MsgStatusSeen = "seen"
)

// DeletedMessagePlaceholder replaces the content of soft-deleted messages
// in every consumer projection.
const DeletedMessagePlaceholder = "This message was deleted"

// Change-event topics (see internal/notify)
const (
	TopicPresence           = "presence"
	TopicUsers              = "users"
	topicConversationPrefix = "conv:"
	topicUserPrefix         = "user:"
)

// TopicConversation is the topic touched by any write scoped to a conversation
func TopicConversation(conversationId string) string {
	return topicConversationPrefix + conversationId
}

// TopicUser is the topic touched when a user's conversation membership changes
func TopicUser(userId string) string {
	return topicUserPrefix + userId
}

// Redis key patterns (without prefix, use RedisKey() to get full key)
const (
	redisKeyEvents    = "events"
	redisKeyRateLimit = "ratelimit"
)

// redisKeyPrefix is the global prefix for all Redis keys
var redisKeyPrefix = "parley:"

// InitRedisKeyPrefix initializes the Redis key prefix from config
func InitRedisKeyPrefix(prefix string) {
	if prefix != "" {
		redisKeyPrefix = prefix
	}
}

// GetRedisKeyPrefix returns the current Redis key prefix
func GetRedisKeyPrefix() string {
	return redisKeyPrefix
}

// Redis key getters with prefix
func RedisKeyEvents() string    { return redisKeyPrefix + redisKeyEvents }
func RedisKeyRateLimit() string { return redisKeyPrefix + redisKeyRateLimit }
