package gateway

import "time"

// Frame types sent by the client
const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
)

// Frame types sent by the server
const (
	FrameResult = "result"
	FrameError  = "error"
)

// Query names accepted by subscribe
const (
	QueryGetConversations = "getConversations"
	QueryGetConversation  = "getConversation"
	QueryGetMessages      = "getMessages"
	QueryGetTypingUsers   = "getTypingUsers"
	QueryGetOnlineUserIds = "getOnlineUserIds"
	QueryGetReadReceipt   = "getReadReceipt"
)

const (
	// queryTimeout bounds one evaluation of a subscription
	queryTimeout = 5 * time.Second

	// maxSubscriptions caps subscriptions per connection
	maxSubscriptions = 64
)
