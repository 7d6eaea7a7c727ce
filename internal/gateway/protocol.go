package gateway

import "encoding/json"

// Request is a frame sent by the client
type Request struct {
	Type  string          `json:"type"`
	SubId string          `json:"sub_id"`
	Query string          `json:"query,omitempty"`
	Args  json.RawMessage `json:"args,omitempty"`
}

// Response is a frame sent by the server. A result frame carries the
// latest value of a subscription; an error frame reports why a request or
// a later evaluation failed.
type Response struct {
	Type    string          `json:"type"`
	SubId   string          `json:"sub_id"`
	Data    json.RawMessage `json:"data,omitempty"`
	ErrCode int             `json:"err_code,omitempty"`
	ErrMsg  string          `json:"err_msg,omitempty"`
}

// ConversationArgs addresses one conversation
type ConversationArgs struct {
	ConversationId string `json:"conversation_id"`
}

// ReadReceiptArgs addresses one watermark. UserId defaults to the caller.
type ReadReceiptArgs struct {
	ConversationId string `json:"conversation_id"`
	UserId         string `json:"user_id"`
}

// ReadReceiptData is the value of a getReadReceipt subscription
type ReadReceiptData struct {
	LastReadTime int64 `json:"last_read_time"`
}
