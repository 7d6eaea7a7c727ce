package gateway

import (
	"context"
	"encoding/json"

	"github.com/mbeoliero/parley/internal/service"
	"github.com/mbeoliero/parley/pkg/constant"
	"github.com/mbeoliero/parley/pkg/errcode"
)

// QueryResult is one evaluation of a subscribed query
type QueryResult struct {
	Data any
	// Topics whose change events make the result stale
	Topics []string
	// Clocked results also go stale as time passes and are re-run on every
	// refresh tick
	Clocked bool
}

// QueryFunc evaluates a query on behalf of userId
type QueryFunc func(ctx context.Context, userId string, args json.RawMessage) (*QueryResult, error)

// Queries maps query names to their implementation
type Queries map[string]QueryFunc

// NewQueries exposes the read operations of svcs as subscribable queries
func NewQueries(svcs *service.Services) Queries {
	return Queries{
		QueryGetConversations: func(ctx context.Context, userId string, _ json.RawMessage) (*QueryResult, error) {
			summaries, err := svcs.View.GetConversations(ctx, userId)
			if err != nil {
				return nil, err
			}
			topics := []string{constant.TopicUser(userId), constant.TopicUsers}
			for _, s := range summaries {
				topics = append(topics, constant.TopicConversation(s.Id))
			}
			return &QueryResult{Data: summaries, Topics: topics}, nil
		},

		QueryGetConversation: func(ctx context.Context, userId string, args json.RawMessage) (*QueryResult, error) {
			var a ConversationArgs
			if err := decodeConversationArgs(args, &a); err != nil {
				return nil, err
			}
			conv, err := svcs.Conversation.Get(ctx, a.ConversationId)
			if err != nil {
				return nil, err
			}
			return &QueryResult{
				Data:   conv,
				Topics: []string{constant.TopicConversation(a.ConversationId), constant.TopicUser(userId)},
			}, nil
		},

		QueryGetMessages: func(ctx context.Context, userId string, args json.RawMessage) (*QueryResult, error) {
			var a ConversationArgs
			if err := decodeConversationArgs(args, &a); err != nil {
				return nil, err
			}
			msgs, err := svcs.Message.List(ctx, a.ConversationId, userId)
			if err != nil {
				return nil, err
			}
			return &QueryResult{
				Data:   msgs,
				Topics: []string{constant.TopicConversation(a.ConversationId), constant.TopicUsers},
			}, nil
		},

		QueryGetTypingUsers: func(ctx context.Context, userId string, args json.RawMessage) (*QueryResult, error) {
			var a ConversationArgs
			if err := decodeConversationArgs(args, &a); err != nil {
				return nil, err
			}
			users, err := svcs.Typing.ListTyping(ctx, a.ConversationId, userId)
			if err != nil {
				return nil, err
			}
			return &QueryResult{
				Data:    users,
				Topics:  []string{constant.TopicConversation(a.ConversationId), constant.TopicUsers},
				Clocked: true,
			}, nil
		},

		QueryGetOnlineUserIds: func(ctx context.Context, _ string, _ json.RawMessage) (*QueryResult, error) {
			ids, err := svcs.Presence.ListOnline(ctx)
			if err != nil {
				return nil, err
			}
			return &QueryResult{Data: ids, Topics: []string{constant.TopicPresence}, Clocked: true}, nil
		},

		QueryGetReadReceipt: func(ctx context.Context, userId string, args json.RawMessage) (*QueryResult, error) {
			var a ReadReceiptArgs
			if err := json.Unmarshal(args, &a); err != nil || a.ConversationId == "" {
				return nil, errcode.ErrInvalidParam
			}
			if a.UserId == "" {
				a.UserId = userId
			}
			watermark, err := svcs.Receipt.Watermark(ctx, a.ConversationId, a.UserId)
			if err != nil {
				return nil, err
			}
			return &QueryResult{
				Data:   &ReadReceiptData{LastReadTime: watermark},
				Topics: []string{constant.TopicConversation(a.ConversationId)},
			}, nil
		},
	}
}

func decodeConversationArgs(args json.RawMessage, a *ConversationArgs) error {
	if err := json.Unmarshal(args, a); err != nil || a.ConversationId == "" {
		return errcode.ErrInvalidParam
	}
	return nil
}
