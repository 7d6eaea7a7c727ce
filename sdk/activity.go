package sdk

import "context"

// Heartbeat keeps the caller online
func (c *Client) Heartbeat(ctx context.Context) error {
	return c.post(ctx, "/presence/heartbeat", nil, nil)
}

// GetOnlineUsers lists online users
func (c *Client) GetOnlineUsers(ctx context.Context) (*OnlineUsers, error) {
	var result OnlineUsers
	if err := c.get(ctx, "/presence/online", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetTyping signals that the caller is typing
func (c *Client) SetTyping(ctx context.Context, conversationId string) error {
	return c.post(ctx, "/typing/set", &conversationIdBody{ConversationId: conversationId}, nil)
}

// GetTypingUsers lists who else is typing in a conversation
func (c *Client) GetTypingUsers(ctx context.Context, conversationId string) ([]*UserInfo, error) {
	params := map[string]string{"conversation_id": conversationId}
	var result []*UserInfo
	if err := c.get(ctx, "/typing/list", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}
