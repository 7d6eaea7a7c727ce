package sdk

import "context"

// SendMessage sends a text message and returns its id
func (c *Client) SendMessage(ctx context.Context, conversationId, content string) (string, error) {
	req := map[string]string{"conversation_id": conversationId, "content": content}
	var result struct {
		MessageId string `json:"message_id"`
	}
	if err := c.post(ctx, "/msg/send", req, &result); err != nil {
		return "", err
	}
	return result.MessageId, nil
}

// DeleteMessage soft-deletes one of the caller's messages
func (c *Client) DeleteMessage(ctx context.Context, messageId string) error {
	return c.post(ctx, "/msg/delete", map[string]string{"message_id": messageId}, nil)
}

// ListMessages returns the history of a conversation, oldest first
func (c *Client) ListMessages(ctx context.Context, conversationId string) ([]*MessageInfo, error) {
	params := map[string]string{"conversation_id": conversationId}
	var result []*MessageInfo
	if err := c.get(ctx, "/msg/list", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ToggleReaction adds or removes a reaction and reports whether it is now set
func (c *Client) ToggleReaction(ctx context.Context, messageId, emoji string) (bool, error) {
	req := map[string]string{"message_id": messageId, "emoji": emoji}
	var result struct {
		Active bool `json:"active"`
	}
	if err := c.post(ctx, "/msg/reaction", req, &result); err != nil {
		return false, err
	}
	return result.Active, nil
}
