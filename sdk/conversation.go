package sdk

import "context"

type conversationIdBody struct {
	ConversationId string `json:"conversation_id"`
}

// CreateGroupRequest represents create group request
type CreateGroupRequest struct {
	ParticipantIds []string `json:"participant_ids"`
	GroupName      string   `json:"group_name"`
	GroupImage     string   `json:"group_image,omitempty"`
}

// GetOrCreateDirect returns the id of the caller's 1:1 conversation with
// otherUserId
func (c *Client) GetOrCreateDirect(ctx context.Context, otherUserId string) (string, error) {
	var result conversationIdBody
	req := map[string]string{"other_user_id": otherUserId}
	if err := c.post(ctx, "/conversation/direct", req, &result); err != nil {
		return "", err
	}
	return result.ConversationId, nil
}

// CreateGroup creates a group conversation and returns its id
func (c *Client) CreateGroup(ctx context.Context, req *CreateGroupRequest) (string, error) {
	var result conversationIdBody
	if err := c.post(ctx, "/conversation/group", req, &result); err != nil {
		return "", err
	}
	return result.ConversationId, nil
}

// GetConversation gets a conversation, nil when absent
func (c *Client) GetConversation(ctx context.Context, conversationId string) (*ConversationInfo, error) {
	params := map[string]string{"conversation_id": conversationId}
	var result *ConversationInfo
	if err := c.get(ctx, "/conversation/info", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetConversationList gets the caller's conversation summaries
func (c *Client) GetConversationList(ctx context.Context) ([]*ConversationSummary, error) {
	var result []*ConversationSummary
	if err := c.get(ctx, "/conversation/list", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteConversation deletes a conversation and everything in it
func (c *Client) DeleteConversation(ctx context.Context, conversationId string) error {
	return c.post(ctx, "/conversation/delete", &conversationIdBody{ConversationId: conversationId}, nil)
}

// MarkRead marks the conversation read up to now
func (c *Client) MarkRead(ctx context.Context, conversationId string) error {
	return c.post(ctx, "/conversation/mark_read", &conversationIdBody{ConversationId: conversationId}, nil)
}

// GetReadReceipt returns the read watermark of userId, the caller when empty
func (c *Client) GetReadReceipt(ctx context.Context, conversationId, userId string) (int64, error) {
	params := map[string]string{"conversation_id": conversationId}
	if userId != "" {
		params["user_id"] = userId
	}
	var result struct {
		LastReadTime int64 `json:"last_read_time"`
	}
	if err := c.get(ctx, "/conversation/read_receipt", params, &result); err != nil {
		return 0, err
	}
	return result.LastReadTime, nil
}
