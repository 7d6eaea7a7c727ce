package sdk

import "context"

// SyncUserRequest overrides the profile carried by the token. Empty fields
// fall back to the token claims.
type SyncUserRequest struct {
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarUrl   string `json:"avatar_url,omitempty"`
}

// SyncUser creates or refreshes the caller's user and returns its id
func (c *Client) SyncUser(ctx context.Context, req *SyncUserRequest) (string, error) {
	if req == nil {
		req = &SyncUserRequest{}
	}
	var result struct {
		UserId string `json:"user_id"`
	}
	if err := c.post(ctx, "/user/sync", req, &result); err != nil {
		return "", err
	}
	return result.UserId, nil
}

// GetMe returns the caller, nil when they have not synced
func (c *Client) GetMe(ctx context.Context) (*UserInfo, error) {
	var result *UserInfo
	if err := c.get(ctx, "/user/me", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListUsers returns every other user whose name or email contains query
func (c *Client) ListUsers(ctx context.Context, query string) ([]*UserInfo, error) {
	var params map[string]string
	if query != "" {
		params = map[string]string{"q": query}
	}
	var result []*UserInfo
	if err := c.get(ctx, "/user/list", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetUserInfoById gets a user, nil when absent
func (c *Client) GetUserInfoById(ctx context.Context, userId string) (*UserInfo, error) {
	var result *UserInfo
	if err := c.get(ctx, "/user/info/"+userId, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetUsersInfo resolves ids in order; unknown ids yield nil entries
func (c *Client) GetUsersInfo(ctx context.Context, userIds []string) ([]*UserInfo, error) {
	var result []*UserInfo
	req := map[string][]string{"user_ids": userIds}
	if err := c.post(ctx, "/user/batch", req, &result); err != nil {
		return nil, err
	}
	return result, nil
}
