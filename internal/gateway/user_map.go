package gateway

import "sync"

// UserMap indexes live clients by user
type UserMap struct {
	mu    sync.RWMutex
	users map[string][]*Client
	conns int
}

// NewUserMap creates a new UserMap
func NewUserMap() *UserMap {
	return &UserMap{users: make(map[string][]*Client)}
}

// Register adds a client. Returns true when it is the user's first.
func (m *UserMap) Register(client *Client) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	clients, exists := m.users[client.UserId]
	m.users[client.UserId] = append(clients, client)
	m.conns++
	return !exists
}

// Unregister removes a client. Returns true when the user has no
// connection left.
func (m *UserMap) Unregister(client *Client) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	clients, exists := m.users[client.UserId]
	if !exists {
		return false
	}

	kept := make([]*Client, 0, len(clients))
	for _, c := range clients {
		if c.ConnId != client.ConnId {
			kept = append(kept, c)
		}
	}
	m.conns -= len(clients) - len(kept)

	if len(kept) == 0 {
		delete(m.users, client.UserId)
		return true
	}
	m.users[client.UserId] = kept
	return false
}

// All returns a snapshot of every client
func (m *UserMap) All() []*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Client, 0, m.conns)
	for _, clients := range m.users {
		out = append(out, clients...)
	}
	return out
}

// GetOnlineUserCount returns the number of users with a connection
func (m *UserMap) GetOnlineUserCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

// GetOnlineConnCount returns the total number of connections
func (m *UserMap) GetOnlineConnCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conns
}
