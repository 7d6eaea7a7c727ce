package gateway

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/mbeoliero/kit/log"

	"github.com/mbeoliero/parley/pkg/errcode"
)

// ClientConn represents a WebSocket connection wrapper
type ClientConn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// subscription is one live query of a client. topics and clocked come from
// the latest evaluation; hash fingerprints the latest frame pushed.
type subscription struct {
	id      string
	query   QueryFunc
	args    json.RawMessage
	topics  map[string]struct{}
	clocked bool
	hash    uint64
	pushed  bool
}

// Client represents a connected WebSocket client
type Client struct {
	conn   ClientConn
	UserId string
	ConnId string
	server *WsServer
	closed atomic.Bool
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	subs    map[string]*subscription
	pending map[string]struct{}
	refresh bool
	wake    chan struct{}

	// evalMu serializes evaluations so pushes of one subscription stay ordered
	evalMu         sync.Mutex
	unregisterOnce sync.Once
}

// NewClient creates a new client
func NewClient(conn ClientConn, userId, connId string, server *WsServer) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		conn:    conn,
		UserId:  userId,
		ConnId:  connId,
		server:  server,
		ctx:     ctx,
		cancel:  cancel,
		subs:    make(map[string]*subscription),
		pending: make(map[string]struct{}),
		wake:    make(chan struct{}, 1),
	}
}

// readLoop continuously reads requests from the connection
func (c *Client) readLoop() {
	defer func() {
		if r := recover(); r != nil {
			log.CtxError(c.ctx, "client read loop panic: user_id=%s, error=%v", c.UserId, r)
		}
		c.close()
	}()

	for {
		message, err := c.conn.ReadMessage()
		if err != nil {
			log.CtxDebug(c.ctx, "read message error: user_id=%s, error=%v", c.UserId, err)
			return
		}

		if c.closed.Load() {
			return
		}

		if err := c.handleMessage(message); err != nil {
			log.CtxWarn(c.ctx, "handle message error: user_id=%s, error=%v", c.UserId, err)
			return
		}
	}
}

// handleMessage handles a single incoming frame. Only write failures are
// returned; bad requests are answered with an error frame.
func (c *Client) handleMessage(message []byte) error {
	var req Request
	if err := json.Unmarshal(message, &req); err != nil {
		return c.replyError("", errcode.ErrInvalidProtocol)
	}

	switch req.Type {
	case FrameSubscribe:
		return c.subscribe(&req)
	case FrameUnsubscribe:
		c.mu.Lock()
		delete(c.subs, req.SubId)
		c.mu.Unlock()
		return nil
	default:
		return c.replyError(req.SubId, errcode.ErrInvalidProtocol)
	}
}

func (c *Client) subscribe(req *Request) error {
	if req.SubId == "" {
		return c.replyError("", errcode.ErrInvalidParam)
	}
	query, ok := c.server.queries[req.Query]
	if !ok {
		return c.replyError(req.SubId, errcode.ErrUnknownQuery)
	}

	sub := &subscription{id: req.SubId, query: query, args: req.Args}
	c.mu.Lock()
	if _, exists := c.subs[req.SubId]; !exists && len(c.subs) >= maxSubscriptions {
		c.mu.Unlock()
		return c.replyError(req.SubId, errcode.ErrConnOverLimit)
	}
	c.subs[req.SubId] = sub
	c.mu.Unlock()

	log.CtxDebug(c.ctx, "subscribed: user_id=%s, sub_id=%s, query=%s", c.UserId, req.SubId, req.Query)
	return c.evaluate(sub)
}

// evaluate runs the query of sub and pushes the frame if it differs from
// the last one pushed
func (c *Client) evaluate(sub *subscription) error {
	c.evalMu.Lock()
	defer c.evalMu.Unlock()

	ctx, cancel := context.WithTimeout(c.ctx, queryTimeout)
	res, err := sub.query(ctx, c.UserId, sub.args)
	cancel()

	resp := Response{Type: FrameResult, SubId: sub.id}
	if err != nil {
		e := errcode.From(err)
		resp.Type = FrameError
		resp.ErrCode = e.Code
		resp.ErrMsg = e.Msg
	} else {
		data, err := json.Marshal(res.Data)
		if err != nil {
			return err
		}
		resp.Data = data
	}
	frame, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	h := fnv.New64a()
	_, _ = h.Write(frame)
	sum := h.Sum64()

	c.mu.Lock()
	if c.subs[sub.id] != sub {
		c.mu.Unlock()
		return nil
	}
	if res != nil {
		sub.topics = make(map[string]struct{}, len(res.Topics))
		for _, t := range res.Topics {
			sub.topics[t] = struct{}{}
		}
		sub.clocked = res.Clocked
	}
	changed := !sub.pushed || sub.hash != sum
	sub.hash, sub.pushed = sum, true
	c.mu.Unlock()

	if !changed {
		return nil
	}
	return c.write(frame)
}

// Notify marks topics as changed. The dispatch loop re-runs the affected
// subscriptions; bursts of events coalesce into one evaluation.
func (c *Client) Notify(topics []string) {
	c.mu.Lock()
	for _, t := range topics {
		c.pending[t] = struct{}{}
	}
	c.mu.Unlock()
	c.signal()
}

// Refresh asks for every clocked subscription to be re-run
func (c *Client) Refresh() {
	c.mu.Lock()
	c.refresh = true
	c.mu.Unlock()
	c.signal()
}

func (c *Client) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// dispatchLoop evaluates the subscriptions made stale by Notify and Refresh
func (c *Client) dispatchLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.wake:
		}

		for _, sub := range c.takeStale() {
			if err := c.evaluate(sub); err != nil {
				log.CtxWarn(c.ctx, "push subscription failed: user_id=%s, sub_id=%s, error=%v", c.UserId, sub.id, err)
				c.close()
				return
			}
		}
	}
}

func (c *Client) takeStale() []*subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	pending, refresh := c.pending, c.refresh
	c.pending = make(map[string]struct{})
	c.refresh = false

	var stale []*subscription
	for _, sub := range c.subs {
		if refresh && sub.clocked {
			stale = append(stale, sub)
			continue
		}
		for t := range sub.topics {
			if _, ok := pending[t]; ok {
				stale = append(stale, sub)
				break
			}
		}
	}
	return stale
}

// replyError sends an error frame
func (c *Client) replyError(subId string, e *errcode.Error) error {
	frame, err := json.Marshal(Response{
		Type:    FrameError,
		SubId:   subId,
		ErrCode: e.Code,
		ErrMsg:  e.Msg,
	})
	if err != nil {
		return err
	}
	return c.write(frame)
}

func (c *Client) write(frame []byte) error {
	if c.closed.Load() {
		return ErrConnClosed
	}
	return c.conn.WriteMessage(frame)
}

// Close closes the client connection
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.cancel()
	return c.conn.Close()
}

// close handles cleanup when connection is closed
func (c *Client) close() {
	_ = c.Close()
	c.unregisterOnce.Do(func() {
		c.server.UnregisterClient(c)
	})
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	return c.closed.Load()
}
