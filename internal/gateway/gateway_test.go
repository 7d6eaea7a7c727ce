package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mbeoliero/parley/internal/config"
	"github.com/mbeoliero/parley/internal/notify"
	"github.com/mbeoliero/parley/pkg/errcode"
)

type fakeConn struct {
	in   chan []byte
	out  chan []byte
	done chan struct{}
	once sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:   make(chan []byte, 16),
		out:  make(chan []byte, 16),
		done: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case m := <-c.in:
		return m, nil
	case <-c.done:
		return nil, ErrConnClosed
	}
}

func (c *fakeConn) WriteMessage(data []byte) error {
	select {
	case c.out <- data:
		return nil
	case <-c.done:
		return ErrConnClosed
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *fakeConn) send(t *testing.T, req Request) {
	t.Helper()
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	c.in <- raw
}

func (c *fakeConn) next(t *testing.T) Response {
	t.Helper()
	select {
	case raw := <-c.out:
		var resp Response
		require.NoError(t, json.Unmarshal(raw, &resp))
		return resp
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
		return Response{}
	}
}

func (c *fakeConn) expectNone(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case raw := <-c.out:
		t.Fatalf("unexpected frame: %s", raw)
	case <-time.After(wait):
	}
}

const (
	queryCounter = "counter"
	queryClock   = "clock"
	queryFail    = "fail"
	topicCounter = "counter"
)

type fakeQueries struct {
	counter atomic.Int64
	clock   atomic.Int64
}

func (f *fakeQueries) queries() Queries {
	return Queries{
		queryCounter: func(context.Context, string, json.RawMessage) (*QueryResult, error) {
			return &QueryResult{Data: f.counter.Load(), Topics: []string{topicCounter}}, nil
		},
		queryClock: func(context.Context, string, json.RawMessage) (*QueryResult, error) {
			return &QueryResult{Data: f.clock.Load(), Clocked: true}, nil
		},
		queryFail: func(context.Context, string, json.RawMessage) (*QueryResult, error) {
			return nil, errcode.ErrConvNotFound
		},
	}
}

type gatewayEnv struct {
	server *WsServer
	bus    *notify.LocalBus
	fake   *fakeQueries
}

func newGatewayEnv(t *testing.T, refresh time.Duration) *gatewayEnv {
	t.Helper()
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.WebSocket.RefreshInterval = refresh

	fake := &fakeQueries{}
	bus := notify.NewLocalBus()
	s := NewWsServer(cfg, fake.queries(), bus)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, s.Run(ctx))
	return &gatewayEnv{server: s, bus: bus, fake: fake}
}

func (e *gatewayEnv) connect(t *testing.T, userId string) *fakeConn {
	t.Helper()
	want := e.server.GetOnlineConnCount() + 1
	conn := newFakeConn()
	go e.server.serve(conn, userId)
	require.Eventually(t, func() bool {
		return e.server.GetOnlineConnCount() == want
	}, 2*time.Second, 5*time.Millisecond)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func decodeInt(t *testing.T, resp Response) int64 {
	t.Helper()
	require.Equal(t, FrameResult, resp.Type)
	var v int64
	require.NoError(t, json.Unmarshal(resp.Data, &v))
	return v
}

func TestSubscribePushesOnChange(t *testing.T) {
	env := newGatewayEnv(t, time.Hour)
	conn := env.connect(t, "u1")

	conn.send(t, Request{Type: FrameSubscribe, SubId: "s1", Query: queryCounter})
	first := conn.next(t)
	require.Equal(t, "s1", first.SubId)
	require.Equal(t, int64(0), decodeInt(t, first))

	// unrelated topic
	env.bus.Publish(context.Background(), "other")
	conn.expectNone(t, 100*time.Millisecond)

	// relevant topic, same result
	env.bus.Publish(context.Background(), topicCounter)
	conn.expectNone(t, 100*time.Millisecond)

	env.fake.counter.Store(1)
	env.bus.Publish(context.Background(), topicCounter)
	require.Equal(t, int64(1), decodeInt(t, conn.next(t)))
}

func TestClockedSubscriptionRefreshes(t *testing.T) {
	env := newGatewayEnv(t, 20*time.Millisecond)
	conn := env.connect(t, "u1")

	conn.send(t, Request{Type: FrameSubscribe, SubId: "c", Query: queryClock})
	require.Equal(t, int64(0), decodeInt(t, conn.next(t)))

	conn.send(t, Request{Type: FrameSubscribe, SubId: "n", Query: queryCounter})
	require.Equal(t, int64(0), decodeInt(t, conn.next(t)))

	env.fake.clock.Store(7)
	resp := conn.next(t)
	require.Equal(t, "c", resp.SubId)
	require.Equal(t, int64(7), decodeInt(t, resp))

	// non-clocked subscriptions ignore ticks
	env.fake.counter.Store(3)
	conn.expectNone(t, 100*time.Millisecond)
}

func TestUnsubscribeStopsPushes(t *testing.T) {
	env := newGatewayEnv(t, time.Hour)
	conn := env.connect(t, "u1")

	conn.send(t, Request{Type: FrameSubscribe, SubId: "s1", Query: queryCounter})
	conn.next(t)

	conn.send(t, Request{Type: FrameUnsubscribe, SubId: "s1"})
	// a later request proves the unsubscribe was processed
	conn.send(t, Request{Type: FrameSubscribe, SubId: "probe", Query: queryClock})
	require.Equal(t, "probe", conn.next(t).SubId)

	env.fake.counter.Store(5)
	env.bus.Publish(context.Background(), topicCounter)
	conn.expectNone(t, 100*time.Millisecond)
}

func TestBadRequestsGetErrorFrames(t *testing.T) {
	env := newGatewayEnv(t, time.Hour)
	conn := env.connect(t, "u1")

	conn.send(t, Request{Type: FrameSubscribe, SubId: "x", Query: "nope"})
	resp := conn.next(t)
	require.Equal(t, FrameError, resp.Type)
	require.Equal(t, "x", resp.SubId)
	require.Equal(t, errcode.ErrUnknownQuery.Code, resp.ErrCode)

	conn.send(t, Request{Type: "shout", SubId: "y"})
	resp = conn.next(t)
	require.Equal(t, errcode.ErrInvalidProtocol.Code, resp.ErrCode)

	conn.in <- []byte("{not json")
	resp = conn.next(t)
	require.Equal(t, errcode.ErrInvalidProtocol.Code, resp.ErrCode)

	conn.send(t, Request{Type: FrameSubscribe, Query: queryCounter})
	resp = conn.next(t)
	require.Equal(t, errcode.ErrInvalidParam.Code, resp.ErrCode)

	conn.send(t, Request{Type: FrameSubscribe, SubId: "f", Query: queryFail})
	resp = conn.next(t)
	require.Equal(t, FrameError, resp.Type)
	require.Equal(t, "f", resp.SubId)
	require.Equal(t, errcode.ErrConvNotFound.Code, resp.ErrCode)
}

func TestCloseUnregisters(t *testing.T) {
	env := newGatewayEnv(t, time.Hour)
	a := env.connect(t, "u1")
	env.connect(t, "u1")
	env.connect(t, "u2")
	require.Equal(t, 2, env.server.userMap.GetOnlineUserCount())

	require.NoError(t, a.Close())
	require.Eventually(t, func() bool {
		return env.server.GetOnlineConnCount() == 2
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, 2, env.server.userMap.GetOnlineUserCount())
}

func TestUserMap(t *testing.T) {
	m := NewUserMap()
	c1 := &Client{UserId: "u1", ConnId: "a"}
	c2 := &Client{UserId: "u1", ConnId: "b"}
	c3 := &Client{UserId: "u2", ConnId: "c"}

	require.True(t, m.Register(c1))
	require.False(t, m.Register(c2))
	require.True(t, m.Register(c3))
	require.Equal(t, 2, m.GetOnlineUserCount())
	require.Equal(t, 3, m.GetOnlineConnCount())
	require.Len(t, m.All(), 3)

	require.False(t, m.Unregister(c1))
	require.True(t, m.Unregister(c2))
	require.False(t, m.Unregister(c2))
	require.Equal(t, 1, m.GetOnlineUserCount())
	require.Equal(t, 1, m.GetOnlineConnCount())
	require.Equal(t, []*Client{c3}, m.All())
}
