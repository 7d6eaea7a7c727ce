package gateway

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mbeoliero/kit/log"

	"github.com/mbeoliero/parley/internal/config"
	"github.com/mbeoliero/parley/internal/metrics"
	"github.com/mbeoliero/parley/internal/notify"
)

// WsServer keeps live query subscriptions up to date. Change events from
// the notify bus are fanned out to every client, which re-runs the
// subscriptions that depend on the touched topics.
type WsServer struct {
	cfg            config.WebSocketConfig
	queries        Queries
	subscriber     notify.Subscriber
	userMap        *UserMap
	registerChan   chan *Client
	unregisterChan chan *Client
}

// NewWsServer creates a new WebSocket server
func NewWsServer(cfg *config.Config, queries Queries, subscriber notify.Subscriber) *WsServer {
	return &WsServer{
		cfg:            cfg.WebSocket,
		queries:        queries,
		subscriber:     subscriber,
		userMap:        NewUserMap(),
		registerChan:   make(chan *Client, 1000),
		unregisterChan: make(chan *Client, 1000),
	}
}

// Run subscribes to change events and starts the event loop. It returns
// once the subscription is live.
func (s *WsServer) Run(ctx context.Context) error {
	events, err := s.subscriber.Subscribe(ctx)
	if err != nil {
		return err
	}
	go s.eventLoop(ctx, events)
	log.Info("websocket gateway started: refresh_interval=%s", s.cfg.RefreshInterval)
	return nil
}

func (s *WsServer) eventLoop(ctx context.Context, events <-chan notify.Event) {
	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			for _, client := range s.userMap.All() {
				_ = client.Close()
			}
			return
		case client := <-s.registerChan:
			s.registerClient(ctx, client)
		case client := <-s.unregisterChan:
			s.unregisterClient(ctx, client)
		case ev, ok := <-events:
			if !ok {
				log.CtxWarn(ctx, "change event stream closed, subscriptions only refresh on the clock now")
				events = nil
				continue
			}
			for _, client := range s.userMap.All() {
				client.Notify(ev.Topics)
			}
		case <-ticker.C:
			for _, client := range s.userMap.All() {
				client.Refresh()
			}
		}
	}
}

func (s *WsServer) registerClient(ctx context.Context, client *Client) {
	firstConn := s.userMap.Register(client)
	metrics.WSConnections.Inc()

	log.CtxInfo(ctx, "client registered: user_id=%s, conn_id=%s, first_conn=%v, online_users=%d, online_conns=%d",
		client.UserId, client.ConnId, firstConn, s.userMap.GetOnlineUserCount(), s.userMap.GetOnlineConnCount())
}

func (s *WsServer) unregisterClient(ctx context.Context, client *Client) {
	isUserOffline := s.userMap.Unregister(client)
	metrics.WSConnections.Dec()

	log.CtxInfo(ctx, "client unregistered: user_id=%s, conn_id=%s, user_offline=%v, online_users=%d, online_conns=%d",
		client.UserId, client.ConnId, isUserOffline, s.userMap.GetOnlineUserCount(), s.userMap.GetOnlineConnCount())
}

// UnregisterClient queues client for unregistration
func (s *WsServer) UnregisterClient(client *Client) {
	select {
	case s.unregisterChan <- client:
	default:
		log.Warn("unregister channel full: user_id=%s", client.UserId)
	}
}

// serve registers a client for conn and blocks until the connection ends
func (s *WsServer) serve(conn ClientConn, userId string) {
	client := NewClient(conn, userId, uuid.NewString(), s)
	s.registerChan <- client

	go client.dispatchLoop()
	client.readLoop()
}

// GetOnlineConnCount returns online connection count
func (s *WsServer) GetOnlineConnCount() int {
	return s.userMap.GetOnlineConnCount()
}
