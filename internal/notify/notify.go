// Package notify carries change events from writers to live subscribers.
// An event only names the topics that changed; subscribers re-read state.
package notify

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mbeoliero/kit/log"
	"github.com/redis/go-redis/v9"

	"github.com/mbeoliero/parley/internal/metrics"
	"github.com/mbeoliero/parley/pkg/constant"
)

// Event lists the topics touched by one committed write
type Event struct {
	Topics []string `json:"topics"`
}

// Notifier publishes change events. Publishing is best effort and never
// fails the write that triggered it.
type Notifier interface {
	Publish(ctx context.Context, topics ...string)
}

// Subscriber streams change events until ctx is done
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan Event, error)
}

// Bus is both ends
type Bus interface {
	Notifier
	Subscriber
}

const subscriberBuffer = 256

// RedisBus fans events out across server instances over Redis pub/sub
type RedisBus struct {
	rdb     *redis.Client
	channel string
}

// NewRedisBus creates a RedisBus on the prefixed events channel
func NewRedisBus(rdb *redis.Client) *RedisBus {
	return &RedisBus{rdb: rdb, channel: constant.RedisKeyEvents()}
}

func (b *RedisBus) Publish(ctx context.Context, topics ...string) {
	if len(topics) == 0 {
		return
	}
	payload, err := json.Marshal(Event{Topics: topics})
	if err != nil {
		log.CtxError(ctx, "marshal event failed: %v", err)
		return
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		metrics.NotifyPublishErrors.Inc()
		log.CtxWarn(ctx, "publish event failed: topics=%v, error=%v", topics, err)
	}
}

// Subscribe returns once the subscription is confirmed by Redis
func (b *RedisBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	ps := b.rdb.Subscribe(ctx, b.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		defer ps.Close()

		ch := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					log.CtxWarn(ctx, "drop malformed event: %v", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// LocalBus delivers events inside one process. Used when Redis is disabled.
type LocalBus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewLocalBus creates a LocalBus
func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[chan Event]struct{})}
}

func (b *LocalBus) Publish(ctx context.Context, topics ...string) {
	if len(topics) == 0 {
		return
	}
	ev := Event{Topics: topics}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			metrics.NotifyPublishErrors.Inc()
			log.CtxWarn(ctx, "local subscriber full, event dropped: topics=%v", topics)
		}
	}
}

func (b *LocalBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch, nil
}

// Nop discards every event
type Nop struct{}

func (Nop) Publish(context.Context, ...string) {}
