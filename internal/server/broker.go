package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/model"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/storage"
)

// Notifier is the LISTEN/NOTIFY surface of the Postgres backend.
// *storage.DB satisfies it.
type Notifier interface {
	Listen(ctx context.Context, channel string) error
	WaitForNotification(ctx context.Context) (channel, payload string, err error)
	Notify(ctx context.Context, channel, payload string) error
}

// Broker fans directory change events out to SSE subscribers.
//
// Without a Notifier, Publish broadcasts in process. With one, Publish sends
// pg_notify and every replica (this one included) broadcasts what its Start
// loop receives, so galleries connected to any replica refresh.
type Broker struct {
	notifier  Notifier
	logger    *slog.Logger
	listening atomic.Bool

	mu          sync.RWMutex
	subscribers map[chan []byte]struct{}
}

// NewBroker creates a new SSE broker. notifier may be nil.
func NewBroker(notifier Notifier, logger *slog.Logger) *Broker {
	return &Broker{
		notifier:    notifier,
		logger:      logger,
		subscribers: make(map[chan []byte]struct{}),
	}
}

// notifyRetryDelay paces reconnect attempts after a LISTEN failure.
const notifyRetryDelay = time.Second

// Start listens for change notifications from other replicas. It blocks, so
// call it in a goroutine. Returns when ctx is cancelled, or at once when the
// broker has no Notifier.
func (b *Broker) Start(ctx context.Context) {
	if b.notifier == nil {
		return
	}
	if err := b.notifier.Listen(ctx, storage.ChannelAgents); err != nil {
		b.logger.Error("broker: listen agents", "error", err)
		return
	}
	b.listening.Store(true)
	defer b.listening.Store(false)

	b.logger.Info("broker: listening for notifications", "channel", storage.ChannelAgents)

	for {
		_, payload, err := b.notifier.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.Warn("broker: notification error, retrying", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(notifyRetryDelay):
			}
			continue
		}
		b.broadcast(formatSSE(eventName(payload), payload))
	}
}

// Publish implements directory.Publisher.
func (b *Broker) Publish(ctx context.Context, ev model.ChangeEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("broker: marshal event", "error", err)
		return
	}
	if b.notifier != nil && b.listening.Load() {
		err := b.notifier.Notify(ctx, storage.ChannelAgents, string(payload))
		if err == nil {
			return
		}
		b.logger.Warn("broker: notify failed, broadcasting locally", "error", err)
	}
	b.broadcast(formatSSE(string(ev.Kind), string(payload)))
}

// Subscribe returns a channel that receives SSE-formatted events.
// The caller must call Unsubscribe when done.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel and closes it.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Subscribers returns the number of open subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// broadcast sends an event to all subscribers. A subscriber whose buffer is
// full misses the event.
func (b *Broker) broadcast(event []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// eventName recovers the change kind from a notification payload.
func eventName(payload string) string {
	var ev model.ChangeEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil || ev.Kind == "" {
		return "message"
	}
	return string(ev.Kind)
}

// formatSSE formats a notification as a Server-Sent Events message.
func formatSSE(eventType, data string) []byte {
	return []byte("event: " + eventType + "\ndata: " + data + "\n\n")
}
