package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/model"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/storage"
)

// testLogger returns a logger for tests that discards output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func receive(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case got := <-ch:
		return string(got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return ""
	}
}

func TestBrokerFanOut(t *testing.T) {
	broker := NewBroker(nil, testLogger())

	ch1 := broker.Subscribe()
	ch2 := broker.Subscribe()

	event := formatSSE("created", `{"agentId":"custom-1"}`)
	broker.broadcast(event)

	assert.Equal(t, string(event), receive(t, ch1))
	assert.Equal(t, string(event), receive(t, ch2))

	// Only ch2 receives after ch1 leaves.
	broker.Unsubscribe(ch1)
	event2 := formatSSE("deleted", `{"agentId":"custom-1"}`)
	broker.broadcast(event2)
	assert.Equal(t, string(event2), receive(t, ch2))

	broker.Unsubscribe(ch2)
	assert.Equal(t, 0, broker.Subscribers())
}

func TestBrokerUnsubscribeTwice(t *testing.T) {
	broker := NewBroker(nil, testLogger())
	ch := broker.Subscribe()
	broker.Unsubscribe(ch)
	assert.NotPanics(t, func() { broker.Unsubscribe(ch) })
}

func TestFormatSSE(t *testing.T) {
	got := string(formatSSE("updated", `{"agentId":"3"}`))
	assert.Equal(t, "event: updated\ndata: {\"agentId\":\"3\"}\n\n", got)
}

func TestBrokerSlowSubscriber(t *testing.T) {
	broker := NewBroker(nil, testLogger())

	slow := broker.Subscribe()
	fast := broker.Subscribe()
	defer broker.Unsubscribe(slow)
	defer broker.Unsubscribe(fast)

	// Overflow the slow subscriber's buffer; broadcast must not block.
	done := make(chan struct{})
	go func() {
		for range 100 {
			broker.broadcast(formatSSE("updated", "{}"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full subscriber")
	}
	assert.Len(t, slow, cap(slow))
}

func TestBrokerPublishLocal(t *testing.T) {
	broker := NewBroker(nil, testLogger())
	ch := broker.Subscribe()
	defer broker.Unsubscribe(ch)

	broker.Publish(context.Background(), model.ChangeEvent{
		Kind:    model.ChangeCreated,
		AgentID: "custom-42",
	})

	got := receive(t, ch)
	assert.True(t, strings.HasPrefix(got, "event: created\n"), got)
	assert.Contains(t, got, `"agentId":"custom-42"`)
}

// fakeNotifier loops Notify back into WaitForNotification, like a single
// Postgres channel with one listener.
type fakeNotifier struct {
	mu        sync.Mutex
	listened  []string
	notifyErr error
	queue     chan string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{queue: make(chan string, 8)}
}

func (f *fakeNotifier) Listen(_ context.Context, channel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listened = append(f.listened, channel)
	return nil
}

func (f *fakeNotifier) WaitForNotification(ctx context.Context) (string, string, error) {
	select {
	case p := <-f.queue:
		return storage.ChannelAgents, p, nil
	case <-ctx.Done():
		return "", "", ctx.Err()
	}
}

func (f *fakeNotifier) Notify(_ context.Context, _ string, payload string) error {
	f.mu.Lock()
	err := f.notifyErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	f.queue <- payload
	return nil
}

func startBroker(t *testing.T, n Notifier) *Broker {
	t.Helper()
	broker := NewBroker(n, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		broker.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	require.Eventually(t, broker.listening.Load, time.Second, 5*time.Millisecond)
	return broker
}

func TestBrokerPublishThroughNotifier(t *testing.T) {
	n := newFakeNotifier()
	broker := startBroker(t, n)
	ch := broker.Subscribe()
	defer broker.Unsubscribe(ch)

	broker.Publish(context.Background(), model.ChangeEvent{Kind: model.ChangeReset, AgentID: "4", IsDefault: true})

	got := receive(t, ch)
	assert.True(t, strings.HasPrefix(got, "event: reset\n"), got)
	assert.Contains(t, got, `"isDefault":true`)

	n.mu.Lock()
	assert.Equal(t, []string{storage.ChannelAgents}, n.listened)
	n.mu.Unlock()
}

func TestBrokerNotifyFailureFallsBackToLocal(t *testing.T) {
	n := newFakeNotifier()
	n.notifyErr = errors.New("connection reset")
	broker := startBroker(t, n)
	ch := broker.Subscribe()
	defer broker.Unsubscribe(ch)

	broker.Publish(context.Background(), model.ChangeEvent{Kind: model.ChangeUpdated, AgentID: "2"})

	got := receive(t, ch)
	assert.True(t, strings.HasPrefix(got, "event: updated\n"), got)
}

func TestBrokerStartWithoutNotifierReturns(t *testing.T) {
	broker := NewBroker(nil, testLogger())
	done := make(chan struct{})
	go func() {
		broker.Start(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start without a notifier should return immediately")
	}
}

func TestEventName(t *testing.T) {
	assert.Equal(t, "deleted", eventName(`{"kind":"deleted","agentId":"custom-1"}`))
	assert.Equal(t, "message", eventName(`not json`))
	assert.Equal(t, "message", eventName(`{}`))
}
