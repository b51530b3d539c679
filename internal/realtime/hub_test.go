package realtime_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/chamado-service/internal/realtime"
)

type fakeConn struct {
	mu       sync.Mutex
	messages []string
	closed   bool
	failing  bool
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("broken pipe")
	}
	f.messages = append(f.messages, string(data))
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) snapshot() ([]string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...), f.closed
}

func TestHubBroadcastsToRegisteredClients(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	hub := realtime.NewHub(nil)
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	first, second, broken := &fakeConn{}, &fakeConn{}, &fakeConn{failing: true}
	hub.Register(ctx, first)
	hub.Register(ctx, second)
	hub.Register(ctx, broken)

	hub.Broadcast([]byte(`{"type":"queue_changed"}`))

	assert.Eventually(t, func() bool {
		got, _ := second.snapshot()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)
	msgs, _ := first.snapshot()
	assert.Equal(t, []string{`{"type":"queue_changed"}`}, msgs)
	assert.Eventually(t, func() bool {
		_, closed := broken.snapshot()
		return closed
	}, time.Second, 5*time.Millisecond, "failed writers are dropped")

	hub.Unregister(ctx, second)
	hub.Broadcast([]byte("again"))
	assert.Eventually(t, func() bool {
		got, _ := first.snapshot()
		return len(got) == 2
	}, time.Second, 5*time.Millisecond)
	got, closed := second.snapshot()
	assert.Len(t, got, 1)
	assert.True(t, closed)

	cancel()
	<-done
	_, closed = first.snapshot()
	assert.True(t, closed, "shutdown closes remaining clients")
}
