package hub

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devendrajoshi/smartchat/internal/chat"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	h := New()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

// testClient builds a client with a send buffer but no transport; tests
// drain the queues directly in place of a write pump.
func testClient(buffer int) *Client {
	return &Client{
		ID:     "test",
		send:   make(chan []byte, buffer),
		replay: make(chan [][]byte, 1),
	}
}

// drain consumes the client's queues the way writePump does: the history
// snapshot first, then whatever live frames are buffered.
func drain(c *Client) []chat.Message {
	var msgs []chat.Message
	decode := func(frame []byte) {
		msg, err := chat.ParseMessage(frame)
		if err != nil {
			panic(err)
		}
		msgs = append(msgs, msg)
	}
	for _, frame := range <-c.replay {
		decode(frame)
	}
	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return msgs
			}
			decode(frame)
		default:
			return msgs
		}
	}
}

func TestBroadcastReachesAllClientsInOrder(t *testing.T) {
	h := newTestHub(t)
	a, b := testClient(16), testClient(16)
	h.Register(a)
	h.Register(b)

	for i := 0; i < 5; i++ {
		h.Broadcast(chat.NewMessage("Alice", fmt.Sprintf("msg-%d", i)))
	}

	for _, c := range []*Client{a, b} {
		got := drain(c)
		require.Len(t, got, 5)
		for i, msg := range got {
			assert.Equal(t, fmt.Sprintf("msg-%d", i), msg.Text)
		}
	}
}

func TestRegisterReplaysHistory(t *testing.T) {
	h := newTestHub(t)
	h.Broadcast(chat.NewMessage("Alice", "one"))
	h.Broadcast(chat.NewMessage("Bob", "two"))

	late := testClient(16)
	h.Register(late)
	h.Broadcast(chat.NewMessage("Alice", "three"))

	got := drain(late)
	require.Len(t, got, 3)
	assert.Equal(t, "one", got[0].Text)
	assert.Equal(t, "two", got[1].Text)
	assert.Equal(t, "three", got[2].Text)
}

func TestRegisterReplaysHistoryLargerThanSendBuffer(t *testing.T) {
	h := newTestHub(t)
	const total = 300
	for i := 0; i < total; i++ {
		h.Broadcast(chat.NewMessage("Alice", fmt.Sprintf("msg-%d", i)))
	}

	// A joiner whose send buffer holds far fewer frames than history
	// still gets the whole history, and stays live for new traffic.
	late := testClient(16)
	h.Register(late)
	h.Broadcast(chat.NewMessage("Bob", "live"))

	got := drain(late)
	require.Len(t, got, total+1)
	assert.Equal(t, "msg-0", got[0].Text)
	assert.Equal(t, fmt.Sprintf("msg-%d", total-1), got[total-1].Text)
	assert.Equal(t, "live", got[total].Text)
}

func TestReplayExactlyOnceUnderConcurrentBroadcast(t *testing.T) {
	h := newTestHub(t)
	const total = 200

	// Broadcasters race with client registrations.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			h.Broadcast(chat.NewMessage("Alice", fmt.Sprintf("msg-%d", i)))
		}
	}()

	clients := make([]*Client, 10)
	for i := range clients {
		clients[i] = testClient(total + 16)
		h.Register(clients[i])
	}
	wg.Wait()

	for _, c := range clients {
		got := drain(c)
		// Each client sees a suffix-complete, duplicate-free, ordered
		// stream: whatever it missed before joining, and everything after.
		require.NotEmpty(t, got)
		seen := make(map[string]bool)
		prev := -1
		for _, msg := range got {
			require.False(t, seen[msg.Text], "duplicate delivery of %s", msg.Text)
			seen[msg.Text] = true
			var n int
			_, err := fmt.Sscanf(msg.Text, "msg-%d", &n)
			require.NoError(t, err)
			require.Greater(t, n, prev, "out-of-order delivery")
			prev = n
		}
		// No gaps: deliveries end at the final message and cover every
		// index from the first one seen.
		var first int
		fmt.Sscanf(got[0].Text, "msg-%d", &first)
		assert.Equal(t, total-first, len(got))
		assert.Equal(t, fmt.Sprintf("msg-%d", total-1), got[len(got)-1].Text)
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	h := newTestHub(t)
	c := testClient(16)
	h.Register(c)

	h.Unregister(c)
	// A second unregister of the same client must not panic or close the
	// channel twice.
	h.Unregister(c)

	h.Broadcast(chat.NewMessage("Alice", "after"))
	_, open := <-c.send
	assert.False(t, open)
}

func TestSlowClientEvictionDoesNotAffectOthers(t *testing.T) {
	h := newTestHub(t)
	stuck := testClient(1)
	healthy := testClient(16)
	h.Register(stuck)
	h.Register(healthy)

	h.Broadcast(chat.NewMessage("Alice", "fills the stuck buffer"))
	h.Broadcast(chat.NewMessage("Alice", "evicts the stuck client"))
	h.Broadcast(chat.NewMessage("Alice", "healthy still receives"))

	got := drain(healthy)
	require.Len(t, got, 3)

	// The stuck client got the first message, then was evicted and its
	// channel closed.
	frame, ok := <-stuck.send
	require.True(t, ok)
	require.NotEmpty(t, frame)
	_, open := <-stuck.send
	assert.False(t, open)

	// Eviction does not lose the message from history.
	assert.Len(t, h.History(), 3)
}

func TestHistoryReturnsACopy(t *testing.T) {
	h := newTestHub(t)
	h.Broadcast(chat.NewMessage("Alice", "original"))

	snap := h.History()
	require.Len(t, snap, 1)
	snap[0].Text = "mutated"

	assert.Equal(t, "original", h.History()[0].Text)
}

func TestBroadcastVisibleToImmediateHistoryCall(t *testing.T) {
	h := newTestHub(t)
	for i := 0; i < 50; i++ {
		msg := chat.NewMessage("Alice", fmt.Sprintf("msg-%d", i))
		h.Broadcast(msg)
		snap := h.History()
		require.Len(t, snap, i+1)
		require.Equal(t, msg.Text, snap[len(snap)-1].Text)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	h := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	c := testClient(16)
	h.Register(c)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop on context cancellation")
	}
	_, open := <-c.send
	assert.False(t, open)
}

func TestOperationsDoNotBlockAfterShutdown(t *testing.T) {
	h := New()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	h.Broadcast(chat.NewMessage("Alice", "before shutdown"))
	cancel()

	// An assistant reply can finish its backend call after shutdown has
	// begun; its Broadcast, and any other hub call, must return.
	finished := make(chan struct{})
	go func() {
		h.Broadcast(chat.NewMessage("Akashvani", "late reply"))
		h.Register(testClient(1))
		h.Unregister(testClient(1))
		_ = h.History()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("hub operation blocked after shutdown")
	}
}
