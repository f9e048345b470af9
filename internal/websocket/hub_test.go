package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// testClient creates a Client with a send channel but no connection.
func testClient(hub *Hub) *Client {
	return &Client{hub: hub, send: make(chan []byte, sendBufferSize)}
}

func next(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return msg
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}
	return Message{}
}

func TestRegisterSendsHello(t *testing.T) {
	hub := NewHub(testLogger)
	hub.Broadcast(NewMessage("member", "created", "m1", nil))
	hub.Broadcast(NewMessage("record", "created", "r1", nil))

	c := testClient(hub)
	hub.Register(c)
	defer hub.Unregister(c)

	hello := next(t, c)
	if hello.Type != TypeHello || hello.Seq != 2 {
		t.Errorf("hello = %+v, want seq 2", hello)
	}
	if hub.ClientCount() != 1 {
		t.Errorf("clients = %d, want 1", hub.ClientCount())
	}
}

func TestUnregisterTwice(t *testing.T) {
	hub := NewHub(testLogger)
	c := testClient(hub)
	hub.Register(c)
	hub.Unregister(c)
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("clients = %d, want 0", got)
	}
}

func TestBroadcastStampsSequence(t *testing.T) {
	hub := NewHub(testLogger)
	c1, c2 := testClient(hub), testClient(hub)
	hub.Register(c1)
	hub.Register(c2)
	defer hub.Unregister(c1)
	defer hub.Unregister(c2)
	next(t, c1)
	next(t, c2)

	hub.Broadcast(NewMessage("record", "created", "0190c3e2-7b1a-7cc0-9a55-3f0d2b6a1e42", map[string]any{"memberId": "m1"}))
	hub.Broadcast(NewMessage("member", "deleted", "m1", map[string]any{"deletedRecords": 1}))

	for _, c := range []*Client{c1, c2} {
		first, second := next(t, c), next(t, c)
		if first.Type != "record_created" || first.Seq != 1 || first.Extra["memberId"] != "m1" {
			t.Errorf("first = %+v", first)
		}
		if second.Type != "member_deleted" || second.Seq != 2 {
			t.Errorf("second = %+v", second)
		}
	}
	if hub.Seq() != 2 {
		t.Errorf("seq = %d, want 2", hub.Seq())
	}
}

func TestBroadcastEmptyHubAdvancesSequence(t *testing.T) {
	hub := NewHub(testLogger)
	hub.Broadcast(NewMessage("settings", "updated", "", nil))
	if hub.Seq() != 1 {
		t.Errorf("seq = %d, want 1", hub.Seq())
	}
}

func TestSlowClientSeesGap(t *testing.T) {
	hub := NewHub(testLogger)
	c := testClient(hub)
	hub.Register(c)
	defer hub.Unregister(c)

	// The hello message takes one slot.
	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast(NewMessage("record", "updated", strconv.Itoa(i), nil))
	}

	var last uint64
	for i := 0; i < sendBufferSize; i++ {
		last = next(t, c).Seq
	}
	if last != sendBufferSize-1 {
		t.Fatalf("last delivered seq = %d, want %d", last, sendBufferSize-1)
	}

	hub.Broadcast(NewMessage("record", "updated", "after", nil))
	if got := next(t, c).Seq; got != last+2 {
		t.Errorf("seq after drop = %d, want %d", got, last+2)
	}
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("sync", "transmitting", "", map[string]any{"direction": "upload"})
	if msg.Type != "sync_transmitting" || msg.Entity != "sync" || msg.Action != "transmitting" {
		t.Errorf("message = %+v", msg)
	}
	if msg.Seq != 0 {
		t.Errorf("seq = %d before broadcast, want 0", msg.Seq)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(testLogger)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := testClient(hub)
			hub.Register(c)
			hub.Broadcast(NewMessage("data", "merged", "", nil))
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("clients = %d, want 0", got)
	}
	if got := hub.Seq(); got != 20 {
		t.Errorf("seq = %d, want 20", got)
	}
}
