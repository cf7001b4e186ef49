package realtime

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/refyne-backend/internal/platform/logger"
)

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubOrderingAndReconnect(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	channel := ProjectChannel(uuid.New())

	clientA := hub.NewSSEClient()
	hub.AddChannel(clientA, channel)

	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventRunStarted, Data: map[string]any{"seq": 1}})
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventRunProgress, Data: map[string]any{"seq": 2}})

	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventRunStarted {
		t.Fatalf("first event: want=%s got=%s", SSEEventRunStarted, got.Event)
	}
	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventRunProgress {
		t.Fatalf("second event: want=%s got=%s", SSEEventRunProgress, got.Event)
	}

	hub.CloseClient(clientA)
	hub.CloseClient(clientA)
	if _, ok := <-clientA.Outbound; ok {
		t.Fatalf("clientA outbound should be closed after disconnect")
	}
	if n := hub.Subscribers(channel); n != 0 {
		t.Fatalf("subscribers after close: want=0 got=%d", n)
	}

	clientB := hub.NewSSEClient()
	hub.AddChannel(clientB, channel)
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventRunDone})
	if got := recvMessage(t, clientB.Outbound, time.Second); got.Event != SSEEventRunDone {
		t.Fatalf("reconnect event: want=%s got=%s", SSEEventRunDone, got.Event)
	}
}

func TestSSEHubChannelIsolation(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	a := hub.NewSSEClient()
	b := hub.NewSSEClient()
	hub.AddChannel(a, ProjectChannel(uuid.New()))
	chB := ProjectChannel(uuid.New())
	hub.AddChannel(b, chB)

	hub.Broadcast(SSEMessage{Channel: chB, Event: SSEEventRunProgress})
	recvMessage(t, b.Outbound, time.Second)
	select {
	case msg := <-a.Outbound:
		t.Fatalf("client on other channel received %v", msg)
	default:
	}
}
