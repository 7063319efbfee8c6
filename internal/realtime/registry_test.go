package realtime

import (
	"encoding/json"
	"testing"
	"time"
)

func recvEvent(t *testing.T, conn *Connection) Event {
	t.Helper()
	select {
	case evt := <-conn.Events():
		return evt
	case <-time.After(time.Second):
		t.Fatalf("no event received")
		return Event{}
	}
}

func TestRegister_SendsConnectedAck(t *testing.T) {
	r := NewRegistry(0)
	defer r.Close()

	conn := r.Register(7)
	evt := recvEvent(t, conn)
	if evt.Type != "connected" {
		t.Fatalf("first event type = %q, want connected", evt.Type)
	}
	if evt.Data["userId"] != uint(7) {
		t.Fatalf("ack userId = %v", evt.Data["userId"])
	}
}

func TestSend_DeliversToRegisteredUser(t *testing.T) {
	r := NewRegistry(0)
	defer r.Close()

	conn := r.Register(1)
	recvEvent(t, conn) // drain ack

	r.Send(1, Event{Type: "notification", Data: map[string]any{"id": 42}})
	evt := recvEvent(t, conn)
	if evt.Type != "notification" {
		t.Fatalf("event type = %q", evt.Type)
	}
}

func TestSend_UnknownUserIsNoop(t *testing.T) {
	r := NewRegistry(0)
	defer r.Close()
	r.Send(99, Event{Type: "notification"})
}

func TestSend_SelfHealsAfterBrokenStream(t *testing.T) {
	r := NewRegistry(0)
	defer r.Close()

	conn := r.Register(1)
	recvEvent(t, conn)

	// Simulate a broken stream: the serve loop is gone.
	conn.Close()

	r.Send(1, Event{Type: "notification"})
	if got := r.Count(); got != 0 {
		t.Fatalf("dead connection not removed, count = %d", got)
	}

	// Further sends stay silent no-ops.
	r.Send(1, Event{Type: "notification"})

	// And the user can come back.
	conn2 := r.Register(1)
	recvEvent(t, conn2)
	r.Send(1, Event{Type: "notification", Data: map[string]any{"n": 2}})
	evt := recvEvent(t, conn2)
	if evt.Type != "notification" {
		t.Fatalf("event type after re-register = %q", evt.Type)
	}
}

func TestRegister_DisplacesPriorConnection(t *testing.T) {
	r := NewRegistry(0)
	defer r.Close()

	old := r.Register(1)
	recvEvent(t, old)
	replacement := r.Register(1)
	recvEvent(t, replacement)

	select {
	case <-old.Done():
	case <-time.After(time.Second):
		t.Fatalf("old connection not closed on re-register")
	}
	if got := r.Count(); got != 1 {
		t.Fatalf("count = %d, want 1", got)
	}

	r.Send(1, Event{Type: "notification"})
	evt := recvEvent(t, replacement)
	if evt.Type != "notification" {
		t.Fatalf("replacement did not receive send")
	}
}

func TestBroadcast_ToleratesDeadMember(t *testing.T) {
	r := NewRegistry(0)
	defer r.Close()

	alive := r.Register(1)
	recvEvent(t, alive)
	dead := r.Register(2)
	recvEvent(t, dead)
	dead.Close()

	r.Broadcast(Event{Type: "activity", Data: map[string]any{"kind": "deploy"}})

	evt := recvEvent(t, alive)
	if evt.Type != "activity" {
		t.Fatalf("alive member got type %q", evt.Type)
	}
	if got := r.Count(); got != 1 {
		t.Fatalf("count after broadcast = %d, want 1", got)
	}
}

func TestSendMany_IsolatesPerRecipient(t *testing.T) {
	r := NewRegistry(0)
	defer r.Close()

	a := r.Register(1)
	recvEvent(t, a)
	b := r.Register(2)
	recvEvent(t, b)
	b.Close()

	r.SendMany([]uint{1, 2, 3}, Event{Type: "notification"})

	evt := recvEvent(t, a)
	if evt.Type != "notification" {
		t.Fatalf("recipient 1 got type %q", evt.Type)
	}
}

func TestSend_DropsSlowClient(t *testing.T) {
	r := NewRegistry(0)
	defer r.Close()

	r.Register(1) // serve loop never drains
	for i := 0; i < sendBuffer+1; i++ {
		r.Send(1, Event{Type: "notification"})
	}
	if got := r.Count(); got != 0 {
		t.Fatalf("saturated connection not removed, count = %d", got)
	}
}

func TestUnregister_RemovesConnection(t *testing.T) {
	r := NewRegistry(0)
	defer r.Close()

	conn := r.Register(1)
	recvEvent(t, conn)
	r.Unregister(1)

	select {
	case <-conn.Done():
	case <-time.After(time.Second):
		t.Fatalf("connection not closed on unregister")
	}
	if got := r.Count(); got != 0 {
		t.Fatalf("count = %d, want 0", got)
	}
}

func TestEvent_MarshalMergesType(t *testing.T) {
	evt := Event{Type: "connected", Data: map[string]any{"userId": 7}}
	b, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["type"] != "connected" || m["userId"] != float64(7) {
		t.Fatalf("unexpected frame: %s", b)
	}
}
