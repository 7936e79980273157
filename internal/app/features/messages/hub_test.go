package messages

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	messagestore "github.com/dalemusser/shelterhub/internal/app/store/messages"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeStore struct {
	mu    sync.Mutex
	sent  []models.Message
	reads map[[2]primitive.ObjectID]int64
}

func (f *fakeStore) Send(_ context.Context, from, to primitive.ObjectID, content string) (models.Message, error) {
	switch {
	case content == "":
		return models.Message{}, messagestore.ErrEmptyContent
	case from == to:
		return models.Message{}, messagestore.ErrSelf
	}
	m := models.Message{ID: primitive.NewObjectID(), From: from, To: to, Content: content, CreatedAt: time.Now().UTC()}
	f.mu.Lock()
	f.sent = append(f.sent, m)
	f.mu.Unlock()
	return m, nil
}

func (f *fakeStore) MarkThreadRead(_ context.Context, me, peer primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[[2]primitive.ObjectID{me, peer}], nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeDirectory map[primitive.ObjectID]bool

func (d fakeDirectory) Refs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserRef, error) {
	out := map[primitive.ObjectID]models.UserRef{}
	for _, id := range ids {
		if d[id] {
			out[id] = models.UserRef{ID: id}
		}
	}
	return out, nil
}

func newTestHub(users ...primitive.ObjectID) (*Hub, *fakeStore) {
	store := &fakeStore{reads: map[[2]primitive.ObjectID]int64{}}
	dir := fakeDirectory{}
	for _, u := range users {
		dir[u] = true
	}
	return NewHub(store, dir, zap.NewNop()), store
}

func next(t *testing.T, c *client) Event {
	t.Helper()
	select {
	case frame, ok := <-c.send:
		if !ok {
			t.Fatal("send channel closed")
		}
		var ev Event
		if err := json.Unmarshal(frame, &ev); err != nil {
			t.Fatalf("decode frame %s: %v", frame, err)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	return Event{}
}

// nextOf skips events of other types.
func nextOf(t *testing.T, c *client, eventType string) Event {
	t.Helper()
	for i := 0; i < 10; i++ {
		if ev := next(t, c); ev.Type == eventType {
			return ev
		}
	}
	t.Fatalf("no %s event", eventType)
	return Event{}
}

func assertQuiet(t *testing.T, c *client) {
	t.Helper()
	select {
	case frame := <-c.send:
		t.Errorf("unexpected event %s", frame)
	default:
	}
}

func drain(c *client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

func frame(t *testing.T, eventType string, data any) []byte {
	t.Helper()
	raw, _ := json.Marshal(data)
	b, err := json.Marshal(Event{Type: eventType, Data: raw})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestHub_OnlineBroadcast(t *testing.T) {
	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()
	h, _ := newTestHub(alice, bob)

	a := newClient(alice)
	h.register(a)
	ev := next(t, a)
	if ev.Type != EventUsersOnline {
		t.Fatalf("type = %s", ev.Type)
	}

	b := newClient(bob)
	h.register(b)
	var online struct{ Users []string }
	_ = json.Unmarshal(nextOf(t, a, EventUsersOnline).Data, &online)
	if len(online.Users) != 2 {
		t.Errorf("online = %v", online.Users)
	}
	drain(b)

	// A second tab for bob does not change who is online when it closes.
	b2 := newClient(bob)
	h.register(b2)
	drain(a)
	drain(b)
	h.unregister(b2)
	assertQuiet(t, a)
	h.unregister(b2)

	h.unregister(b)
	_ = json.Unmarshal(nextOf(t, a, EventUsersOnline).Data, &online)
	if len(online.Users) != 1 || online.Users[0] != alice.Hex() {
		t.Errorf("online after leave = %v", online.Users)
	}
	if h.IsOnline(bob) {
		t.Error("bob still online")
	}
	if _, ok := <-b.send; ok {
		t.Error("send channel not closed")
	}
}

func TestHub_SendPersistsThenRelays(t *testing.T) {
	alice, bob, carol := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	h, store := newTestHub(alice, bob, carol)
	a, b, c := newClient(alice), newClient(bob), newClient(carol)
	for _, cl := range []*client{a, b, c} {
		h.register(cl)
	}
	for _, cl := range []*client{a, b, c} {
		drain(cl)
	}

	h.handle(context.Background(), a, frame(t, EventMessageSend, map[string]string{"to": bob.Hex(), "content": "Réunion à 14h"}))
	if store.count() != 1 {
		t.Fatalf("stored = %d, want 1", store.count())
	}
	for _, cl := range []*client{b, a} {
		ev := next(t, cl)
		if ev.Type != EventMessageReceived {
			t.Fatalf("type = %s", ev.Type)
		}
		var m models.Message
		_ = json.Unmarshal(ev.Data, &m)
		if m.Content != "Réunion à 14h" || m.From != alice || m.To != bob {
			t.Errorf("relayed = %+v", m)
		}
	}
	assertQuiet(t, c)

	tests := []struct {
		name string
		raw  []byte
	}{
		{"malformed", []byte("{")},
		{"unknown type", frame(t, "message:delete", map[string]string{})},
		{"bad recipient", frame(t, EventMessageSend, map[string]string{"to": "nope", "content": "x"})},
		{"unknown recipient", frame(t, EventMessageSend, map[string]string{"to": primitive.NewObjectID().Hex(), "content": "x"})},
		{"self", frame(t, EventMessageSend, map[string]string{"to": alice.Hex(), "content": "x"})},
		{"empty", frame(t, EventMessageSend, map[string]string{"to": bob.Hex(), "content": ""})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.handle(context.Background(), a, tt.raw)
			if ev := next(t, a); ev.Type != EventError {
				t.Errorf("type = %s, want error", ev.Type)
			}
			assertQuiet(t, b)
		})
	}
	if store.count() != 1 {
		t.Errorf("stored = %d after rejected sends", store.count())
	}
}

func TestHub_TypingAndRead(t *testing.T) {
	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()
	h, store := newTestHub(alice, bob)
	store.reads[[2]primitive.ObjectID{bob, alice}] = 3
	a, b := newClient(alice), newClient(bob)
	h.register(a)
	h.register(b)
	drain(a)
	drain(b)

	h.handle(context.Background(), a, frame(t, EventTypingStart, map[string]string{"to": bob.Hex()}))
	ev := next(t, b)
	var peer peerData
	_ = json.Unmarshal(ev.Data, &peer)
	if ev.Type != EventTypingStart || peer.From != alice.Hex() {
		t.Errorf("typing = %s %+v", ev.Type, peer)
	}
	assertQuiet(t, a)

	h.handle(context.Background(), b, frame(t, EventMessageRead, map[string]string{"from": alice.Hex()}))
	ev = next(t, a)
	var read struct {
		By    string
		Count int64
	}
	_ = json.Unmarshal(ev.Data, &read)
	if ev.Type != EventMessageRead || read.By != bob.Hex() || read.Count != 3 {
		t.Errorf("read = %s %+v", ev.Type, read)
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()
	h, _ := newTestHub(alice, bob)
	b := newClient(bob)
	h.register(b)

	for i := 0; i < sendBuffer+1; i++ {
		h.SendTo(bob, EventTypingStart, peerData{From: alice.Hex()})
	}
	if h.IsOnline(bob) {
		t.Error("slow client kept")
	}
}

func TestHub_DroppedClientIgnoresLateFrames(t *testing.T) {
	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()
	h, store := newTestHub(alice, bob)
	b := newClient(bob)
	h.register(b)

	for i := 0; i < sendBuffer+1; i++ {
		h.SendTo(bob, EventTypingStart, peerData{From: alice.Hex()})
	}
	if h.IsOnline(bob) {
		t.Fatal("slow client kept")
	}

	// The read pump may still deliver frames before the socket closes.
	h.handle(context.Background(), b, []byte("not json"))
	h.handle(context.Background(), b, frame(t, "message:delete", map[string]string{}))
	h.handle(context.Background(), b, frame(t, EventMessageSend, map[string]string{"to": "nope", "content": "x"}))
	if store.count() != 0 {
		t.Errorf("stored = %d", store.count())
	}
}
