// internal/app/features/messages/hub.go
package messages

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	messagestore "github.com/dalemusser/shelterhub/internal/app/store/messages"
	"github.com/dalemusser/shelterhub/internal/app/system/timeouts"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Chat event types.
const (
	EventMessageSend     = "message:send"
	EventMessageReceived = "message:received"
	EventMessageRead     = "message:read"
	EventTypingStart     = "typing:start"
	EventTypingStop      = "typing:stop"
	EventUsersOnline     = "users:online"
	EventError           = "error"
)

// sendBuffer is the number of outgoing frames queued per connection before
// it is considered stuck and dropped.
const sendBuffer = 64

// MessageStore persists chat messages.
type MessageStore interface {
	Send(ctx context.Context, from, to primitive.ObjectID, content string) (models.Message, error)
	MarkThreadRead(ctx context.Context, me, peer primitive.ObjectID) (int64, error)
}

// Directory resolves user IDs; unknown IDs are absent from the result.
type Directory interface {
	Refs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserRef, error)
}

// Event is the frame exchanged over the socket in both directions.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type sendData struct {
	To      string `json:"to"`
	Content string `json:"content"`
}

type peerData struct {
	To   string `json:"to,omitempty"`
	From string `json:"from,omitempty"`
}

// client is one open connection. A user may hold several.
type client struct {
	user primitive.ObjectID
	send chan []byte
}

func newClient(user primitive.ObjectID) *client {
	return &client{user: user, send: make(chan []byte, sendBuffer)}
}

// Hub tracks connections per user in this process and relays chat events.
// Messages are persisted before they are relayed.
type Hub struct {
	store MessageStore
	users Directory
	log   *zap.Logger

	mu      sync.RWMutex
	clients map[primitive.ObjectID]map[*client]struct{}
}

func NewHub(store MessageStore, users Directory, logger *zap.Logger) *Hub {
	return &Hub{
		store:   store,
		users:   users,
		log:     logger,
		clients: make(map[primitive.ObjectID]map[*client]struct{}),
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	set, ok := h.clients[c.user]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.user] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
	h.broadcastOnline()
}

// unregister removes c and closes its send channel. Safe to call twice.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	set, ok := h.clients[c.user]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := set[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(set, c)
	close(c.send)
	last := len(set) == 0
	if last {
		delete(h.clients, c.user)
	}
	h.mu.Unlock()
	if last {
		h.broadcastOnline()
	}
}

// Online returns the IDs of users with at least one open connection, sorted.
func (h *Hub) Online() []string {
	h.mu.RLock()
	out := make([]string, 0, len(h.clients))
	for id := range h.clients {
		out = append(out, id.Hex())
	}
	h.mu.RUnlock()
	sort.Strings(out)
	return out
}

// IsOnline reports whether user has an open connection.
func (h *Hub) IsOnline(user primitive.ObjectID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[user]) > 0
}

func encode(eventType string, data any) []byte {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	frame, _ := json.Marshal(Event{Type: eventType, Data: raw})
	return frame
}

// SendTo delivers an event to every connection of user. Connections whose
// buffer is full are dropped.
func (h *Hub) SendTo(user primitive.ObjectID, eventType string, data any) {
	frame := encode(eventType, data)
	if frame == nil {
		return
	}
	var stuck []*client
	h.mu.RLock()
	for c := range h.clients[user] {
		select {
		case c.send <- frame:
		default:
			stuck = append(stuck, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range stuck {
		h.log.Warn("dropping slow chat connection", zap.String("user", c.user.Hex()))
		h.unregister(c)
	}
}

func (h *Hub) broadcastOnline() {
	online := h.Online()
	h.mu.RLock()
	users := make([]primitive.ObjectID, 0, len(h.clients))
	for id := range h.clients {
		users = append(users, id)
	}
	h.mu.RUnlock()
	for _, id := range users {
		h.SendTo(id, EventUsersOnline, map[string][]string{"users": online})
	}
}

// Deliver relays a stored message to its recipient and echoes it to the
// sender's other connections.
func (h *Hub) Deliver(m models.Message) {
	h.SendTo(m.To, EventMessageReceived, m)
	h.SendTo(m.From, EventMessageReceived, m)
}

// NotifyRead tells the original sender that reader has read their thread.
func (h *Hub) NotifyRead(reader, sender primitive.ObjectID, count int64) {
	h.SendTo(sender, EventMessageRead, map[string]any{"by": reader.Hex(), "count": count})
}

// sendError queues an error frame for c. A dropped client's channel is
// closed, so the send only happens while c is still registered.
func (h *Hub) sendError(c *client, msg string) {
	frame := encode(EventError, map[string]string{"message": msg})
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.user][c]; !ok {
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}

// handle processes one frame received from c.
func (h *Hub) handle(ctx context.Context, c *client, raw []byte) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		h.sendError(c, "Malformed event")
		return
	}

	switch ev.Type {
	case EventMessageSend:
		var d sendData
		if err := json.Unmarshal(ev.Data, &d); err != nil {
			h.sendError(c, "Malformed message")
			return
		}
		h.handleSend(ctx, c, d)

	case EventTypingStart, EventTypingStop:
		var d peerData
		if err := json.Unmarshal(ev.Data, &d); err != nil {
			return
		}
		to, err := primitive.ObjectIDFromHex(d.To)
		if err != nil || to == c.user {
			return
		}
		h.SendTo(to, ev.Type, peerData{From: c.user.Hex()})

	case EventMessageRead:
		var d peerData
		if err := json.Unmarshal(ev.Data, &d); err != nil {
			return
		}
		peer, err := primitive.ObjectIDFromHex(d.From)
		if err != nil {
			h.sendError(c, "Invalid user")
			return
		}
		opCtx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), h.log, "chat mark read")
		n, err := h.store.MarkThreadRead(opCtx, c.user, peer)
		cancel()
		if err != nil {
			h.log.Error("chat mark read failed", zap.Error(err))
			h.sendError(c, "Could not mark messages as read")
			return
		}
		h.NotifyRead(c.user, peer, n)

	default:
		h.sendError(c, "Unknown event type")
	}
}

func (h *Hub) handleSend(ctx context.Context, c *client, d sendData) {
	to, err := primitive.ObjectIDFromHex(d.To)
	if err != nil {
		h.sendError(c, "Invalid recipient")
		return
	}

	opCtx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), h.log, "chat send")
	defer cancel()

	refs, err := h.users.Refs(opCtx, []primitive.ObjectID{to})
	if err != nil {
		h.log.Error("chat recipient lookup failed", zap.Error(err))
		h.sendError(c, "Message not sent")
		return
	}
	if _, ok := refs[to]; !ok {
		h.sendError(c, "Recipient not found")
		return
	}

	m, err := h.store.Send(opCtx, c.user, to, d.Content)
	if err != nil {
		h.sendError(c, sendErrorMessage(err))
		if !isValidation(err) {
			h.log.Error("chat send failed", zap.Error(err))
		}
		return
	}
	h.Deliver(m)
}

func isValidation(err error) bool {
	return errors.Is(err, messagestore.ErrEmptyContent) ||
		errors.Is(err, messagestore.ErrTooLong) ||
		errors.Is(err, messagestore.ErrSelf)
}

func sendErrorMessage(err error) string {
	switch {
	case errors.Is(err, messagestore.ErrEmptyContent):
		return "Message is empty"
	case errors.Is(err, messagestore.ErrTooLong):
		return "Message is too long"
	case errors.Is(err, messagestore.ErrSelf):
		return "You cannot message yourself"
	default:
		return "Message not sent"
	}
}
