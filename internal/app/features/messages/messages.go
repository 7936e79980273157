// internal/app/features/messages/messages.go
package messages

import (
	"errors"
	"net/http"

	messagestore "github.com/dalemusser/shelterhub/internal/app/store/messages"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type conversationView struct {
	messagestore.Conversation
	Online bool `json:"online"`
}

// Conversations handles GET /api/messages/conversations: one row per peer
// with the last message and the unread count, most recent first.
func (h *Handler) Conversations(w http.ResponseWriter, r *http.Request) {
	me := authz.UserID(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "conversations")
	defer cancel()

	convs, err := h.Store.Conversations(ctx, me)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "list conversations failed", err)
		return
	}
	ids := make([]primitive.ObjectID, 0, len(convs))
	for _, c := range convs {
		ids = append(ids, c.Peer)
	}
	refs, err := h.Users.Refs(ctx, ids)
	if err != nil {
		h.Log.Warn("populate peers failed", zap.Error(err))
	}

	out := make([]conversationView, 0, len(convs))
	for _, c := range convs {
		if ref, ok := refs[c.Peer]; ok {
			c.PeerName = ref.Prenom + " " + ref.Nom
		}
		out = append(out, conversationView{Conversation: c, Online: h.Hub.IsOnline(c.Peer)})
	}
	httpx.OK(w, out)
}

// Thread handles GET /api/messages/thread/{userId}: the conversation with
// one user, newest first, paged.
func (h *Handler) Thread(w http.ResponseWriter, r *http.Request) {
	peer, ok := httpx.IDParam(w, r, "userId")
	if !ok {
		return
	}
	p := paging.Parse(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "message thread")
	defer cancel()

	rows, total, err := h.Store.Thread(ctx, authz.UserID(r), peer, p)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "load thread failed", err)
		return
	}
	httpx.List(w, rows, paging.New(p, total))
}

type sendInput struct {
	To      string `json:"to" validate:"required,objectid" label:"Recipient"`
	Content string `json:"content" validate:"required,notblank,max=4000" label:"Message"`
}

// Send handles POST /api/messages {to, content}. The stored message is
// relayed to connected clients of both users.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var in sendInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	to, _ := primitive.ObjectIDFromHex(in.To)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "message send")
	defer cancel()

	refs, err := h.Users.Refs(ctx, []primitive.ObjectID{to})
	if err != nil {
		httpx.ServerError(w, r, h.Log, "check recipient failed", err)
		return
	}
	if _, found := refs[to]; !found {
		httpx.NotFound(w, "Recipient not found")
		return
	}

	m, err := h.Store.Send(ctx, authz.UserID(r), to, in.Content)
	switch {
	case errors.Is(err, messagestore.ErrEmptyContent), errors.Is(err, messagestore.ErrTooLong), errors.Is(err, messagestore.ErrSelf):
		httpx.BadRequest(w, sendErrorMessage(err))
		return
	case err != nil:
		httpx.ServerError(w, r, h.Log, "send message failed", err)
		return
	}
	h.Hub.Deliver(m)
	httpx.Created(w, m)
}

// MarkRead handles PUT /api/messages/thread/{userId}/read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	peer, ok := httpx.IDParam(w, r, "userId")
	if !ok {
		return
	}
	me := authz.UserID(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "message mark read")
	defer cancel()

	n, err := h.Store.MarkThreadRead(ctx, me, peer)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "mark read failed", err)
		return
	}
	if n > 0 {
		h.Hub.NotifyRead(me, peer, n)
	}
	httpx.OK(w, map[string]int64{"updated": n})
}

// Unread handles GET /api/messages/unread.
func (h *Handler) Unread(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "message unread")
	defer cancel()

	n, err := h.Store.UnreadCount(ctx, authz.UserID(r))
	if err != nil {
		httpx.ServerError(w, r, h.Log, "unread count failed", err)
		return
	}
	httpx.OK(w, map[string]int64{"count": n})
}

// OnlineUsers handles GET /api/messages/online.
func (h *Handler) OnlineUsers(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, map[string][]string{"users": h.Hub.Online()})
}
