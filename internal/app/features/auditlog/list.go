// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strings"

	"github.com/dalemusser/shelterhub/internal/app/store/audit"
	"github.com/dalemusser/shelterhub/internal/app/system/dates"
	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/app/system/timeouts"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// eventView adds the names of the affected user and the actor.
type eventView struct {
	audit.Event
	UserRef  *models.UserRef `json:"userRef,omitempty"`
	ActorRef *models.UserRef `json:"actorRef,omitempty"`
}

// List handles GET /api/audit?category=&eventType=&user=&actor=&from=&to=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.ParseObjectID(query.Get(r, "user"))
	if err != nil {
		httpx.BadRequest(w, "Invalid user id")
		return
	}
	actorID, err := httpx.ParseObjectID(query.Get(r, "actor"))
	if err != nil {
		httpx.BadRequest(w, "Invalid actor id")
		return
	}
	rng, err := dates.ParseRange(r)
	if err != nil {
		httpx.BadRequest(w, "Invalid date range")
		return
	}
	category := strings.TrimSpace(query.Get(r, "category"))
	if category != "" && category != audit.CategoryAuth && category != audit.CategoryAdmin {
		httpx.BadRequest(w, "Unknown category")
		return
	}

	filter := audit.QueryFilter{
		UserID:    userID,
		ActorID:   actorID,
		Category:  category,
		EventType: strings.TrimSpace(query.Get(r, "eventType")),
		Range:     rng,
	}
	p := paging.Parse(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	total, err := h.Store.CountByFilter(ctx, filter)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "count audit events failed", err)
		return
	}
	events, err := h.Store.Query(ctx, filter, p)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "query audit events failed", err)
		return
	}

	var ids []primitive.ObjectID
	for _, e := range events {
		if e.UserID != nil {
			ids = append(ids, *e.UserID)
		}
		if e.ActorID != nil {
			ids = append(ids, *e.ActorID)
		}
	}
	refs, err := h.Users.Refs(ctx, ids)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "load audit users failed", err)
		return
	}
	ref := func(id *primitive.ObjectID) *models.UserRef {
		if id == nil {
			return nil
		}
		if u, ok := refs[*id]; ok {
			return &u
		}
		return nil
	}

	rows := make([]eventView, 0, len(events))
	for _, e := range events {
		rows = append(rows, eventView{Event: e, UserRef: ref(e.UserID), ActorRef: ref(e.ActorID)})
	}
	httpx.List(w, rows, paging.New(p, total))
}
