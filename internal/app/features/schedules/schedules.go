// internal/app/features/schedules/schedules.go
package schedules

import (
	"context"
	"net/http"

	schedulestore "github.com/dalemusser/shelterhub/internal/app/store/schedules"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/dalemusser/shelterhub/internal/app/system/dates"
	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/dalemusser/shelterhub/internal/app/system/timeouts"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// shiftHours are the default hours of each shift.
var shiftHours = map[string][2]string{
	"matin":      {"07:00", "15:00"},
	"apres_midi": {"15:00", "23:00"},
	"nuit":       {"23:00", "07:00"},
	"journee":    {"09:00", "17:00"},
}

type scheduleView struct {
	models.Schedule
	UserRef *models.UserRef `json:"userRef,omitempty"`
}

func (h *Handler) populate(ctx context.Context, rows []models.Schedule) []scheduleView {
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, sc := range rows {
		ids = append(ids, sc.User)
	}
	refs, err := h.Users.Refs(ctx, ids)
	if err != nil {
		h.Log.Warn("populate users failed", zap.Error(err))
	}
	out := make([]scheduleView, 0, len(rows))
	for _, sc := range rows {
		v := scheduleView{Schedule: sc}
		if ref, ok := refs[sc.User]; ok {
			v.UserRef = &ref
		}
		out = append(out, v)
	}
	return out
}

// weekRange is the default window: today and the six days after.
func weekRange() dates.Range {
	from := dates.Today()
	to := from.AddDate(0, 0, 7)
	return dates.Range{From: &from, To: &to}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, f schedulestore.ListFilter) {
	rng, err := dates.ParseRange(r)
	if err != nil {
		httpx.BadRequest(w, "Invalid date range")
		return
	}
	if rng.IsZero() {
		rng = weekRange()
	}
	f.Range = rng
	f.Shift = query.Get(r, "shift")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "schedules list")
	defer cancel()

	rows, err := h.Store.List(ctx, f)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "list schedules failed", err)
		return
	}
	httpx.OK(w, h.populate(ctx, rows))
}

// List handles GET /api/schedules?from=&to=&user=&shift=. Without a range
// it returns the coming week.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	uid, err := httpx.ParseObjectID(query.Get(r, "user"))
	if err != nil {
		httpx.BadRequest(w, "Invalid user")
		return
	}
	h.list(w, r, schedulestore.ListFilter{User: uid})
}

// Mine handles GET /api/schedules/mine?from=&to=.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, schedulestore.ListFilter{User: authz.UserIDPtr(r)})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "schedule get")
	defer cancel()

	sc, err := h.Store.GetByID(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Schedule not found")
		return
	}
	httpx.OK(w, h.populate(ctx, []models.Schedule{*sc})[0])
}

type scheduleInput struct {
	User      string      `json:"user" validate:"required,objectid" label:"User"`
	Date      *dates.Time `json:"date" validate:"required" label:"Date"`
	Shift     string      `json:"shift" validate:"required,oneof=matin apres_midi nuit journee" label:"Shift"`
	StartTime string      `json:"startTime" validate:"omitempty,hhmm" label:"Start time"`
	EndTime   string      `json:"endTime" validate:"omitempty,hhmm" label:"End time"`
	Poste     string      `json:"poste" validate:"max=100"`
	Notes     string      `json:"notes" validate:"max=1000"`
}

// model fills unset hours from the shift. It reports false when start and
// end are equal.
func (in scheduleInput) model() (models.Schedule, bool) {
	uid, _ := primitive.ObjectIDFromHex(in.User)
	sc := models.Schedule{
		User:      uid,
		Date:      in.Date.Or(dates.Today()),
		Shift:     in.Shift,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Poste:     in.Poste,
		Notes:     in.Notes,
	}
	hours := shiftHours[in.Shift]
	if sc.StartTime == "" {
		sc.StartTime = hours[0]
	}
	if sc.EndTime == "" {
		sc.EndTime = hours[1]
	}
	return sc, sc.StartTime != sc.EndTime
}

// bindSchedule decodes the body and checks the user exists. It writes the
// response and returns false on failure.
func (h *Handler) bindSchedule(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Schedule, bool) {
	var in scheduleInput
	if !httpx.Bind(w, r, &in) {
		return models.Schedule{}, false
	}
	sc, ok := in.model()
	if !ok {
		httpx.BadRequest(w, "startTime and endTime must differ")
		return sc, false
	}
	refs, err := h.Users.Refs(ctx, []primitive.ObjectID{sc.User})
	if err != nil {
		httpx.ServerError(w, r, h.Log, "check user failed", err)
		return sc, false
	}
	if _, found := refs[sc.User]; !found {
		httpx.NotFound(w, "User not found")
		return sc, false
	}
	return sc, true
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "schedule create")
	defer cancel()

	sc, ok := h.bindSchedule(ctx, w, r)
	if !ok {
		return
	}
	sc.CreatedBy = authz.UserIDPtr(r)
	out, err := h.Store.Create(ctx, sc)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "create schedule failed", err)
		return
	}
	httpx.Created(w, h.populate(ctx, []models.Schedule{out})[0])
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "schedule update")
	defer cancel()

	sc, ok := h.bindSchedule(ctx, w, r)
	if !ok {
		return
	}
	if err := h.Store.Update(ctx, id, sc); err != nil {
		httpx.StoreError(w, r, h.Log, err, "Schedule not found")
		return
	}
	out, err := h.Store.GetByID(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Schedule not found")
		return
	}
	httpx.OK(w, h.populate(ctx, []models.Schedule{*out})[0])
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "schedule delete")
	defer cancel()

	n, err := h.Store.Delete(ctx, id)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "delete schedule failed", err)
		return
	}
	if n == 0 {
		httpx.NotFound(w, "Schedule not found")
		return
	}
	httpx.Message(w, "Schedule deleted")
}
