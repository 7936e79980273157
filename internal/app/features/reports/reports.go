// internal/app/features/reports/reports.go
package reports

import (
	"net/http"
	"time"

	attendancestore "github.com/dalemusser/shelterhub/internal/app/store/attendance"
	distributionstore "github.com/dalemusser/shelterhub/internal/app/store/distributions"
	metricsstore "github.com/dalemusser/shelterhub/internal/app/store/metrics"
	"github.com/dalemusser/shelterhub/internal/app/system/dates"
	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/dalemusser/shelterhub/internal/app/system/timeouts"
)

// reportRange reads from/to and defaults to the current month.
func reportRange(r *http.Request) (dates.Range, error) {
	rng, err := dates.ParseRange(r)
	if err != nil {
		return rng, err
	}
	if rng.IsZero() {
		from := dates.MonthStart(time.Now())
		to := from.AddDate(0, 1, 0)
		rng = dates.Range{From: &from, To: &to}
	}
	return rng, nil
}

// Overview handles GET /api/reports/overview.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "reports overview")
	defer cancel()
	httpx.OK(w, metricsstore.FetchOverview(ctx, h.DB, time.Now().UTC()))
}

type distributionReport struct {
	ByType []distributionstore.TypeTotal `json:"byType"`
	ByDay  []distributionstore.DayTotal  `json:"byDay"`
	Total  int64                         `json:"total"`
}

func (h *Handler) distributionReport(r *http.Request) (distributionReport, error) {
	rng, err := reportRange(r)
	if err != nil {
		return distributionReport{}, errBadRange
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "reports distributions")
	defer cancel()

	byType, byDay, err := h.DistributionStore.Totals(ctx, rng)
	if err != nil {
		return distributionReport{}, err
	}
	out := distributionReport{ByType: byType, ByDay: byDay}
	if out.ByType == nil {
		out.ByType = []distributionstore.TypeTotal{}
	}
	if out.ByDay == nil {
		out.ByDay = []distributionstore.DayTotal{}
	}
	for _, t := range byType {
		out.Total += t.Count
	}
	return out, nil
}

// Distributions handles GET /api/reports/distributions?from=&to=.
func (h *Handler) Distributions(w http.ResponseWriter, r *http.Request) {
	rep, err := h.distributionReport(r)
	if err != nil {
		h.reportError(w, r, err, "distribution report failed")
		return
	}
	httpx.OK(w, rep)
}

func (h *Handler) attendanceDays(r *http.Request) ([]attendancestore.DaySummary, error) {
	rng, err := reportRange(r)
	if err != nil {
		return nil, errBadRange
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "reports attendance")
	defer cancel()

	days, err := h.Attendance.Summary(ctx, rng)
	if err != nil {
		return nil, err
	}
	if days == nil {
		days = []attendancestore.DaySummary{}
	}
	return days, nil
}

// AttendanceReport handles GET /api/reports/attendance?from=&to=.
func (h *Handler) AttendanceReport(w http.ResponseWriter, r *http.Request) {
	days, err := h.attendanceDays(r)
	if err != nil {
		h.reportError(w, r, err, "attendance report failed")
		return
	}
	httpx.OK(w, days)
}

// BeneficiariesReport handles GET /api/reports/beneficiaries.
func (h *Handler) BeneficiariesReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "reports beneficiaries")
	defer cancel()

	stats, err := h.Beneficiaries.Stats(ctx, time.Now().UTC())
	if err != nil {
		httpx.ServerError(w, r, h.Log, "beneficiary report failed", err)
		return
	}
	httpx.OK(w, stats)
}

type stockCounts struct {
	ByStatut    map[string]int64 `json:"byStatut"`
	ByCategorie map[string]int64 `json:"byCategorie"`
}

// Stock handles GET /api/reports/stock. Medications are grouped by forme
// under byCategorie.
func (h *Handler) Stock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "reports stock")
	defer cancel()

	var food, meds stockCounts
	var err error
	if food.ByStatut, err = h.Food.CountBy(ctx, "statut"); err == nil {
		if food.ByCategorie, err = h.Food.CountBy(ctx, "categorie"); err == nil {
			if meds.ByStatut, err = h.Medications.CountBy(ctx, "statut"); err == nil {
				meds.ByCategorie, err = h.Medications.CountBy(ctx, "forme")
			}
		}
	}
	if err != nil {
		httpx.ServerError(w, r, h.Log, "stock report failed", err)
		return
	}
	httpx.OK(w, map[string]stockCounts{"food": food, "medications": meds})
}
