// internal/app/features/reports/export.go
package reports

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

var errBadRange = errors.New("invalid date range")

func (h *Handler) reportError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, errBadRange) {
		httpx.BadRequest(w, "Invalid date range")
		return
	}
	httpx.ServerError(w, r, h.Log, msg, err)
}

// startCSV writes the download headers and a UTF-8 BOM so spreadsheet
// programs detect the encoding.
func startCSV(w http.ResponseWriter, r *http.Request, def string) *csv.Writer {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(csvFilename(r, def))))
	_, _ = w.Write([]byte{0xEF, 0xBB, 0xBF})
	return csv.NewWriter(w)
}

// csvFilename returns a sanitized name from ?filename=, or def.
func csvFilename(r *http.Request, def string) string {
	name := strings.TrimSpace(query.Get(r, "filename"))
	if name == "" {
		return def
	}
	name = strings.Map(func(c rune) rune {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
			return c
		}
		return '_'
	}, name)
	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		name += ".csv"
	}
	return name
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

// DistributionsCSV handles GET /api/reports/distributions.csv?from=&to=:
// one row per day, then one row per type.
func (h *Handler) DistributionsCSV(w http.ResponseWriter, r *http.Request) {
	rep, err := h.distributionReport(r)
	if err != nil {
		h.reportError(w, r, err, "distribution export failed")
		return
	}
	cw := startCSV(w, r, "distributions.csv")
	defer cw.Flush()

	_ = cw.Write([]string{"jour", "distributions"})
	for _, d := range rep.ByDay {
		_ = cw.Write([]string{d.Day, itoa(d.Count)})
	}
	_ = cw.Write(nil)
	_ = cw.Write([]string{"type", "distributions", "quantite"})
	for _, t := range rep.ByType {
		_ = cw.Write([]string{t.Type, itoa(t.Count), strconv.FormatFloat(t.Quantite, 'f', -1, 64)})
	}
	if err := cw.Error(); err != nil {
		h.Log.Warn("write distributions csv", zap.Error(err))
	}
}

// AttendanceCSV handles GET /api/reports/attendance.csv?from=&to=.
func (h *Handler) AttendanceCSV(w http.ResponseWriter, r *http.Request) {
	days, err := h.attendanceDays(r)
	if err != nil {
		h.reportError(w, r, err, "attendance export failed")
		return
	}
	cw := startCSV(w, r, "presences.csv")
	defer cw.Flush()

	_ = cw.Write([]string{"jour", "present", "absent", "excuse", "petit_dejeuner", "dejeuner", "diner"})
	for _, d := range days {
		_ = cw.Write([]string{
			d.Day, itoa(d.Present), itoa(d.Absent), itoa(d.Excuse),
			itoa(d.PetitDejeuner), itoa(d.Dejeuner), itoa(d.Diner),
		})
	}
	if err := cw.Error(); err != nil {
		h.Log.Warn("write attendance csv", zap.Error(err))
	}
}
