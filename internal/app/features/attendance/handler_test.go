package attendance_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/shelterhub/internal/app/features/attendance"
	attendancestore "github.com/dalemusser/shelterhub/internal/app/store/attendance"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/shelterhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestMark_Upserts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := attendance.NewHandler(db, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	b := fixtures.CreateBeneficiary(ctx, "B-1", "Hamid", "Saidi")

	mark := func(body map[string]any) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		h.Mark(rec, testutil.NewJSONRequest(t, "POST", "/api/attendance", body, testutil.StaffUser()))
		return rec
	}

	mark(map[string]any{
		"beneficiaire": b.ID.Hex(), "date": "2026-03-02", "statut": "present",
		"repas": map[string]bool{"dejeuner": true},
	}).AssertStatus(t, http.StatusOK)

	rec := mark(map[string]any{
		"beneficiaire": b.ID.Hex(), "date": "2026-03-02", "statut": "excuse", "notes": "Rendez-vous",
	})
	rec.AssertStatus(t, http.StatusOK)
	var a models.Attendance
	rec.Decode(t, &a)
	if a.Statut != models.AttendanceExcuse || a.Repas.Dejeuner {
		t.Errorf("upserted = %+v", a)
	}

	rows, err := h.Store.List(ctx, attendancestore.ListFilter{Beneficiaire: &b.ID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}

	mark(map[string]any{"beneficiaire": b.ID.Hex(), "statut": "parti"}).AssertStatus(t, http.StatusBadRequest)
	mark(map[string]any{"beneficiaire": primitive.NewObjectID().Hex(), "statut": "present"}).AssertStatus(t, http.StatusNotFound)
}

func TestBulkListSummary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := attendance.NewHandler(db, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	b1 := fixtures.CreateBeneficiary(ctx, "B-1", "Hamid", "Saidi")
	b2 := fixtures.CreateBeneficiary(ctx, "B-2", "Fatima", "Zahraoui")

	bulk := func(body map[string]any) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		h.Bulk(rec, testutil.NewJSONRequest(t, "POST", "/api/attendance/bulk", body, testutil.StaffUser()))
		return rec
	}

	rec := bulk(map[string]any{
		"date": "2026-03-02",
		"records": []map[string]any{
			{"beneficiaire": b1.ID.Hex(), "statut": "present", "repas": map[string]bool{"petitDejeuner": true, "diner": true}},
			{"beneficiaire": b2.ID.Hex(), "statut": "absent"},
		},
	})
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"inserted":2`)

	rec = bulk(map[string]any{
		"date": "2026-03-02",
		"records": []map[string]any{
			{"beneficiaire": b2.ID.Hex(), "statut": "present", "repas": map[string]bool{"dejeuner": true}},
		},
	})
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"updated":1`)

	cases := []struct {
		name    string
		records []map[string]any
	}{
		{"empty", []map[string]any{}},
		{"bad statut", []map[string]any{{"beneficiaire": b1.ID.Hex(), "statut": "?"}}},
		{"duplicate", []map[string]any{
			{"beneficiaire": b1.ID.Hex(), "statut": "present"},
			{"beneficiaire": b1.ID.Hex(), "statut": "absent"},
		}},
		{"unknown", []map[string]any{{"beneficiaire": primitive.NewObjectID().Hex(), "statut": "present"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bulk(map[string]any{"date": "2026-03-02", "records": tc.records}).AssertStatus(t, http.StatusBadRequest)
		})
	}

	rec = testutil.NewRecorder()
	h.List(rec, testutil.NewAuthenticatedRequest("GET", "/api/attendance?date=2026-03-02&statut=present", testutil.StaffUser()))
	rec.AssertStatus(t, http.StatusOK)
	var rows []models.Attendance
	rec.Decode(t, &rows)
	if len(rows) != 2 {
		t.Errorf("present rows = %d, want 2", len(rows))
	}

	rec = testutil.NewRecorder()
	h.Summary(rec, testutil.NewAuthenticatedRequest("GET", "/api/attendance/summary?from=2026-03-01&to=2026-03-31", testutil.StaffUser()))
	rec.AssertStatus(t, http.StatusOK)
	var days []attendancestore.DaySummary
	rec.Decode(t, &days)
	if len(days) != 1 {
		t.Fatalf("days = %d, want 1", len(days))
	}
	d := days[0]
	if d.Present != 2 || d.Absent != 0 || d.PetitDejeuner != 1 || d.Dejeuner != 1 || d.Diner != 1 {
		t.Errorf("summary = %+v", d)
	}
	if d.Day != "2026-03-02" {
		t.Errorf("day = %v", d.Day)
	}

	rec = testutil.NewRecorder()
	req := testutil.NewAuthenticatedRequest("DELETE", "/api/attendance/x", testutil.ManagerUser())
	h.Delete(rec, testutil.WithChiURLParam(req, "id", rows[0].ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	h.Delete(rec, testutil.WithChiURLParam(req, "id", rows[0].ID.Hex()))
	rec.AssertStatus(t, http.StatusNotFound)
}
