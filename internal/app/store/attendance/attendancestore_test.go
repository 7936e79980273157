package attendancestore_test

import (
	"testing"
	"time"

	attendancestore "github.com/dalemusser/shelterhub/internal/app/store/attendance"
	"github.com/dalemusser/shelterhub/internal/app/system/dates"
	"github.com/dalemusser/shelterhub/internal/app/system/indexes"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/shelterhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Upsert_OnePerDay(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := attendancestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	ben := primitive.NewObjectID()
	morning := time.Date(2026, 2, 3, 8, 15, 0, 0, time.UTC)
	evening := time.Date(2026, 2, 3, 20, 45, 0, 0, time.UTC)

	first, err := store.Upsert(ctx, models.Attendance{Beneficiaire: ben, Date: morning, Statut: models.AttendancePresent, Repas: models.Meals{PetitDejeuner: true}})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if !first.Date.Equal(time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v, want midnight UTC", first.Date)
	}

	second, err := store.Upsert(ctx, models.Attendance{Beneficiaire: ben, Date: evening, Statut: models.AttendancePresent, Repas: models.Meals{PetitDejeuner: true, Diner: true}})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Error("expected the same record to be updated")
	}
	if !second.Repas.Diner || second.CreatedAt.IsZero() {
		t.Errorf("second = %+v", second)
	}

	n, _ := db.Collection("attendance").CountDocuments(ctx, bson.M{"beneficiaire": ben})
	if n != 1 {
		t.Errorf("records = %d, want 1", n)
	}
}

func TestStore_BulkMarkAndSummary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := attendancestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	day := time.Date(2026, 2, 4, 10, 0, 0, 0, time.UTC)
	a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	rows := []models.Attendance{
		{Beneficiaire: a, Statut: models.AttendancePresent, Repas: models.Meals{Dejeuner: true}},
		{Beneficiaire: b, Statut: models.AttendancePresent, Repas: models.Meals{Dejeuner: true, Diner: true}},
		{Beneficiaire: c, Statut: models.AttendanceAbsent},
	}
	ins, upd, err := store.BulkMark(ctx, day, rows)
	if err != nil {
		t.Fatalf("BulkMark: %v", err)
	}
	if ins != 3 || upd != 0 {
		t.Errorf("inserted=%d updated=%d", ins, upd)
	}

	rows[2].Statut = models.AttendanceExcuse
	ins, upd, err = store.BulkMark(ctx, day, rows[2:])
	if err != nil || ins != 0 || upd != 1 {
		t.Errorf("re-mark: inserted=%d updated=%d err=%v", ins, upd, err)
	}

	from := dates.Day(day)
	to := from.AddDate(0, 0, 1)
	sum, err := store.Summary(ctx, dates.Range{From: &from, To: &to})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(sum) != 1 {
		t.Fatalf("summary rows = %d", len(sum))
	}
	s := sum[0]
	if s.Day != "2026-02-04" || s.Present != 2 || s.Absent != 0 || s.Excuse != 1 || s.Dejeuner != 2 || s.Diner != 1 {
		t.Errorf("summary = %+v", s)
	}

	list, err := store.List(ctx, attendancestore.ListFilter{Statut: models.AttendancePresent})
	if err != nil || len(list) != 2 {
		t.Errorf("List = %d, %v", len(list), err)
	}
}
