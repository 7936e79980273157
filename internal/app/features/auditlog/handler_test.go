package auditlog_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/features/auditlog"
	"github.com/dalemusser/shelterhub/internal/app/store/audit"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/shelterhub/internal/testutil"
	"go.uber.org/zap"
)

func TestList_FiltersAndRefs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := auditlog.NewHandler(db, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "admin@test.com")
	worker := fixtures.CreateUser(ctx, "Nadia", "Bennani", "nadia@test.com", models.RoleSocialWorker)

	old := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	for _, e := range []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, UserID: &worker.ID, Success: true, Timestamp: old},
		{Category: audit.CategoryAuth, EventType: audit.EventLoginFailedWrongPassword, UserID: &worker.ID},
		{Category: audit.CategoryAdmin, EventType: audit.EventUserUpdated, UserID: &worker.ID, ActorID: &admin.ID, Success: true},
	} {
		if err := h.Store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	tests := []struct {
		name  string
		url   string
		total int64
	}{
		{"all", "/api/audit", 3},
		{"by category", "/api/audit?category=admin", 1},
		{"by event type", "/api/audit?eventType=login_success", 1},
		{"by actor", "/api/audit?actor=" + admin.ID.Hex(), 1},
		{"by range", "/api/audit?from=2026-02-01", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.List(rec, testutil.NewAuthenticatedRequest("GET", tt.url, testutil.AdminUser()))
			rec.AssertStatus(t, http.StatusOK)
			env := rec.Decode(t, nil)
			if env.Pagination == nil || env.Pagination.Total != tt.total {
				t.Errorf("pagination = %+v, want total %d", env.Pagination, tt.total)
			}
		})
	}

	rec := testutil.NewRecorder()
	h.List(rec, testutil.NewAuthenticatedRequest("GET", "/api/audit?category=admin", testutil.AdminUser()))
	rec.AssertContains(t, `"nom":"Bennani"`)
	rec.AssertContains(t, `"actorRef"`)

	rec = testutil.NewRecorder()
	h.List(rec, testutil.NewAuthenticatedRequest("GET", "/api/audit?user=nope", testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestRoutes_AdminOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := auditlog.Routes(auditlog.NewHandler(db, zap.NewNop()))

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/", testutil.ManagerUser()))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/", testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)
}
