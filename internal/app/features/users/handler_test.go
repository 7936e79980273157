package users_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/shelterhub/internal/app/features/users"
	"github.com/dalemusser/shelterhub/internal/app/system/indexes"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/shelterhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*users.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	return users.NewHandler(db, nil, zap.NewNop()), db
}

func TestCreate(t *testing.T) {
	h, _ := newTestHandler(t)
	admin := testutil.AdminUser()

	valid := map[string]string{
		"nom": "Alaoui", "prenom": "Yassine", "email": "Yassine@Shelter.test",
		"password": "long-enough-1", "role": "staff",
	}

	rec := testutil.NewRecorder()
	h.Create(rec, testutil.NewJSONRequest(t, "POST", "/api/users", valid, admin))
	rec.AssertStatus(t, http.StatusCreated)
	var u models.User
	rec.Decode(t, &u)
	if u.Email != "yassine@shelter.test" || u.Status != models.UserActive {
		t.Errorf("created = %+v", u)
	}
	rec.AssertNotContains(t, "passwordHash")

	rec = testutil.NewRecorder()
	h.Create(rec, testutil.NewJSONRequest(t, "POST", "/api/users", valid, admin))
	rec.AssertStatus(t, http.StatusConflict)

	bad := map[string]string{"nom": "X", "prenom": "Y", "email": "z@shelter.test", "password": "short", "role": "janitor"}
	rec = testutil.NewRecorder()
	h.Create(rec, testutil.NewJSONRequest(t, "POST", "/api/users", bad, admin))
	rec.AssertStatus(t, http.StatusBadRequest)
	env := rec.Decode(t, nil)
	if _, ok := env.Errors["password"]; !ok {
		t.Errorf("errors = %v, want password", env.Errors)
	}
	if _, ok := env.Errors["role"]; !ok {
		t.Errorf("errors = %v, want role", env.Errors)
	}
}

func TestList(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fixtures.CreateUser(ctx, "Amina", "Idrissi", "amina@shelter.test", models.RoleMedical)
	fixtures.CreateUser(ctx, "Karim", "Bennani", "karim@shelter.test", models.RoleStaff)
	fixtures.CreateUser(ctx, "Kenza", "Amrani", "kenza@shelter.test", models.RoleStaff)

	tests := []struct {
		target string
		want   int64
	}{
		{"/api/users", 3},
		{"/api/users?role=staff", 2},
		{"/api/users?search=ke", 1},
		{"/api/users?search=amina@", 1},
		{"/api/users?status=disabled", 0},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.List(rec, testutil.NewAuthenticatedRequest("GET", tt.target, testutil.AdminUser()))
			rec.AssertStatus(t, http.StatusOK)
			env := rec.Decode(t, nil)
			if env.Pagination == nil || env.Pagination.Total != tt.want {
				t.Errorf("pagination = %+v, want total %d", env.Pagination, tt.want)
			}
		})
	}
}

func TestGet_NotFoundAndBadID(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := testutil.NewRecorder()
	req := testutil.NewAuthenticatedRequest("GET", "/api/users/x", testutil.AdminUser())
	h.Get(rec, testutil.WithChiURLParam(req, "id", "not-an-id"))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = testutil.NewRecorder()
	req = testutil.NewAuthenticatedRequest("GET", "/api/users/x", testutil.AdminUser())
	h.Get(rec, testutil.WithChiURLParam(req, "id", primitive.NewObjectID().Hex()))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestDelete_Guards(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	onlyAdmin := fixtures.CreateAdmin(ctx, "boss@shelter.test")
	staff := fixtures.CreateUser(ctx, "Omar", "Tazi", "omar@shelter.test", models.RoleStaff)
	other := testutil.AdminUser()

	del := func(actor testutil.TestUser, id primitive.ObjectID) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		req := testutil.NewAuthenticatedRequest("DELETE", "/api/users/"+id.Hex(), actor)
		h.Delete(rec, testutil.WithChiURLParam(req, "id", id.Hex()))
		return rec
	}

	del(testutil.AsTestUser(onlyAdmin), onlyAdmin.ID).AssertStatus(t, http.StatusBadRequest)
	del(other, onlyAdmin.ID).AssertStatus(t, http.StatusConflict)
	del(other, staff.ID).AssertStatus(t, http.StatusOK)
	del(other, staff.ID).AssertStatus(t, http.StatusNotFound)
}

func TestSetStatus(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fixtures.CreateAdmin(ctx, "boss@shelter.test")
	staff := fixtures.CreateUser(ctx, "Sara", "Lahlou", "sara@shelter.test", models.RoleStaff)

	rec := testutil.NewRecorder()
	req := testutil.NewJSONRequest(t, "PATCH", "/x", map[string]string{"status": "disabled"}, testutil.AdminUser())
	h.SetStatus(rec, testutil.WithChiURLParam(req, "id", staff.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	got, _ := h.Store.GetByID(ctx, staff.ID)
	if got.Status != models.UserDisabled {
		t.Errorf("status = %q, want disabled", got.Status)
	}

	self := testutil.AsTestUser(staff)
	rec = testutil.NewRecorder()
	req = testutil.NewJSONRequest(t, "PATCH", "/x", map[string]string{"status": "disabled"}, self)
	h.SetStatus(rec, testutil.WithChiURLParam(req, "id", staff.ID.Hex()))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestUpdate(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fixtures.CreateUser(ctx, "Nadia", "Kettani", "nadia@shelter.test", models.RoleStaff)

	body := map[string]string{"nom": "Kettani", "prenom": "Nadia", "email": "nadia@shelter.test", "role": "manager", "poste": "Coordination"}
	rec := testutil.NewRecorder()
	req := testutil.NewJSONRequest(t, "PUT", "/x", body, testutil.AdminUser())
	h.Update(rec, testutil.WithChiURLParam(req, "id", u.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	var out models.User
	rec.Decode(t, &out)
	if out.Role != models.RoleManager || out.Poste != "Coordination" {
		t.Errorf("updated = %+v", out)
	}
}
