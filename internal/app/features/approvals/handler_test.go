package approvals_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/shelterhub/internal/app/features/approvals"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/shelterhub/internal/testutil"
	"go.uber.org/zap"
)

func put(t *testing.T, h http.HandlerFunc, id string, body any, user testutil.TestUser) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	var req *http.Request
	if body == nil {
		req = testutil.NewAuthenticatedRequest("PUT", "/api/approvals/x", user)
	} else {
		req = testutil.NewJSONRequest(t, "PUT", "/api/approvals/x", body, user)
	}
	h(rec, testutil.WithChiURLParam(req, "id", id))
	return rec
}

func TestCreateAndVisibility(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := approvals.NewHandler(db, nil, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := testutil.AsTestUser(fixtures.CreateUser(ctx, "Alice", "Martin", "alice@test.com", models.RoleSocialWorker))
	bob := testutil.AsTestUser(fixtures.CreateUser(ctx, "Bob", "Karimi", "bob@test.com", models.RoleStaff))
	b := fixtures.CreateBeneficiary(ctx, "B-1", "Hamid", "Saidi")

	create := func(body map[string]any, user testutil.TestUser) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		h.Create(rec, testutil.NewJSONRequest(t, "POST", "/api/approvals", body, user))
		return rec
	}

	rec := create(map[string]any{
		"type": "achat", "title": "Chaussures d'hiver", "beneficiaire": b.ID.Hex(), "montant": 350.5,
	}, alice)
	rec.AssertStatus(t, http.StatusCreated)
	var a models.ApprovalRequest
	rec.Decode(t, &a)
	if a.Status != models.ApprovalPending || a.RequestedBy.Hex() != alice.ID {
		t.Errorf("created = %+v", a)
	}
	create(map[string]any{"type": "transfert", "title": "Transfert Agadir"}, bob).AssertStatus(t, http.StatusCreated)

	create(map[string]any{"type": "voyage", "title": "x"}, bob).AssertStatus(t, http.StatusBadRequest)
	create(map[string]any{"type": "achat", "title": "x", "montant": -1}, bob).AssertStatus(t, http.StatusBadRequest)

	list := func(user testutil.TestUser, target string) int64 {
		rec := testutil.NewRecorder()
		h.List(rec, testutil.NewAuthenticatedRequest("GET", target, user))
		rec.AssertStatus(t, http.StatusOK)
		return rec.Decode(t, nil).Pagination.Total
	}
	if n := list(bob, "/api/approvals"); n != 1 {
		t.Errorf("bob sees %d, want 1", n)
	}
	if n := list(testutil.ManagerUser(), "/api/approvals"); n != 2 {
		t.Errorf("manager sees %d, want 2", n)
	}
	if n := list(testutil.ManagerUser(), "/api/approvals?type=achat"); n != 1 {
		t.Errorf("manager achat = %d, want 1", n)
	}

	get := func(user testutil.TestUser) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		req := testutil.NewAuthenticatedRequest("GET", "/api/approvals/x", user)
		h.Get(rec, testutil.WithChiURLParam(req, "id", a.ID.Hex()))
		return rec
	}
	rec = get(alice)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"requestedByRef":{"id":"`+alice.ID+`","nom":"Martin","prenom":"Alice"`)
	rec.AssertContains(t, `"numeroDossier":"B-1"`)
	get(bob).AssertStatus(t, http.StatusForbidden)
}

func TestDecisions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := approvals.NewHandler(db, nil, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	staff := testutil.StaffUser()
	manager := testutil.ManagerUser()
	newRequest := func() string {
		a, err := h.Store.Create(ctx, models.ApprovalRequest{
			Type: "autre", Title: "Demande", RequestedBy: staff.ObjectID(),
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		return a.ID.Hex()
	}

	id := newRequest()
	put(t, h.Reject, id, map[string]any{"comment": "  "}, manager).AssertStatus(t, http.StatusBadRequest)
	put(t, h.Reject, id, nil, manager).AssertStatus(t, http.StatusBadRequest)

	rec := put(t, h.Reject, id, map[string]any{"comment": "Budget épuisé"}, manager)
	rec.AssertStatus(t, http.StatusOK)
	var a models.ApprovalRequest
	rec.Decode(t, &a)
	if a.Status != models.ApprovalRejected || a.ReviewComment != "Budget épuisé" || a.ReviewedAt == nil {
		t.Errorf("rejected = %+v", a)
	}
	put(t, h.Approve, id, nil, manager).AssertStatus(t, http.StatusConflict)
	put(t, h.Cancel, id, nil, staff).AssertStatus(t, http.StatusConflict)

	id = newRequest()
	put(t, h.Approve, id, nil, manager).AssertStatus(t, http.StatusOK)

	id = newRequest()
	put(t, h.Cancel, id, nil, testutil.StaffUser()).AssertStatus(t, http.StatusForbidden)
	rec = put(t, h.Cancel, id, nil, staff)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"status":"cancelled"`)

	put(t, h.Approve, "0123456789abcdef01234567", nil, manager).AssertStatus(t, http.StatusNotFound)
}
