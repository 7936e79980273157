package distributions_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/shelterhub/internal/app/features/distributions"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/shelterhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type view struct {
	ID           primitive.ObjectID     `json:"id"`
	Article      string                 `json:"article"`
	Unite        string                 `json:"unite"`
	Beneficiaire *models.BeneficiaryRef `json:"beneficiaire"`
	StockItemNom string                 `json:"stockItemNom"`
}

func TestCreate_WithStockItem(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := distributions.NewHandler(db, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	b := fixtures.CreateBeneficiary(ctx, "BEN-2026-00001", "Hamid", "Saidi")
	item := fixtures.CreateFoodStock(ctx, "Riz", 10, 2)

	create := func(qty float64) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		h.Create(rec, testutil.NewJSONRequest(t, "POST", "/api/distributions", map[string]any{
			"beneficiaire": b.ID.Hex(), "type": "alimentaire", "quantite": qty, "stockItem": item.ID.Hex(),
		}, testutil.StaffUser()))
		return rec
	}

	rec := create(4)
	rec.AssertStatus(t, http.StatusCreated)
	var v view
	rec.Decode(t, &v)
	if v.Article != "Riz" || v.Unite != "kg" || v.StockItemNom != "Riz" {
		t.Errorf("view = %+v", v)
	}
	if v.Beneficiaire == nil || v.Beneficiaire.NumeroDossier != "BEN-2026-00001" {
		t.Errorf("beneficiaire = %+v", v.Beneficiaire)
	}

	got, err := h.Food.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Quantite != 6 {
		t.Errorf("quantite = %v, want 6", got.Quantite)
	}
	last := got.Historique[len(got.Historique)-1]
	if last.Reference == nil || *last.Reference != v.ID || last.Beneficiaire == nil || *last.Beneficiaire != b.ID {
		t.Errorf("sortie row = %+v", last)
	}

	create(7).AssertStatus(t, http.StatusConflict)
	n, err := db.Collection("distributions").CountDocuments(ctx, bson.M{})
	if err != nil || n != 1 {
		t.Errorf("distributions = %d (%v), want 1", n, err)
	}
	got, _ = h.Food.GetByID(ctx, item.ID)
	if got.Quantite != 6 {
		t.Errorf("quantite after rejected = %v, want 6", got.Quantite)
	}
}

func TestCreate_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := distributions.NewHandler(db, zap.NewNop())

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"missing beneficiary", map[string]any{"type": "autre", "article": "Savon", "quantite": 1}, http.StatusBadRequest},
		{"bad type", map[string]any{"beneficiaire": primitive.NewObjectID().Hex(), "type": "argent", "article": "X", "quantite": 1}, http.StatusBadRequest},
		{"no article", map[string]any{"beneficiaire": primitive.NewObjectID().Hex(), "type": "autre", "quantite": 1}, http.StatusBadRequest},
		{"unknown beneficiary", map[string]any{"beneficiaire": primitive.NewObjectID().Hex(), "type": "autre", "article": "Savon", "quantite": 1}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.Create(rec, testutil.NewJSONRequest(t, "POST", "/api/distributions", tt.body, testutil.StaffUser()))
			rec.AssertStatus(t, tt.want)
		})
	}
}

func TestListUpdateDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := distributions.NewHandler(db, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	b1 := fixtures.CreateBeneficiary(ctx, "BEN-2026-00001", "Hamid", "Saidi")
	b2 := fixtures.CreateBeneficiary(ctx, "BEN-2026-00002", "Fatima", "Zahraoui")

	var first view
	for i, b := range []models.Beneficiary{b1, b1, b2} {
		rec := testutil.NewRecorder()
		h.Create(rec, testutil.NewJSONRequest(t, "POST", "/api/distributions", map[string]any{
			"beneficiaire": b.ID.Hex(), "type": "vetements", "article": "Manteau", "quantite": 1, "date": "2026-01-15",
		}, testutil.StaffUser()))
		rec.AssertStatus(t, http.StatusCreated)
		if i == 0 {
			rec.Decode(t, &first)
		}
	}

	rec := testutil.NewRecorder()
	req := testutil.NewAuthenticatedRequest("GET", "/api/distributions/beneficiary/x", testutil.StaffUser())
	h.ByBeneficiary(rec, testutil.WithChiURLParam(req, "beneficiaryId", b1.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	if env := rec.Decode(t, nil); env.Pagination == nil || env.Pagination.Total != 2 {
		t.Errorf("pagination = %+v, want 2", env.Pagination)
	}

	rec = testutil.NewRecorder()
	h.List(rec, testutil.NewAuthenticatedRequest("GET", "/api/distributions?from=2026-01-15&to=2026-01-15", testutil.StaffUser()))
	rec.AssertStatus(t, http.StatusOK)
	if env := rec.Decode(t, nil); env.Pagination == nil || env.Pagination.Total != 3 {
		t.Errorf("pagination = %+v, want 3", env.Pagination)
	}

	rec = testutil.NewRecorder()
	req = testutil.NewJSONRequest(t, "PUT", "/api/distributions/x", map[string]any{"type": "hygiene", "notes": "taille L"}, testutil.StaffUser())
	h.Update(rec, testutil.WithChiURLParam(req, "id", first.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"type":"hygiene"`)

	rec = testutil.NewRecorder()
	req = testutil.NewAuthenticatedRequest("DELETE", "/api/distributions/x", testutil.ManagerUser())
	h.Delete(rec, testutil.WithChiURLParam(req, "id", first.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	req = testutil.NewAuthenticatedRequest("DELETE", "/api/distributions/x", testutil.ManagerUser())
	h.Delete(rec, testutil.WithChiURLParam(req, "id", first.ID.Hex()))
	rec.AssertStatus(t, http.StatusNotFound)
}
