package stockledger_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/store/stockledger"
	"github.com/dalemusser/shelterhub/internal/app/system/dates"
	"github.com/dalemusser/shelterhub/internal/app/system/stockstatus"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/shelterhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func setup(t *testing.T) (*stockledger.Ledger[models.FoodStock], *testutil.Fixtures) {
	db := testutil.SetupTestDB(t)
	return stockledger.New[models.FoodStock](db.Collection("food_stock")), testutil.NewFixtures(t, db)
}

func TestDeduct(t *testing.T) {
	ledger, fixtures := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	item := fixtures.CreateFoodStock(ctx, "Riz", 20, 5)
	ben := primitive.NewObjectID()

	got, err := ledger.Deduct(ctx, item.ID, stockledger.Movement{Quantite: 14, Beneficiaire: &ben, Motif: "$not-a-field"})
	if err != nil {
		t.Fatalf("Deduct: %v", err)
	}
	if got.Quantite != 6 {
		t.Errorf("quantite = %v, want 6", got.Quantite)
	}
	if got.Statut != models.StockFaible {
		t.Errorf("statut = %q, want faible", got.Statut)
	}
	if len(got.Historique) != 1 {
		t.Fatalf("historique len = %d", len(got.Historique))
	}
	h := got.Historique[0]
	if h.Type != models.MovementSortie || h.QuantiteAvant != 20 || h.QuantiteApres != 6 || h.Quantite != 14 {
		t.Errorf("movement = %+v", h)
	}
	if h.Motif != "$not-a-field" {
		t.Errorf("motif = %q, want literal", h.Motif)
	}
	if h.Beneficiaire == nil || *h.Beneficiaire != ben {
		t.Errorf("beneficiaire = %v", h.Beneficiaire)
	}
}

func TestDeduct_Insufficient(t *testing.T) {
	ledger, fixtures := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	item := fixtures.CreateFoodStock(ctx, "Lait", 3, 1)

	_, err := ledger.Deduct(ctx, item.ID, stockledger.Movement{Quantite: 4})
	if !errors.Is(err, stockledger.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	var after models.FoodStock
	_ = fixtures.DB().Collection("food_stock").FindOne(ctx, bson.M{"_id": item.ID}).Decode(&after)
	if after.Quantite != 3 || len(after.Historique) != 0 {
		t.Errorf("item changed on rejected deduction: %+v", after)
	}

	if _, err := ledger.Deduct(ctx, primitive.NewObjectID(), stockledger.Movement{Quantite: 1}); err != mongo.ErrNoDocuments {
		t.Errorf("missing item: expected ErrNoDocuments, got %v", err)
	}
	if _, err := ledger.Deduct(ctx, item.ID, stockledger.Movement{Quantite: 0}); !errors.Is(err, stockledger.ErrInvalidQuantity) {
		t.Errorf("zero quantity: expected ErrInvalidQuantity, got %v", err)
	}
}

func TestDeduct_ConcurrentNeverNegative(t *testing.T) {
	ledger, fixtures := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	item := fixtures.CreateFoodStock(ctx, "Sucre", 10, 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.Deduct(ctx, item.ID, stockledger.Movement{Quantite: 3}); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if ok != 3 {
		t.Errorf("successful deductions = %d, want 3", ok)
	}
	var after models.FoodStock
	_ = fixtures.DB().Collection("food_stock").FindOne(ctx, bson.M{"_id": item.ID}).Decode(&after)
	if after.Quantite != 1 {
		t.Errorf("quantite = %v, want 1", after.Quantite)
	}
}

func TestRestockAndAdjust(t *testing.T) {
	ledger, fixtures := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	item := fixtures.CreateFoodStock(ctx, "Huile", 2, 5)
	if item.Statut != models.StockCritique {
		t.Fatalf("fixture statut = %q", item.Statut)
	}

	got, err := ledger.Restock(ctx, item.ID, stockledger.Movement{Quantite: 10})
	if err != nil {
		t.Fatalf("Restock: %v", err)
	}
	if got.Quantite != 12 || got.Statut != models.StockDisponible {
		t.Errorf("after restock: quantite=%v statut=%q", got.Quantite, got.Statut)
	}

	got, err = ledger.Adjust(ctx, item.ID, 7, stockledger.Movement{Motif: "Inventaire"})
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if got.Quantite != 7 || got.Statut != models.StockFaible {
		t.Errorf("after adjust: quantite=%v statut=%q", got.Quantite, got.Statut)
	}
	last := got.Historique[len(got.Historique)-1]
	if last.Type != models.MovementAjustement || last.Quantite != 5 || last.QuantiteAvant != 12 {
		t.Errorf("adjust movement = %+v", last)
	}
}

func TestRevert(t *testing.T) {
	ledger, fixtures := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	item := fixtures.CreateFoodStock(ctx, "Semoule", 10, 2)
	kept, undone := primitive.NewObjectID(), primitive.NewObjectID()
	if _, err := ledger.Deduct(ctx, item.ID, stockledger.Movement{Quantite: 1, Reference: &kept}); err != nil {
		t.Fatalf("Deduct: %v", err)
	}
	if _, err := ledger.Deduct(ctx, item.ID, stockledger.Movement{Quantite: 8, Reference: &undone}); err != nil {
		t.Fatalf("Deduct: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := ledger.Revert(ctx, item.ID, undone, 8); err != nil {
			t.Fatalf("Revert #%d: %v", i+1, err)
		}
	}

	var got models.FoodStock
	if err := ledger.Collection().FindOne(ctx, bson.M{"_id": item.ID}).Decode(&got); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Quantite != 9 {
		t.Errorf("quantite = %v, want 9", got.Quantite)
	}
	if got.Statut != models.StockDisponible {
		t.Errorf("statut = %q, want disponible", got.Statut)
	}
	if len(got.Historique) != 1 || *got.Historique[0].Reference != kept {
		t.Errorf("historique = %+v, want only the kept row", got.Historique)
	}
}

func TestStatusExpr_MatchesDerive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	coll := db.Collection("food_stock")
	ledger := stockledger.New[models.FoodStock](coll)

	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	soon := now.Add(36 * time.Hour)
	cases := []struct {
		q, seuil float64
		exp      *time.Time
	}{
		{0, 0, nil}, {5, 5, nil}, {7, 5, nil}, {7.5, 5, nil}, {7.6, 5, nil},
		{100, 5, &past}, {100, 5, &soon}, {1, 5, &soon},
	}
	for _, c := range cases {
		id := primitive.NewObjectID()
		doc := bson.M{"_id": id, "quantite": c.q, "seuilCritique": c.seuil, "statut": "stale"}
		if c.exp != nil {
			doc["dateExpiration"] = *c.exp
		}
		if _, err := coll.InsertOne(ctx, doc); err != nil {
			t.Fatal(err)
		}
	}

	n, err := ledger.RefreshStatuses(ctx, now)
	if err != nil {
		t.Fatalf("RefreshStatuses: %v", err)
	}
	if n != int64(len(cases)) {
		t.Errorf("refreshed %d, want %d", n, len(cases))
	}

	cur, _ := coll.Find(ctx, bson.M{})
	var items []models.FoodStock
	_ = cur.All(ctx, &items)
	for _, it := range items {
		want := stockstatus.Derive(it.Quantite, it.SeuilCritique, it.DateExpiration, now)
		if it.Statut != want {
			t.Errorf("q=%v seuil=%v exp=%v: statut %q, want %q", it.Quantite, it.SeuilCritique, it.DateExpiration, it.Statut, want)
		}
	}

	if n, _ := ledger.RefreshStatuses(ctx, now); n != 0 {
		t.Errorf("second sweep changed %d items, want 0", n)
	}
}

func TestAlertsCountsAndHistory(t *testing.T) {
	ledger, fixtures := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateFoodStock(ctx, "Pâtes", 100, 5)
	low := fixtures.CreateFoodStock(ctx, "Farine", 1, 5)

	now := time.Now().UTC()
	alerts, err := ledger.Alerts(ctx, now, 30)
	if err != nil {
		t.Fatalf("Alerts: %v", err)
	}
	if len(alerts) != 1 || alerts[0].ID != low.ID {
		t.Errorf("alerts = %+v", alerts)
	}

	counts, err := ledger.CountBy(ctx, "statut")
	if err != nil {
		t.Fatalf("CountBy: %v", err)
	}
	if counts[models.StockDisponible] != 1 || counts[models.StockCritique] != 1 {
		t.Errorf("counts = %v", counts)
	}

	if _, err := ledger.Restock(ctx, low.ID, stockledger.Movement{Quantite: 9}); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.Deduct(ctx, low.ID, stockledger.Movement{Quantite: 4}); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.Deduct(ctx, low.ID, stockledger.Movement{Type: models.MovementPerte, Quantite: 1}); err != nil {
		t.Fatal(err)
	}

	rows, err := ledger.History(ctx, stockledger.HistoryFilter{Item: &low.ID}, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(rows) != 3 || rows[0].ItemNom != "Farine" || rows[0].Type != models.MovementPerte {
		t.Errorf("history = %+v", rows)
	}

	from := now.Add(-time.Hour)
	periods, items, err := ledger.Consumption(ctx, dates.Range{From: &from}, stockledger.PeriodDay)
	if err != nil {
		t.Fatalf("Consumption: %v", err)
	}
	if len(periods) != 1 || periods[0].Quantite != 5 || periods[0].Count != 2 {
		t.Errorf("periods = %+v", periods)
	}
	if len(items) != 1 || items[0].Item != low.ID {
		t.Errorf("items = %+v", items)
	}
}
