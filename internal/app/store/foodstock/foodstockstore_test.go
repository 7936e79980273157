package foodstockstore_test

import (
	"testing"
	"time"

	foodstockstore "github.com/dalemusser/shelterhub/internal/app/store/foodstock"
	"github.com/dalemusser/shelterhub/internal/app/store/stockledger"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/shelterhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := foodstockstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	by := primitive.NewObjectID()
	item, err := store.Create(ctx, models.FoodStock{Nom: " Lentilles ", Categorie: "feculents", Quantite: 8, Unite: "kg", SeuilCritique: 10}, &by)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if item.Nom != "Lentilles" || item.NomCI != "lentilles" {
		t.Errorf("nom=%q nomCI=%q", item.Nom, item.NomCI)
	}
	if item.Statut != models.StockCritique {
		t.Errorf("statut = %q, want critique", item.Statut)
	}
	if len(item.Historique) != 1 || item.Historique[0].Type != models.MovementEntree || item.Historique[0].QuantiteApres != 8 {
		t.Errorf("historique = %+v", item.Historique)
	}

	empty, err := store.Create(ctx, models.FoodStock{Nom: "Sel", Categorie: "epicerie", Unite: "kg"}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(empty.Historique) != 0 {
		t.Errorf("expected no initial movement for zero quantity")
	}
}

func TestStore_Update_RecordsAdjustment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := foodstockstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	item := fixtures.CreateFoodStock(ctx, "Tomates", 50, 5)

	upd := item
	upd.Nom = "Tomates pelées"
	qty := 6.0
	got, err := store.Update(ctx, item.ID, upd, &qty, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Nom != "Tomates pelées" || got.Quantite != 6 || got.Statut != models.StockFaible {
		t.Errorf("after update: %+v", got)
	}
	if n := len(got.Historique); n != 1 || got.Historique[0].Type != models.MovementAjustement {
		t.Errorf("historique = %+v", got.Historique)
	}

	past := time.Now().Add(-24 * time.Hour)
	upd = *got
	upd.DateExpiration = &past
	got, err = store.Update(ctx, item.ID, upd, &qty, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Statut != models.StockExpire {
		t.Errorf("statut = %q, want expire", got.Statut)
	}
	if len(got.Historique) != 1 {
		t.Error("unchanged quantity should not add a movement")
	}

	if _, err := store.Update(ctx, primitive.NewObjectID(), upd, &qty, nil); err != mongo.ErrNoDocuments {
		t.Errorf("missing item: expected ErrNoDocuments, got %v", err)
	}
	if _, err := store.Update(ctx, primitive.NewObjectID(), upd, nil, nil); err != mongo.ErrNoDocuments {
		t.Errorf("missing item without quantity: expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_Update_WithoutQuantity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := foodstockstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	item := fixtures.CreateFoodStock(ctx, "Pois chiches", 30, 5)

	upd := item
	upd.Nom = "Pois chiches secs"
	upd.Quantite = 0
	upd.Fournisseur = "$quantite"
	upd.SeuilCritique = 25
	got, err := store.Update(ctx, item.ID, upd, nil, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Quantite != 30 || len(got.Historique) != 0 {
		t.Errorf("quantite=%v historique=%d, want 30 and no movement", got.Quantite, len(got.Historique))
	}
	if got.Fournisseur != "$quantite" {
		t.Errorf("fournisseur = %q, want literal", got.Fournisseur)
	}
	if got.Statut != models.StockFaible {
		t.Errorf("statut = %q, want faible after threshold change", got.Statut)
	}

	neg := -1.0
	if _, err := store.Update(ctx, item.ID, upd, &neg, nil); err != stockledger.ErrInvalidQuantity {
		t.Errorf("negative quantity: got %v", err)
	}
	after, _ := store.GetByID(ctx, item.ID)
	if after.SeuilCritique != 25 || after.Quantite != 30 {
		t.Errorf("rejected update changed the item: %+v", after)
	}
}

func TestStore_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := foodstockstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateFoodStock(ctx, "Riz", 100, 5)
	fixtures.CreateFoodStock(ctx, "Ricotta", 1, 5)
	fixtures.CreateFoodStock(ctx, "Thé", 100, 5)

	rows, total, err := store.List(ctx, foodstockstore.ListFilter{Search: "ri"}, paging.Params{Page: 1, Limit: 10}, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(rows) != 2 || rows[0].Nom != "Ricotta" {
		t.Errorf("total=%d rows=%+v", total, rows)
	}

	_, total, _ = store.List(ctx, foodstockstore.ListFilter{Statut: models.StockCritique}, paging.Params{Page: 1, Limit: 10}, nil)
	if total != 1 {
		t.Errorf("critique total = %d, want 1", total)
	}
}
