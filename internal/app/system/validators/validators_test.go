package validators_test

import (
	"testing"

	"github.com/dalemusser/shelterhub/internal/app/system/validators"
	"github.com/dalemusser/shelterhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames: %v", err)
	}
	have := map[string]bool{}
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{"users", "beneficiaries", "food_stock", "medications", "distributions", "exit_logs", "attendance", "counters", "medication_dispenses"} {
		if !have[want] {
			t.Errorf("collection %s not created", want)
		}
	}
}

func TestStockSchema_RejectsNegativeQuantity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	coll := db.Collection("food_stock")
	good := bson.M{"_id": primitive.NewObjectID(), "nom": "Riz", "categorie": "feculents", "quantite": 10.0, "seuilCritique": 2.0, "statut": "disponible"}
	if _, err := coll.InsertOne(ctx, good); err != nil {
		t.Fatalf("valid insert rejected: %v", err)
	}

	bad := bson.M{"_id": primitive.NewObjectID(), "nom": "Lait", "categorie": "produits_laitiers", "quantite": -1.0, "statut": "disponible"}
	if _, err := coll.InsertOne(ctx, bad); err == nil {
		t.Error("expected negative quantite to be rejected by the validator")
	}
}
