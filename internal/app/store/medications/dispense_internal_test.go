package medicationstore

import (
	"testing"

	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/shelterhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestDispense_FailedInsertRestoresStock(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	opts := options.CreateCollection().SetValidator(bson.M{"$jsonSchema": bson.M{"required": bson.A{"neverSet"}}})
	if err := db.CreateCollection(ctx, "dispenses_rejecting", opts); err != nil {
		t.Fatalf("create collection: %v", err)
	}
	store := New(db)
	store.dispenses = db.Collection("dispenses_rejecting")

	med := fixtures.CreateMedication(ctx, "Ibuprofène", 20, 5)
	ben := fixtures.CreateBeneficiary(ctx, "M-9", "Karim", "Tazi")

	if _, err := store.Dispense(ctx, models.MedicationDispense{
		Beneficiaire: ben.ID, Medication: med.ID, Quantite: 6,
	}); err == nil {
		t.Fatal("Dispense succeeded, want insert error")
	}

	got, err := store.GetByID(ctx, med.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Quantite != 20 || len(got.Historique) != 0 {
		t.Errorf("after failed dispense: quantite=%v historique=%d, want 20 and 0", got.Quantite, len(got.Historique))
	}
}
