package metricsstore_test

import (
	"testing"
	"time"

	metricsstore "github.com/dalemusser/shelterhub/internal/app/store/metrics"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/shelterhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFetchOverview_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	o := metricsstore.FetchOverview(ctx, db, time.Now())

	if o.BeneficiariesTotal != 0 || o.CurrentlyOut != 0 || o.FoodAlerts != 0 || o.OpenTickets != 0 {
		t.Errorf("expected zero counts, got %+v", o)
	}
	for _, st := range models.BeneficiaryStatuses {
		if _, ok := o.Beneficiaries[st]; !ok {
			t.Errorf("missing statut %q in beneficiary counts", st)
		}
	}
}

func TestFetchOverview_WithData(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()

	b1 := fixtures.CreateBeneficiary(ctx, "O-1", "Yassine", "Alaoui")
	fixtures.CreateBeneficiary(ctx, "O-2", "Nadia", "Kettani")
	b3 := fixtures.CreateBeneficiary(ctx, "O-3", "Omar", "Tazi")
	_, _ = db.Collection("beneficiaries").UpdateOne(ctx, bson.M{"_id": b3.ID}, bson.M{"$set": bson.M{"statut": models.BeneficiarySorti}})

	fixtures.CreateExitLog(ctx, b1.ID)
	late := now
	_, _ = db.Collection("exit_logs").InsertOne(ctx, models.ExitLog{
		ID: primitive.NewObjectID(), Beneficiaire: b3.ID, ExitTime: now.Add(-3 * time.Hour),
		ExpectedReturnTime: now.Add(-2 * time.Hour), ActualReturnTime: &late, Status: models.ExitLate,
	})

	fixtures.CreateFoodStock(ctx, "Riz", 100, 5)
	fixtures.CreateFoodStock(ctx, "Lait", 1, 5)
	fixtures.CreateMedication(ctx, "Paracétamol", 2, 10)

	_, _ = db.Collection("distributions").InsertOne(ctx, models.Distribution{
		ID: primitive.NewObjectID(), Beneficiaire: b1.ID, Type: "alimentaire", Quantite: 1, Date: now,
	})
	_, _ = db.Collection("approval_requests").InsertOne(ctx, bson.M{"status": models.ApprovalPending})
	_, _ = db.Collection("tickets").InsertOne(ctx, bson.M{"status": models.TicketEnCours})
	_, _ = db.Collection("tickets").InsertOne(ctx, bson.M{"status": models.TicketFerme})

	o := metricsstore.FetchOverview(ctx, db, now)

	checks := []struct {
		name      string
		got, want int64
	}{
		{"BeneficiariesTotal", o.BeneficiariesTotal, 3},
		{"actif", o.Beneficiaries[models.BeneficiaryActif], 2},
		{"sorti", o.Beneficiaries[models.BeneficiarySorti], 1},
		{"CurrentlyOut", o.CurrentlyOut, 1},
		{"LateReturnsToday", o.LateReturnsToday, 1},
		{"DistributionsMonth", o.DistributionsMonth, 1},
		{"FoodAlerts", o.FoodAlerts, 1},
		{"MedicationAlerts", o.MedicationAlerts, 1},
		{"PendingApprovals", o.PendingApprovals, 1},
		{"OpenTickets", o.OpenTickets, 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %d, want %d", c.name, c.got, c.want)
		}
	}
}
