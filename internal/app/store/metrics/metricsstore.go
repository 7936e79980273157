// internal/app/store/metrics/metricsstore.go
package metricsstore

import (
	"context"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/system/dates"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Overview is the set of totals shown on the dashboard.
type Overview struct {
	Beneficiaries       map[string]int64 `json:"beneficiaries"`
	BeneficiariesTotal  int64            `json:"beneficiariesTotal"`
	CurrentlyOut        int64            `json:"currentlyOut"`
	LateReturnsToday    int64            `json:"lateReturnsToday"`
	DistributionsMonth  int64            `json:"distributionsMonth"`
	FoodAlerts          int64            `json:"foodAlerts"`
	MedicationAlerts    int64            `json:"medicationAlerts"`
	PendingApprovals    int64            `json:"pendingApprovals"`
	OpenTickets         int64            `json:"openTickets"`
	ActiveAnnouncements int64            `json:"activeAnnouncements"`
}

var alertStatuses = bson.A{models.StockFaible, models.StockCritique, models.StockExpire}

// FetchOverview returns the dashboard counts as of now.
// Tolerant: on error it returns 0 for that counter.
func FetchOverview(ctx context.Context, db *mongo.Database, now time.Time) Overview {
	out := Overview{Beneficiaries: map[string]int64{}}
	for _, st := range models.BeneficiaryStatuses {
		out.Beneficiaries[st] = 0
	}

	count := func(coll string, filter bson.M) int64 {
		n, err := db.Collection(coll).CountDocuments(ctx, filter)
		if err != nil {
			return 0
		}
		return n
	}

	// beneficiaries by statut
	if cur, err := db.Collection("beneficiaries").Aggregate(ctx, bson.A{
		bson.M{"$group": bson.M{"_id": "$statut", "n": bson.M{"$sum": 1}}},
	}); err == nil {
		var rows []struct {
			ID string `bson:"_id"`
			N  int64  `bson:"n"`
		}
		if cur.All(ctx, &rows) == nil {
			for _, r := range rows {
				out.Beneficiaries[r.ID] = r.N
				out.BeneficiariesTotal += r.N
			}
		}
	}

	today := dates.Day(now)
	tomorrow := today.AddDate(0, 0, 1)
	monthStart := dates.MonthStart(now)

	out.CurrentlyOut = count("exit_logs", bson.M{"status": models.ExitOut})
	out.LateReturnsToday = count("exit_logs", bson.M{
		"status":           models.ExitLate,
		"actualReturnTime": bson.M{"$gte": today, "$lt": tomorrow},
	})
	out.DistributionsMonth = count("distributions", bson.M{
		"date": bson.M{"$gte": monthStart, "$lt": monthStart.AddDate(0, 1, 0)},
	})
	out.FoodAlerts = count("food_stock", bson.M{"statut": bson.M{"$in": alertStatuses}})
	out.MedicationAlerts = count("medications", bson.M{"statut": bson.M{"$in": alertStatuses}})
	out.PendingApprovals = count("approval_requests", bson.M{"status": models.ApprovalPending})
	out.OpenTickets = count("tickets", bson.M{"status": bson.M{"$in": bson.A{models.TicketOuvert, models.TicketEnCours}}})
	out.ActiveAnnouncements = count("announcements", bson.M{"active": true})

	return out
}
