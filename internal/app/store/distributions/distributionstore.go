// internal/app/store/distributions/distributionstore.go
package distributionstore

import (
	"context"
	"strings"
	"time"

	foodstockstore "github.com/dalemusser/shelterhub/internal/app/store/foodstock"
	"github.com/dalemusser/shelterhub/internal/app/store/stockledger"
	"github.com/dalemusser/shelterhub/internal/app/system/dates"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/app/system/timeouts"
	"github.com/dalemusser/shelterhub/internal/app/system/txn"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Store struct {
	db   *mongo.Database
	c    *mongo.Collection
	food *stockledger.Ledger[models.FoodStock]
	log  *zap.Logger
}

func New(db *mongo.Database) *Store {
	return &Store{
		db:   db,
		c:    db.Collection("distributions"),
		food: stockledger.New[models.FoodStock](db.Collection(foodstockstore.Collection)),
		log:  zap.L(),
	}
}

// Create records a distribution. When StockItem is set the quantity is
// deducted from that food stock item, with a sortie movement pointing back
// at the distribution; the deduction and the insert commit together and
// stockledger.ErrInsufficientStock leaves both untouched.
func (s *Store) Create(ctx context.Context, d models.Distribution) (models.Distribution, error) {
	now := time.Now().UTC()
	d.ID = primitive.NewObjectID()
	d.Article = strings.TrimSpace(d.Article)
	if d.Date.IsZero() {
		d.Date = now
	}
	d.CreatedAt = now
	d.UpdatedAt = now

	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if d.StockItem != nil {
			item, err := s.food.Deduct(ctx, *d.StockItem, stockledger.Movement{
				Type:         models.MovementSortie,
				Quantite:     d.Quantite,
				Motif:        "Distribution",
				Beneficiaire: &d.Beneficiaire,
				Reference:    &d.ID,
				Utilisateur:  d.DistribuePar,
				Date:         d.Date,
			})
			if err != nil {
				return err
			}
			if d.Unite == "" {
				d.Unite = item.Unite
			}
			if d.Article == "" {
				d.Article = item.Nom
			}
		}
		if _, err := s.c.InsertOne(ctx, d); err != nil {
			if d.StockItem != nil && !txn.InTransaction(ctx) {
				s.undoDeduction(ctx, d)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.Distribution{}, err
	}
	return d, nil
}

// undoDeduction puts the stock back after the insert failed without a
// transaction. It gets its own deadline since ctx may be what expired.
func (s *Store) undoDeduction(ctx context.Context, d models.Distribution) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Short())
	defer cancel()
	if err := s.food.Revert(rctx, *d.StockItem, d.ID, d.Quantite); err != nil {
		s.log.Error("stock not restored after failed distribution insert",
			zap.String("item", d.StockItem.Hex()),
			zap.String("distribution", d.ID.Hex()),
			zap.Error(err))
	}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Distribution, error) {
	var d models.Distribution
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListFilter narrows List.
type ListFilter struct {
	Beneficiaire *primitive.ObjectID
	Type         string
	Range        dates.Range
}

// List returns one page of distributions, newest first, and the total.
func (s *Store) List(ctx context.Context, f ListFilter, p paging.Params) ([]models.Distribution, int64, error) {
	q := bson.M{}
	if f.Beneficiaire != nil {
		q["beneficiaire"] = *f.Beneficiaire
	}
	if f.Type != "" {
		q["type"] = f.Type
	}
	f.Range.Apply(q, "date")

	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.c.Find(ctx, q, p.FindOptions(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var out []models.Distribution
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update holds the fields that may change after the fact. Quantity and
// stock item are fixed once stock has been deducted.
type Update struct {
	Type  string
	Date  *time.Time
	Notes string
}

// Update changes type, date and notes. Returns mongo.ErrNoDocuments when id is unknown.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) error {
	set := bson.M{"notes": upd.Notes, "updatedAt": time.Now().UTC()}
	if upd.Type != "" {
		set["type"] = upd.Type
	}
	if upd.Date != nil {
		set["date"] = upd.Date.UTC()
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a distribution. Deducted stock is not restored.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// TypeTotal is one row of the by-type report.
type TypeTotal struct {
	Type     string  `bson:"_id" json:"type"`
	Count    int64   `bson:"count" json:"count"`
	Quantite float64 `bson:"quantite" json:"quantite"`
}

// DayTotal is one row of the per-day report.
type DayTotal struct {
	Day   string `bson:"_id" json:"day"`
	Count int64  `bson:"count" json:"count"`
}

// Totals aggregates distributions in rng by type and by day.
func (s *Store) Totals(ctx context.Context, rng dates.Range) ([]TypeTotal, []DayTotal, error) {
	match := bson.M{}
	rng.Apply(match, "date")
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$facet", Value: bson.M{
			"byType": bson.A{
				bson.M{"$group": bson.M{"_id": "$type", "count": bson.M{"$sum": 1}, "quantite": bson.M{"$sum": "$quantite"}}},
				bson.M{"$sort": bson.M{"count": -1}},
			},
			"byDay": bson.A{
				bson.M{"$group": bson.M{
					"_id":   bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$date"}},
					"count": bson.M{"$sum": 1},
				}},
				bson.M{"$sort": bson.M{"_id": 1}},
			},
		}}},
	})
	if err != nil {
		return nil, nil, err
	}
	defer cur.Close(ctx)
	var rows []struct {
		ByType []TypeTotal `bson:"byType"`
		ByDay  []DayTotal  `bson:"byDay"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	return rows[0].ByType, rows[0].ByDay, nil
}

// Count returns the number of distributions in rng.
func (s *Store) Count(ctx context.Context, rng dates.Range) (int64, error) {
	q := bson.M{}
	rng.Apply(q, "date")
	return s.c.CountDocuments(ctx, q)
}
