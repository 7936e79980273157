// Package stockledger holds the quantity and history operations shared by
// food stock and pharmacy stock. Every write keeps quantite >= 0, appends a
// historique row and recomputes statut in the same atomic update.
package stockledger

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/system/dates"
	"github.com/dalemusser/shelterhub/internal/app/system/stockstatus"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrInsufficientStock is returned when a deduction exceeds the quantity on hand.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidQuantity is returned for a zero or negative movement.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	// ErrConflict is returned when an adjustment kept racing other writes.
	ErrConflict = errors.New("stock changed during update, retry")
)

// Ledger operates on one stock collection whose documents decode into T.
type Ledger[T any] struct {
	c *mongo.Collection
}

func New[T any](c *mongo.Collection) *Ledger[T] {
	return &Ledger[T]{c: c}
}

// Collection exposes the underlying collection to the owning store.
func (l *Ledger[T]) Collection() *mongo.Collection { return l.c }

// StatusExpr is the aggregation form of stockstatus.Derive evaluated at now.
func StatusExpr(now time.Time) bson.M {
	return bson.M{"$switch": bson.M{
		"branches": bson.A{
			bson.M{
				"case": bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{bson.M{"$type": "$dateExpiration"}, "date"}},
					bson.M{"$lte": bson.A{"$dateExpiration", now}},
				}},
				"then": models.StockExpire,
			},
			bson.M{"case": bson.M{"$lte": bson.A{"$quantite", "$seuilCritique"}}, "then": models.StockCritique},
			bson.M{"case": bson.M{"$lte": bson.A{"$quantite", bson.M{"$multiply": bson.A{stockstatus.LowFactor, "$seuilCritique"}}}}, "then": models.StockFaible},
		},
		"default": models.StockDisponible,
	}}
}

// Movement describes one quantity change.
type Movement struct {
	Type         string
	Quantite     float64
	Motif        string
	Beneficiaire *primitive.ObjectID
	Reference    *primitive.ObjectID
	Utilisateur  *primitive.ObjectID
	Date         time.Time
}

// row builds the historique entry. before and after are aggregation
// expressions evaluated against the pre-update document.
func (m Movement) row(before, after any) bson.M {
	r := bson.M{
		"_id":           primitive.NewObjectID(),
		"type":          m.Type,
		"quantite":      m.Quantite,
		"quantiteAvant": before,
		"quantiteApres": after,
		"date":          m.Date,
	}
	if m.Motif != "" {
		r["motif"] = bson.M{"$literal": m.Motif}
	}
	if m.Beneficiaire != nil {
		r["beneficiaire"] = *m.Beneficiaire
	}
	if m.Reference != nil {
		r["reference"] = *m.Reference
	}
	if m.Utilisateur != nil {
		r["utilisateur"] = *m.Utilisateur
	}
	return r
}

// pipeline returns the update stages that move quantite to newQty and log m.
// fields are extra values set in the same stage.
func pipeline(m Movement, newQty any, now time.Time, fields bson.M) mongo.Pipeline {
	stage := bson.M{
		"historique": bson.M{"$concatArrays": bson.A{
			bson.M{"$ifNull": bson.A{"$historique", bson.A{}}},
			bson.A{m.row("$quantite", newQty)},
		}},
		"quantite":  newQty,
		"updatedAt": now,
	}
	for k, v := range fields {
		stage[k] = v
	}
	return mongo.Pipeline{
		{{Key: "$set", Value: stage}},
		{{Key: "$set", Value: bson.M{"statut": StatusExpr(now)}}},
	}
}

func (l *Ledger[T]) apply(ctx context.Context, filter bson.M, m Movement, newQty any, fields bson.M) (T, error) {
	var out T
	now := time.Now().UTC()
	if m.Date.IsZero() {
		m.Date = now
	}
	err := l.c.FindOneAndUpdate(ctx, filter, pipeline(m, newQty, now, fields),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	return out, err
}

// literals wraps plain values so a pipeline stage cannot read them as
// field paths or operators ("$...").
func literals(set bson.M) bson.M {
	out := make(bson.M, len(set))
	for k, v := range set {
		out[k] = bson.M{"$literal": v}
	}
	return out
}

// Deduct removes m.Quantite from item id. The filter only matches when
// enough stock is on hand, so concurrent deductions can never drive the
// quantity below zero. Returns ErrInsufficientStock when it would, and
// mongo.ErrNoDocuments when the item does not exist.
func (l *Ledger[T]) Deduct(ctx context.Context, id primitive.ObjectID, m Movement) (T, error) {
	var zero T
	if m.Quantite <= 0 {
		return zero, ErrInvalidQuantity
	}
	if m.Type == "" {
		m.Type = models.MovementSortie
	}
	out, err := l.apply(ctx,
		bson.M{"_id": id, "quantite": bson.M{"$gte": m.Quantite}},
		m,
		bson.M{"$subtract": bson.A{"$quantite", m.Quantite}},
		nil,
	)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := l.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
		if cerr != nil {
			return zero, cerr
		}
		if n > 0 {
			return zero, ErrInsufficientStock
		}
	}
	return out, err
}

// Restock adds m.Quantite to item id.
func (l *Ledger[T]) Restock(ctx context.Context, id primitive.ObjectID, m Movement) (T, error) {
	var zero T
	if m.Quantite <= 0 {
		return zero, ErrInvalidQuantity
	}
	m.Type = models.MovementEntree
	return l.apply(ctx, bson.M{"_id": id}, m, bson.M{"$add": bson.A{"$quantite", m.Quantite}}, nil)
}

// Revert undoes a deduction logged with reference ref on item id: qty goes
// back on hand and the history row is removed, in one update. It matches
// nothing when no such row exists, so a second call is a no-op.
func (l *Ledger[T]) Revert(ctx context.Context, id, ref primitive.ObjectID, qty float64) error {
	now := time.Now().UTC()
	_, err := l.c.UpdateOne(ctx,
		bson.M{"_id": id, "historique.reference": ref},
		mongo.Pipeline{
			{{Key: "$set", Value: bson.M{
				"quantite": bson.M{"$add": bson.A{"$quantite", qty}},
				"historique": bson.M{"$filter": bson.M{
					"input": "$historique",
					"cond":  bson.M{"$ne": bson.A{"$$this.reference", ref}},
				}},
				"updatedAt": now,
			}}},
			{{Key: "$set", Value: bson.M{"statut": StatusExpr(now)}}},
		},
	)
	return err
}

// Adjust sets the quantity of item id to qty, recording the difference.
func (l *Ledger[T]) Adjust(ctx context.Context, id primitive.ObjectID, qty float64, m Movement) (T, error) {
	return l.Edit(ctx, id, nil, &qty, m)
}

// Edit sets the descriptive fields in set and, when qty is given and differs
// from the stored quantity, moves the quantity there with an ajustement row.
// Both land in one update that matches on the quantity just read; it is
// retried when another write got in between, and on ErrConflict nothing was
// written. statut is recomputed either way.
func (l *Ledger[T]) Edit(ctx context.Context, id primitive.ObjectID, set bson.M, qty *float64, m Movement) (T, error) {
	var zero T
	if qty != nil && *qty < 0 {
		return zero, ErrInvalidQuantity
	}
	fields := literals(set)
	if qty == nil {
		return l.setFields(ctx, id, fields)
	}
	m.Type = models.MovementAjustement
	for attempt := 0; attempt < 3; attempt++ {
		var cur struct {
			Quantite float64 `bson:"quantite"`
		}
		if err := l.c.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"quantite": 1})).Decode(&cur); err != nil {
			return zero, err
		}
		if *qty == cur.Quantite {
			return l.setFields(ctx, id, fields)
		}
		m.Quantite = math.Abs(*qty - cur.Quantite)
		out, err := l.apply(ctx, bson.M{"_id": id, "quantite": cur.Quantite}, m, *qty, fields)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		return out, err
	}
	return zero, ErrConflict
}

// setFields writes fields and recomputes statut without touching quantite.
func (l *Ledger[T]) setFields(ctx context.Context, id primitive.ObjectID, fields bson.M) (T, error) {
	var out T
	now := time.Now().UTC()
	stage := bson.M{"updatedAt": now}
	for k, v := range fields {
		stage[k] = v
	}
	err := l.c.FindOneAndUpdate(ctx, bson.M{"_id": id},
		mongo.Pipeline{
			{{Key: "$set", Value: stage}},
			{{Key: "$set", Value: bson.M{"statut": StatusExpr(now)}}},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	return out, err
}

// RefreshStatuses rewrites statut on every item whose stored value no longer
// matches the derivation at now, typically because an expiration date passed.
// Returns the number of items changed.
func (l *Ledger[T]) RefreshStatuses(ctx context.Context, now time.Time) (int64, error) {
	expr := StatusExpr(now)
	res, err := l.c.UpdateMany(ctx,
		bson.M{"$expr": bson.M{"$ne": bson.A{"$statut", expr}}},
		mongo.Pipeline{{{Key: "$set", Value: bson.M{"statut": expr}}}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// CountBy groups items by field.
func (l *Ledger[T]) CountBy(ctx context.Context, field string) (map[string]int64, error) {
	cur, err := l.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]int64{}
	for cur.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] += row.Count
	}
	return out, cur.Err()
}

// Alerts returns items that are faible, critique or expire, plus items whose
// expiration falls within days of now, most urgent first.
func (l *Ledger[T]) Alerts(ctx context.Context, now time.Time, days int) ([]T, error) {
	horizon := now.AddDate(0, 0, days)
	filter := bson.M{"$or": bson.A{
		bson.M{"statut": bson.M{"$in": bson.A{models.StockFaible, models.StockCritique, models.StockExpire}}},
		bson.M{"dateExpiration": bson.M{"$gt": now, "$lte": horizon}},
	}}
	opts := options.Find().
		SetSort(bson.D{{Key: "dateExpiration", Value: 1}, {Key: "quantite", Value: 1}}).
		SetProjection(bson.M{"historique": 0})
	cur, err := l.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []T
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// HistoryFilter narrows History.
type HistoryFilter struct {
	Item  *primitive.ObjectID
	Type  string
	Range dates.Range
}

// HistoryRow is a movement with the item it belongs to.
type HistoryRow struct {
	models.StockMovement `bson:",inline"`
	Item                 primitive.ObjectID `bson:"item" json:"item"`
	ItemNom              string             `bson:"itemNom" json:"itemNom"`
}

// History returns movements newest first, across items or for one item.
func (l *Ledger[T]) History(ctx context.Context, f HistoryFilter, limit int) ([]HistoryRow, error) {
	match := bson.M{}
	if f.Item != nil {
		match["_id"] = *f.Item
	}
	inner := bson.M{}
	if f.Type != "" {
		inner["historique.type"] = f.Type
	}
	f.Range.Apply(inner, "historique.date")

	p := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$unwind", Value: "$historique"}},
		{{Key: "$match", Value: inner}},
		{{Key: "$sort", Value: bson.D{{Key: "historique.date", Value: -1}, {Key: "historique._id", Value: -1}}}},
	}
	if limit > 0 {
		p = append(p, bson.D{{Key: "$limit", Value: limit}})
	}
	p = append(p, bson.D{{Key: "$replaceWith", Value: bson.M{"$mergeObjects": bson.A{
		"$historique",
		bson.M{"item": "$_id", "itemNom": "$nom"},
	}}}})

	cur, err := l.c.Aggregate(ctx, p)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []HistoryRow
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Period granularities for Consumption.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

var periodFormats = map[string]string{
	PeriodDay:   "%Y-%m-%d",
	PeriodWeek:  "%G-W%V",
	PeriodMonth: "%Y-%m",
}

// ConsumptionRow totals outgoing movements for one period.
type ConsumptionRow struct {
	Period   string  `bson:"_id" json:"period"`
	Quantite float64 `bson:"quantite" json:"quantite"`
	Count    int64   `bson:"count" json:"count"`
}

// ItemConsumption totals outgoing movements for one item.
type ItemConsumption struct {
	Item     primitive.ObjectID `bson:"_id" json:"item"`
	Nom      string             `bson:"nom" json:"nom"`
	Unite    string             `bson:"unite" json:"unite"`
	Quantite float64            `bson:"quantite" json:"quantite"`
}

// Consumption sums sortie and perte movements in rng, per period and per item.
func (l *Ledger[T]) Consumption(ctx context.Context, rng dates.Range, period string) ([]ConsumptionRow, []ItemConsumption, error) {
	format, ok := periodFormats[period]
	if !ok {
		format = periodFormats[PeriodDay]
	}
	match := bson.M{"historique.type": bson.M{"$in": bson.A{models.MovementSortie, models.MovementPerte}}}
	rng.Apply(match, "historique.date")

	cur, err := l.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$unwind", Value: "$historique"}},
		{{Key: "$match", Value: match}},
		{{Key: "$facet", Value: bson.M{
			"periods": bson.A{
				bson.M{"$group": bson.M{
					"_id":      bson.M{"$dateToString": bson.M{"format": format, "date": "$historique.date"}},
					"quantite": bson.M{"$sum": "$historique.quantite"},
					"count":    bson.M{"$sum": 1},
				}},
				bson.M{"$sort": bson.M{"_id": 1}},
			},
			"items": bson.A{
				bson.M{"$group": bson.M{
					"_id":      "$_id",
					"nom":      bson.M{"$first": "$nom"},
					"unite":    bson.M{"$first": "$unite"},
					"quantite": bson.M{"$sum": "$historique.quantite"},
				}},
				bson.M{"$sort": bson.M{"quantite": -1}},
			},
		}}},
	})
	if err != nil {
		return nil, nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Periods []ConsumptionRow  `bson:"periods"`
		Items   []ItemConsumption `bson:"items"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	return rows[0].Periods, rows[0].Items, nil
}

// Names loads the nom of each id in c, keyed by ID.
func Names(ctx context.Context, c *mongo.Collection, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := map[primitive.ObjectID]string{}
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(bson.M{"nom": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var row struct {
			ID  primitive.ObjectID `bson:"_id"`
			Nom string             `bson:"nom"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.Nom
	}
	return out, cur.Err()
}
