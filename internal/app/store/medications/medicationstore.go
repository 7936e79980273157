// internal/app/store/medications/medicationstore.go
package medicationstore

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/store/stockledger"
	"github.com/dalemusser/shelterhub/internal/app/system/dates"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/app/system/stockstatus"
	"github.com/dalemusser/shelterhub/internal/app/system/timeouts"
	"github.com/dalemusser/shelterhub/internal/app/system/txn"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	Collection          = "medications"
	DispensesCollection = "medication_dispenses"
)

type Store struct {
	*stockledger.Ledger[models.Medication]
	db        *mongo.Database
	c         *mongo.Collection
	dispenses *mongo.Collection
	log       *zap.Logger
}

func New(db *mongo.Database) *Store {
	c := db.Collection(Collection)
	return &Store{
		Ledger:    stockledger.New[models.Medication](c),
		db:        db,
		c:         c,
		dispenses: db.Collection(DispensesCollection),
		log:       zap.L(),
	}
}

// Create inserts a medication with a derived statut and an initial entree
// movement when it starts with a quantity.
func (s *Store) Create(ctx context.Context, m models.Medication, by *primitive.ObjectID) (models.Medication, error) {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.Nom = strings.TrimSpace(m.Nom)
	m.NomCI = text.Fold(m.Nom)
	m.Statut = stockstatus.Derive(m.Quantite, m.SeuilCritique, m.DateExpiration, now)
	m.Historique = []models.StockMovement{}
	if m.Quantite > 0 {
		m.Historique = append(m.Historique, models.StockMovement{
			ID:            primitive.NewObjectID(),
			Type:          models.MovementEntree,
			Quantite:      m.Quantite,
			QuantiteApres: m.Quantite,
			Motif:         "Stock initial",
			Utilisateur:   by,
			Date:          now,
		})
	}
	m.CreatedBy = by
	m.CreatedAt = now
	m.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Medication{}, err
	}
	return m, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Medication, error) {
	var m models.Medication
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListFilter narrows List.
type ListFilter struct {
	Search string
	Forme  string
	Statut string
}

// SortFields maps ?sort= values to document fields.
var SortFields = map[string]string{
	"nom":            "nomCI",
	"quantite":       "quantite",
	"dateExpiration": "dateExpiration",
}

// List returns one page of medications without their history, and the total.
func (s *Store) List(ctx context.Context, f ListFilter, p paging.Params, sort bson.D) ([]models.Medication, int64, error) {
	q := bson.M{}
	if f.Forme != "" {
		q["forme"] = f.Forme
	}
	if f.Statut != "" {
		q["statut"] = f.Statut
	}
	if lo, hi := text.PrefixRange(f.Search); lo != "" {
		q["nomCI"] = bson.M{"$gte": lo, "$lt": hi}
	}
	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	if len(sort) == 0 {
		sort = bson.D{{Key: "nomCI", Value: 1}, {Key: "_id", Value: 1}}
	}
	cur, err := s.c.Find(ctx, q, p.FindOptions(sort).SetProjection(bson.M{"historique": 0}))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var out []models.Medication
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update replaces the descriptive fields of item id. When qty is non-nil and
// differs from the stored quantity the change is recorded as an ajustement;
// fields and quantity are written together or not at all.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd models.Medication, qty *float64, by *primitive.ObjectID) (*models.Medication, error) {
	nom := strings.TrimSpace(upd.Nom)
	set := bson.M{
		"nom":            nom,
		"nomCI":          text.Fold(nom),
		"forme":          upd.Forme,
		"dosage":         upd.Dosage,
		"unite":          upd.Unite,
		"seuilCritique":  upd.SeuilCritique,
		"dateExpiration": upd.DateExpiration,
		"lot":            upd.Lot,
	}
	m, err := s.Edit(ctx, id, set, qty, stockledger.Movement{Motif: "Modification", Utilisateur: by})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Delete removes a medication. Dispense records keep their reference.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Names loads medication names for ids, keyed by ID.
func (s *Store) Names(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	return stockledger.Names(ctx, s.c, ids)
}

// Dispense deducts d.Quantite from the medication and records the dispense.
// Both writes commit together: a dispense that would overdraw the stock
// returns stockledger.ErrInsufficientStock and nothing is written.
func (s *Store) Dispense(ctx context.Context, d models.MedicationDispense) (models.MedicationDispense, error) {
	now := time.Now().UTC()
	d.ID = primitive.NewObjectID()
	if d.Date.IsZero() {
		d.Date = now
	}
	d.CreatedAt = now

	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		_, err := s.Deduct(ctx, d.Medication, stockledger.Movement{
			Type:         models.MovementSortie,
			Quantite:     d.Quantite,
			Motif:        "Dispensation",
			Beneficiaire: &d.Beneficiaire,
			Reference:    &d.ID,
			Utilisateur:  d.DispensePar,
			Date:         d.Date,
		})
		if err != nil {
			return err
		}
		if _, err := s.dispenses.InsertOne(ctx, d); err != nil {
			if !txn.InTransaction(ctx) {
				s.undoDispense(ctx, d)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.MedicationDispense{}, err
	}
	return d, nil
}

// undoDispense puts the stock back after the dispense insert failed
// without a transaction.
func (s *Store) undoDispense(ctx context.Context, d models.MedicationDispense) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Short())
	defer cancel()
	if err := s.Revert(rctx, d.Medication, d.ID, d.Quantite); err != nil {
		s.log.Error("stock not restored after failed dispense insert",
			zap.String("medication", d.Medication.Hex()),
			zap.String("dispense", d.ID.Hex()),
			zap.Error(err))
	}
}

// DispenseFilter narrows ListDispenses.
type DispenseFilter struct {
	Beneficiaire *primitive.ObjectID
	Medication   *primitive.ObjectID
	Range        dates.Range
}

// ListDispenses returns one page of dispenses, newest first, and the total.
func (s *Store) ListDispenses(ctx context.Context, f DispenseFilter, p paging.Params) ([]models.MedicationDispense, int64, error) {
	q := bson.M{}
	if f.Beneficiaire != nil {
		q["beneficiaire"] = *f.Beneficiaire
	}
	if f.Medication != nil {
		q["medication"] = *f.Medication
	}
	f.Range.Apply(q, "date")

	total, err := s.dispenses.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.dispenses.Find(ctx, q, p.FindOptions(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var out []models.MedicationDispense
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
