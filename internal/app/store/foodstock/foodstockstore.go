// internal/app/store/foodstock/foodstockstore.go
package foodstockstore

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/store/stockledger"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/app/system/stockstatus"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection is the food stock collection name.
const Collection = "food_stock"

type Store struct {
	*stockledger.Ledger[models.FoodStock]
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	c := db.Collection(Collection)
	return &Store{Ledger: stockledger.New[models.FoodStock](c), c: c}
}

// Create inserts an item with a derived statut and, when it starts with a
// quantity, an initial entree movement.
func (s *Store) Create(ctx context.Context, item models.FoodStock, by *primitive.ObjectID) (models.FoodStock, error) {
	now := time.Now().UTC()
	item.ID = primitive.NewObjectID()
	item.Nom = strings.TrimSpace(item.Nom)
	item.NomCI = text.Fold(item.Nom)
	item.Statut = stockstatus.Derive(item.Quantite, item.SeuilCritique, item.DateExpiration, now)
	item.Historique = []models.StockMovement{}
	if item.Quantite > 0 {
		item.Historique = append(item.Historique, models.StockMovement{
			ID:            primitive.NewObjectID(),
			Type:          models.MovementEntree,
			Quantite:      item.Quantite,
			QuantiteAvant: 0,
			QuantiteApres: item.Quantite,
			Motif:         "Stock initial",
			Utilisateur:   by,
			Date:          now,
		})
	}
	item.CreatedBy = by
	item.CreatedAt = now
	item.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, item); err != nil {
		return models.FoodStock{}, err
	}
	return item, nil
}

// GetByID loads an item including its history.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.FoodStock, error) {
	var item models.FoodStock
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListFilter narrows List.
type ListFilter struct {
	Search    string
	Categorie string
	Statut    string
}

// SortFields maps ?sort= values to document fields.
var SortFields = map[string]string{
	"nom":            "nomCI",
	"quantite":       "quantite",
	"dateExpiration": "dateExpiration",
	"updatedAt":      "updatedAt",
}

// DefaultSort orders items by name.
var DefaultSort = bson.D{{Key: "nomCI", Value: 1}, {Key: "_id", Value: 1}}

// List returns one page of items without their history, and the total.
func (s *Store) List(ctx context.Context, f ListFilter, p paging.Params, sort bson.D) ([]models.FoodStock, int64, error) {
	q := bson.M{}
	if f.Categorie != "" {
		q["categorie"] = f.Categorie
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
		sort = DefaultSort
	}
	cur, err := s.c.Find(ctx, q, p.FindOptions(sort).SetProjection(bson.M{"historique": 0}))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var out []models.FoodStock
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update replaces the descriptive fields of item id. When qty is non-nil and
// differs from the stored quantity the change is recorded as an ajustement;
// fields and quantity are written together or not at all.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd models.FoodStock, qty *float64, by *primitive.ObjectID) (*models.FoodStock, error) {
	nom := strings.TrimSpace(upd.Nom)
	set := bson.M{
		"nom":            nom,
		"nomCI":          text.Fold(nom),
		"categorie":      upd.Categorie,
		"unite":          upd.Unite,
		"seuilCritique":  upd.SeuilCritique,
		"dateExpiration": upd.DateExpiration,
		"fournisseur":    upd.Fournisseur,
		"emplacement":    upd.Emplacement,
	}
	item, err := s.Edit(ctx, id, set, qty, stockledger.Movement{Motif: "Modification", Utilisateur: by})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes an item. Past distributions keep their reference.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Names loads item names for ids, keyed by ID.
func (s *Store) Names(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	return stockledger.Names(ctx, s.c, ids)
}
