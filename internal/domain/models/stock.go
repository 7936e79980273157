// internal/domain/models/stock.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stock statut values, shared by food and pharmacy stock.
const (
	StockDisponible = "disponible"
	StockFaible     = "faible"
	StockCritique   = "critique"
	StockExpire     = "expire"
)

// StockStatuses lists every statut value.
var StockStatuses = []string{StockDisponible, StockFaible, StockCritique, StockExpire}

// Movement types recorded in historique.
const (
	MovementEntree     = "entree"
	MovementSortie     = "sortie"
	MovementAjustement = "ajustement"
	MovementPerte      = "perte"
)

// Food categories.
var FoodCategories = []string{
	"feculents", "conserves", "produits_laitiers", "fruits_legumes",
	"viandes_poissons", "boissons", "epicerie", "hygiene", "autre",
}

// Stock units.
var StockUnits = []string{"kg", "g", "l", "ml", "piece", "boite", "sac", "carton"}

// StockMovement is one append-only history row.
type StockMovement struct {
	ID            primitive.ObjectID  `bson:"_id" json:"id"`
	Type          string              `bson:"type" json:"type"`
	Quantite      float64             `bson:"quantite" json:"quantite"`
	QuantiteAvant float64             `bson:"quantiteAvant" json:"quantiteAvant"`
	QuantiteApres float64             `bson:"quantiteApres" json:"quantiteApres"`
	Motif         string              `bson:"motif,omitempty" json:"motif,omitempty"`
	Beneficiaire  *primitive.ObjectID `bson:"beneficiaire,omitempty" json:"beneficiaire,omitempty"`
	Reference     *primitive.ObjectID `bson:"reference,omitempty" json:"reference,omitempty"` // distribution or dispense
	Utilisateur   *primitive.ObjectID `bson:"utilisateur,omitempty" json:"utilisateur,omitempty"`
	Date          time.Time           `bson:"date" json:"date"`
}

// FoodStock is one stocked food or supply item.
type FoodStock struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Nom            string             `bson:"nom" json:"nom"`
	NomCI          string             `bson:"nomCI" json:"-"`
	Categorie      string             `bson:"categorie" json:"categorie"`
	Quantite       float64            `bson:"quantite" json:"quantite"`
	Unite          string             `bson:"unite" json:"unite"`
	SeuilCritique  float64            `bson:"seuilCritique" json:"seuilCritique"`
	DateExpiration *time.Time         `bson:"dateExpiration,omitempty" json:"dateExpiration,omitempty"`
	Fournisseur    string             `bson:"fournisseur,omitempty" json:"fournisseur,omitempty"`
	Emplacement    string             `bson:"emplacement,omitempty" json:"emplacement,omitempty"`
	Statut         string             `bson:"statut" json:"statut"`
	Historique     []StockMovement    `bson:"historique" json:"historique,omitempty"`

	CreatedBy *primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Medication forms.
var MedicationForms = []string{"comprime", "gelule", "sirop", "injection", "pommade", "gouttes", "sachet", "autre"}

// Medication is one pharmacy stock line.
type Medication struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Nom            string             `bson:"nom" json:"nom"`
	NomCI          string             `bson:"nomCI" json:"-"`
	Forme          string             `bson:"forme" json:"forme"`
	Dosage         string             `bson:"dosage,omitempty" json:"dosage,omitempty"`
	Quantite       float64            `bson:"quantite" json:"quantite"`
	Unite          string             `bson:"unite" json:"unite"`
	SeuilCritique  float64            `bson:"seuilCritique" json:"seuilCritique"`
	DateExpiration *time.Time         `bson:"dateExpiration,omitempty" json:"dateExpiration,omitempty"`
	Lot            string             `bson:"lot,omitempty" json:"lot,omitempty"`
	Statut         string             `bson:"statut" json:"statut"`
	Historique     []StockMovement    `bson:"historique" json:"historique,omitempty"`

	CreatedBy *primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// MedicationDispense records medication given to a beneficiary.
type MedicationDispense struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Beneficiaire primitive.ObjectID  `bson:"beneficiaire" json:"beneficiaire"`
	Medication   primitive.ObjectID  `bson:"medication" json:"medication"`
	Quantite     float64             `bson:"quantite" json:"quantite"`
	Posologie    string              `bson:"posologie,omitempty" json:"posologie,omitempty"`
	Prescripteur string              `bson:"prescripteur,omitempty" json:"prescripteur,omitempty"`
	Date         time.Time           `bson:"date" json:"date"`
	DispensePar  *primitive.ObjectID `bson:"dispensePar,omitempty" json:"dispensePar,omitempty"`
	Notes        string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
}

// Distribution types.
var DistributionTypes = []string{"alimentaire", "vetements", "hygiene", "medicament", "autre"}

// Distribution records goods handed to a beneficiary.
type Distribution struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Beneficiaire primitive.ObjectID  `bson:"beneficiaire" json:"beneficiaire"`
	Type         string              `bson:"type" json:"type"`
	Article      string              `bson:"article" json:"article"`
	Quantite     float64             `bson:"quantite" json:"quantite"`
	Unite        string              `bson:"unite,omitempty" json:"unite,omitempty"`
	StockItem    *primitive.ObjectID `bson:"stockItem,omitempty" json:"stockItem,omitempty"`
	Date         time.Time           `bson:"date" json:"date"`
	DistribuePar *primitive.ObjectID `bson:"distribuePar,omitempty" json:"distribuePar,omitempty"`
	Notes        string              `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
