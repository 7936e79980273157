// internal/domain/models/beneficiary.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sexe values.
const (
	SexeHomme      = "homme"
	SexeFemme      = "femme"
	SexeNonPrecise = "non_precise"
)

// SituationType values describe how the person came to the shelter.
const (
	SituationSansAbri        = "sans_abri"
	SituationErrance         = "errance"
	SituationMendicite       = "mendicite"
	SituationAbandonFamilial = "abandon_familial"
	SituationViolence        = "violence"
	SituationAutre           = "autre"
)

// SituationFamiliale values.
const (
	FamilleCelibataire = "celibataire"
	FamilleMarie       = "marie"
	FamilleDivorce     = "divorce"
	FamilleVeuf        = "veuf"
	FamilleAutre       = "autre"
)

// MaBaadAlIwaa values ("after shelter" outcome).
const (
	IssueReintegrationFamiliale   = "reintegration_familiale"
	IssueInsertionProfessionnelle = "insertion_professionnelle"
	IssueTransfert                = "transfert"
	IssueHebergementAutonome      = "hebergement_autonome"
	IssueDeces                    = "deces"
	IssueFugue                    = "fugue"
	IssueEnCours                  = "en_cours"
	IssueAutre                    = "autre"
)

// Beneficiary statut values.
const (
	BeneficiaryActif     = "actif"
	BeneficiarySorti     = "sorti"
	BeneficiaryTransfere = "transfere"
	BeneficiaryDecede    = "decede"
)

// Enum sets, in display order.
var (
	Sexes                = []string{SexeHomme, SexeFemme, SexeNonPrecise}
	SituationTypes       = []string{SituationSansAbri, SituationErrance, SituationMendicite, SituationAbandonFamilial, SituationViolence, SituationAutre}
	SituationsFamiliales = []string{FamilleCelibataire, FamilleMarie, FamilleDivorce, FamilleVeuf, FamilleAutre}
	Issues               = []string{IssueReintegrationFamiliale, IssueInsertionProfessionnelle, IssueTransfert, IssueHebergementAutonome, IssueDeces, IssueFugue, IssueEnCours, IssueAutre}
	BeneficiaryStatuses  = []string{BeneficiaryActif, BeneficiarySorti, BeneficiaryTransfere, BeneficiaryDecede}
)

// Beneficiary is a person hosted or followed by the shelter.
type Beneficiary struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	NumeroDossier      string             `bson:"numeroDossier" json:"numeroDossier"`
	Nom                string             `bson:"nom" json:"nom"`
	Prenom             string             `bson:"prenom" json:"prenom"`
	FullNameCI         string             `bson:"fullNameCI" json:"-"`
	Sexe               string             `bson:"sexe" json:"sexe"`
	DateNaissance      *time.Time         `bson:"dateNaissance,omitempty" json:"dateNaissance,omitempty"`
	LieuNaissance      string             `bson:"lieuNaissance,omitempty" json:"lieuNaissance,omitempty"`
	CIN                string             `bson:"cin,omitempty" json:"cin,omitempty"`
	Telephone          string             `bson:"telephone,omitempty" json:"telephone,omitempty"`
	AdresseOrigine     string             `bson:"adresseOrigine,omitempty" json:"adresseOrigine,omitempty"`
	DateEntree         time.Time          `bson:"dateEntree" json:"dateEntree"`
	DateSortie         *time.Time         `bson:"dateSortie,omitempty" json:"dateSortie,omitempty"`
	SituationType      string             `bson:"situationType" json:"situationType"`
	SituationFamiliale string             `bson:"situationFamiliale" json:"situationFamiliale"`
	MaBaadAlIwaa       string             `bson:"maBaadAlIwaa" json:"maBaadAlIwaa"`
	Statut             string             `bson:"statut" json:"statut"`
	Observations       string             `bson:"observations,omitempty" json:"observations,omitempty"`
	Photo              string             `bson:"photo,omitempty" json:"photo,omitempty"`
	Documents          []Document         `bson:"documents" json:"documents"`
	SuiviSocial        []SuiviEntry       `bson:"suiviSocial" json:"suiviSocial"`

	CreatedBy *primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Document is a file attached to a beneficiary record.
type Document struct {
	ID         primitive.ObjectID  `bson:"_id" json:"id"`
	Nom        string              `bson:"nom" json:"nom"`
	Type       string              `bson:"type" json:"type"` // content type
	URL        string              `bson:"url" json:"url"`
	Key        string              `bson:"key" json:"-"` // storage key under the upload root
	Taille     int64               `bson:"taille" json:"taille"`
	UploadedAt time.Time           `bson:"uploadedAt" json:"uploadedAt"`
	UploadedBy *primitive.ObjectID `bson:"uploadedBy,omitempty" json:"uploadedBy,omitempty"`
}

// SuiviEntry is one social follow-up note.
type SuiviEntry struct {
	ID              primitive.ObjectID  `bson:"_id" json:"id"`
	Date            time.Time           `bson:"date" json:"date"`
	Type            string              `bson:"type" json:"type"` // entretien, visite, orientation, ...
	Description     string              `bson:"description" json:"description"`
	Intervenant     *primitive.ObjectID `bson:"intervenant,omitempty" json:"intervenant,omitempty"`
	ProchaineAction string              `bson:"prochaineAction,omitempty" json:"prochaineAction,omitempty"`
}

// BeneficiaryRef is the populated form of a beneficiary reference.
type BeneficiaryRef struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	NumeroDossier string             `bson:"numeroDossier" json:"numeroDossier"`
	Nom           string             `bson:"nom" json:"nom"`
	Prenom        string             `bson:"prenom" json:"prenom"`
}
