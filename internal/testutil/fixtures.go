package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/system/stockstatus"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to insert test %s: %v", coll, err)
	}
}

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "correct-horse-42"

// CreateUser creates an active staff user with password TestPassword.
func (f *Fixtures) CreateUser(ctx context.Context, prenom, nom, email, role string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Nom:          nom,
		Prenom:       prenom,
		FullNameCI:   text.Fold(prenom + " " + nom),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Status:       models.UserActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.insert(ctx, "users", u)
	return u
}

// CreateAdmin creates an admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, email string) models.User {
	return f.CreateUser(ctx, "Test", "Admin", email, models.RoleAdmin)
}

// CreateDisabledUser creates a disabled staff user.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, email string) models.User {
	f.t.Helper()
	u := f.CreateUser(ctx, "Disabled", "User", email, models.RoleStaff)
	if _, err := f.db.Collection("users").UpdateByID(ctx, u.ID, map[string]any{"$set": map[string]any{"status": models.UserDisabled}}); err != nil {
		f.t.Fatalf("disable user: %v", err)
	}
	u.Status = models.UserDisabled
	return u
}

// CreateBeneficiary creates an active beneficiary with the given dossier number.
func (f *Fixtures) CreateBeneficiary(ctx context.Context, numero, prenom, nom string) models.Beneficiary {
	f.t.Helper()

	now := time.Now().UTC()
	b := models.Beneficiary{
		ID:                 primitive.NewObjectID(),
		NumeroDossier:      numero,
		Nom:                nom,
		Prenom:             prenom,
		FullNameCI:         text.Fold(prenom + " " + nom),
		Sexe:               models.SexeHomme,
		DateEntree:         now.AddDate(0, -1, 0),
		SituationType:      models.SituationSansAbri,
		SituationFamiliale: models.FamilleCelibataire,
		MaBaadAlIwaa:       models.IssueEnCours,
		Statut:             models.BeneficiaryActif,
		Documents:          []models.Document{},
		SuiviSocial:        []models.SuiviEntry{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	f.insert(ctx, "beneficiaries", b)
	return b
}

// CreateFoodStock creates a food stock line with a derived statut.
func (f *Fixtures) CreateFoodStock(ctx context.Context, nom string, quantite, seuil float64) models.FoodStock {
	f.t.Helper()

	now := time.Now().UTC()
	item := models.FoodStock{
		ID:            primitive.NewObjectID(),
		Nom:           nom,
		NomCI:         text.Fold(nom),
		Categorie:     "feculents",
		Quantite:      quantite,
		Unite:         "kg",
		SeuilCritique: seuil,
		Statut:        stockstatus.Derive(quantite, seuil, nil, now),
		Historique:    []models.StockMovement{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	f.insert(ctx, "food_stock", item)
	return item
}

// CreateMedication creates a medication line with a derived statut.
func (f *Fixtures) CreateMedication(ctx context.Context, nom string, quantite, seuil float64) models.Medication {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.Medication{
		ID:            primitive.NewObjectID(),
		Nom:           nom,
		NomCI:         text.Fold(nom),
		Forme:         "comprime",
		Quantite:      quantite,
		Unite:         "piece",
		SeuilCritique: seuil,
		Statut:        stockstatus.Derive(quantite, seuil, nil, now),
		Historique:    []models.StockMovement{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	f.insert(ctx, "medications", m)
	return m
}

// CreateExitLog creates an open exit for b that is expected back in an hour.
func (f *Fixtures) CreateExitLog(ctx context.Context, b primitive.ObjectID) models.ExitLog {
	f.t.Helper()

	now := time.Now().UTC()
	e := models.ExitLog{
		ID:                 primitive.NewObjectID(),
		Beneficiaire:       b,
		ExitTime:           now,
		ExpectedReturnTime: now.Add(time.Hour),
		Status:             models.ExitOut,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	f.insert(ctx, "exit_logs", e)
	return e
}
