package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/shelterhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Collections created up front. Multi-document transactions cannot create
// collections on older servers, so every collection written inside txn.Run
// must exist before the first request.
var plainCollections = []string{
	"medication_dispenses", "visits", "announcements", "news",
	"schedules", "messages", "audit_events", "counters",
}

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), it logs and skips.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("beneficiaries", beneficiariesSchema())
	ensure("food_stock", stockSchema(models.FoodCategories, "categorie"))
	ensure("medications", stockSchema(models.MedicationForms, "forme"))
	ensure("distributions", distributionsSchema())
	ensure("exit_logs", exitLogsSchema())
	ensure("attendance", attendanceSchema())
	ensure("approval_requests", approvalsSchema())
	ensure("tickets", ticketsSchema())

	for _, coll := range plainCollections {
		ensure(coll, nil)
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func enum(values []string) bson.M {
	a := make(bson.A, len(values))
	for i, v := range values {
		a[i] = v
	}
	return bson.M{"enum": a}
}

func object(required []string, props bson.M) bson.M {
	req := make(bson.A, len(required))
	for i, r := range required {
		req[i] = r
	}
	return bson.M{"$jsonSchema": bson.M{
		"bsonType":   "object",
		"required":   req,
		"properties": props,
	}}
}

func usersSchema() bson.M {
	return object([]string{"nom", "prenom", "email", "passwordHash", "role", "status"}, bson.M{
		"nom":          nonBlank,
		"prenom":       nonBlank,
		"email":        nonBlank,
		"passwordHash": nonBlank,
		"role":         enum(models.AllRoles),
		"status":       enum([]string{models.UserActive, models.UserDisabled}),
	})
}

func beneficiariesSchema() bson.M {
	return object([]string{"numeroDossier", "nom", "prenom", "statut"}, bson.M{
		"numeroDossier":      nonBlank,
		"nom":                nonBlank,
		"prenom":             nonBlank,
		"sexe":               enum(models.Sexes),
		"situationType":      enum(models.SituationTypes),
		"situationFamiliale": enum(models.SituationsFamiliales),
		"maBaadAlIwaa":       enum(models.Issues),
		"statut":             enum(models.BeneficiaryStatuses),
		"documents":          bson.M{"bsonType": "array"},
		"suiviSocial":        bson.M{"bsonType": "array"},
	})
}

// stockSchema covers food_stock and medications. quantite >= 0 is the
// last line of defence behind the conditional $inc used for deductions.
func stockSchema(kinds []string, kindField string) bson.M {
	return object([]string{"nom", "quantite", "statut"}, bson.M{
		"nom":           nonBlank,
		kindField:       enum(kinds),
		"quantite":      bson.M{"bsonType": bson.A{"double", "int", "long", "decimal"}, "minimum": 0},
		"seuilCritique": bson.M{"bsonType": bson.A{"double", "int", "long", "decimal"}, "minimum": 0},
		"statut":        enum(models.StockStatuses),
		"historique":    bson.M{"bsonType": "array"},
	})
}

func distributionsSchema() bson.M {
	return object([]string{"beneficiaire", "type", "article", "quantite", "date"}, bson.M{
		"beneficiaire": bson.M{"bsonType": "objectId"},
		"type":         enum(models.DistributionTypes),
		"article":      nonBlank,
		"quantite":     bson.M{"bsonType": bson.A{"double", "int", "long", "decimal"}, "exclusiveMinimum": 0},
	})
}

func exitLogsSchema() bson.M {
	return object([]string{"beneficiaire", "exitTime", "expectedReturnTime", "status"}, bson.M{
		"beneficiaire": bson.M{"bsonType": "objectId"},
		"status":       enum([]string{models.ExitOut, models.ExitReturned, models.ExitLate, models.ExitAbsent}),
	})
}

func attendanceSchema() bson.M {
	return object([]string{"beneficiaire", "date", "statut"}, bson.M{
		"beneficiaire": bson.M{"bsonType": "objectId"},
		"date":         bson.M{"bsonType": "date"},
		"statut":       enum([]string{models.AttendancePresent, models.AttendanceAbsent, models.AttendanceExcuse}),
	})
}

func approvalsSchema() bson.M {
	return object([]string{"type", "title", "requestedBy", "status"}, bson.M{
		"type":        enum(models.ApprovalTypes),
		"title":       nonBlank,
		"requestedBy": bson.M{"bsonType": "objectId"},
		"status":      enum([]string{models.ApprovalPending, models.ApprovalApproved, models.ApprovalRejected, models.ApprovalCancelled}),
	})
}

func ticketsSchema() bson.M {
	return object([]string{"title", "category", "priority", "status", "createdBy"}, bson.M{
		"title":    nonBlank,
		"category": enum(models.TicketCategories),
		"priority": enum(models.TicketPriorities),
		"status":   enum(models.TicketStatuses),
	})
}
