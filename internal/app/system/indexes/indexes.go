package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each collection's set is idempotent.
Errors are aggregated so every problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string
	for _, set := range collectionSets() {
		if err := ensureIndexSet(ctx, db.Collection(set.collection), set.models); err != nil {
			problems = append(problems, set.collection+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                       */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolVal(b *bool) bool { return b != nil && *b }

// Best-effort duplicate detector (works across Mongo-compatible vendors).
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB return IndexOptionsConflict when the same keys already exist
// under a different name or with different options.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out
}

// Hints printed when a unique index cannot be built over existing data.
var duplicateFinders = map[string]string{
	"users":         `db.users.aggregate([{ $group: { _id: "$email", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`,
	"beneficiaries": `db.beneficiaries.aggregate([{ $group: { _id: "$numeroDossier", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`,
	"attendance":    `db.attendance.aggregate([{ $group: { _id: { b: "$beneficiaire", d: "$date" }, n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`,
}

func createErr(coll *mongo.Collection, name string, unique bool, err error) string {
	if isDuplicateKeyErr(err) && unique {
		msg := fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name)
		if finder, ok := duplicateFinders[coll.Name()]; ok {
			msg += "; example finder:\n" + finder
		}
		return msg
	}
	return fmt.Sprintf("%s(%s): %v", coll.Name(), name, err)
}

func dropAndCreate(ctx context.Context, coll *mongo.Collection, oldName string, m mongo.IndexModel, name string, unique bool) error {
	if _, err := coll.Indexes().DropOne(ctx, oldName); err != nil {
		zap.L().Warn("drop existing index failed",
			zap.String("collection", coll.Name()),
			zap.String("name", oldName),
			zap.Error(err))
		return fmt.Errorf("%s(%s): drop failed: %v", coll.Name(), name, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		return errors.New(createErr(coll, name, unique, err))
	}
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var name string
		var uniquePtr *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			uniquePtr = m.Options.Unique
		}
		unique := boolVal(uniquePtr)
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		logf := func(msg string, extra ...zap.Field) {
			fields := append([]zap.Field{
				zap.String("collection", coll.Name()),
				zap.String("name", name),
				zap.String("keys", sig),
				zap.Bool("unique", unique),
				zap.Duration("took", time.Since(start)),
			}, extra...)
			zap.L().Info(msg, fields...)
		}

		ex, found := listIndexes(ctx, coll)[sig]
		switch {
		case found && boolVal(ex.Unique) == unique && (name == "" || ex.Name == name):
			logf("reusing existing index")
			continue

		case found:
			// Same keys but a different name or uniqueness: rebuild it.
			if err := dropAndCreate(ctx, coll, ex.Name, m, name, unique); err != nil {
				errs = append(errs, err.Error())
				continue
			}
			logf("index dropped and recreated", zap.String("previous", ex.Name))
			continue
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err == nil {
			logf("index ensured", zap.String("created_name", created))
			continue
		}
		if isOptionsConflictErr(err) {
			// Raced with another creator or a vendor reporting keys differently.
			if match, ok := listIndexes(ctx, coll)[sig]; ok {
				if boolVal(match.Unique) == unique {
					logf("reusing existing index (post-conflict)")
					continue
				}
				if err := dropAndCreate(ctx, coll, match.Name, m, name, unique); err != nil {
					errs = append(errs, err.Error())
					continue
				}
				logf("index dropped and recreated (post-conflict)")
				continue
			}
		}
		zap.L().Warn("index ensure failed",
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Error(err))
		errs = append(errs, createErr(coll, name, unique, err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

type indexSet struct {
	collection string
	models     []mongo.IndexModel
}

func idx(name string, keys ...string) mongo.IndexModel {
	d := bson.D{}
	for _, k := range keys {
		dir := 1
		if strings.HasPrefix(k, "-") {
			dir, k = -1, k[1:]
		}
		d = append(d, bson.E{Key: k, Value: dir})
	}
	return mongo.IndexModel{Keys: d, Options: options.Index().SetName(name)}
}

func uniq(name string, keys ...string) mongo.IndexModel {
	m := idx(name, keys...)
	m.Options.SetUnique(true)
	return m
}

// openExit allows at most one exit in status "out" per beneficiary.
func openExit(name string) mongo.IndexModel {
	m := uniq(name, "beneficiaire")
	m.Options.SetPartialFilterExpression(bson.M{"status": "out"})
	return m
}

func collectionSets() []indexSet {
	return []indexSet{
		{"users", []mongo.IndexModel{
			uniq("uniq_users_email", "email"),
			idx("idx_users_role_status_fullnameci_id", "role", "status", "fullNameCI", "_id"),
			idx("idx_users_fullnameci_id", "fullNameCI", "_id"),
		}},
		{"beneficiaries", []mongo.IndexModel{
			uniq("uniq_beneficiaries_numerodossier", "numeroDossier"),
			idx("idx_beneficiaries_fullnameci_id", "fullNameCI", "_id"),
			idx("idx_beneficiaries_statut_createdat", "statut", "-createdAt"),
			idx("idx_beneficiaries_cin", "cin"),
			// Import duplicate check on (folded name, dateNaissance).
			idx("idx_beneficiaries_fullnameci_naissance", "fullNameCI", "dateNaissance"),
		}},
		{"food_stock", []mongo.IndexModel{
			idx("idx_foodstock_nomci_id", "nomCI", "_id"),
			idx("idx_foodstock_categorie_statut", "categorie", "statut"),
			idx("idx_foodstock_statut_expiration", "statut", "dateExpiration"),
		}},
		{"medications", []mongo.IndexModel{
			idx("idx_medications_nomci_id", "nomCI", "_id"),
			idx("idx_medications_forme_statut", "forme", "statut"),
			idx("idx_medications_statut_expiration", "statut", "dateExpiration"),
		}},
		{"medication_dispenses", []mongo.IndexModel{
			idx("idx_dispenses_beneficiaire_date", "beneficiaire", "-date"),
			idx("idx_dispenses_medication_date", "medication", "-date"),
		}},
		{"distributions", []mongo.IndexModel{
			idx("idx_distributions_beneficiaire_date", "beneficiaire", "-date"),
			idx("idx_distributions_type_date", "type", "-date"),
			idx("idx_distributions_date", "-date"),
		}},
		{"exit_logs", []mongo.IndexModel{
			openExit("uniq_exitlogs_open_beneficiaire"),
			idx("idx_exitlogs_beneficiaire_status", "beneficiaire", "status"),
			idx("idx_exitlogs_status_exittime", "status", "-exitTime"),
			idx("idx_exitlogs_exittime", "-exitTime"),
		}},
		{"visits", []mongo.IndexModel{
			idx("idx_visits_arrival", "-arrivalTime"),
			idx("idx_visits_beneficiaire_arrival", "beneficiaire", "-arrivalTime"),
		}},
		{"attendance", []mongo.IndexModel{
			uniq("uniq_attendance_beneficiaire_date", "beneficiaire", "date"),
			idx("idx_attendance_date_statut", "date", "statut"),
		}},
		{"announcements", []mongo.IndexModel{
			idx("idx_announcements_active_createdat", "active", "-createdAt"),
		}},
		{"news", []mongo.IndexModel{
			uniq("uniq_news_slug", "slug"),
			idx("idx_news_published_publishedat", "published", "-publishedAt"),
		}},
		{"approval_requests", []mongo.IndexModel{
			idx("idx_approvals_status_createdat", "status", "-createdAt"),
			idx("idx_approvals_requestedby_createdat", "requestedBy", "-createdAt"),
		}},
		{"schedules", []mongo.IndexModel{
			idx("idx_schedules_date_shift", "date", "shift"),
			idx("idx_schedules_user_date", "user", "date"),
		}},
		{"tickets", []mongo.IndexModel{
			idx("idx_tickets_status_priority_createdat", "status", "priority", "-createdAt"),
			idx("idx_tickets_createdby_createdat", "createdBy", "-createdAt"),
			idx("idx_tickets_assignedto_status", "assignedTo", "status"),
		}},
		{"messages", []mongo.IndexModel{
			idx("idx_messages_from_to_createdat", "from", "to", "-createdAt"),
			idx("idx_messages_to_read", "to", "read"),
		}},
		{"audit_events", []mongo.IndexModel{
			idx("idx_audit_timestamp", "-timestamp"),
			idx("idx_audit_userid_timestamp", "userId", "-timestamp"),
			idx("idx_audit_category_type_timestamp", "category", "eventType", "-timestamp"),
		}},
	}
}
