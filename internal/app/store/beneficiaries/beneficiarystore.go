// internal/app/store/beneficiaries/beneficiarystore.go
package beneficiarystore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/system/normalize"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/app/system/txn"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var ErrDuplicateDossier = errors.New("a beneficiary with this dossier number already exists")

// Collections that reference a beneficiary and are cleaned up with it.
var dependents = []string{"distributions", "attendance", "exit_logs", "medication_dispenses"}

type Store struct {
	db  *mongo.Database
	c   *mongo.Collection
	log *zap.Logger
}

func New(db *mongo.Database) *Store {
	return &Store{db: db, c: db.Collection("beneficiaries"), log: zap.L()}
}

// NextDossierNumber reserves the next BEN-YYYY-NNNNN number for year.
func (s *Store) NextDossierNumber(ctx context.Context, year int) (string, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := s.db.Collection("counters").FindOneAndUpdate(ctx,
		bson.M{"_id": fmt.Sprintf("beneficiary-%d", year)},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("BEN-%d-%05d", year, doc.Seq), nil
}

func fullNameCI(prenom, nom string) string {
	return text.Fold(normalize.Name(prenom + " " + nom))
}

// applyDefaults fills the enum fields that have a catch-all value.
func applyDefaults(b *models.Beneficiary) {
	if b.Sexe == "" {
		b.Sexe = models.SexeNonPrecise
	}
	if b.SituationType == "" {
		b.SituationType = models.SituationAutre
	}
	if b.SituationFamiliale == "" {
		b.SituationFamiliale = models.FamilleAutre
	}
	if b.MaBaadAlIwaa == "" {
		b.MaBaadAlIwaa = models.IssueEnCours
	}
	if b.Statut == "" {
		b.Statut = models.BeneficiaryActif
	}
}

// Create inserts a beneficiary. A missing NumeroDossier is generated; a
// generated number that collides with an imported one is retried.
func (s *Store) Create(ctx context.Context, b models.Beneficiary) (models.Beneficiary, error) {
	now := time.Now().UTC()
	b.ID = primitive.NewObjectID()
	b.Nom = normalize.Name(b.Nom)
	b.Prenom = normalize.Name(b.Prenom)
	b.FullNameCI = fullNameCI(b.Prenom, b.Nom)
	b.CIN = strings.ToUpper(strings.TrimSpace(b.CIN))
	b.NumeroDossier = strings.TrimSpace(b.NumeroDossier)
	applyDefaults(&b)
	if b.DateEntree.IsZero() {
		b.DateEntree = now
	}
	if b.Documents == nil {
		b.Documents = []models.Document{}
	}
	if b.SuiviSocial == nil {
		b.SuiviSocial = []models.SuiviEntry{}
	}
	b.CreatedAt = now
	b.UpdatedAt = now

	generated := b.NumeroDossier == ""
	for attempt := 0; ; attempt++ {
		if generated {
			n, err := s.NextDossierNumber(ctx, now.Year())
			if err != nil {
				return models.Beneficiary{}, err
			}
			b.NumeroDossier = n
		}
		_, err := s.c.InsertOne(ctx, b)
		if err == nil {
			return b, nil
		}
		if !wafflemongo.IsDup(err) {
			return models.Beneficiary{}, err
		}
		if !generated || attempt >= 4 {
			return models.Beneficiary{}, ErrDuplicateDossier
		}
	}
}

// GetByID loads a beneficiary by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Beneficiary, error) {
	var b models.Beneficiary
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Exists reports whether id refers to a beneficiary.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

// ListFilter narrows List.
type ListFilter struct {
	Search        string // name prefix, dossier prefix or exact CIN
	Statut        string
	Sexe          string
	SituationType string
}

func (f ListFilter) bson() bson.M {
	q := bson.M{}
	if f.Statut != "" {
		q["statut"] = f.Statut
	}
	if f.Sexe != "" {
		q["sexe"] = f.Sexe
	}
	if f.SituationType != "" {
		q["situationType"] = f.SituationType
	}
	search := strings.TrimSpace(f.Search)
	if search == "" {
		return q
	}
	or := []bson.M{
		{"numeroDossier": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(search), Options: "i"}},
		{"cin": strings.ToUpper(search)},
	}
	if lo, hi := text.PrefixRange(search); lo != "" {
		or = append(or, bson.M{"fullNameCI": bson.M{"$gte": lo, "$lt": hi}})
	}
	q["$or"] = or
	return q
}

// SortFields maps ?sort= values to document fields.
var SortFields = map[string]string{
	"nom":           "fullNameCI",
	"numeroDossier": "numeroDossier",
	"dateEntree":    "dateEntree",
	"createdAt":     "createdAt",
}

// DefaultSort lists newest records first.
var DefaultSort = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

// List returns one page of beneficiaries and the total count. Embedded
// documents and follow-up notes are left out.
func (s *Store) List(ctx context.Context, f ListFilter, p paging.Params, sort bson.D) ([]models.Beneficiary, int64, error) {
	q := f.bson()
	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	if len(sort) == 0 {
		sort = DefaultSort
	}
	opts := p.FindOptions(sort).SetProjection(bson.M{"documents": 0, "suiviSocial": 0})
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var out []models.Beneficiary
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update replaces the editable fields of a beneficiary with those of b.
// Documents, follow-up notes and audit fields are untouched.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, b models.Beneficiary) error {
	applyDefaults(&b)
	set := bson.M{
		"numeroDossier":      strings.TrimSpace(b.NumeroDossier),
		"nom":                normalize.Name(b.Nom),
		"prenom":             normalize.Name(b.Prenom),
		"fullNameCI":         fullNameCI(b.Prenom, b.Nom),
		"sexe":               b.Sexe,
		"dateNaissance":      b.DateNaissance,
		"lieuNaissance":      b.LieuNaissance,
		"cin":                strings.ToUpper(strings.TrimSpace(b.CIN)),
		"telephone":          b.Telephone,
		"adresseOrigine":     b.AdresseOrigine,
		"dateEntree":         b.DateEntree,
		"dateSortie":         b.DateSortie,
		"situationType":      b.SituationType,
		"situationFamiliale": b.SituationFamiliale,
		"maBaadAlIwaa":       b.MaBaadAlIwaa,
		"statut":             b.Statut,
		"observations":       b.Observations,
		"updatedAt":          time.Now().UTC(),
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateDossier
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetPhoto stores the URL of the beneficiary's photo.
func (s *Store) SetPhoto(ctx context.Context, id primitive.ObjectID, url string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"photo": url, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a beneficiary together with its distributions, attendance,
// exit logs and medication dispenses. The removal runs in a transaction when
// the deployment supports one. Returns the number of beneficiaries deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	var deleted int64
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		deleted = 0
		for _, coll := range dependents {
			if _, err := s.db.Collection(coll).DeleteMany(ctx, bson.M{"beneficiaire": id}); err != nil {
				return fmt.Errorf("delete %s: %w", coll, err)
			}
		}
		res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		deleted = res.DeletedCount
		return nil
	})
	return deleted, err
}

// AddDocument appends doc to the beneficiary's documents.
func (s *Store) AddDocument(ctx context.Context, id primitive.ObjectID, doc models.Document) (models.Document, error) {
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"documents": doc},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return models.Document{}, err
	}
	if res.MatchedCount == 0 {
		return models.Document{}, mongo.ErrNoDocuments
	}
	return doc, nil
}

// RemoveDocument pulls a document and returns it so the caller can delete
// the stored file. mongo.ErrNoDocuments means the beneficiary or the
// document does not exist.
func (s *Store) RemoveDocument(ctx context.Context, id, docID primitive.ObjectID) (models.Document, error) {
	var before models.Beneficiary
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "documents._id": docID},
		bson.M{
			"$pull": bson.M{"documents": bson.M{"_id": docID}},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
		options.FindOneAndUpdate().
			SetProjection(bson.M{"documents": bson.M{"$elemMatch": bson.M{"_id": docID}}}).
			SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		return models.Document{}, err
	}
	if len(before.Documents) == 0 {
		return models.Document{}, mongo.ErrNoDocuments
	}
	return before.Documents[0], nil
}

// AddSuivi appends a follow-up note.
func (s *Store) AddSuivi(ctx context.Context, id primitive.ObjectID, e models.SuiviEntry) (models.SuiviEntry, error) {
	e.ID = primitive.NewObjectID()
	if e.Date.IsZero() {
		e.Date = time.Now().UTC()
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"suiviSocial": e},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return models.SuiviEntry{}, err
	}
	if res.MatchedCount == 0 {
		return models.SuiviEntry{}, mongo.ErrNoDocuments
	}
	return e, nil
}

// UpdateSuivi replaces the content of one follow-up note, keeping its ID
// and author.
func (s *Store) UpdateSuivi(ctx context.Context, id, entryID primitive.ObjectID, e models.SuiviEntry) error {
	set := bson.M{
		"suiviSocial.$.type":            e.Type,
		"suiviSocial.$.description":     e.Description,
		"suiviSocial.$.prochaineAction": e.ProchaineAction,
		"updatedAt":                     time.Now().UTC(),
	}
	if !e.Date.IsZero() {
		set["suiviSocial.$.date"] = e.Date
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "suiviSocial._id": entryID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DeleteSuivi removes one follow-up note.
func (s *Store) DeleteSuivi(ctx context.Context, id, entryID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "suiviSocial._id": entryID}, bson.M{
		"$pull": bson.M{"suiviSocial": bson.M{"_id": entryID}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ExistsForImport reports whether a record with the dossier number, or with
// the same folded name and birth date, is already stored.
func (s *Store) ExistsForImport(ctx context.Context, numero, prenom, nom string, dob *time.Time) (bool, error) {
	or := []bson.M{{
		"fullNameCI":    fullNameCI(prenom, nom),
		"dateNaissance": dob,
	}}
	if numero = strings.TrimSpace(numero); numero != "" {
		or = append(or, bson.M{"numeroDossier": numero})
	}
	n, err := s.c.CountDocuments(ctx, bson.M{"$or": or}, options.Count().SetLimit(1))
	return n > 0, err
}

// Refs loads name references for ids, keyed by ID.
func (s *Store) Refs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.BeneficiaryRef, error) {
	out := map[primitive.ObjectID]models.BeneficiaryRef{}
	if len(ids) == 0 {
		return out, nil
	}
	proj := options.Find().SetProjection(bson.M{"numeroDossier": 1, "nom": 1, "prenom": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, proj)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var r models.BeneficiaryRef
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		out[r.ID] = r
	}
	return out, cur.Err()
}
