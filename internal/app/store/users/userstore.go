package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/system/normalize"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/app/system/search"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateEmail is returned when another account already uses the email.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New("unknown role")
	errBadStatus      = errors.New(`status must be "active"|"disabled"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

func validRole(role string) bool {
	for _, r := range models.AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

func foldName(prenom, nom string) string {
	return text.Fold(normalize.Name(prenom + " " + nom))
}

// Create inserts a new user after normalizing and validating fields.
// PasswordHash must already be set.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Nom = normalize.Name(u.Nom)
	u.Prenom = normalize.Name(u.Prenom)
	u.FullNameCI = foldName(u.Prenom, u.Nom)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)
	u.Status = normalize.Status(u.Status)

	if !validRole(u.Role) {
		return models.User{}, errBadRole
	}
	if u.Status != models.UserActive && u.Status != models.UserDisabled {
		return models.User{}, errBadStatus
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// ListFilter narrows List.
type ListFilter struct {
	Search string // prefix of the folded full name, or of the email
	Role   string
	Status string
}

func (f ListFilter) bson() bson.M {
	q := bson.M{}
	if f.Role != "" {
		q["role"] = f.Role
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	switch {
	case search.EmailPivot(f.Search):
		email := normalize.Email(f.Search)
		q["email"] = bson.M{"$gte": email, "$lt": email + "￿"}
	default:
		if lo, hi := text.PrefixRange(f.Search); lo != "" {
			email := normalize.Email(f.Search)
			q["$or"] = []bson.M{
				{"fullNameCI": bson.M{"$gte": lo, "$lt": hi}},
				{"email": bson.M{"$gte": email, "$lt": email + "￿"}},
			}
		}
	}
	return q
}

// List returns one page of users sorted by name (or by email when the
// search looks like an email), plus the total count.
func (s *Store) List(ctx context.Context, f ListFilter, p paging.Params) ([]models.User, int64, error) {
	q := f.bson()
	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	sortField := search.SortField(f.Search, "fullNameCI", "email")
	cur, err := s.c.Find(ctx, q, p.FindOptions(bson.D{{Key: sortField, Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update holds the editable profile fields.
type Update struct {
	Nom       string
	Prenom    string
	Email     string
	Role      string
	Telephone string
	Poste     string
}

// Update replaces the profile fields. Returns mongo.ErrNoDocuments when the
// user does not exist and ErrDuplicateEmail when the email is taken.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) error {
	role := normalize.Role(upd.Role)
	if !validRole(role) {
		return errBadRole
	}
	set := bson.M{
		"nom":        normalize.Name(upd.Nom),
		"prenom":     normalize.Name(upd.Prenom),
		"fullNameCI": foldName(upd.Prenom, upd.Nom),
		"email":      normalize.Email(upd.Email),
		"role":       role,
		"telephone":  upd.Telephone,
		"poste":      upd.Poste,
		"updatedAt":  time.Now().UTC(),
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ProfileUpdate holds the fields users may change on their own account.
type ProfileUpdate struct {
	Nom       string
	Prenom    string
	Telephone string
	Poste     string
}

// UpdateProfile changes a user's own profile fields. Role, email and status
// are left alone.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	return s.setFields(ctx, id, bson.M{
		"nom":        normalize.Name(upd.Nom),
		"prenom":     normalize.Name(upd.Prenom),
		"fullNameCI": foldName(upd.Prenom, upd.Nom),
		"telephone":  strings.TrimSpace(upd.Telephone),
		"poste":      strings.TrimSpace(upd.Poste),
	})
}

func (s *Store) setFields(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["updatedAt"] = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetStatus enables or disables an account.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	status = normalize.Status(status)
	if status != models.UserActive && status != models.UserDisabled {
		return errBadStatus
	}
	return s.setFields(ctx, id, bson.M{"status": status})
}

// SetPassword stores a new bcrypt hash.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.setFields(ctx, id, bson.M{"passwordHash": hash})
}

// TouchLogin records the time of a successful login.
func (s *Store) TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"lastLoginAt": at.UTC()}})
	return err
}

// Delete removes a user. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountActiveAdmins counts enabled admin accounts.
func (s *Store) CountActiveAdmins(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"role": models.RoleAdmin, "status": models.UserActive})
}

// Refs loads name references for ids, keyed by ID. Unknown IDs are absent.
func (s *Store) Refs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserRef, error) {
	out := map[primitive.ObjectID]models.UserRef{}
	if len(ids) == 0 {
		return out, nil
	}
	proj := options.Find().SetProjection(bson.M{"nom": 1, "prenom": 1, "role": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, proj)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var r models.UserRef
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		out[r.ID] = r
	}
	return out, cur.Err()
}
