// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"github.com/mta-community/mtahub/internal/app/system/authz"
	"github.com/mta-community/mtahub/internal/app/system/normalize"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for staff passwords.
const BcryptCost = 12

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrNotFound is returned when no user has the id.
	ErrNotFound = errors.New("user not found")
	// ErrLastAdmin is returned when a change would leave no active admin.
	ErrLastAdmin = errors.New("there must be at least one active admin")
	// ErrSelfChange is returned when an admin tries to demote, disable or
	// delete their own account.
	ErrSelfChange = errors.New("you cannot change your own role or status; ask another admin")
	// ErrInvalid wraps every field-level rejection below.
	ErrInvalid   = errors.New("invalid user")
	errBadRole   = fmt.Errorf(`%w: role must be "admin"|"editor"|"viewer"`, ErrInvalid)
	errBadStatus = fmt.Errorf(`%w: status must be "active"|"disabled"`, ErrInvalid)
	errBadAuth   = fmt.Errorf(`%w: auth_method must be "password"|"google"`, ErrInvalid)
	errNoPass    = fmt.Errorf("%w: password auth requires a password", ErrInvalid)
)

// Indexes lists the staff users indexes.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		{
			Keys:    bson.D{{Key: "full_name_ci", Value: 1}},
			Options: options.Index().SetName("idx_users_name"),
		},
	}
}

// EnsureIndexes creates Indexes on the collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, Indexes())
	return err
}

// GetByID loads a user by id.
func (s *Store) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns ErrNotFound if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// List returns all staff users sorted by name.
func (s *Store) List(ctx context.Context) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Prepare normalizes and validates u, assigns an id and timestamps, and
// hashes a non-empty password. Create calls it before inserting; mtactl
// --memory uses it directly.
func Prepare(u models.User, password string) (models.User, error) {
	u.ID = uuid.NewString()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)
	if u.Status == "" {
		u.Status = models.UserActive
	}
	if u.AuthMethod == "" {
		u.AuthMethod = models.AuthPassword
	}
	if err := check(u); err != nil {
		return models.User{}, err
	}
	if u.AuthMethod == models.AuthPassword && password == "" {
		return models.User{}, errNoPass
	}
	if password != "" {
		hash, err := HashPassword(password)
		if err != nil {
			return models.User{}, err
		}
		u.PasswordHash = hash
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	return u, nil
}

// Create inserts a new user after normalizing & validating fields.
// Returns ErrDuplicateEmail if the email is taken.
func (s *Store) Create(ctx context.Context, u models.User, password string) (models.User, error) {
	u, err := Prepare(u, password)
	if err != nil {
		return models.User{}, err
	}
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

func check(u models.User) error {
	if !authz.IsStaffRole(u.Role) {
		return errBadRole
	}
	if u.Status != models.UserActive && u.Status != models.UserDisabled {
		return errBadStatus
	}
	if !models.IsValidAuthMethod(u.AuthMethod) {
		return errBadAuth
	}
	return nil
}

// Update holds the editable fields; nil means unchanged.
type Update struct {
	FullName   *string
	Email      *string
	Role       *string
	Status     *string
	AuthMethod *string
	Password   *string
}

// Update applies upd to the user and returns the stored result.
// Returns ErrDuplicateEmail if the email already exists for another user.
func (s *Store) Update(ctx context.Context, id string, upd Update) (*models.User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.FullName != nil {
		u.FullName = normalize.Name(*upd.FullName)
		u.FullNameCI = text.Fold(u.FullName)
	}
	if upd.Email != nil {
		u.Email = normalize.Email(*upd.Email)
	}
	if upd.Role != nil {
		u.Role = normalize.Role(*upd.Role)
	}
	if upd.Status != nil {
		u.Status = normalize.Status(*upd.Status)
	}
	if upd.AuthMethod != nil {
		u.AuthMethod = normalize.AuthMethod(*upd.AuthMethod)
	}
	if err := check(*u); err != nil {
		return nil, err
	}
	set := bson.M{
		"full_name":    u.FullName,
		"full_name_ci": u.FullNameCI,
		"email":        u.Email,
		"role":         u.Role,
		"status":       u.Status,
		"auth_method":  u.AuthMethod,
		"updated_at":   time.Now().UTC(),
	}
	if upd.Password != nil && *upd.Password != "" {
		hash, err := HashPassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		set["password_hash"] = hash
		u.PasswordHash = hash
	}
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set}); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return u, nil
}

// Delete removes a user. Returns ErrNotFound if nothing was deleted.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLogin records a successful sign-in.
func (s *Store) TouchLogin(ctx context.Context, id string, at time.Time) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_login_at": at}})
	return err
}

// CountAdmins counts active admins. Used to refuse removing the last one.
func (s *Store) CountAdmins(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"role": models.RoleAdmin, "status": models.UserActive})
}

// HashPassword hashes pw at BcryptCost.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// missingHash is compared against for unknown users and users without a
// password, so a miss costs the same bcrypt work as a wrong password.
var missingHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("no-password"), BcryptCost)
	return h
})

// CheckPassword reports whether pw matches the user's stored hash. A nil
// user is allowed and always fails.
func CheckPassword(u *models.User, pw string) bool {
	if u == nil || u.PasswordHash == "" {
		_ = bcrypt.CompareHashAndPassword(missingHash(), []byte(pw))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pw)) == nil
}
