// internal/app/store/sponsoraccess/store.go
package sponsoraccess

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// ErrNoCode is returned when the sponsor has no portal access code.
var ErrNoCode = errors.New("sponsor has no access code")

// Access is the portal credential for one sponsor. It lives apart from the
// public sponsor document so the hash is never served by content reads.
type Access struct {
	SponsorID string    `bson:"_id"`
	CodeHash  string    `bson:"code_hash"`
	UpdatedAt time.Time `bson:"updated_at"`
	UpdatedBy string    `bson:"updated_by,omitempty"`
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("sponsor_access")}
}

// SetCode hashes code and stores it for the sponsor, replacing any earlier code.
func (s *Store) SetCode(ctx context.Context, sponsorID, code, by string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.c.UpdateOne(ctx,
		bson.M{"_id": sponsorID},
		bson.M{"$set": bson.M{"code_hash": string(hash), "updated_at": time.Now().UTC(), "updated_by": by}},
		options.Update().SetUpsert(true),
	)
	return err
}

// placeholderHash is compared against when a sponsor has no code, so a miss
// costs the same bcrypt work as a wrong code.
var placeholderHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("no-access-code"), bcrypt.DefaultCost)
	return h
})

// Check reports whether code matches the sponsor's stored hash.
func (s *Store) Check(ctx context.Context, sponsorID, code string) (bool, error) {
	var a Access
	if err := s.c.FindOne(ctx, bson.M{"_id": sponsorID}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			_ = bcrypt.CompareHashAndPassword(placeholderHash(), []byte(code))
			return false, ErrNoCode
		}
		return false, err
	}
	return bcrypt.CompareHashAndPassword([]byte(a.CodeHash), []byte(code)) == nil, nil
}

// Delete removes the sponsor's code. Deleting a missing code is not an error.
func (s *Store) Delete(ctx context.Context, sponsorID string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": sponsorID})
	return err
}
