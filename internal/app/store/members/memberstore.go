// internal/app/store/members/memberstore.go
package memberstore

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/mta-community/mtahub/internal/app/lifecycle"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Index names. The duplicate-key error text carries the index name, which
// is how Create tells an email clash from a reference clash.
const (
	IndexEmail     = "uniq_members_email_ci"
	IndexReference = "uniq_members_reference"
	IndexNumber    = "uniq_members_number"
)

// Store is the MongoDB adapter for lifecycle.Members.
type Store struct {
	c *mongo.Collection
}

var _ lifecycle.Members = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("members")}
}

// mapDup converts a duplicate-key error into the lifecycle sentinel for the
// index that fired.
func mapDup(err error) error {
	if err == nil || !wafflemongo.IsDup(err) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, IndexReference):
		return lifecycle.ErrDuplicateReference
	case strings.Contains(msg, IndexEmail):
		return lifecycle.ErrDuplicateEmail
	}
	return err
}

func (s *Store) Create(ctx context.Context, m models.Member) error {
	_, err := s.c.InsertOne(ctx, m)
	return mapDup(err)
}

func (s *Store) Get(ctx context.Context, id string) (models.Member, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) FindByEmail(ctx context.Context, emailCI string) (models.Member, error) {
	return s.findOne(ctx, bson.M{"email_ci": emailCI})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Member, error) {
	var m models.Member
	if err := s.c.FindOne(ctx, filter).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Member{}, lifecycle.ErrNotFound
		}
		return models.Member{}, err
	}
	return m, nil
}

func (s *Store) ReferenceExists(ctx context.Context, ref string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"registration_reference": ref}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Update replaces the member document. registration_reference and
// registration_date are never rewritten.
func (s *Store) Update(ctx context.Context, m models.Member) error {
	set := bson.M{
		"first_name":            m.FirstName,
		"last_name":             m.LastName,
		"full_name_ci":          m.FullNameCI,
		"email":                 m.Email,
		"email_ci":              m.EmailCI,
		"phone":                 m.Phone,
		"address":               m.Address,
		"membership_type":       m.MembershipType,
		"status":                m.Status,
		"membership_number":     m.MembershipNumber,
		"family_members":        m.FamilyMembers,
		"preferences":           m.Preferences,
		"notes":                 m.Notes,
		"membership_start_date": m.MembershipStartDate,
		"membership_end_date":   m.MembershipEndDate,
		"updated_at":            m.UpdatedAt,
	}
	unset := bson.M{}
	if m.MembershipNumber == "" {
		// Keep the sparse unique index happy: absent, not "".
		delete(set, "membership_number")
		unset["membership_number"] = ""
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": m.ID}, update)
	if err != nil {
		return mapDup(err)
	}
	if res.MatchedCount == 0 {
		return lifecycle.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return lifecycle.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]models.Member, error) {
	opts := options.Find().SetSort(bson.D{{Key: "registration_date", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Member{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CountNumbersWithPrefix(ctx context.Context, prefix string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"membership_number": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)},
	})
}

func (s *Store) ExpireActiveBefore(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"status": models.StatusActive, "membership_end_date": bson.M{"$lt": now}},
		bson.M{"$set": bson.M{"status": models.StatusExpired, "updated_at": now}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Indexes lists the indexes for members. indexes.EnsureAll reconciles them at
// startup; EnsureIndexes just creates them.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetName(IndexEmail).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "registration_reference", Value: 1}},
			Options: options.Index().SetName(IndexReference).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "membership_number", Value: 1}},
			Options: options.Index().SetName(IndexNumber).SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "membership_end_date", Value: 1}},
			Options: options.Index().SetName("idx_members_status_end"),
		},
		{
			Keys:    bson.D{{Key: "registration_date", Value: -1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_members_regdate"),
		},
	}
}

// EnsureIndexes creates Indexes on the collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, Indexes())
	return err
}
