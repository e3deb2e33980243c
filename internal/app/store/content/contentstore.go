// internal/app/store/content/contentstore.go
package contentstore

import (
	"context"
	"errors"

	"github.com/mta-community/mtahub/internal/app/content"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is a Mongo-backed content.Repo for one collection.
type Store[T any, PT content.Item[T]] struct {
	c *mongo.Collection
}

// New returns a Store over the named collection.
func New[T any, PT content.Item[T]](db *mongo.Database, collection string) *Store[T, PT] {
	return &Store[T, PT]{c: db.Collection(collection)}
}

// Collections lists every content collection name.
var Collections = []string{content.Sponsors, content.Events, content.Gallery, content.MembershipTiers, content.Leadership}

// Indexes lists the display-order index shared by all content collections.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{{
		Keys:    bson.D{{Key: "published", Value: 1}, {Key: "order", Value: 1}, {Key: "created_at", Value: 1}},
		Options: options.Index().SetName("idx_published_order"),
	}}
}

// EnsureIndexes creates Indexes on the collection.
func (s *Store[T, PT]) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, Indexes())
	return err
}

func (s *Store[T, PT]) List(ctx context.Context, publishedOnly bool) ([]T, error) {
	filter := bson.M{}
	if publishedOnly {
		filter["published"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store[T, PT]) Get(ctx context.Context, id string) (T, error) {
	var item T
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return item, content.ErrNotFound
		}
		return item, err
	}
	return item, nil
}

func (s *Store[T, PT]) Insert(ctx context.Context, item T) error {
	_, err := s.c.InsertOne(ctx, item)
	return err
}

func (s *Store[T, PT]) Replace(ctx context.Context, item T) error {
	id := PT(&item).Meta().ID
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": id}, item)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return content.ErrNotFound
	}
	return nil
}

func (s *Store[T, PT]) Delete(ctx context.Context, id string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return content.ErrNotFound
	}
	return nil
}

// Repos builds a content.Repos over db using the canonical collection names.
func Repos(db *mongo.Database) content.Repos {
	return content.Repos{
		Sponsors:   New[models.Sponsor](db, content.Sponsors),
		Events:     New[models.Event](db, content.Events),
		Gallery:    New[models.GalleryImage](db, content.Gallery),
		Tiers:      New[models.MembershipTier](db, content.MembershipTiers),
		Leadership: New[models.Leader](db, content.Leadership),
	}
}

// EnsureAllIndexes creates indexes on every content collection.
func EnsureAllIndexes(ctx context.Context, db *mongo.Database) error {
	for _, name := range Collections {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, Indexes()); err != nil {
			return err
		}
	}
	return nil
}
