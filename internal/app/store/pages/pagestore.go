// internal/app/store/pages/pagestore.go
package pagestore

import (
	"context"
	"errors"
	"time"

	"github.com/mta-community/mtahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the pages collection. Pages are keyed by slug.
type Store struct {
	c *mongo.Collection
}

// New creates a new page store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("pages")}
}

// ErrNotFound is returned when no page has been saved under a slug.
var ErrNotFound = errors.New("page not found")

// GetBySlug returns the page with the given slug, or ErrNotFound.
func (s *Store) GetBySlug(ctx context.Context, slug string) (models.Page, error) {
	var p models.Page
	if err := s.c.FindOne(ctx, bson.M{"_id": slug}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Page{}, ErrNotFound
		}
		return models.Page{}, err
	}
	return p, nil
}

// GetAll returns every page ordered by slug.
func (s *Store) GetAll(ctx context.Context) ([]models.Page, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	pages := []models.Page{}
	if err := cur.All(ctx, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

// Upsert creates or replaces the page content for page.Slug, stamping updated_at.
func (s *Store) Upsert(ctx context.Context, page models.Page) error {
	now := time.Now().UTC()
	page.UpdatedAt = &now

	update := bson.M{
		"$set": bson.M{
			"title":      page.Title,
			"title_ta":   page.TitleTA,
			"content":    page.Content,
			"content_ta": page.ContentTA,
			"mission":    page.Mission,
			"mission_ta": page.MissionTA,
			"updated_at": page.UpdatedAt,
			"updated_by": page.UpdatedBy,
		},
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": page.Slug}, update, options.Update().SetUpsert(true))
	return err
}

// Exists reports whether a page with slug has been saved.
func (s *Store) Exists(ctx context.Context, slug string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": slug})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
