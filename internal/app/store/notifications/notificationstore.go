// internal/app/store/notifications/notificationstore.go
package notificationstore

import (
	"context"

	"github.com/mta-community/mtahub/internal/app/lifecycle"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var _ lifecycle.Notifications = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("event_notifications")}
}

func (s *Store) Create(ctx context.Context, n models.EventNotification) error {
	_, err := s.c.InsertOne(ctx, n)
	return err
}

// List returns the most recent notifications first.
func (s *Store) List(ctx context.Context, limit int64) ([]models.EventNotification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sent_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.EventNotification{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ForEvent lists the notifications sent about one event.
func (s *Store) ForEvent(ctx context.Context, eventID string) ([]models.EventNotification, error) {
	cur, err := s.c.Find(ctx, bson.M{"event_id": eventID}, options.Find().SetSort(bson.D{{Key: "sent_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.EventNotification{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Indexes lists the event notifications indexes.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "sent_at", Value: -1}}, Options: options.Index().SetName("idx_notifications_sent")},
		{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "sent_at", Value: -1}}, Options: options.Index().SetName("idx_notifications_event")},
	}
}

// EnsureIndexes creates Indexes on the collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, Indexes())
	return err
}
