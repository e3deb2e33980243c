// internal/app/store/outbox/outboxstore.go
package outboxstore

import (
	"context"
	"errors"
	"time"

	"github.com/mta-community/mtahub/internal/app/lifecycle"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFailed is returned by Retry for a message that is not in status failed.
var ErrNotFailed = errors.New("only failed messages can be retried")

// Store is the outbox_messages collection.
type Store struct {
	c *mongo.Collection
}

var _ lifecycle.Outbox = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("outbox_messages")}
}

// Enqueue stores a pending message.
func (s *Store) Enqueue(ctx context.Context, msg models.OutboxMessage) error {
	_, err := s.c.InsertOne(ctx, msg)
	return err
}

// Get loads one message.
func (s *Store) Get(ctx context.Context, id string) (models.OutboxMessage, error) {
	var m models.OutboxMessage
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.OutboxMessage{}, lifecycle.ErrNotFound
		}
		return models.OutboxMessage{}, err
	}
	return m, nil
}

// List returns messages with the given status (all when empty), oldest first.
func (s *Store) List(ctx context.Context, status models.DeliveryStatus, limit int64) ([]models.OutboxMessage, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.OutboxMessage{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByStatus returns message counts keyed by status.
func (s *Store) CountByStatus(ctx context.Context) (map[models.DeliveryStatus]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Status models.DeliveryStatus `bson:"_id"`
		N      int64                 `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[models.DeliveryStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

// ClaimDue atomically moves the oldest due pending message to sending,
// bumps attempts and stamps the claim time into next_attempt_at.
func (s *Store) ClaimDue(ctx context.Context, now time.Time) (models.OutboxMessage, bool, error) {
	var m models.OutboxMessage
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"status": models.DeliveryPending, "next_attempt_at": bson.M{"$lte": now}},
		bson.M{
			"$set": bson.M{"status": models.DeliverySending, "next_attempt_at": now},
			"$inc": bson.M{"attempts": 1},
		},
		options.FindOneAndUpdate().
			SetSort(bson.D{{Key: "next_attempt_at", Value: 1}, {Key: "_id", Value: 1}}).
			SetReturnDocument(options.After),
	).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.OutboxMessage{}, false, nil
	}
	if err != nil {
		return models.OutboxMessage{}, false, err
	}
	return m, true, nil
}

// MarkSent records a successful delivery.
func (s *Store) MarkSent(ctx context.Context, id string, at time.Time) error {
	return s.set(ctx, id, bson.M{"status": models.DeliverySent, "sent_at": at, "last_error": ""})
}

// MarkRetry returns a message to pending with a later attempt time.
func (s *Store) MarkRetry(ctx context.Context, id, lastErr string, next time.Time) error {
	return s.set(ctx, id, bson.M{"status": models.DeliveryPending, "last_error": lastErr, "next_attempt_at": next})
}

// MarkFailed gives up on a message.
func (s *Store) MarkFailed(ctx context.Context, id, lastErr string) error {
	return s.set(ctx, id, bson.M{"status": models.DeliveryFailed, "last_error": lastErr})
}

func (s *Store) set(ctx context.Context, id string, set bson.M) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return lifecycle.ErrNotFound
	}
	return nil
}

// Retry resets a failed message to pending with a fresh attempt budget.
func (s *Store) Retry(ctx context.Context, id string, now time.Time) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.DeliveryFailed},
		bson.M{"$set": bson.M{"status": models.DeliveryPending, "attempts": 0, "next_attempt_at": now}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return ErrNotFailed
	}
	return nil
}

// RequeueStale returns messages claimed before cutoff and still sending to
// pending (a worker died mid-send).
func (s *Store) RequeueStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"status": models.DeliverySending, "next_attempt_at": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{"status": models.DeliveryPending}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Indexes lists the outbox messages indexes.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "next_attempt_at", Value: 1}},
			Options: options.Index().SetName("idx_outbox_status_next"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_outbox_created"),
		},
	}
}

// EnsureIndexes creates Indexes on the collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, Indexes())
	return err
}
