// internal/app/store/counters/counterstore.go
package counterstore

import (
	"context"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/mta-community/mtahub/internal/app/lifecycle"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store keeps named sequences in the counters collection:
// {_id: key, value: n}.
type Store struct {
	c *mongo.Collection
}

var _ lifecycle.Sequencer = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("counters")}
}

type counterDoc struct {
	ID    string `bson:"_id"`
	Value int64  `bson:"value"`
}

// Next raises the counter to at least floor, then increments it and returns
// the new value. Both steps are single-document atomic updates, so
// concurrent callers always receive distinct values.
func (s *Store) Next(ctx context.Context, key string, floor int64) (int64, error) {
	if floor > 0 {
		_, err := s.c.UpdateOne(ctx,
			bson.M{"_id": key},
			bson.M{"$max": bson.M{"value": floor}},
			options.Update().SetUpsert(true),
		)
		if err != nil && !wafflemongo.IsDup(err) {
			return 0, err
		}
	}

	var doc counterDoc
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": key},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil && wafflemongo.IsDup(err) {
		// Two first-time upserts raced; the loser retries against the winner's document.
		err = s.c.FindOneAndUpdate(ctx,
			bson.M{"_id": key},
			bson.M{"$inc": bson.M{"value": int64(1)}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&doc)
	}
	if err != nil {
		return 0, err
	}
	return doc.Value, nil
}
