// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	auditstore "github.com/mta-community/mtahub/internal/app/store/audit"
	contentstore "github.com/mta-community/mtahub/internal/app/store/content"
	memberstore "github.com/mta-community/mtahub/internal/app/store/members"
	notificationstore "github.com/mta-community/mtahub/internal/app/store/notifications"
	"github.com/mta-community/mtahub/internal/app/store/oauthstate"
	outboxstore "github.com/mta-community/mtahub/internal/app/store/outbox"
	paymentstore "github.com/mta-community/mtahub/internal/app/store/payments"
	sessionstore "github.com/mta-community/mtahub/internal/app/store/sessions"
	userstore "github.com/mta-community/mtahub/internal/app/store/users"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// collectionIndexes pairs a collection with its desired index set.
type collectionIndexes struct {
	name   string
	models []mongo.IndexModel
}

func desired() []collectionIndexes {
	sets := []collectionIndexes{
		{"members", memberstore.Indexes()},
		{"payments", paymentstore.Indexes()},
		{"outbox_messages", outboxstore.Indexes()},
		{"event_notifications", notificationstore.Indexes()},
		{"users", userstore.Indexes()},
		{"oauth_states", oauthstate.Indexes()},
		{"sessions", sessionstore.Indexes()},
		{"audit_events", auditstore.Indexes()},
	}
	for _, name := range contentstore.Collections {
		sets = append(sets, collectionIndexes{name, contentstore.Indexes()})
	}
	return sets
}

// EnsureAll reconciles the indexes of every collection. It keeps going past
// failures and returns them joined, so one bad collection does not hide the rest.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string
	for _, set := range desired() {
		if err := ensureIndexSet(ctx, db.Collection(set.name), set.models); err != nil {
			problems = append(problems, set.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// existingIndex is the part of listIndexes output the reconciler compares.
type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique bool   `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func listExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index", zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

// ensureIndexSet makes coll carry every model. An index with the same keys
// is reused when its name and uniqueness match and is dropped and
// recreated otherwise.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := listExisting(ctx, coll)
	if err != nil {
		// A collection that does not exist yet has no indexes to reconcile.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		name, unique := "", false
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			if m.Options.Unique != nil {
				unique = *m.Options.Unique
			}
		}
		sig := keySig(m.Keys.(bson.D))
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", unique),
		}
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if ex.Unique == unique && (name == "" || ex.Name == name) {
				zap.L().Debug("index up to date", fields...)
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop %s: %v", coll.Name(), name, ex.Name, err))
				continue
			}
			zap.L().Info("dropped index for recreation", append(fields, zap.String("old_name", ex.Name))...)
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if unique && wafflemongo.IsDup(err) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)%s",
					coll.Name(), name, duplicateHint(coll.Name(), sig)))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			zap.L().Warn("index ensure failed", append(fields, zap.Error(err))...)
			continue
		}
		zap.L().Info("index ensured", append(fields, zap.Duration("took", time.Since(start)))...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// duplicateHint tells the operator how to find the rows that block a
// unique index on the collections where that happens in practice.
func duplicateHint(coll, sig string) string {
	var field string
	switch {
	case coll == "users" && strings.Contains(sig, "email:1"):
		field = "email"
	case coll == "members" && strings.Contains(sig, "email_ci:1"):
		field = "email_ci"
	case coll == "members" && strings.Contains(sig, "membership_number:1"):
		field = "membership_number"
	default:
		return ""
	}
	return fmt.Sprintf(": duplicates exist on %s.%s. Example finder:\n"+
		`db.%s.aggregate([{ $group: { _id: "$%s", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`,
		coll, field, coll, field)
}
