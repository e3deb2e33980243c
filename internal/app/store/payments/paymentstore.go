// internal/app/store/payments/paymentstore.go
package paymentstore

import (
	"context"
	"errors"

	"github.com/mta-community/mtahub/internal/app/lifecycle"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the MongoDB adapter for lifecycle.Payments.
type Store struct {
	c *mongo.Collection
}

var _ lifecycle.Payments = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("payments")}
}

func (s *Store) Create(ctx context.Context, p models.PaymentRecord) error {
	_, err := s.c.InsertOne(ctx, p)
	return err
}

func (s *Store) Get(ctx context.Context, id string) (models.PaymentRecord, error) {
	var p models.PaymentRecord
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.PaymentRecord{}, lifecycle.ErrNotFound
		}
		return models.PaymentRecord{}, err
	}
	return p, nil
}

// Finalize flips a pending payment to its verdict in one conditional
// update, so two concurrent verify/reject calls cannot both succeed.
func (s *Store) Finalize(ctx context.Context, id string, f lifecycle.Finalization) (models.PaymentRecord, error) {
	set := bson.M{
		"status":      f.Status,
		"verified_by": f.VerifiedBy,
		"verified_at": f.VerifiedAt,
	}
	if f.RejectionReason != "" {
		set["rejection_reason"] = f.RejectionReason
	}

	var p models.PaymentRecord
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.PaymentPending},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.PaymentRecord{}, err
	}

	// Nothing pending matched: either the id is unknown or it was already finalized.
	if _, getErr := s.Get(ctx, id); getErr != nil {
		return models.PaymentRecord{}, getErr
	}
	return models.PaymentRecord{}, lifecycle.ErrPaymentFinalized
}

func (s *Store) ListForMember(ctx context.Context, memberID string) ([]models.PaymentRecord, error) {
	return s.find(ctx, bson.M{"member_id": memberID})
}

func (s *Store) List(ctx context.Context, status models.PaymentStatus) ([]models.PaymentRecord, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return s.find(ctx, filter)
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.PaymentRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.PaymentRecord{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Indexes lists the payments indexes.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "member_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_payments_member"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_payments_status"),
		},
	}
}

// EnsureIndexes creates Indexes on the collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, Indexes())
	return err
}
