// internal/app/store/sessions/store.go
package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// End reasons recorded when a session is closed.
const (
	ReasonLogout   = "logout"
	ReasonInactive = "inactive"
	ReasonRevoked  = "revoked"
	ReasonNewLogin = "new_login"
)

// Session is one sign-in. The cookie carries only ID; a session with a
// non-nil LogoutAt no longer authenticates anything.
type Session struct {
	ID           string     `bson:"_id"`
	UserID       string     `bson:"user_id"` // staff user id, or sponsor id for portal logins
	Role         string     `bson:"role"`
	LoginAt      time.Time  `bson:"login_at"`
	LastActiveAt time.Time  `bson:"last_active_at"`
	LogoutAt     *time.Time `bson:"logout_at,omitempty"`
	EndReason    string     `bson:"end_reason,omitempty"`
	IP           string     `bson:"ip,omitempty"`
	UserAgent    string     `bson:"user_agent,omitempty"`
	DurationSecs int64      `bson:"duration_secs,omitempty"`
}

// Open reports whether the session still authenticates.
func (s Session) Open() bool { return s.LogoutAt == nil }

// ErrNotFound is returned when no session has the id.
var ErrNotFound = errors.New("session not found")

// Store persists sessions in MongoDB.
type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

// New creates a sessions Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("sessions"), now: func() time.Time { return time.Now().UTC() }}
}

// Indexes lists the lookups the store relies on.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "logout_at", Value: 1}},
			Options: options.Index().SetName("idx_session_user_open"),
		},
		{
			Keys:    bson.D{{Key: "logout_at", Value: 1}, {Key: "last_active_at", Value: 1}},
			Options: options.Index().SetName("idx_session_open_activity"),
		},
		{
			Keys:    bson.D{{Key: "login_at", Value: -1}},
			Options: options.Index().SetName("idx_session_login_at"),
		},
	}
}

// Start records a new sign-in and returns its id. Open sessions the same
// account already holds are closed with ReasonNewLogin.
func (s *Store) Start(ctx context.Context, userID, role, ip, userAgent string) (string, error) {
	if _, err := s.CloseForUser(ctx, userID, ReasonNewLogin); err != nil {
		return "", err
	}
	now := s.now()
	sess := Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		Role:         role,
		LoginAt:      now,
		LastActiveAt: now,
		IP:           ip,
		UserAgent:    userAgent,
	}
	if _, err := s.c.InsertOne(ctx, sess); err != nil {
		return "", err
	}
	return sess.ID, nil
}

// Touch marks an open session as active. It reports false when the
// session is closed or unknown.
func (s *Store) Touch(ctx context.Context, id string) (bool, error) {
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "logout_at": nil},
		bson.M{"$set": bson.M{"last_active_at": s.now()}},
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return err == nil, err
}

// Close ends one session. Closing an already closed session is a no-op.
func (s *Store) Close(ctx context.Context, id, reason string) error {
	var sess Session
	err := s.c.FindOne(ctx, bson.M{"_id": id, "logout_at": nil}).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return err
	}
	now := s.now()
	_, err = s.c.UpdateOne(ctx,
		bson.M{"_id": id, "logout_at": nil},
		bson.M{"$set": bson.M{
			"logout_at":     now,
			"end_reason":    reason,
			"duration_secs": int64(now.Sub(sess.LoginAt).Seconds()),
		}},
	)
	return err
}

// CloseForUser ends every open session held by userID.
func (s *Store) CloseForUser(ctx context.Context, userID, reason string) (int64, error) {
	return s.closeMany(ctx, bson.M{"user_id": userID, "logout_at": nil}, reason)
}

// CloseInactive ends open sessions idle since before threshold.
func (s *Store) CloseInactive(ctx context.Context, threshold time.Time) (int64, error) {
	return s.closeMany(ctx, bson.M{"logout_at": nil, "last_active_at": bson.M{"$lt": threshold}}, ReasonInactive)
}

func (s *Store) closeMany(ctx context.Context, filter bson.M, reason string) (int64, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1, "login_at": 1}))
	if err != nil {
		return 0, err
	}
	var open []Session
	if err := cur.All(ctx, &open); err != nil {
		return 0, err
	}
	if len(open) == 0 {
		return 0, nil
	}
	now := s.now()
	models := make([]mongo.WriteModel, 0, len(open))
	for _, sess := range open {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": sess.ID, "logout_at": nil}).
			SetUpdate(bson.M{"$set": bson.M{
				"logout_at":     now,
				"end_reason":    reason,
				"duration_secs": int64(now.Sub(sess.LoginAt).Seconds()),
			}}))
	}
	res, err := s.c.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// GetByID returns one session.
func (s *Store) GetByID(ctx context.Context, id string) (*Session, error) {
	var sess Session
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// GetActiveByUser returns the open sessions held by userID, newest first.
func (s *Store) GetActiveByUser(ctx context.Context, userID string) ([]Session, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"user_id": userID, "logout_at": nil},
		options.Find().SetSort(bson.D{{Key: "login_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	var out []Session
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
