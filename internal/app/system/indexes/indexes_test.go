package indexes_test

import (
	"testing"

	"github.com/mta-community/mtahub/internal/app/system/indexes"
	"github.com/mta-community/mtahub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func indexNames(t *testing.T, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	tests := []struct {
		collection string
		expected   []string
	}{
		{"members", []string{"uniq_members_email_ci", "uniq_members_reference", "uniq_members_number", "idx_members_status_end"}},
		{"payments", []string{"idx_payments_member", "idx_payments_status"}},
		{"outbox_messages", []string{"idx_outbox_status_next"}},
		{"users", []string{"uniq_users_email"}},
		{"oauth_states", []string{"idx_oauth_ttl"}},
		{"sessions", []string{"idx_session_user_open", "idx_session_open_activity"}},
		{"audit_events", []string{"idx_audit_time", "idx_audit_target"}},
		{"events", []string{"idx_published_order"}},
		{"sponsors", []string{"idx_published_order"}},
	}
	for _, tt := range tests {
		t.Run(tt.collection, func(t *testing.T) {
			names := indexNames(t, db, tt.collection)
			for _, name := range tt.expected {
				if !names[name] {
					t.Errorf("expected index %q to exist on %s", name, tt.collection)
				}
			}
		})
	}
}

func TestEnsureAll_RenamesMisnamedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Same keys as uniq_members_reference under an old name.
	_, err := db.Collection("members").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "registration_reference", Value: 1}},
		Options: options.Index().SetName("registration_reference_1_old").SetUnique(true),
	})
	if err != nil {
		t.Fatalf("create legacy index: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	names := indexNames(t, db, "members")
	if names["registration_reference_1_old"] {
		t.Error("legacy index name should be dropped")
	}
	if !names["uniq_members_reference"] {
		t.Error("index should be recreated under the desired name")
	}
}
