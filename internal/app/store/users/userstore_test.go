package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/mta-community/mtahub/internal/app/store/users"
	"github.com/mta-community/mtahub/internal/domain/models"
	"github.com/mta-community/mtahub/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func TestStore_Create_Admin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}

	created, err := store.Create(ctx, models.User{
		FullName: "  Admin   User ",
		Email:    "Admin@Example.com",
		Role:     "Admin",
	}, "correct horse battery")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == "" {
		t.Error("expected ID to be assigned")
	}
	if created.FullName != "Admin User" {
		t.Errorf("FullName = %q, want normalized", created.FullName)
	}
	if created.Email != "admin@example.com" || created.Role != "admin" {
		t.Errorf("email/role not normalized: %q %q", created.Email, created.Role)
	}
	if created.Status != models.UserActive {
		t.Errorf("expected status 'active', got %q", created.Status)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	got, err := store.GetByEmail(ctx, "ADMIN@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if !userstore.CheckPassword(got, "correct horse battery") {
		t.Error("stored hash should match the password")
	}
	if userstore.CheckPassword(got, "wrong") {
		t.Error("wrong password should not match")
	}
}

func TestStore_Create_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		name string
		user models.User
		pw   string
	}{
		{"bad role", models.User{FullName: "A", Email: "a@example.com", Role: "owner"}, "pw"},
		{"bad status", models.User{FullName: "B", Email: "b@example.com", Role: "editor", Status: "suspended"}, "pw"},
		{"password auth without password", models.User{FullName: "C", Email: "c@example.com", Role: "viewer"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Create(ctx, tt.user, tt.pw); err == nil {
				t.Error("expected error")
			}
		})
	}

	// Google sign-in users need no password.
	if _, err := store.Create(ctx, models.User{FullName: "G", Email: "g@example.com", Role: "viewer", AuthMethod: "google"}, ""); err != nil {
		t.Errorf("google user: %v", err)
	}
}

func TestStore_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}

	if _, err := store.Create(ctx, models.User{FullName: "One", Email: "dup@example.com", Role: "editor"}, "pw"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := store.Create(ctx, models.User{FullName: "Two", Email: "DUP@example.com", Role: "viewer"}, "pw")
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_UpdateAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, models.User{FullName: "Editor", Email: "ed@example.com", Role: "editor"}, "old-password")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.Update(ctx, u.ID, userstore.Update{
		Role:     ptr("viewer"),
		Status:   ptr("Disabled"),
		Password: ptr("new-password"),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Role != "viewer" || got.Status != models.UserDisabled {
		t.Errorf("got role=%q status=%q", got.Role, got.Status)
	}
	reloaded, _ := store.GetByID(ctx, u.ID)
	if !userstore.CheckPassword(reloaded, "new-password") {
		t.Error("password should be rotated")
	}

	if _, err := store.Update(ctx, u.ID, userstore.Update{Role: ptr("root")}); err == nil {
		t.Error("expected invalid role error")
	}

	if err := store.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, u.ID); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetByID(ctx, u.ID); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCheckPassword_NoHashNeverMatches(t *testing.T) {
	if userstore.CheckPassword(nil, "") {
		t.Error("nil user must not match")
	}
	if userstore.CheckPassword(&models.User{ID: "u1", AuthMethod: "google"}, "no-password") {
		t.Error("user without a password hash must not match, even the placeholder secret")
	}
}
