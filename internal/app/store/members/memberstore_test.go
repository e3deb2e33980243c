package memberstore_test

import (
	"errors"
	"testing"
	"time"

	"github.com/mta-community/mtahub/internal/app/lifecycle"
	memberstore "github.com/mta-community/mtahub/internal/app/store/members"
	"github.com/mta-community/mtahub/internal/domain/models"
	"github.com/mta-community/mtahub/internal/testutil"
)

func newStore(t *testing.T) *memberstore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	return store
}

func member(id, email, ref string) models.Member {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return models.Member{
		ID:                    id,
		RegistrationReference: ref,
		FirstName:             "Anita",
		LastName:              "Kumar",
		Email:                 email,
		EmailCI:               email,
		MembershipType:        models.MembershipIndividual,
		Status:                models.StatusPending,
		RegistrationDate:      now,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

func TestStore_Create_MapsDuplicateKeys(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Create(ctx, member("m1", "a@example.com", "REG-AAAAAA")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err := store.Create(ctx, member("m2", "a@example.com", "REG-BBBBBB"))
	if !errors.Is(err, lifecycle.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}

	err = store.Create(ctx, member("m3", "c@example.com", "REG-AAAAAA"))
	if !errors.Is(err, lifecycle.ErrDuplicateReference) {
		t.Errorf("expected ErrDuplicateReference, got %v", err)
	}

	exists, err := store.ReferenceExists(ctx, "REG-AAAAAA")
	if err != nil || !exists {
		t.Errorf("ReferenceExists = %v, %v; want true", exists, err)
	}
}

func TestStore_GetAndFindByEmail_NotFound(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, lifecycle.ErrNotFound) {
		t.Errorf("Get: expected ErrNotFound, got %v", err)
	}
	if _, err := store.FindByEmail(ctx, "nobody@example.com"); !errors.Is(err, lifecycle.ErrNotFound) {
		t.Errorf("FindByEmail: expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "missing"); !errors.Is(err, lifecycle.ErrNotFound) {
		t.Errorf("Delete: expected ErrNotFound, got %v", err)
	}
}

func TestStore_UpdateAndCountNumbers(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i, id := range []string{"m1", "m2", "m3"} {
		m := member(id, id+"@example.com", "REG-00000"+string(rune('1'+i)))
		if err := store.Create(ctx, m); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	m, _ := store.Get(ctx, "m1")
	m.MembershipNumber = "MTA-2026-0001"
	m.Status = models.StatusActive
	if err := store.Update(ctx, m); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	m2, _ := store.Get(ctx, "m2")
	m2.MembershipNumber = "MTA-2025-0007"
	if err := store.Update(ctx, m2); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	n, err := store.CountNumbersWithPrefix(ctx, "MTA-2026-")
	if err != nil {
		t.Fatalf("CountNumbersWithPrefix failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 number for 2026, got %d", n)
	}

	// Unnumbered members coexist under the sparse unique index.
	m3, _ := store.Get(ctx, "m3")
	m3.Notes = "called"
	if err := store.Update(ctx, m3); err != nil {
		t.Errorf("Update without number failed: %v", err)
	}

	dup, _ := store.Get(ctx, "m3")
	dup.MembershipNumber = "MTA-2026-0001"
	if err := store.Update(ctx, dup); err == nil {
		t.Error("expected duplicate membership number to be rejected")
	}
}

func TestStore_ExpireActiveBefore(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	lapsed := member("m1", "a@example.com", "REG-AAAAAA")
	lapsed.Status = models.StatusActive
	lapsed.MembershipEndDate = &past
	current := member("m2", "b@example.com", "REG-BBBBBB")
	current.Status = models.StatusActive
	current.MembershipEndDate = &future
	for _, m := range []models.Member{lapsed, current} {
		if err := store.Create(ctx, m); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	n, err := store.ExpireActiveBefore(ctx, now)
	if err != nil {
		t.Fatalf("ExpireActiveBefore failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 expired, got %d", n)
	}
	got, _ := store.Get(ctx, "m1")
	if got.Status != models.StatusExpired {
		t.Errorf("m1 status = %s, want expired", got.Status)
	}
	got, _ = store.Get(ctx, "m2")
	if got.Status != models.StatusActive {
		t.Errorf("m2 status = %s, want active", got.Status)
	}
}
