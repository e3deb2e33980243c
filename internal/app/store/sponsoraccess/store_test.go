package sponsoraccess_test

import (
	"errors"
	"testing"

	"github.com/mta-community/mtahub/internal/app/store/sponsoraccess"
	"github.com/mta-community/mtahub/internal/testutil"
)

func TestStore_SetAndCheck(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := sponsoraccess.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Check(ctx, "sp-1", "anything"); !errors.Is(err, sponsoraccess.ErrNoCode) {
		t.Fatalf("expected ErrNoCode, got %v", err)
	}

	if err := store.SetCode(ctx, "sp-1", "SPICE-2026", "Admin"); err != nil {
		t.Fatalf("SetCode: %v", err)
	}
	ok, err := store.Check(ctx, "sp-1", "SPICE-2026")
	if err != nil || !ok {
		t.Fatalf("Check correct code: ok=%v err=%v", ok, err)
	}
	if ok, _ := store.Check(ctx, "sp-1", "spice-2026"); ok {
		t.Error("codes are case-sensitive")
	}

	// Rotating replaces the old code.
	if err := store.SetCode(ctx, "sp-1", "NEW-CODE", "Admin"); err != nil {
		t.Fatalf("SetCode rotate: %v", err)
	}
	if ok, _ := store.Check(ctx, "sp-1", "SPICE-2026"); ok {
		t.Error("old code should no longer work")
	}

	if err := store.Delete(ctx, "sp-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Check(ctx, "sp-1", "NEW-CODE"); !errors.Is(err, sponsoraccess.ErrNoCode) {
		t.Errorf("expected ErrNoCode after delete, got %v", err)
	}
}
