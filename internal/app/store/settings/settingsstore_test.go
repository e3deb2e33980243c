package settingsstore_test

import (
	"testing"

	settingsstore "github.com/mta-community/mtahub/internal/app/store/settings"
	"github.com/mta-community/mtahub/internal/domain/models"
	"github.com/mta-community/mtahub/internal/testutil"
)

func TestStore_Get_NoSettings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := settingsstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	settings, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if settings.SiteName != models.DefaultSiteName {
		t.Errorf("SiteName: got %q, want default %q", settings.SiteName, models.DefaultSiteName)
	}
	if got := settings.FeeFor(models.MembershipFamily); got != 5000 {
		t.Errorf("family fee = %v, want $50.00", got)
	}
}

func TestStore_Save_MergesDefaultFees(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := settingsstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.Save(ctx, models.SiteSettings{
		SiteName:      "Mississauga Tamil Association",
		PaymentEmail:  "pay@example.org",
		Fees:          map[models.MembershipType]models.Cents{models.MembershipIndividual: 3000},
		UpdatedByName: "Admin",
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	saved, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if saved.SiteName != "Mississauga Tamil Association" || saved.PaymentEmail != "pay@example.org" {
		t.Errorf("unexpected settings %+v", saved)
	}
	if saved.FeeFor(models.MembershipIndividual) != 3000 {
		t.Errorf("individual fee = %v, want $30.00", saved.FeeFor(models.MembershipIndividual))
	}
	if saved.Fees[models.MembershipStudent] != models.DefaultFees[models.MembershipStudent] {
		t.Error("missing fees should fall back to defaults")
	}
	if saved.UpdatedAt == nil {
		t.Error("expected UpdatedAt to be set")
	}

	exists, err := store.Exists(ctx)
	if err != nil || !exists {
		t.Errorf("Exists = %v, %v; want true", exists, err)
	}
}
