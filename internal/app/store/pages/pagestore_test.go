package pagestore_test

import (
	"errors"
	"testing"
	"time"

	pagestore "github.com/mta-community/mtahub/internal/app/store/pages"
	"github.com/mta-community/mtahub/internal/domain/models"
	"github.com/mta-community/mtahub/internal/testutil"
)

func TestStore_Upsert_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	page := models.Page{
		Slug:      models.PageAbout,
		Title:     "About Us",
		TitleTA:   "எங்களைப் பற்றி",
		Content:   "<p>About content</p>",
		UpdatedBy: "Admin",
	}

	if err := store.Upsert(ctx, page); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	saved, err := store.GetBySlug(ctx, models.PageAbout)
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if saved.Title != "About Us" || saved.TitleTA != page.TitleTA {
		t.Errorf("unexpected titles: %q / %q", saved.Title, saved.TitleTA)
	}
	if saved.Content != "<p>About content</p>" {
		t.Errorf("expected content '<p>About content</p>', got %q", saved.Content)
	}
	if saved.UpdatedAt == nil {
		t.Error("expected UpdatedAt to be set")
	}
	if saved.UpdatedBy != "Admin" {
		t.Errorf("UpdatedBy = %q, want Admin", saved.UpdatedBy)
	}
}

func TestStore_Upsert_UpdatesInPlace(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Upsert(ctx, models.Page{Slug: "about", Title: "Old"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	first, _ := store.GetBySlug(ctx, "about")

	time.Sleep(10 * time.Millisecond)
	if err := store.Upsert(ctx, models.Page{Slug: "about", Title: "New", Mission: "Serve"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 page, got %d", len(all))
	}
	if all[0].Title != "New" || all[0].Mission != "Serve" {
		t.Errorf("unexpected page %+v", all[0])
	}
	if !all[0].UpdatedAt.After(*first.UpdatedAt) {
		t.Error("expected UpdatedAt to advance")
	}
}

func TestStore_GetBySlug_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetBySlug(ctx, "nonexistent")
	if !errors.Is(err, pagestore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	ok, err := store.Exists(ctx, "nonexistent")
	if err != nil || ok {
		t.Errorf("Exists = %v, %v; want false, nil", ok, err)
	}
}
