// internal/app/store/settings/settingsstore.go
package settingsstore

import (
	"context"
	"time"

	"github.com/mta-community/mtahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// settingsID is the _id of the single site settings document.
const settingsID = "site"

// Store provides access to the site_settings collection, which holds one
// document.
type Store struct {
	c *mongo.Collection
}

// New creates a new settings store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("site_settings")}
}

// Get returns the site settings. If none have been saved, returns the
// defaults. Fees missing from the saved document fall back to the defaults.
func (s *Store) Get(ctx context.Context) (models.SiteSettings, error) {
	var settings models.SiteSettings
	err := s.c.FindOne(ctx, bson.M{"_id": settingsID}).Decode(&settings)
	if err == mongo.ErrNoDocuments {
		return models.DefaultSiteSettings(), nil
	}
	if err != nil {
		return models.SiteSettings{}, err
	}
	if settings.SiteName == "" {
		settings.SiteName = models.DefaultSiteName
	}
	if settings.Fees == nil {
		settings.Fees = map[models.MembershipType]models.Cents{}
	}
	for t, fee := range models.DefaultFees {
		if _, ok := settings.Fees[t]; !ok {
			settings.Fees[t] = fee
		}
	}
	return settings, nil
}

// Save replaces the site settings, stamping updated_at.
// Uses upsert so it works whether settings exist or not.
func (s *Store) Save(ctx context.Context, settings models.SiteSettings) error {
	now := time.Now().UTC()
	settings.UpdatedAt = &now

	update := bson.M{
		"$set": bson.M{
			"site_name":        settings.SiteName,
			"site_name_ta":     settings.SiteNameTA,
			"tagline":          settings.Tagline,
			"tagline_ta":       settings.TaglineTA,
			"contact_email":    settings.ContactEmail,
			"contact_phone":    settings.ContactPhone,
			"payment_email":    settings.PaymentEmail,
			"fees":             settings.Fees,
			"email_service_id": settings.EmailServiceID,
			"email_public_key": settings.EmailPublicKey,
			"social_links":     settings.SocialLinks,
			"updated_at":       settings.UpdatedAt,
			"updated_by_name":  settings.UpdatedByName,
		},
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": settingsID}, update, options.Update().SetUpsert(true))
	return err
}

// Exists checks if settings have been saved.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	count, err := s.c.CountDocuments(ctx, bson.M{"_id": settingsID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
