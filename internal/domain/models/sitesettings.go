// internal/domain/models/sitesettings.go
package models

import "time"

// SiteSettings holds association-wide configuration that admins can edit.
// There is a single settings document.
type SiteSettings struct {
	// Display settings
	SiteName   string `bson:"site_name" json:"site_name"`
	SiteNameTA string `bson:"site_name_ta,omitempty" json:"site_name_ta,omitempty"`
	Tagline    string `bson:"tagline,omitempty" json:"tagline,omitempty"`
	TaglineTA  string `bson:"tagline_ta,omitempty" json:"tagline_ta,omitempty"`

	// Contact and payment
	ContactEmail string `bson:"contact_email,omitempty" json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone string `bson:"contact_phone,omitempty" json:"contact_phone,omitempty"`
	PaymentEmail string `bson:"payment_email,omitempty" json:"payment_email,omitempty" validate:"omitempty,email"` // e-Transfer destination

	// Annual fee per membership type
	Fees map[MembershipType]Cents `bson:"fees,omitempty" json:"fees,omitempty"`

	// Legacy email widget identifiers, shown read-only to the front end
	EmailServiceID string `bson:"email_service_id,omitempty" json:"email_service_id,omitempty"`
	EmailPublicKey string `bson:"email_public_key,omitempty" json:"email_public_key,omitempty"`

	SocialLinks map[string]string `bson:"social_links,omitempty" json:"social_links,omitempty"`

	// Audit fields
	UpdatedAt     *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	UpdatedByName string     `bson:"updated_by_name,omitempty" json:"updated_by_name,omitempty"`
}

// DefaultSiteName is the site name used when settings don't exist.
const DefaultSiteName = "MTA Community Association"

// DefaultFees are used for any membership type without a configured fee.
var DefaultFees = map[MembershipType]Cents{
	MembershipIndividual: 2500,
	MembershipFamily:     5000,
	MembershipStudent:    1500,
	MembershipSenior:     1500,
}

// DefaultSiteSettings returns the settings used before an admin saves any.
func DefaultSiteSettings() SiteSettings {
	fees := make(map[MembershipType]Cents, len(DefaultFees))
	for k, v := range DefaultFees {
		fees[k] = v
	}
	return SiteSettings{SiteName: DefaultSiteName, Fees: fees}
}

// FeeFor returns the annual fee for t, falling back to DefaultFees.
func (s SiteSettings) FeeFor(t MembershipType) Cents {
	if v, ok := s.Fees[t]; ok {
		return v
	}
	return DefaultFees[t]
}
