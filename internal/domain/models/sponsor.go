// internal/domain/models/sponsor.go
package models

// SponsorTier controls which portal features a sponsor gets.
type SponsorTier string

const (
	TierPlatinum SponsorTier = "platinum"
	TierGold     SponsorTier = "gold"
	TierSilver   SponsorTier = "silver"
	TierBronze   SponsorTier = "bronze"
)

// SponsorFeature is a capability in the sponsor self-service portal.
type SponsorFeature string

const (
	FeatureEditProfile       SponsorFeature = "edit_profile"
	FeatureUploadLogo        SponsorFeature = "upload_logo"
	FeaturePostOffers        SponsorFeature = "post_offers"
	FeatureEventSpotlight    SponsorFeature = "event_spotlight"
	FeatureAnalytics         SponsorFeature = "analytics"
	FeaturePriorityPlacement SponsorFeature = "priority_placement"
)

var tierFeatures = map[SponsorTier][]SponsorFeature{
	TierPlatinum: {FeatureEditProfile, FeatureUploadLogo, FeaturePostOffers, FeatureEventSpotlight, FeatureAnalytics, FeaturePriorityPlacement},
	TierGold:     {FeatureEditProfile, FeatureUploadLogo, FeaturePostOffers, FeatureEventSpotlight, FeatureAnalytics},
	TierSilver:   {FeatureEditProfile, FeatureUploadLogo, FeaturePostOffers},
	TierBronze:   {FeatureEditProfile},
}

// IsValid reports whether t is a known tier.
func (t SponsorTier) IsValid() bool {
	_, ok := tierFeatures[t]
	return ok
}

// Features returns the portal features enabled for the tier.
// Unknown tiers get none.
func (t SponsorTier) Features() []SponsorFeature {
	src := tierFeatures[t]
	out := make([]SponsorFeature, len(src))
	copy(out, src)
	return out
}

// Has reports whether the tier enables f.
func (t SponsorTier) Has(f SponsorFeature) bool {
	for _, v := range tierFeatures[t] {
		if v == f {
			return true
		}
	}
	return false
}

// Sponsor is a business supporting the association.
type Sponsor struct {
	ContentMeta   `bson:",inline"`
	Name          string      `bson:"name" json:"name" validate:"required,max=200"`
	Tier          SponsorTier `bson:"tier" json:"tier" validate:"required,oneof=platinum gold silver bronze"`
	LogoURL       string      `bson:"logo_url,omitempty" json:"logo_url,omitempty" validate:"omitempty,url"`
	Website       string      `bson:"website,omitempty" json:"website,omitempty" validate:"omitempty,url"`
	Description   string      `bson:"description,omitempty" json:"description,omitempty"`
	DescriptionTA string      `bson:"description_ta,omitempty" json:"description_ta,omitempty"`
	ContactEmail  string      `bson:"contact_email,omitempty" json:"contact_email,omitempty" validate:"omitempty,email"`
	SpecialOffers string      `bson:"special_offers,omitempty" json:"special_offers,omitempty"`
}
