// internal/app/features/sponsorportal/me.go
package sponsorportal

import (
	"context"
	"net/http"

	apierr "github.com/mta-community/mtahub/internal/app/features/errors"
	"github.com/mta-community/mtahub/internal/app/store/audit"
	"github.com/mta-community/mtahub/internal/app/system/auth"
	"github.com/mta-community/mtahub/internal/app/system/authz"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
	"github.com/mta-community/mtahub/internal/domain/models"
)

// profile is what a signed-in sponsor sees about themselves.
type profile struct {
	Sponsor  models.Sponsor          `json:"sponsor"`
	Tier     models.SponsorTier      `json:"tier"`
	Features []models.SponsorFeature `json:"features"`
}

func newProfile(sp models.Sponsor) profile {
	return profile{Sponsor: sp, Tier: sp.Tier, Features: sp.Tier.Features()}
}

// patchRequest lists every field a sponsor may ever change. Which of them
// the sponsor's tier allows is checked per field.
type patchRequest struct {
	Description   *string `json:"description"`
	DescriptionTA *string `json:"description_ta"`
	LogoURL       *string `json:"logo_url"`
	SpecialOffers *string `json:"special_offers"`
}

func (p patchRequest) empty() bool {
	return p.Description == nil && p.DescriptionTA == nil && p.LogoURL == nil && p.SpecialOffers == nil
}

// required returns the features needed for the fields present in p.
func (p patchRequest) required() []models.SponsorFeature {
	var need []models.SponsorFeature
	if p.Description != nil || p.DescriptionTA != nil {
		need = append(need, models.FeatureEditProfile)
	}
	if p.LogoURL != nil {
		need = append(need, models.FeatureUploadLogo)
	}
	if p.SpecialOffers != nil {
		need = append(need, models.FeaturePostOffers)
	}
	return need
}

func (p patchRequest) apply(sp *models.Sponsor) {
	if p.Description != nil {
		sp.Description = *p.Description
	}
	if p.DescriptionTA != nil {
		sp.DescriptionTA = *p.DescriptionTA
	}
	if p.LogoURL != nil {
		sp.LogoURL = *p.LogoURL
	}
	if p.SpecialOffers != nil {
		sp.SpecialOffers = *p.SpecialOffers
	}
}

func sponsorID(r *http.Request) string {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return ""
	}
	return u.SponsorID
}

// ServeMe handles GET /sponsor-portal/me.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sp, err := h.Sponsors.Lookup(ctx, sponsorID(r))
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusOK, newProfile(sp))
}

// HandlePatchMe handles PATCH /sponsor-portal/me. Any field the tier does
// not allow fails the whole request with 403; nothing is saved.
func (h *Handler) HandlePatchMe(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := apierr.Decode(w, r, &req); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	if req.empty() {
		apierr.WriteJSON(w, r, h.Log, &apierr.BadRequest{Msg: "no fields to update"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id := sponsorID(r)
	sp, err := h.Sponsors.Mutate(ctx, id, "sponsor:"+id, func(sp *models.Sponsor) error {
		for _, f := range req.required() {
			if !sp.Tier.Has(f) {
				return authz.ErrPermissionDenied
			}
		}
		req.apply(sp)
		return nil
	})
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}

	actor := authz.Actor{ID: id, Name: sp.Name, Role: models.RoleSponsor}
	h.Audit.Admin(ctx, r, actor, audit.EventSponsorSelfUpdate, "sponsor", id, nil)
	apierr.JSON(w, http.StatusOK, newProfile(sp))
}
