// internal/app/features/settings/admin.go
package settings

import (
	"context"
	"net/http"
	"strings"

	"github.com/mta-community/mtahub/internal/app/content"
	apierr "github.com/mta-community/mtahub/internal/app/features/errors"
	"github.com/mta-community/mtahub/internal/app/store/audit"
	"github.com/mta-community/mtahub/internal/app/system/authz"
	"github.com/mta-community/mtahub/internal/app/system/inputval"
	"github.com/mta-community/mtahub/internal/app/system/normalize"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
	"github.com/mta-community/mtahub/internal/domain/models"
)

// settingsInput is the editable part of SiteSettings. The email widget
// identifiers are not here; they are read-only through the API.
type settingsInput struct {
	SiteName     string                                 `json:"site_name" validate:"required,max=200" label:"Site name"`
	SiteNameTA   string                                 `json:"site_name_ta" validate:"max=200" label:"Site name (Tamil)"`
	Tagline      string                                 `json:"tagline" validate:"max=300" label:"Tagline"`
	TaglineTA    string                                 `json:"tagline_ta" validate:"max=300" label:"Tagline (Tamil)"`
	ContactEmail string                                 `json:"contact_email" validate:"omitempty,email" label:"Contact email"`
	ContactPhone string                                 `json:"contact_phone" validate:"max=30" label:"Contact phone"`
	PaymentEmail string                                 `json:"payment_email" validate:"omitempty,email" label:"Payment email"`
	Fees         map[models.MembershipType]models.Cents `json:"fees" validate:"dive,keys,oneof=individual family student senior,endkeys,gte=0" label:"Fees"`
	SocialLinks  map[string]string                      `json:"social_links" validate:"dive,omitempty,url" label:"Social links"`
}

// ServeSettings handles GET /admin/settings.
func (h *Handler) ServeSettings(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	if err := authz.Require(actor, authz.View); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	s, err := h.Settings.Get(ctx)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusOK, s)
}

// HandleSettings handles PUT /admin/settings. Editors and admins only.
func (h *Handler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	if err := authz.Require(actor, authz.Edit); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	var in settingsInput
	if err := apierr.Decode(w, r, &in); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	in.SiteName = strings.TrimSpace(in.SiteName)
	in.ContactEmail = normalize.Email(in.ContactEmail)
	in.PaymentEmail = normalize.Email(in.PaymentEmail)
	if res := inputval.Validate(in); res.HasErrors() {
		apierr.WriteJSON(w, r, h.Log, &content.ValidationError{Result: res})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	current, err := h.Settings.Get(ctx)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	next := models.SiteSettings{
		SiteName:       in.SiteName,
		SiteNameTA:     in.SiteNameTA,
		Tagline:        in.Tagline,
		TaglineTA:      in.TaglineTA,
		ContactEmail:   in.ContactEmail,
		ContactPhone:   normalize.Phone(in.ContactPhone),
		PaymentEmail:   in.PaymentEmail,
		Fees:           mergeFees(current.Fees, in.Fees),
		EmailServiceID: current.EmailServiceID,
		EmailPublicKey: current.EmailPublicKey,
		SocialLinks:    in.SocialLinks,
		UpdatedByName:  actor.Name,
	}
	if err := h.Settings.Save(ctx, next); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	h.Audit.Admin(ctx, r, actor, audit.EventSettingsUpdated, "settings", "site", nil)

	saved, err := h.Settings.Get(ctx)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusOK, saved)
}

// mergeFees overlays the submitted fees on the current ones so a partial
// fee map never drops a membership type.
func mergeFees(current, submitted map[models.MembershipType]models.Cents) map[models.MembershipType]models.Cents {
	out := make(map[models.MembershipType]models.Cents, len(models.DefaultFees))
	for t, fee := range models.DefaultFees {
		out[t] = fee
	}
	for t, fee := range current {
		out[t] = fee
	}
	for t, fee := range submitted {
		out[t] = fee
	}
	return out
}
