// internal/app/features/settings/public.go
package settings

import (
	"context"
	"net/http"

	apierr "github.com/mta-community/mtahub/internal/app/features/errors"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
	"github.com/mta-community/mtahub/internal/domain/models"
)

// publicSettings is what the public site may see: no audit fields.
type publicSettings struct {
	SiteName       string                                 `json:"site_name"`
	SiteNameTA     string                                 `json:"site_name_ta,omitempty"`
	Tagline        string                                 `json:"tagline,omitempty"`
	TaglineTA      string                                 `json:"tagline_ta,omitempty"`
	ContactEmail   string                                 `json:"contact_email,omitempty"`
	ContactPhone   string                                 `json:"contact_phone,omitempty"`
	PaymentEmail   string                                 `json:"payment_email,omitempty"`
	Fees           map[models.MembershipType]models.Cents `json:"fees"`
	EmailServiceID string                                 `json:"email_service_id,omitempty"`
	EmailPublicKey string                                 `json:"email_public_key,omitempty"`
	SocialLinks    map[string]string                      `json:"social_links,omitempty"`
}

// ServePublic handles GET /api/settings.
func (h *Handler) ServePublic(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	s, err := h.Settings.Get(ctx)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusOK, publicSettings{
		SiteName:       s.SiteName,
		SiteNameTA:     s.SiteNameTA,
		Tagline:        s.Tagline,
		TaglineTA:      s.TaglineTA,
		ContactEmail:   s.ContactEmail,
		ContactPhone:   s.ContactPhone,
		PaymentEmail:   s.PaymentEmail,
		Fees:           s.Fees,
		EmailServiceID: s.EmailServiceID,
		EmailPublicKey: s.EmailPublicKey,
		SocialLinks:    s.SocialLinks,
	})
}
