// internal/app/features/registration/handler.go
package registration

import (
	"context"
	"net/http"

	apierr "github.com/mta-community/mtahub/internal/app/features/errors"
	"github.com/mta-community/mtahub/internal/app/lifecycle"
	"github.com/mta-community/mtahub/internal/app/store/audit"
	"github.com/mta-community/mtahub/internal/app/system/auditlog"
	"github.com/mta-community/mtahub/internal/app/system/authz"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.uber.org/zap"
)

// Registrar is the slice of the lifecycle manager behind the public
// endpoints. SiteSettings is the same view the registration email uses.
type Registrar interface {
	AddMember(ctx context.Context, reg lifecycle.Registration) (models.Member, error)
	SiteSettings(ctx context.Context) models.SiteSettings
}

// Handler serves the public registration endpoint.
type Handler struct {
	Members Registrar
	Audit   *auditlog.Logger
	Log     *zap.Logger
}

func NewHandler(members Registrar, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Members: members, Audit: audit, Log: logger}
}

// registerResponse tells the registrant how to pay. The member record
// itself stays private.
type registerResponse struct {
	ID                    string                `json:"id"`
	RegistrationReference string                `json:"registration_reference"`
	Status                models.MemberStatus   `json:"status"`
	MembershipType        models.MembershipType `json:"membership_type"`
	AmountDue             models.Cents          `json:"amount_due"`
	PaymentEmail          string                `json:"payment_email,omitempty"`
}

// HandleRegister handles POST /api/register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var reg lifecycle.Registration
	if err := apierr.Decode(w, r, &reg); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	member, err := h.Members.AddMember(ctx, reg)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	h.Audit.Membership(ctx, r, authz.Actor{Name: member.FullName()}, audit.EventMemberRegistered, "member", member.ID,
		map[string]string{"reference": member.RegistrationReference, "type": string(member.MembershipType)})

	settings := h.Members.SiteSettings(ctx)
	apierr.JSON(w, http.StatusCreated, registerResponse{
		ID:                    member.ID,
		RegistrationReference: member.RegistrationReference,
		Status:                member.Status,
		MembershipType:        member.MembershipType,
		AmountDue:             settings.FeeFor(member.MembershipType),
		PaymentEmail:          settings.PaymentEmail,
	})
}

type feesResponse struct {
	Fees         map[models.MembershipType]models.Cents `json:"fees"`
	PaymentEmail string                                 `json:"payment_email,omitempty"`
}

// HandleFees handles GET /api/fees.
func (h *Handler) HandleFees(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	s := h.Members.SiteSettings(ctx)
	fees := make(map[models.MembershipType]models.Cents, len(models.DefaultFees))
	for t := range models.DefaultFees {
		fees[t] = s.FeeFor(t)
	}
	apierr.JSON(w, http.StatusOK, feesResponse{Fees: fees, PaymentEmail: s.PaymentEmail})
}
