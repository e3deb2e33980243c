// internal/app/features/members/payments.go
package members

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	apierr "github.com/mta-community/mtahub/internal/app/features/errors"
	"github.com/mta-community/mtahub/internal/app/lifecycle"
	"github.com/mta-community/mtahub/internal/app/store/audit"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
)

// ServePayments handles GET /admin/members/{id}/payments.
func (h *Handler) ServePayments(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Members.PaymentsForMember(ctx, actor, chi.URLParam(r, "id"))
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusOK, map[string]any{"payments": list})
}

// decodePayment reads a PaymentInput and pins it to the member in the URL.
func (h *Handler) decodePayment(w http.ResponseWriter, r *http.Request) (lifecycle.PaymentInput, bool) {
	var in lifecycle.PaymentInput
	if err := apierr.Decode(w, r, &in); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return in, false
	}
	in.MemberID = chi.URLParam(r, "id")
	return in, true
}

// HandleAddPayment handles POST /admin/members/{id}/payments.
func (h *Handler) HandleAddPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	in, ok := h.decodePayment(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Members.AddPayment(ctx, actor, in)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	h.Audit.Membership(ctx, r, actor, audit.EventPaymentRecorded, "payment", p.ID, map[string]string{"member_id": p.MemberID})
	apierr.JSON(w, http.StatusCreated, p)
}

// HandleActivate handles POST /admin/members/{id}/activate: record a
// payment as verified and activate the member in one step.
func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	in, ok := h.decodePayment(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	act, err := h.Members.RecordAndActivate(ctx, actor, in.MemberID, in)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	h.Audit.Membership(ctx, r, actor, audit.EventMemberActivated, "member", act.Member.ID,
		map[string]string{"payment_id": act.Payment.ID, "membership_number": act.Member.MembershipNumber})
	apierr.JSON(w, http.StatusOK, act)
}
