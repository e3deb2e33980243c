// internal/app/features/payments/handler.go
package payments

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	apierr "github.com/mta-community/mtahub/internal/app/features/errors"
	"github.com/mta-community/mtahub/internal/app/lifecycle"
	"github.com/mta-community/mtahub/internal/app/store/audit"
	"github.com/mta-community/mtahub/internal/app/system/auditlog"
	"github.com/mta-community/mtahub/internal/app/system/authz"
	"github.com/mta-community/mtahub/internal/app/system/normalize"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.uber.org/zap"
)

// Verifier is the payment side of the lifecycle manager.
type Verifier interface {
	ListPayments(ctx context.Context, actor authz.Actor, status models.PaymentStatus) ([]models.PaymentRecord, error)
	VerifyPayment(ctx context.Context, actor authz.Actor, paymentID string) (lifecycle.Activation, error)
	RejectPayment(ctx context.Context, actor authz.Actor, paymentID, reason string) (models.PaymentRecord, error)
}

// Handler serves /admin/payments.
type Handler struct {
	Payments Verifier
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(payments Verifier, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Payments: payments, Audit: audit, Log: logger}
}

// ServeList handles GET /admin/payments?status=pending.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	status := models.PaymentStatus(normalize.Status(r.URL.Query().Get("status")))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Payments.ListPayments(ctx, actor, status)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusOK, map[string]any{"payments": list, "count": len(list)})
}

// HandleVerify handles POST /admin/payments/{id}/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id := chi.URLParam(r, "id")
	act, err := h.Payments.VerifyPayment(ctx, actor, id)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	h.Audit.Membership(ctx, r, actor, audit.EventPaymentVerified, "payment", id, map[string]string{
		"member_id":         act.Member.ID,
		"membership_number": act.Member.MembershipNumber,
	})
	apierr.JSON(w, http.StatusOK, act)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// HandleReject handles POST /admin/payments/{id}/reject. The body is optional.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	var req rejectRequest
	if r.ContentLength != 0 {
		if err := apierr.Decode(w, r, &req); err != nil {
			apierr.WriteJSON(w, r, h.Log, err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id := chi.URLParam(r, "id")
	p, err := h.Payments.RejectPayment(ctx, actor, id, strings.TrimSpace(req.Reason))
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	h.Audit.Membership(ctx, r, actor, audit.EventPaymentRejected, "payment", id, map[string]string{"member_id": p.MemberID})
	apierr.JSON(w, http.StatusOK, p)
}
