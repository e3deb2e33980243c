// internal/app/features/members/edit.go
package members

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	apierr "github.com/mta-community/mtahub/internal/app/features/errors"
	"github.com/mta-community/mtahub/internal/app/lifecycle"
	"github.com/mta-community/mtahub/internal/app/store/audit"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
	"github.com/mta-community/mtahub/internal/domain/models"
)

// HandleEdit handles PATCH /admin/members/{id}.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	var upd lifecycle.MemberUpdate
	if err := apierr.Decode(w, r, &upd); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id := chi.URLParam(r, "id")
	m, err := h.Members.UpdateMember(ctx, actor, id, upd)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	h.Audit.Membership(ctx, r, actor, audit.EventMemberUpdated, "member", id, nil)
	apierr.JSON(w, http.StatusOK, m)
}

type statusRequest struct {
	Status models.MemberStatus `json:"status"`
}

// HandleStatus handles POST /admin/members/{id}/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := apierr.Decode(w, r, &req); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id := chi.URLParam(r, "id")
	m, err := h.Members.SetStatus(ctx, actor, id, req.Status)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	event := audit.EventMemberStatus
	if req.Status == models.StatusCancelled {
		event = audit.EventMemberCancelled
	}
	h.Audit.Membership(ctx, r, actor, event, "member", id, map[string]string{"status": string(req.Status)})
	apierr.JSON(w, http.StatusOK, m)
}

// HandleDelete handles DELETE /admin/members/{id}. Admin only.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.Members.DeleteMember(ctx, actor, id); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	h.Audit.Membership(ctx, r, actor, audit.EventMemberDeleted, "member", id, nil)
	w.WriteHeader(http.StatusNoContent)
}
