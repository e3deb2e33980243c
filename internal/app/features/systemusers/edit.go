// internal/app/features/systemusers/edit.go
package systemusers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	apierr "github.com/mta-community/mtahub/internal/app/features/errors"
	"github.com/mta-community/mtahub/internal/app/store/audit"
	userstore "github.com/mta-community/mtahub/internal/app/store/users"
	"github.com/mta-community/mtahub/internal/app/system/normalize"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
	"github.com/mta-community/mtahub/internal/domain/models"
)

type editInput struct {
	FullName   *string `json:"full_name"`
	Email      *string `json:"email"`
	Role       *string `json:"role"`
	Status     *string `json:"status"`
	AuthMethod *string `json:"auth_method"`
	Password   *string `json:"password"`
}

// HandleEdit handles PATCH /admin/users/{id}.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	var in editInput
	if err := apierr.Decode(w, r, &in); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	if err := checkEdit(in); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id := chi.URLParam(r, "id")
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}

	newRole, newStatus := u.Role, u.Status
	if in.Role != nil {
		newRole = normalize.Role(*in.Role)
	}
	if in.Status != nil {
		newStatus = normalize.Status(*in.Status)
	}
	stillActiveAdmin := newRole == models.RoleAdmin && newStatus == models.UserActive

	// Prevent an admin from changing their own role or status.
	if id == actor.ID && !stillActiveAdmin {
		apierr.WriteJSON(w, r, h.Log, userstore.ErrSelfChange)
		return
	}
	if isActiveAdmin(u) && !stillActiveAdmin {
		if err := h.guardLastAdmin(ctx); err != nil {
			apierr.WriteJSON(w, r, h.Log, err)
			return
		}
	}

	updated, err := h.Users.Update(ctx, id, userstore.Update{
		FullName:   in.FullName,
		Email:      in.Email,
		Role:       in.Role,
		Status:     in.Status,
		AuthMethod: in.AuthMethod,
		Password:   in.Password,
	})
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	if credentialsChanged(in, u, updated) {
		h.revoke(ctx, id)
	}
	h.AuditLog.Admin(ctx, r, actor, audit.EventUserUpdated, "user", id, map[string]string{
		"role":   updated.Role,
		"status": updated.Status,
	})
	apierr.JSON(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /admin/users/{id}
// (cannot delete self, cannot delete last active admin).
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id := chi.URLParam(r, "id")
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}

	// Guard 1: prevent an admin from deleting themself.
	if id == actor.ID {
		apierr.WriteJSON(w, r, h.Log, userstore.ErrSelfChange)
		return
	}
	// Guard 2: do not allow deleting the last active admin.
	if isActiveAdmin(u) {
		if err := h.guardLastAdmin(ctx); err != nil {
			apierr.WriteJSON(w, r, h.Log, err)
			return
		}
	}

	if err := h.Users.Delete(ctx, id); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	h.revoke(ctx, id)
	h.AuditLog.Admin(ctx, r, actor, audit.EventUserDeleted, "user", id, map[string]string{"email": u.Email})
	w.WriteHeader(http.StatusNoContent)
}

// credentialsChanged reports whether an edit affects what the user may do
// or how they sign in. Name and email edits keep existing sessions.
func credentialsChanged(in editInput, before, after *models.User) bool {
	return in.Password != nil ||
		before.Role != after.Role ||
		before.Status != after.Status ||
		before.AuthMethod != after.AuthMethod
}

func isActiveAdmin(u *models.User) bool {
	return strings.EqualFold(u.Role, models.RoleAdmin) && strings.EqualFold(u.Status, models.UserActive)
}

func (h *Handler) guardLastAdmin(ctx context.Context) error {
	n, err := h.Users.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if n <= 1 {
		return userstore.ErrLastAdmin
	}
	return nil
}
