// internal/app/features/systemusers/new.go
package systemusers

import (
	"context"
	"net/http"

	apierr "github.com/mta-community/mtahub/internal/app/features/errors"
	"github.com/mta-community/mtahub/internal/app/store/audit"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
	"github.com/mta-community/mtahub/internal/domain/models"
)

type createInput struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	AuthMethod string `json:"auth_method"`
	Password   string `json:"password"`
}

// HandleCreate handles POST /admin/users.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	var in createInput
	if err := apierr.Decode(w, r, &in); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	if err := checkCreate(in); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		FullName:   in.FullName,
		Email:      in.Email,
		Role:       in.Role,
		AuthMethod: in.AuthMethod,
	}, in.Password)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	h.AuditLog.Admin(ctx, r, actor, audit.EventUserCreated, "user", u.ID, map[string]string{"role": u.Role})
	apierr.JSON(w, http.StatusCreated, u)
}
