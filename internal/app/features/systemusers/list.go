// internal/app/features/systemusers/list.go
package systemusers

import (
	"context"
	"net/http"

	apierr "github.com/mta-community/mtahub/internal/app/features/errors"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
	"github.com/mta-community/mtahub/internal/domain/models"
)

// ServeList handles GET /admin/users, ordered by name.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	apierr.JSON(w, http.StatusOK, map[string]any{"users": users})
}
