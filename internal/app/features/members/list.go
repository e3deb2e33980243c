// internal/app/features/members/list.go
package members

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	apierr "github.com/mta-community/mtahub/internal/app/features/errors"
	"github.com/mta-community/mtahub/internal/app/lifecycle"
	"github.com/mta-community/mtahub/internal/app/system/normalize"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
	"github.com/mta-community/mtahub/internal/domain/models"
)

type listResponse struct {
	Members []models.Member `json:"members"`
	Count   int             `json:"count"`
}

// ServeList handles GET /admin/members?q=&status=&type=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	f := lifecycle.Filter{
		Query:  normalize.QueryParam(q.Get("q")),
		Status: models.MemberStatus(normalize.Status(q.Get("status"))),
		Type:   models.MembershipType(normalize.Status(q.Get("type"))),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Members.Search(ctx, actor, f)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusOK, listResponse{Members: list, Count: len(list)})
}

// ServeView handles GET /admin/members/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Members.GetMember(ctx, actor, chi.URLParam(r, "id"))
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusOK, m)
}
