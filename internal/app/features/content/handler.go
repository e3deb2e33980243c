// internal/app/features/content/handler.go
package content

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mta-community/mtahub/internal/app/content"
	apierr "github.com/mta-community/mtahub/internal/app/features/errors"
	"github.com/mta-community/mtahub/internal/app/store/audit"
	"github.com/mta-community/mtahub/internal/app/system/auditlog"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler serves every content collection through the registry.
type Handler struct {
	Registry *content.Registry
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(reg *content.Registry, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Registry: reg, Audit: audit, Log: logger}
}

// collection resolves {collection}, writing 404 for unknown names.
func (h *Handler) collection(w http.ResponseWriter, r *http.Request) (content.Collection, bool) {
	c, err := h.Registry.Get(chi.URLParam(r, "collection"))
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return nil, false
	}
	return c, true
}

// ServePublicList handles GET /api/{collection}: published items only.
func (h *Handler) ServePublicList(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	items, err := c.Public(ctx)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusOK, map[string]any{"items": items})
}

// ServePublicItem handles GET /api/{collection}/{id}.
func (h *Handler) ServePublicItem(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	item, err := c.PublicGet(ctx, chi.URLParam(r, "id"))
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusOK, item)
}

// ServeList handles GET /admin/content/{collection}, drafts included.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	items, err := c.List(ctx, actor)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusOK, map[string]any{"items": items})
}

// ServeItem handles GET /admin/content/{collection}/{id}.
func (h *Handler) ServeItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	item, err := c.Get(ctx, actor, chi.URLParam(r, "id"))
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusOK, item)
}

// HandleCreate handles POST /admin/content/{collection}.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	body, err := apierr.ReadBody(w, r)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	item, err := c.CreateJSON(ctx, actor, body)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	h.Audit.Content(ctx, r, actor, audit.EventContentCreated, c.Name(), itemID(item))
	apierr.JSON(w, http.StatusCreated, item)
}

// HandleUpdate handles PUT /admin/content/{collection}/{id}. The body
// replaces the item; id and created_at are kept.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	body, err := apierr.ReadBody(w, r)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id := chi.URLParam(r, "id")
	item, err := c.UpdateJSON(ctx, actor, id, body)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	h.Audit.Content(ctx, r, actor, audit.EventContentUpdated, c.Name(), id)
	apierr.JSON(w, http.StatusOK, item)
}

// HandleDelete handles DELETE /admin/content/{collection}/{id}. Admin only.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := c.Delete(ctx, actor, id); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	h.Audit.Content(ctx, r, actor, audit.EventContentDeleted, c.Name(), id)
	w.WriteHeader(http.StatusNoContent)
}

// itemID reads the id of a created item for the audit trail.
func itemID(item any) string {
	if m, ok := item.(interface{ ItemID() string }); ok {
		return m.ItemID()
	}
	return ""
}
