// internal/app/features/content/routes.go
package content

import (
	"github.com/go-chi/chi/v5"
	"github.com/mta-community/mtahub/internal/app/system/auth"
)

// PublicRoutes serves published items. Mount at /api.
func PublicRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{collection}", h.ServePublicList)
	r.Get("/{collection}/{id}", h.ServePublicItem)
	return r
}

// AdminRoutes serves the editing API. Mount at /admin/content.
func AdminRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/{collection}", h.ServeList)
		pr.Post("/{collection}", h.HandleCreate)
		pr.Get("/{collection}/{id}", h.ServeItem)
		pr.Put("/{collection}/{id}", h.HandleUpdate)
		pr.Delete("/{collection}/{id}", h.HandleDelete)
	})
	return r
}
