// internal/app/features/about/handler.go
package about

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mta-community/mtahub/internal/app/content"
	apierr "github.com/mta-community/mtahub/internal/app/features/errors"
	"github.com/mta-community/mtahub/internal/app/store/audit"
	pagestore "github.com/mta-community/mtahub/internal/app/store/pages"
	"github.com/mta-community/mtahub/internal/app/system/auditlog"
	"github.com/mta-community/mtahub/internal/app/system/authz"
	"github.com/mta-community/mtahub/internal/app/system/htmlsanitize"
	"github.com/mta-community/mtahub/internal/app/system/inputval"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.uber.org/zap"
)

// Pages reads and writes slug-keyed pages. *pagestore.Store satisfies it.
type Pages interface {
	GetBySlug(ctx context.Context, slug string) (models.Page, error)
	Upsert(ctx context.Context, page models.Page) error
}

type Handler struct {
	Pages Pages
	Audit *auditlog.Logger
	Log   *zap.Logger
}

func NewHandler(pages Pages, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Pages: pages, Audit: audit, Log: logger}
}

type pageInput struct {
	Title     string `json:"title" validate:"required,max=200" label:"Title"`
	TitleTA   string `json:"title_ta" validate:"max=200" label:"Title (Tamil)"`
	Content   string `json:"content" label:"Content"`
	ContentTA string `json:"content_ta" label:"Content (Tamil)"`
	Mission   string `json:"mission" label:"Mission"`
	MissionTA string `json:"mission_ta" label:"Mission (Tamil)"`
}

// load returns the about page, or an empty one titled "About" if none
// has been saved yet.
func (h *Handler) load(ctx context.Context) (models.Page, error) {
	p, err := h.Pages.GetBySlug(ctx, models.PageAbout)
	if errors.Is(err, pagestore.ErrNotFound) {
		return models.Page{Slug: models.PageAbout, Title: "About"}, nil
	}
	return p, err
}

// ServeAbout handles GET /api/about.
func (h *Handler) ServeAbout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.load(ctx)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusOK, p)
}

// ServeEdit handles GET /admin/about.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	if err := authz.Require(actor, authz.View); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	h.ServeAbout(w, r)
}

// HandleEdit handles PUT /admin/about. Rich-text fields are sanitized.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	if err := authz.Require(actor, authz.Edit); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	var in pageInput
	if err := apierr.Decode(w, r, &in); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	in.Title = strings.TrimSpace(in.Title)
	if res := inputval.Validate(in); res.HasErrors() {
		apierr.WriteJSON(w, r, h.Log, &content.ValidationError{Result: res})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	page := models.Page{
		Slug:      models.PageAbout,
		Title:     in.Title,
		TitleTA:   strings.TrimSpace(in.TitleTA),
		Content:   htmlsanitize.Prepare(in.Content),
		ContentTA: htmlsanitize.Prepare(in.ContentTA),
		Mission:   htmlsanitize.Prepare(in.Mission),
		MissionTA: htmlsanitize.Prepare(in.MissionTA),
		UpdatedBy: actor.Name,
	}
	if err := h.Pages.Upsert(ctx, page); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	h.Audit.Admin(ctx, r, actor, audit.EventPageUpdated, "page", models.PageAbout, nil)

	saved, err := h.load(ctx)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusOK, saved)
}
