// internal/app/features/stats/handler.go
package stats

import (
	"context"
	"net/http"
	"strconv"

	apierr "github.com/mta-community/mtahub/internal/app/features/errors"
	"github.com/mta-community/mtahub/internal/app/lifecycle"
	"github.com/mta-community/mtahub/internal/app/store/audit"
	"github.com/mta-community/mtahub/internal/app/system/auditlog"
	"github.com/mta-community/mtahub/internal/app/system/authz"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Source computes dashboard figures and runs the expiry sweep.
type Source interface {
	Stats(ctx context.Context, actor authz.Actor) (lifecycle.Stats, error)
	ExpireLapsed(ctx context.Context, actor authz.Actor) (int64, error)
}

type Handler struct {
	Members Source
	Audit   *auditlog.Logger
	Log     *zap.Logger
}

func NewHandler(members Source, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Members: members, Audit: audit, Log: logger}
}

// ServeStats handles GET /admin/stats.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	s, err := h.Members.Stats(ctx, actor)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusOK, s)
}

// HandleExpire handles POST /admin/expire, the manual trigger for the
// sweep the background job also runs.
func (h *Handler) HandleExpire(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Sweep(), h.Log, "expire lapsed")
	defer cancel()

	n, err := h.Members.ExpireLapsed(ctx, actor)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	h.Audit.Membership(ctx, r, actor, audit.EventMembersExpired, "member", "", map[string]string{"count": strconv.FormatInt(n, 10)})
	apierr.JSON(w, http.StatusOK, map[string]int64{"expired": n})
}
