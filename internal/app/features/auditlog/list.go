// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	apierr "github.com/mta-community/mtahub/internal/app/features/errors"
	"github.com/mta-community/mtahub/internal/app/store/audit"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
)

const pageSize = 50

// ServeList handles GET /admin/audit with optional category, event_type,
// target_type, target_id, actor_id, start_date, end_date and page filters.
// Dates are YYYY-MM-DD in UTC; end_date is inclusive.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := strings.TrimSpace(q.Get("category"))
	eventType := strings.TrimSpace(q.Get("event_type"))

	if category != "" && eventTypesForCategory(category) == nil {
		apierr.WriteJSON(w, r, h.Log, &apierr.BadRequest{Msg: "unknown category"})
		return
	}
	if eventType != "" && !knownEventType(category, eventType) {
		apierr.WriteJSON(w, r, h.Log, &apierr.BadRequest{Msg: "unknown event_type for category"})
		return
	}

	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}

	filter := audit.QueryFilter{
		Category:   category,
		EventType:  eventType,
		TargetType: strings.TrimSpace(q.Get("target_type")),
		TargetID:   strings.TrimSpace(q.Get("target_id")),
		ActorID:    strings.TrimSpace(q.Get("actor_id")),
		Limit:      pageSize,
		Offset:     int64((page - 1) * pageSize),
	}

	if s := strings.TrimSpace(q.Get("start_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			apierr.WriteJSON(w, r, h.Log, &apierr.BadRequest{Msg: "start_date must be YYYY-MM-DD"})
			return
		}
		filter.StartTime = &t
	}
	if s := strings.TrimSpace(q.Get("end_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			apierr.WriteJSON(w, r, h.Log, &apierr.BadRequest{Msg: "end_date must be YYYY-MM-DD"})
			return
		}
		// End of day
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}
	if filter.StartTime != nil && filter.EndTime != nil && filter.EndTime.Before(*filter.StartTime) {
		apierr.WriteJSON(w, r, h.Log, &apierr.BadRequest{Msg: "end_date is before start_date"})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	apierr.JSON(w, http.StatusOK, listResponse{
		Events:     events,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	})
}
