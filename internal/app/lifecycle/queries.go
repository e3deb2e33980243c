// internal/app/lifecycle/queries.go
package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/mta-community/mtahub/internal/app/system/authz"
	"github.com/mta-community/mtahub/internal/domain/models"
)

// expiringWindow is how far ahead Stats looks for memberships ending soon.
const expiringWindow = 30 * 24 * time.Hour

// Stats summarises the membership for the admin dashboard.
type Stats struct {
	Total           int          `json:"total"`
	Active          int          `json:"active"`
	Pending         int          `json:"pending"`
	PendingPayments int          `json:"pending_payments"`
	ExpiringSoon    int          `json:"expiring_soon"`
	NewThisMonth    int          `json:"new_this_month"`
	RevenueThisYear models.Cents `json:"revenue_this_year"`
}

// ComputeStats derives Stats from the full member and payment lists.
func ComputeStats(members []models.Member, payments []models.PaymentRecord, now time.Time) Stats {
	now = now.UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	soon := now.Add(expiringWindow)

	var s Stats
	s.Total = len(members)
	for _, m := range members {
		switch m.EffectiveStatus(now) {
		case models.StatusActive:
			s.Active++
			if end := m.MembershipEndDate; end != nil && !end.Before(now) && !end.After(soon) {
				s.ExpiringSoon++
			}
		}
		if m.Status == models.StatusPending {
			s.Pending++
		}
		if !m.RegistrationDate.Before(monthStart) {
			s.NewThisMonth++
		}
	}
	for _, p := range payments {
		switch p.Status {
		case models.PaymentPending:
			s.PendingPayments++
		case models.PaymentVerified:
			if p.PaymentDate.UTC().Year() == now.Year() {
				s.RevenueThisYear += p.Amount
			}
		}
	}
	return s
}

// Filter narrows a member search. Empty fields match everything; set
// fields are AND-composed.
type Filter struct {
	Query  string                `json:"q"`
	Status models.MemberStatus   `json:"status"`
	Type   models.MembershipType `json:"type"`
}

// SearchMembers applies f to members. Query is a case-insensitive substring
// match over full name, email, phone and membership number. Status matches
// the effective status at now.
func SearchMembers(members []models.Member, f Filter, now time.Time) []models.Member {
	q := strings.TrimSpace(f.Query)
	out := make([]models.Member, 0, len(members))
	for _, m := range members {
		m.Status = m.EffectiveStatus(now)
		if f.Status != "" && m.Status != f.Status {
			continue
		}
		if f.Type != "" && m.MembershipType != f.Type {
			continue
		}
		if q != "" && !matchesQuery(m, q) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// matchesQuery folds the name (diacritics and case) and lowercases the
// other fields.
func matchesQuery(m models.Member, q string) bool {
	name := m.FullNameCI
	if name == "" {
		name = text.Fold(m.FullName())
	}
	if strings.Contains(name, text.Fold(q)) {
		return true
	}
	lq := strings.ToLower(q)
	for _, field := range []string{m.Email, m.Phone, m.MembershipNumber} {
		if field != "" && strings.Contains(strings.ToLower(field), lq) {
			return true
		}
	}
	return false
}

// GetMember returns one member with its effective status.
func (m *Manager) GetMember(ctx context.Context, actor authz.Actor, id string) (models.Member, error) {
	if err := authz.Require(actor, authz.View); err != nil {
		return models.Member{}, err
	}
	member, err := m.members.Get(ctx, id)
	if err != nil {
		return models.Member{}, err
	}
	return m.effective(member), nil
}

// ListMembers returns every member with effective statuses, newest first.
func (m *Manager) ListMembers(ctx context.Context, actor authz.Actor) ([]models.Member, error) {
	return m.Search(ctx, actor, Filter{})
}

// Search returns the members matching f.
func (m *Manager) Search(ctx context.Context, actor authz.Actor, f Filter) ([]models.Member, error) {
	if err := authz.Require(actor, authz.View); err != nil {
		return nil, err
	}
	all, err := m.members.List(ctx)
	if err != nil {
		return nil, err
	}
	return SearchMembers(all, f, m.now()), nil
}

// PaymentsForMember lists a member's payments, newest first.
func (m *Manager) PaymentsForMember(ctx context.Context, actor authz.Actor, memberID string) ([]models.PaymentRecord, error) {
	if err := authz.Require(actor, authz.View); err != nil {
		return nil, err
	}
	if _, err := m.members.Get(ctx, memberID); err != nil {
		return nil, err
	}
	return m.payments.ListForMember(ctx, memberID)
}

// ListPayments lists payments with the given status, or all when status is empty.
func (m *Manager) ListPayments(ctx context.Context, actor authz.Actor, status models.PaymentStatus) ([]models.PaymentRecord, error) {
	if err := authz.Require(actor, authz.View); err != nil {
		return nil, err
	}
	switch status {
	case "", models.PaymentPending, models.PaymentVerified, models.PaymentRejected:
	default:
		return nil, invalid("status", "Status must be one of pending, verified, rejected.")
	}
	return m.payments.List(ctx, status)
}

// Stats computes dashboard statistics at the manager's current time.
func (m *Manager) Stats(ctx context.Context, actor authz.Actor) (Stats, error) {
	if err := authz.Require(actor, authz.View); err != nil {
		return Stats{}, err
	}
	members, err := m.members.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	payments, err := m.payments.List(ctx, "")
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(members, payments, m.now()), nil
}
