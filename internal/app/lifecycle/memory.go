// internal/app/lifecycle/memory.go
package lifecycle

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mta-community/mtahub/internal/domain/models"
)

// MemoryStore is an in-process backing store for the lifecycle. It is used
// by tests and by mtactl --memory. Transactions are serialized and undo
// only their own writes on error.
type MemoryStore struct {
	txMu sync.Mutex

	mu            sync.Mutex
	members       map[string]models.Member
	payments      map[string]models.PaymentRecord
	counters      map[string]int64
	outbox        map[string]models.OutboxMessage
	notifications []models.EventNotification
	settings      models.SiteSettings
}

// NewMemoryStore returns an empty store with default site settings.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		members:  make(map[string]models.Member),
		payments: make(map[string]models.PaymentRecord),
		counters: make(map[string]int64),
		outbox:   make(map[string]models.OutboxMessage),
		settings: models.DefaultSiteSettings(),
	}
}

// Deps returns Deps wired to this store.
func (s *MemoryStore) Deps() Deps {
	return Deps{
		Members:       s.Members(),
		Payments:      s.Payments(),
		Sequencer:     s,
		Outbox:        s.Outbox(),
		Notifications: s.Notifications(),
		Settings:      s.Settings(),
		Tx:            s,
	}
}

// Run executes fn while holding the transaction lock. If fn fails, every
// key fn wrote through the ctx it was given is put back; writes made
// outside the transaction are left alone.
func (s *MemoryStore) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	u := &undoLog{
		members:  make(map[string]*models.Member),
		payments: make(map[string]*models.PaymentRecord),
		counters: make(map[string]*int64),
		outbox:   make(map[string]*models.OutboxMessage),
	}
	if err := fn(context.WithValue(ctx, undoKey{}, u)); err != nil {
		s.mu.Lock()
		rollback(u.members, s.members)
		rollback(u.payments, s.payments)
		rollback(u.counters, s.counters)
		rollback(u.outbox, s.outbox)
		s.mu.Unlock()
		return err
	}
	return nil
}

type undoKey struct{}

// undoLog holds the value each key had before the transaction first wrote
// it. A nil entry means the key did not exist.
type undoLog struct {
	members  map[string]*models.Member
	payments map[string]*models.PaymentRecord
	counters map[string]*int64
	outbox   map[string]*models.OutboxMessage
}

func undoFrom(ctx context.Context) *undoLog {
	u, _ := ctx.Value(undoKey{}).(*undoLog)
	return u
}

// remember records cur[key] in log unless an earlier write already did.
// Callers hold s.mu.
func remember[V any](log map[string]*V, cur map[string]V, key string) {
	if _, seen := log[key]; seen {
		return
	}
	if v, ok := cur[key]; ok {
		log[key] = &v
		return
	}
	log[key] = nil
}

func rollback[V any](log map[string]*V, cur map[string]V) {
	for k, v := range log {
		if v == nil {
			delete(cur, k)
			continue
		}
		cur[k] = *v
	}
}

// Next implements Sequencer.
func (s *MemoryStore) Next(ctx context.Context, key string, floor int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := undoFrom(ctx); u != nil {
		remember(u.counters, s.counters, key)
	}
	cur := s.counters[key]
	if floor > cur {
		cur = floor
	}
	cur++
	s.counters[key] = cur
	return cur, nil
}

// Members returns the member adapter.
func (s *MemoryStore) Members() Members { return memMembers{s} }

// Payments returns the payment adapter.
func (s *MemoryStore) Payments() Payments { return memPayments{s} }

// Outbox returns the outbox adapter.
func (s *MemoryStore) Outbox() *MemoryOutbox { return &MemoryOutbox{s} }

// Notifications returns the notification adapter.
func (s *MemoryStore) Notifications() Notifications { return memNotifications{s} }

// Settings returns the site settings adapter.
func (s *MemoryStore) Settings() *MemorySettings { return &MemorySettings{s} }

// ---- members ----

type memMembers struct{ s *MemoryStore }

func (a memMembers) Create(ctx context.Context, m models.Member) error {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.members {
		if existing.EmailCI == m.EmailCI {
			return ErrDuplicateEmail
		}
		if existing.RegistrationReference == m.RegistrationReference {
			return ErrDuplicateReference
		}
	}
	if u := undoFrom(ctx); u != nil {
		remember(u.members, s.members, m.ID)
	}
	s.members[m.ID] = cloneMember(m)
	return nil
}

func (a memMembers) Get(_ context.Context, id string) (models.Member, error) {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return models.Member{}, ErrNotFound
	}
	return cloneMember(m), nil
}

func (a memMembers) FindByEmail(_ context.Context, emailCI string) (models.Member, error) {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.EmailCI == emailCI {
			return cloneMember(m), nil
		}
	}
	return models.Member{}, ErrNotFound
}

func (a memMembers) ReferenceExists(_ context.Context, ref string) (bool, error) {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.RegistrationReference == ref {
			return true, nil
		}
	}
	return false, nil
}

func (a memMembers) Update(ctx context.Context, m models.Member) error {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[m.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range s.members {
		if id == m.ID {
			continue
		}
		if existing.EmailCI == m.EmailCI {
			return ErrDuplicateEmail
		}
		if m.MembershipNumber != "" && existing.MembershipNumber == m.MembershipNumber {
			return errors.New("membership number already assigned")
		}
	}
	if u := undoFrom(ctx); u != nil {
		remember(u.members, s.members, m.ID)
	}
	s.members[m.ID] = cloneMember(m)
	return nil
}

func (a memMembers) Delete(ctx context.Context, id string) error {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[id]; !ok {
		return ErrNotFound
	}
	if u := undoFrom(ctx); u != nil {
		remember(u.members, s.members, id)
	}
	delete(s.members, id)
	return nil
}

func (a memMembers) List(_ context.Context) ([]models.Member, error) {
	s := a.s
	s.mu.Lock()
	out := make([]models.Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, cloneMember(m))
	}
	s.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RegistrationDate.Equal(out[j].RegistrationDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].RegistrationDate.After(out[j].RegistrationDate)
	})
	return out, nil
}

func (a memMembers) CountNumbersWithPrefix(_ context.Context, prefix string) (int64, error) {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.members {
		if m.MembershipNumber != "" && strings.HasPrefix(m.MembershipNumber, prefix) {
			n++
		}
	}
	return n, nil
}

func (a memMembers) ExpireActiveBefore(ctx context.Context, now time.Time) (int64, error) {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	u := undoFrom(ctx)
	var n int64
	for id, m := range s.members {
		if m.Status == models.StatusActive && m.MembershipEndDate != nil && m.MembershipEndDate.Before(now) {
			if u != nil {
				remember(u.members, s.members, id)
			}
			m.Status = models.StatusExpired
			m.UpdatedAt = now
			s.members[id] = m
			n++
		}
	}
	return n, nil
}

func cloneMember(m models.Member) models.Member {
	if m.FamilyMembers != nil {
		m.FamilyMembers = append([]models.FamilyMember(nil), m.FamilyMembers...)
	}
	return m
}

// ---- payments ----

type memPayments struct{ s *MemoryStore }

func (a memPayments) Create(ctx context.Context, p models.PaymentRecord) error {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := undoFrom(ctx); u != nil {
		remember(u.payments, s.payments, p.ID)
	}
	s.payments[p.ID] = p
	return nil
}

func (a memPayments) Get(_ context.Context, id string) (models.PaymentRecord, error) {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return models.PaymentRecord{}, ErrNotFound
	}
	return p, nil
}

func (a memPayments) Finalize(ctx context.Context, id string, f Finalization) (models.PaymentRecord, error) {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return models.PaymentRecord{}, ErrNotFound
	}
	if p.Status != models.PaymentPending {
		return models.PaymentRecord{}, ErrPaymentFinalized
	}
	if u := undoFrom(ctx); u != nil {
		remember(u.payments, s.payments, id)
	}
	at := f.VerifiedAt
	p.Status = f.Status
	p.VerifiedBy = f.VerifiedBy
	p.VerifiedAt = &at
	p.RejectionReason = f.RejectionReason
	s.payments[id] = p
	return p, nil
}

func (a memPayments) ListForMember(_ context.Context, memberID string) ([]models.PaymentRecord, error) {
	return a.filter(func(p models.PaymentRecord) bool { return p.MemberID == memberID }), nil
}

func (a memPayments) List(_ context.Context, status models.PaymentStatus) ([]models.PaymentRecord, error) {
	return a.filter(func(p models.PaymentRecord) bool { return status == "" || p.Status == status }), nil
}

func (a memPayments) filter(keep func(models.PaymentRecord) bool) []models.PaymentRecord {
	s := a.s
	s.mu.Lock()
	out := make([]models.PaymentRecord, 0)
	for _, p := range s.payments {
		if keep(p) {
			out = append(out, p)
		}
	}
	s.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// ---- outbox ----

// MemoryOutbox is the in-memory outbox. Besides Enqueue it implements the
// claim/mark operations the delivery worker uses.
type MemoryOutbox struct{ s *MemoryStore }

// Enqueue stores msg.
func (o *MemoryOutbox) Enqueue(ctx context.Context, msg models.OutboxMessage) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	if u := undoFrom(ctx); u != nil {
		remember(u.outbox, o.s.outbox, msg.ID)
	}
	o.s.outbox[msg.ID] = msg
	return nil
}

// List returns messages with the given status (all when empty), oldest first.
func (o *MemoryOutbox) List(_ context.Context, status models.DeliveryStatus, limit int64) ([]models.OutboxMessage, error) {
	o.s.mu.Lock()
	out := make([]models.OutboxMessage, 0)
	for _, m := range o.s.outbox {
		if status == "" || m.Status == status {
			out = append(out, m)
		}
	}
	o.s.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ClaimDue moves the oldest due pending message to sending and bumps its
// attempt count. ok is false when nothing is due.
func (o *MemoryOutbox) ClaimDue(_ context.Context, now time.Time) (models.OutboxMessage, bool, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	var pick *models.OutboxMessage
	for _, m := range o.s.outbox {
		if m.Status != models.DeliveryPending || m.NextAttemptAt.After(now) {
			continue
		}
		if pick == nil || m.NextAttemptAt.Before(pick.NextAttemptAt) ||
			(m.NextAttemptAt.Equal(pick.NextAttemptAt) && m.ID < pick.ID) {
			c := m
			pick = &c
		}
	}
	if pick == nil {
		return models.OutboxMessage{}, false, nil
	}
	pick.Status = models.DeliverySending
	pick.Attempts++
	pick.NextAttemptAt = now
	o.s.outbox[pick.ID] = *pick
	return *pick, true, nil
}

// MarkSent records a successful delivery.
func (o *MemoryOutbox) MarkSent(_ context.Context, id string, at time.Time) error {
	return o.update(id, func(m *models.OutboxMessage) {
		m.Status = models.DeliverySent
		m.SentAt = &at
		m.LastError = ""
	})
}

// MarkRetry returns a message to pending with a later attempt time.
func (o *MemoryOutbox) MarkRetry(_ context.Context, id, lastErr string, next time.Time) error {
	return o.update(id, func(m *models.OutboxMessage) {
		m.Status = models.DeliveryPending
		m.LastError = lastErr
		m.NextAttemptAt = next
	})
}

// MarkFailed gives up on a message.
func (o *MemoryOutbox) MarkFailed(_ context.Context, id, lastErr string) error {
	return o.update(id, func(m *models.OutboxMessage) {
		m.Status = models.DeliveryFailed
		m.LastError = lastErr
	})
}

// Retry resets a failed message to pending with a fresh attempt budget.
func (o *MemoryOutbox) Retry(_ context.Context, id string, now time.Time) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	m, ok := o.s.outbox[id]
	if !ok {
		return ErrNotFound
	}
	if m.Status != models.DeliveryFailed {
		return ErrInvalidTransition
	}
	m.Status = models.DeliveryPending
	m.Attempts = 0
	m.NextAttemptAt = now
	o.s.outbox[id] = m
	return nil
}

// RequeueStale returns messages claimed before cutoff and still sending to
// pending. A claim stamps NextAttemptAt with the claim time.
func (o *MemoryOutbox) RequeueStale(_ context.Context, cutoff time.Time) (int64, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	var n int64
	for id, m := range o.s.outbox {
		if m.Status == models.DeliverySending && m.NextAttemptAt.Before(cutoff) {
			m.Status = models.DeliveryPending
			o.s.outbox[id] = m
			n++
		}
	}
	return n, nil
}

func (o *MemoryOutbox) update(id string, fn func(*models.OutboxMessage)) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	m, ok := o.s.outbox[id]
	if !ok {
		return ErrNotFound
	}
	fn(&m)
	o.s.outbox[id] = m
	return nil
}

// ---- notifications ----

type memNotifications struct{ s *MemoryStore }

func (a memNotifications) Create(_ context.Context, n models.EventNotification) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	n.RecipientIDs = append([]string(nil), n.RecipientIDs...)
	a.s.notifications = append(a.s.notifications, n)
	return nil
}

func (a memNotifications) List(_ context.Context, limit int64) ([]models.EventNotification, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	out := make([]models.EventNotification, 0, len(a.s.notifications))
	for i := len(a.s.notifications) - 1; i >= 0; i-- {
		out = append(out, a.s.notifications[i])
		if limit > 0 && int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

// ---- settings ----

// MemorySettings holds site settings in memory.
type MemorySettings struct{ s *MemoryStore }

// Get returns the current settings.
func (m *MemorySettings) Get(_ context.Context) (models.SiteSettings, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.settings, nil
}

// Save replaces the settings.
func (m *MemorySettings) Save(_ context.Context, settings models.SiteSettings) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.settings = settings
	return nil
}
