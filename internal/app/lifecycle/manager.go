// internal/app/lifecycle/manager.go
package lifecycle

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"github.com/mta-community/mtahub/internal/app/system/authz"
	"github.com/mta-community/mtahub/internal/app/system/inputval"
	"github.com/mta-community/mtahub/internal/app/system/normalize"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "mtahub/lifecycle"

// Deps are the collaborators a Manager is built from.
type Deps struct {
	Members       Members
	Payments      Payments
	Sequencer     Sequencer
	Outbox        Outbox
	Notifications Notifications
	Settings      SettingsSource
	Tx            TxRunner

	Log *zap.Logger

	// Now defaults to time.Now in UTC.
	Now func() time.Time
	// Rand is the entropy source for registration references. Defaults to crypto/rand.
	Rand io.Reader
	// PaymentEmail is the e-Transfer destination used when site settings
	// do not name one.
	PaymentEmail string
}

// Manager owns members and payments and every status transition between
// them. It is safe for concurrent use when its adapters are.
type Manager struct {
	members       Members
	payments      Payments
	seq           Sequencer
	outbox        Outbox
	notifications Notifications
	settings      SettingsSource
	tx            TxRunner

	log          *zap.Logger
	now          func() time.Time
	rand         io.Reader
	paymentEmail string

	tracer  trace.Tracer
	metrics instruments
}

type instruments struct {
	registered metric.Int64Counter
	payments   metric.Int64Counter
	activated  metric.Int64Counter
	expired    metric.Int64Counter
	enqueued   metric.Int64Counter
}

type directTx struct{}

func (directTx) Run(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

// New builds a Manager. Members, Payments, Sequencer and Outbox are required.
func New(d Deps) *Manager {
	m := &Manager{
		members:       d.Members,
		payments:      d.Payments,
		seq:           d.Sequencer,
		outbox:        d.Outbox,
		notifications: d.Notifications,
		settings:      d.Settings,
		tx:            d.Tx,
		log:           d.Log,
		now:           d.Now,
		rand:          d.Rand,
		paymentEmail:  d.PaymentEmail,
		tracer:        otel.Tracer(instrumentationName),
	}
	if m.tx == nil {
		m.tx = directTx{}
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	if m.now == nil {
		m.now = func() time.Time { return time.Now().UTC() }
	}
	if m.rand == nil {
		m.rand = rand.Reader
	}
	m.metrics = newInstruments(m.log)
	return m
}

func newInstruments(log *zap.Logger) instruments {
	meter := otel.Meter(instrumentationName)
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			log.Warn("metric counter unavailable", zap.String("name", name), zap.Error(err))
		}
		return c
	}
	return instruments{
		registered: counter("mtahub.members.registered", "Members registered"),
		payments:   counter("mtahub.payments", "Payment records by outcome"),
		activated:  counter("mtahub.members.activated", "Members activated"),
		expired:    counter("mtahub.members.expired", "Members marked expired by the sweep"),
		enqueued:   counter("mtahub.outbox.enqueued", "Emails queued by kind"),
	}
}

func add(ctx context.Context, c metric.Int64Counter, n int64, attrs ...attribute.KeyValue) {
	if c == nil {
		return
	}
	c.Add(ctx, n, metric.WithAttributes(attrs...))
}

func (m *Manager) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "lifecycle."+op, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Registration is the public sign-up form.
type Registration struct {
	FirstName      string                `json:"first_name" validate:"required,max=100" label:"First name"`
	LastName       string                `json:"last_name" validate:"required,max=100" label:"Last name"`
	Email          string                `json:"email" validate:"required,email,max=254" label:"Email"`
	Phone          string                `json:"phone" validate:"omitempty,max=30" label:"Phone"`
	Address        models.Address        `json:"address"`
	MembershipType models.MembershipType `json:"membership_type" validate:"required,oneof=individual family student senior" label:"Membership type"`
	FamilyMembers  []FamilyMemberInput   `json:"family_members" validate:"omitempty,max=12,dive"`
	Preferences    models.Preferences    `json:"preferences"`
	Notes          string                `json:"notes" validate:"max=2000" label:"Notes"`
}

// FamilyMemberInput is one family member on a registration or update.
type FamilyMemberInput struct {
	Name         string              `json:"name" validate:"required,max=100" label:"Family member name"`
	Relationship models.Relationship `json:"relationship" validate:"required,oneof=spouse child other" label:"Relationship"`
	Age          *int                `json:"age" validate:"omitempty,min=0,max=130" label:"Age"`
}

func (r *Registration) normalize() {
	r.FirstName = normalize.Name(r.FirstName)
	r.LastName = normalize.Name(r.LastName)
	r.Email = normalize.QueryParam(r.Email)
	r.Phone = normalize.QueryParam(r.Phone)
	r.MembershipType = models.MembershipType(normalize.Status(string(r.MembershipType)))
	for i := range r.FamilyMembers {
		r.FamilyMembers[i].Name = normalize.Name(r.FamilyMembers[i].Name)
		r.FamilyMembers[i].Relationship = models.Relationship(normalize.Status(string(r.FamilyMembers[i].Relationship)))
	}
}

func familyMembers(in []FamilyMemberInput) []models.FamilyMember {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.FamilyMember, len(in))
	for i, f := range in {
		out[i] = models.FamilyMember{Name: f.Name, Relationship: f.Relationship, Age: f.Age}
	}
	return out
}

// AddMember registers a new member in status pending and queues the
// registration confirmation email.
func (m *Manager) AddMember(ctx context.Context, reg Registration) (member models.Member, err error) {
	ctx, span := m.start(ctx, "AddMember", attribute.String("membership_type", string(reg.MembershipType)))
	defer func() { endSpan(span, err) }()

	reg.normalize()
	if err := fromResult(inputval.Validate(reg)); err != nil {
		return models.Member{}, err
	}

	emailCI := normalize.Email(reg.Email)
	if _, err := m.members.FindByEmail(ctx, emailCI); err == nil {
		return models.Member{}, ErrDuplicateEmail
	} else if !errors.Is(err, ErrNotFound) {
		return models.Member{}, fmt.Errorf("check email: %w", err)
	}

	now := m.now()
	member = models.Member{
		ID:             uuid.NewString(),
		FirstName:      reg.FirstName,
		LastName:       reg.LastName,
		Email:          reg.Email,
		EmailCI:        emailCI,
		Phone:          reg.Phone,
		Address:        reg.Address,
		MembershipType: reg.MembershipType,
		Status:         models.StatusPending,
		FamilyMembers:  familyMembers(reg.FamilyMembers),
		Preferences:    reg.Preferences,
		Notes:          reg.Notes,

		RegistrationDate: now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	member.FullNameCI = text.Fold(member.FullName())

	if err := m.insertWithReference(ctx, &member); err != nil {
		return models.Member{}, err
	}
	span.SetAttributes(attribute.String("member_id", member.ID))
	add(ctx, m.metrics.registered, 1, attribute.String("membership_type", string(member.MembershipType)))

	m.queueRegistrationEmail(ctx, member)
	return member, nil
}

// insertWithReference assigns a fresh reference and inserts, regenerating
// while the reference is taken. Each existence check and each insert
// collision consumes one attempt.
func (m *Manager) insertWithReference(ctx context.Context, member *models.Member) error {
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		ref, err := NewReference(m.rand)
		if err != nil {
			return err
		}
		exists, err := m.members.ReferenceExists(ctx, ref)
		if err != nil {
			return fmt.Errorf("check reference: %w", err)
		}
		if exists {
			continue
		}
		member.RegistrationReference = ref
		err = m.members.Create(ctx, *member)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrDuplicateReference):
			continue
		case errors.Is(err, ErrDuplicateEmail):
			return ErrDuplicateEmail
		default:
			return fmt.Errorf("create member: %w", err)
		}
	}
	member.RegistrationReference = ""
	return ErrReferenceExhausted
}

// MemberUpdate is a partial edit. Nil fields are left unchanged.
type MemberUpdate struct {
	FirstName      *string                `json:"first_name"`
	LastName       *string                `json:"last_name"`
	Email          *string                `json:"email"`
	Phone          *string                `json:"phone"`
	Address        *models.Address        `json:"address"`
	MembershipType *models.MembershipType `json:"membership_type"`
	FamilyMembers  *[]FamilyMemberInput   `json:"family_members"`
	Preferences    *models.Preferences    `json:"preferences"`
	Notes          *string                `json:"notes"`
}

// UpdateMember edits personal details. Reference, registration date,
// membership number and status are never touched here.
func (m *Manager) UpdateMember(ctx context.Context, actor authz.Actor, id string, upd MemberUpdate) (member models.Member, err error) {
	ctx, span := m.start(ctx, "UpdateMember", attribute.String("member_id", id))
	defer func() { endSpan(span, err) }()

	if err := authz.Require(actor, authz.Edit); err != nil {
		return models.Member{}, err
	}
	member, err = m.members.Get(ctx, id)
	if err != nil {
		return models.Member{}, err
	}

	// Validate the merged record through the registration rules.
	reg := Registration{
		FirstName:      member.FirstName,
		LastName:       member.LastName,
		Email:          member.Email,
		Phone:          member.Phone,
		Address:        member.Address,
		MembershipType: member.MembershipType,
		Preferences:    member.Preferences,
		Notes:          member.Notes,
	}
	for _, f := range member.FamilyMembers {
		reg.FamilyMembers = append(reg.FamilyMembers, FamilyMemberInput{Name: f.Name, Relationship: f.Relationship, Age: f.Age})
	}
	if upd.FirstName != nil {
		reg.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		reg.LastName = *upd.LastName
	}
	if upd.Email != nil {
		reg.Email = *upd.Email
	}
	if upd.Phone != nil {
		reg.Phone = *upd.Phone
	}
	if upd.Address != nil {
		reg.Address = *upd.Address
	}
	if upd.MembershipType != nil {
		reg.MembershipType = *upd.MembershipType
	}
	if upd.FamilyMembers != nil {
		reg.FamilyMembers = *upd.FamilyMembers
	}
	if upd.Preferences != nil {
		reg.Preferences = *upd.Preferences
	}
	if upd.Notes != nil {
		reg.Notes = *upd.Notes
	}
	reg.normalize()
	if err := fromResult(inputval.Validate(reg)); err != nil {
		return models.Member{}, err
	}

	emailCI := normalize.Email(reg.Email)
	if emailCI != member.EmailCI {
		other, err := m.members.FindByEmail(ctx, emailCI)
		switch {
		case err == nil && other.ID != member.ID:
			return models.Member{}, ErrDuplicateEmail
		case err != nil && !errors.Is(err, ErrNotFound):
			return models.Member{}, fmt.Errorf("check email: %w", err)
		}
	}

	member.FirstName = reg.FirstName
	member.LastName = reg.LastName
	member.FullNameCI = text.Fold(member.FullName())
	member.Email = reg.Email
	member.EmailCI = emailCI
	member.Phone = reg.Phone
	member.Address = reg.Address
	member.MembershipType = reg.MembershipType
	member.FamilyMembers = familyMembers(reg.FamilyMembers)
	member.Preferences = reg.Preferences
	member.Notes = reg.Notes
	member.UpdatedAt = m.now()

	if err := m.members.Update(ctx, member); err != nil {
		return models.Member{}, err
	}
	return m.effective(member), nil
}

// SetStatus sets a member's status directly. Cancelling, and moving a
// member out of cancelled, require admin; other statuses require editor or
// admin. A member who has never been
// activated through a payment cannot be set active.
func (m *Manager) SetStatus(ctx context.Context, actor authz.Actor, id string, status models.MemberStatus) (member models.Member, err error) {
	ctx, span := m.start(ctx, "SetStatus", attribute.String("member_id", id), attribute.String("status", string(status)))
	defer func() { endSpan(span, err) }()

	if !status.IsValid() {
		return models.Member{}, invalid("status", "Status must be one of pending, payment_pending, active, expired, cancelled.")
	}
	action := authz.Edit
	if status == models.StatusCancelled {
		action = authz.Delete
	}
	if err := authz.Require(actor, action); err != nil {
		return models.Member{}, err
	}

	member, err = m.members.Get(ctx, id)
	if err != nil {
		return models.Member{}, err
	}
	if status != models.StatusCancelled {
		if err := requireReopen(actor, member); err != nil {
			return models.Member{}, err
		}
	}
	if status == models.StatusActive {
		if _, _, ok := ParseMembershipNumber(member.MembershipNumber); !ok || member.MembershipEndDate == nil {
			return models.Member{}, ErrInvalidTransition
		}
	}
	member.Status = status
	member.UpdatedAt = m.now()
	if err := m.members.Update(ctx, member); err != nil {
		return models.Member{}, err
	}
	return m.effective(member), nil
}

// requireReopen allows a cancelled member to change state only for actors
// who may cancel.
func requireReopen(actor authz.Actor, member models.Member) error {
	if member.Status != models.StatusCancelled {
		return nil
	}
	return authz.Require(actor, authz.Delete)
}

// Cancel cancels a membership. Admin only.
func (m *Manager) Cancel(ctx context.Context, actor authz.Actor, id string) (models.Member, error) {
	return m.SetStatus(ctx, actor, id, models.StatusCancelled)
}

// DeleteMember removes a member. Payment records are kept. Admin only.
func (m *Manager) DeleteMember(ctx context.Context, actor authz.Actor, id string) (err error) {
	ctx, span := m.start(ctx, "DeleteMember", attribute.String("member_id", id))
	defer func() { endSpan(span, err) }()

	if err := authz.Require(actor, authz.Delete); err != nil {
		return err
	}
	return m.members.Delete(ctx, id)
}

// ExpireLapsed persists status expired for active members past their end
// date and returns how many were changed. Admin (or system) only.
func (m *Manager) ExpireLapsed(ctx context.Context, actor authz.Actor) (n int64, err error) {
	ctx, span := m.start(ctx, "ExpireLapsed")
	defer func() { endSpan(span, err) }()

	if err := authz.Require(actor, authz.Delete); err != nil {
		return 0, err
	}
	n, err = m.members.ExpireActiveBefore(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("expire members: %w", err)
	}
	span.SetAttributes(attribute.Int64("expired", n))
	add(ctx, m.metrics.expired, n)
	return n, nil
}

func (m *Manager) effective(member models.Member) models.Member {
	member.Status = member.EffectiveStatus(m.now())
	return member
}

// SiteSettings returns the stored settings with defaults filled in: the
// default site name, and the configured payment email when none is saved.
// A read failure yields the defaults.
func (m *Manager) SiteSettings(ctx context.Context) models.SiteSettings {
	if m.settings == nil {
		return m.withPaymentEmail(models.DefaultSiteSettings())
	}
	s, err := m.settings.Get(ctx)
	if err != nil {
		m.log.Warn("site settings unavailable, using defaults", zap.Error(err))
		return m.withPaymentEmail(models.DefaultSiteSettings())
	}
	if s.SiteName == "" {
		s.SiteName = models.DefaultSiteName
	}
	return m.withPaymentEmail(s)
}

func (m *Manager) withPaymentEmail(s models.SiteSettings) models.SiteSettings {
	if s.PaymentEmail == "" {
		s.PaymentEmail = m.paymentEmail
	}
	return s
}
