// internal/app/lifecycle/notify.go
package lifecycle

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mta-community/mtahub/internal/app/system/authz"
	"github.com/mta-community/mtahub/internal/app/system/inputval"
	"github.com/mta-community/mtahub/internal/app/system/mailer"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

func (m *Manager) enqueue(ctx context.Context, kind string, e mailer.Email) error {
	now := m.now()
	msg := models.OutboxMessage{
		ID:            uuid.NewString(),
		Kind:          kind,
		To:            e.To,
		ToName:        e.ToName,
		Subject:       e.Subject,
		TextBody:      e.TextBody,
		HTMLBody:      e.HTMLBody,
		Status:        models.DeliveryPending,
		NextAttemptAt: now,
		CreatedAt:     now,
	}
	if err := m.outbox.Enqueue(ctx, msg); err != nil {
		return err
	}
	add(ctx, m.metrics.enqueued, 1, attribute.String("kind", kind))
	return nil
}

// queueRegistrationEmail never fails the caller; a broken outbox is logged.
func (m *Manager) queueRegistrationEmail(ctx context.Context, member models.Member) {
	s := m.SiteSettings(ctx)
	e := mailer.BuildRegistrationEmail(mailer.RegistrationEmailData{
		SiteName:       s.SiteName,
		Name:           member.FullName(),
		Reference:      member.RegistrationReference,
		AmountDue:      s.FeeFor(member.MembershipType).String(),
		MembershipType: string(member.MembershipType),
		PaymentEmail:   s.PaymentEmail,
	})
	e.To, e.ToName = member.Email, member.FullName()
	if err := m.enqueue(ctx, models.KindRegistration, e); err != nil {
		m.log.Error("queue registration email failed",
			zap.String("member_id", member.ID),
			zap.String("reference", member.RegistrationReference),
			zap.Error(err))
	}
}

func (m *Manager) queueActivationEmail(ctx context.Context, member models.Member) {
	s := m.SiteSettings(ctx)
	data := mailer.ActivationEmailData{
		SiteName:         s.SiteName,
		Name:             member.FullName(),
		MembershipNumber: member.MembershipNumber,
	}
	if member.MembershipStartDate != nil {
		data.StartDate = member.MembershipStartDate.Format(dateLayout)
	}
	if member.MembershipEndDate != nil {
		data.EndDate = member.MembershipEndDate.Format(dateLayout)
	}
	e := mailer.BuildActivationEmail(data)
	e.To, e.ToName = member.Email, member.FullName()
	if err := m.enqueue(ctx, models.KindActivation, e); err != nil {
		m.log.Error("queue activation email failed",
			zap.String("member_id", member.ID),
			zap.String("membership_number", member.MembershipNumber),
			zap.Error(err))
	}
}

// NotificationInput is an event announcement to send to members.
type NotificationInput struct {
	EventID       string               `json:"event_id" validate:"required" label:"Event"`
	EventTitle    string               `json:"event_title" validate:"required,max=200" label:"Event title"`
	EventDate     string               `json:"event_date"`
	Location      string               `json:"location"`
	Subject       string               `json:"subject" validate:"max=200" label:"Subject"`
	Message       string               `json:"message" validate:"required,max=10000" label:"Message"`
	RecipientMode models.RecipientMode `json:"recipient_mode" validate:"required,oneof=all active specific" label:"Recipients"`
	RecipientIDs  []string             `json:"recipient_ids" validate:"required_if=RecipientMode specific" label:"Recipient list"`
}

// SendEventNotification resolves recipients by mode, skipping members who
// opted out of event notifications, stores the notification with a
// snapshot of recipient ids, and queues one email per recipient.
func (m *Manager) SendEventNotification(ctx context.Context, actor authz.Actor, in NotificationInput) (n models.EventNotification, err error) {
	ctx, span := m.start(ctx, "SendEventNotification",
		attribute.String("event_id", in.EventID),
		attribute.String("recipient_mode", string(in.RecipientMode)))
	defer func() { endSpan(span, err) }()

	if err := authz.Require(actor, authz.Edit); err != nil {
		return models.EventNotification{}, err
	}
	if err := fromResult(inputval.Validate(in)); err != nil {
		return models.EventNotification{}, err
	}
	if m.notifications == nil {
		return models.EventNotification{}, fmt.Errorf("notifications store not configured")
	}

	recipients, err := m.resolveRecipients(ctx, in)
	if err != nil {
		return models.EventNotification{}, err
	}

	s := m.SiteSettings(ctx)
	n = models.EventNotification{
		ID:            uuid.NewString(),
		EventID:       in.EventID,
		EventTitle:    in.EventTitle,
		Subject:       in.Subject,
		Message:       in.Message,
		RecipientMode: in.RecipientMode,
		RecipientIDs:  make([]string, 0, len(recipients)),
		SentBy:        actor.Name,
		SentAt:        m.now(),
	}
	for _, r := range recipients {
		n.RecipientIDs = append(n.RecipientIDs, r.ID)
		e := mailer.BuildEventEmail(mailer.EventEmailData{
			SiteName:   s.SiteName,
			Name:       r.FullName(),
			Subject:    in.Subject,
			EventTitle: in.EventTitle,
			EventDate:  in.EventDate,
			Location:   in.Location,
			Message:    in.Message,
		})
		e.To, e.ToName = r.Email, r.FullName()
		if err := m.enqueue(ctx, models.KindEventNotification, e); err != nil {
			m.log.Error("queue event email failed",
				zap.String("member_id", r.ID),
				zap.String("event_id", in.EventID),
				zap.Error(err))
			continue
		}
		n.Queued++
	}

	if err := m.notifications.Create(ctx, n); err != nil {
		return models.EventNotification{}, fmt.Errorf("store notification: %w", err)
	}
	span.SetAttributes(attribute.Int("recipients", len(n.RecipientIDs)), attribute.Int("queued", n.Queued))
	return n, nil
}

func (m *Manager) resolveRecipients(ctx context.Context, in NotificationInput) ([]models.Member, error) {
	var candidates []models.Member
	switch in.RecipientMode {
	case models.RecipientsSpecific:
		seen := make(map[string]bool, len(in.RecipientIDs))
		for _, id := range in.RecipientIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			member, err := m.members.Get(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("recipient %s: %w", id, err)
			}
			candidates = append(candidates, member)
		}
	default:
		all, err := m.members.List(ctx)
		if err != nil {
			return nil, err
		}
		candidates = all
	}

	now := m.now()
	out := candidates[:0:0]
	for _, c := range candidates {
		if !c.Preferences.EventNotifications {
			continue
		}
		if in.RecipientMode == models.RecipientsActive && c.EffectiveStatus(now) != models.StatusActive {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// ListNotifications returns recent event notifications, newest first.
func (m *Manager) ListNotifications(ctx context.Context, actor authz.Actor, limit int64) ([]models.EventNotification, error) {
	if err := authz.Require(actor, authz.View); err != nil {
		return nil, err
	}
	if m.notifications == nil {
		return nil, nil
	}
	return m.notifications.List(ctx, limit)
}
