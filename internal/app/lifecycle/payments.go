// internal/app/lifecycle/payments.go
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mta-community/mtahub/internal/app/system/authz"
	"github.com/mta-community/mtahub/internal/app/system/inputval"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.opentelemetry.io/otel/attribute"
)

// PaymentInput describes a manually recorded payment.
type PaymentInput struct {
	MemberID           string               `json:"member_id" validate:"required" label:"Member"`
	Amount             models.Cents         `json:"amount" validate:"gt=0" label:"Amount"`
	PaymentMethod      models.PaymentMethod `json:"payment_method" validate:"required,oneof=etransfer cash cheque other" label:"Payment method"`
	PaymentDate        *time.Time           `json:"payment_date"`
	ETransferEmail     string               `json:"etransfer_email" validate:"omitempty,email" label:"e-Transfer email"`
	ETransferReference string               `json:"etransfer_reference" validate:"max=100" label:"e-Transfer reference"`
	PeriodStart        *time.Time           `json:"period_start"`
	PeriodEnd          *time.Time           `json:"period_end"`
	Notes              string               `json:"notes" validate:"max=2000" label:"Notes"`
}

// Activation is the result of verifying a payment.
type Activation struct {
	Member  models.Member        `json:"member"`
	Payment models.PaymentRecord `json:"payment"`
}

func (m *Manager) newPayment(in PaymentInput, now time.Time) (models.PaymentRecord, error) {
	if err := fromResult(inputval.Validate(in)); err != nil {
		return models.PaymentRecord{}, err
	}
	p := models.PaymentRecord{
		ID:                 uuid.NewString(),
		MemberID:           in.MemberID,
		Amount:             in.Amount,
		PaymentMethod:      in.PaymentMethod,
		PaymentDate:        now,
		ETransferEmail:     in.ETransferEmail,
		ETransferReference: in.ETransferReference,
		Status:             models.PaymentPending,
		PeriodStart:        now,
		PeriodEnd:          now.AddDate(1, 0, 0),
		Notes:              in.Notes,
		CreatedAt:          now,
	}
	if in.PaymentDate != nil {
		p.PaymentDate = in.PaymentDate.UTC()
	}
	if in.PeriodStart != nil {
		p.PeriodStart = in.PeriodStart.UTC()
		p.PeriodEnd = p.PeriodStart.AddDate(1, 0, 0)
	}
	if in.PeriodEnd != nil {
		p.PeriodEnd = in.PeriodEnd.UTC()
	}
	if !p.PeriodEnd.After(p.PeriodStart) {
		return models.PaymentRecord{}, invalid("period_end", "Period end must be after period start.")
	}
	return p, nil
}

// AddPayment records a pending payment for a member. The member moves to
// payment_pending unless they are active and unexpired (a renewal), in
// which case they stay active.
func (m *Manager) AddPayment(ctx context.Context, actor authz.Actor, in PaymentInput) (p models.PaymentRecord, err error) {
	ctx, span := m.start(ctx, "AddPayment", attribute.String("member_id", in.MemberID))
	defer func() { endSpan(span, err) }()

	if err := authz.Require(actor, authz.Edit); err != nil {
		return models.PaymentRecord{}, err
	}
	now := m.now()
	p, err = m.newPayment(in, now)
	if err != nil {
		return models.PaymentRecord{}, err
	}

	err = m.tx.Run(ctx, func(ctx context.Context) error {
		member, err := m.members.Get(ctx, in.MemberID)
		if err != nil {
			return err
		}
		if err := requireReopen(actor, member); err != nil {
			return err
		}
		if err := m.payments.Create(ctx, p); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		if member.EffectiveStatus(now) == models.StatusActive {
			return nil
		}
		member.Status = models.StatusPaymentPending
		member.UpdatedAt = now
		return m.members.Update(ctx, member)
	})
	if err != nil {
		return models.PaymentRecord{}, err
	}
	span.SetAttributes(attribute.String("payment_id", p.ID))
	add(ctx, m.metrics.payments, 1, attribute.String("outcome", string(models.PaymentPending)))
	return p, nil
}

// VerifyPayment marks a pending payment verified and activates its member.
func (m *Manager) VerifyPayment(ctx context.Context, actor authz.Actor, paymentID string) (act Activation, err error) {
	ctx, span := m.start(ctx, "VerifyPayment", attribute.String("payment_id", paymentID))
	defer func() { endSpan(span, err) }()

	if err := authz.Require(actor, authz.Edit); err != nil {
		return Activation{}, err
	}
	now := m.now()

	err = m.tx.Run(ctx, func(ctx context.Context) error {
		p, err := m.payments.Get(ctx, paymentID)
		if err != nil {
			return err
		}
		if p.Status != models.PaymentPending {
			return ErrPaymentFinalized
		}
		member, err := m.members.Get(ctx, p.MemberID)
		if err != nil {
			return err
		}
		if err := requireReopen(actor, member); err != nil {
			return err
		}
		p, err = m.payments.Finalize(ctx, paymentID, Finalization{
			Status:     models.PaymentVerified,
			VerifiedBy: actor.Name,
			VerifiedAt: now,
		})
		if err != nil {
			return err
		}
		if err := m.activate(ctx, &member, now); err != nil {
			return err
		}
		act = Activation{Member: member, Payment: p}
		return nil
	})
	if err != nil {
		return Activation{}, err
	}

	span.SetAttributes(
		attribute.String("member_id", act.Member.ID),
		attribute.String("membership_number", act.Member.MembershipNumber),
	)
	add(ctx, m.metrics.payments, 1, attribute.String("outcome", string(models.PaymentVerified)))
	add(ctx, m.metrics.activated, 1)
	m.queueActivationEmail(ctx, act.Member)
	return act, nil
}

// RejectPayment marks a pending payment rejected. The member's status is
// left as it is; in particular a payment_pending member stays
// payment_pending and receives no membership number.
func (m *Manager) RejectPayment(ctx context.Context, actor authz.Actor, paymentID, reason string) (p models.PaymentRecord, err error) {
	ctx, span := m.start(ctx, "RejectPayment", attribute.String("payment_id", paymentID))
	defer func() { endSpan(span, err) }()

	if err := authz.Require(actor, authz.Edit); err != nil {
		return models.PaymentRecord{}, err
	}
	if len(reason) > 2000 {
		return models.PaymentRecord{}, invalid("reason", "Reason must be at most 2000 characters.")
	}
	p, err = m.payments.Finalize(ctx, paymentID, Finalization{
		Status:          models.PaymentRejected,
		VerifiedBy:      actor.Name,
		VerifiedAt:      m.now(),
		RejectionReason: reason,
	})
	if err != nil {
		return models.PaymentRecord{}, err
	}
	add(ctx, m.metrics.payments, 1, attribute.String("outcome", string(models.PaymentRejected)))
	return p, nil
}

// RecordAndActivate records an already verified payment and activates the
// member in one step, from any current status. Reactivating a cancelled
// member requires admin.
func (m *Manager) RecordAndActivate(ctx context.Context, actor authz.Actor, memberID string, in PaymentInput) (act Activation, err error) {
	ctx, span := m.start(ctx, "RecordAndActivate", attribute.String("member_id", memberID))
	defer func() { endSpan(span, err) }()

	if err := authz.Require(actor, authz.Edit); err != nil {
		return Activation{}, err
	}
	now := m.now()
	in.MemberID = memberID
	p, err := m.newPayment(in, now)
	if err != nil {
		return Activation{}, err
	}
	p.Status = models.PaymentVerified
	p.VerifiedBy = actor.Name
	p.VerifiedAt = &now

	err = m.tx.Run(ctx, func(ctx context.Context) error {
		member, err := m.members.Get(ctx, memberID)
		if err != nil {
			return err
		}
		if err := requireReopen(actor, member); err != nil {
			return err
		}
		if err := m.payments.Create(ctx, p); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		if err := m.activate(ctx, &member, now); err != nil {
			return err
		}
		act = Activation{Member: member, Payment: p}
		return nil
	})
	if err != nil {
		return Activation{}, err
	}

	span.SetAttributes(attribute.String("membership_number", act.Member.MembershipNumber))
	add(ctx, m.metrics.payments, 1, attribute.String("outcome", string(models.PaymentVerified)))
	add(ctx, m.metrics.activated, 1)
	m.queueActivationEmail(ctx, act.Member)
	return act, nil
}

// activate sets status active, assigns a membership number if the member
// has none, and starts a one-year term at now.
func (m *Manager) activate(ctx context.Context, member *models.Member, now time.Time) error {
	if member.MembershipNumber == "" {
		number, err := m.nextMembershipNumber(ctx, now.Year())
		if err != nil {
			return err
		}
		member.MembershipNumber = number
	}
	start := now
	end := start.AddDate(1, 0, 0)
	member.Status = models.StatusActive
	member.MembershipStartDate = &start
	member.MembershipEndDate = &end
	member.UpdatedAt = now
	if err := m.members.Update(ctx, *member); err != nil {
		return fmt.Errorf("activate member: %w", err)
	}
	return nil
}

func (m *Manager) nextMembershipNumber(ctx context.Context, year int) (string, error) {
	floor, err := m.members.CountNumbersWithPrefix(ctx, MembershipNumberPrefix(year))
	if err != nil {
		return "", fmt.Errorf("count membership numbers: %w", err)
	}
	seq, err := m.seq.Next(ctx, sequenceKey(year), floor)
	if err != nil {
		return "", fmt.Errorf("next membership number: %w", err)
	}
	return FormatMembershipNumber(year, seq), nil
}
