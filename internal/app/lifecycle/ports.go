// internal/app/lifecycle/ports.go
package lifecycle

import (
	"context"
	"time"

	"github.com/mta-community/mtahub/internal/domain/models"
)

// Members persists member records.
//
// Adapters return ErrNotFound for unknown ids, ErrDuplicateEmail when the
// email_ci unique constraint fires, and ErrDuplicateReference when the
// registration_reference unique constraint fires.
type Members interface {
	Create(ctx context.Context, m models.Member) error
	Get(ctx context.Context, id string) (models.Member, error)
	FindByEmail(ctx context.Context, emailCI string) (models.Member, error)
	ReferenceExists(ctx context.Context, ref string) (bool, error)
	Update(ctx context.Context, m models.Member) error
	Delete(ctx context.Context, id string) error
	// List returns every member, newest registration first.
	List(ctx context.Context) ([]models.Member, error)
	// CountNumbersWithPrefix counts members whose membership number starts with prefix.
	CountNumbersWithPrefix(ctx context.Context, prefix string) (int64, error)
	// ExpireActiveBefore persists status expired for every active member
	// whose end date is before now, returning how many changed.
	ExpireActiveBefore(ctx context.Context, now time.Time) (int64, error)
}

// Finalization is the one-time verdict applied to a pending payment.
type Finalization struct {
	Status          models.PaymentStatus
	VerifiedBy      string
	VerifiedAt      time.Time
	RejectionReason string
}

// Payments persists payment records.
type Payments interface {
	Create(ctx context.Context, p models.PaymentRecord) error
	Get(ctx context.Context, id string) (models.PaymentRecord, error)
	// Finalize applies f only if the payment is still pending. It returns
	// ErrNotFound for an unknown id and ErrPaymentFinalized otherwise.
	Finalize(ctx context.Context, id string, f Finalization) (models.PaymentRecord, error)
	ListForMember(ctx context.Context, memberID string) ([]models.PaymentRecord, error)
	// List returns payments with the given status, or all when status is empty.
	List(ctx context.Context, status models.PaymentStatus) ([]models.PaymentRecord, error)
}

// Sequencer hands out strictly increasing numbers per key. Next first raises
// the stored value to at least floor, then increments and returns it.
type Sequencer interface {
	Next(ctx context.Context, key string, floor int64) (int64, error)
}

// Outbox queues outbound email.
type Outbox interface {
	Enqueue(ctx context.Context, msg models.OutboxMessage) error
}

// Notifications stores event notification records.
type Notifications interface {
	Create(ctx context.Context, n models.EventNotification) error
	List(ctx context.Context, limit int64) ([]models.EventNotification, error)
}

// SettingsSource supplies the fees, site name and payment destination used
// in outbound email.
type SettingsSource interface {
	Get(ctx context.Context) (models.SiteSettings, error)
}

// TxRunner runs fn atomically where the backing store supports it.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}
