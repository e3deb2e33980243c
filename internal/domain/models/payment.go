// internal/domain/models/payment.go
package models

import (
	"fmt"
	"time"
)

// PaymentMethod is how a payment reached the association.
type PaymentMethod string

const (
	PaymentETransfer PaymentMethod = "etransfer"
	PaymentCash      PaymentMethod = "cash"
	PaymentCheque    PaymentMethod = "cheque"
	PaymentOther     PaymentMethod = "other"
)

// IsValid reports whether m is a known payment method.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentETransfer, PaymentCash, PaymentCheque, PaymentOther:
		return true
	}
	return false
}

// PaymentStatus is the verification state of a payment record.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentRejected PaymentStatus = "rejected"
)

// Cents is a money amount in the smallest currency unit.
type Cents int64

// String formats c as dollars, e.g. "$25.00".
func (c Cents) String() string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s$%d.%02d", sign, c/100, c%100)
}

// PaymentRecord is a manually recorded membership payment.
//
// Only Status and the verification fields (VerifiedBy, VerifiedAt,
// RejectionReason) change after creation, and they change at most once.
type PaymentRecord struct {
	ID                 string        `bson:"_id" json:"id"`
	MemberID           string        `bson:"member_id" json:"member_id"`
	Amount             Cents         `bson:"amount" json:"amount"`
	PaymentMethod      PaymentMethod `bson:"payment_method" json:"payment_method"`
	PaymentDate        time.Time     `bson:"payment_date" json:"payment_date"`
	ETransferEmail     string        `bson:"etransfer_email,omitempty" json:"etransfer_email,omitempty"`
	ETransferReference string        `bson:"etransfer_reference,omitempty" json:"etransfer_reference,omitempty"`
	Status             PaymentStatus `bson:"status" json:"status"`
	PeriodStart        time.Time     `bson:"period_start" json:"period_start"`
	PeriodEnd          time.Time     `bson:"period_end" json:"period_end"`
	Notes              string        `bson:"notes,omitempty" json:"notes,omitempty"`

	VerifiedBy      string     `bson:"verified_by,omitempty" json:"verified_by,omitempty"`
	VerifiedAt      *time.Time `bson:"verified_at,omitempty" json:"verified_at,omitempty"`
	RejectionReason string     `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
