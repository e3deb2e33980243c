// internal/domain/models/outbox.go
package models

import "time"

// DeliveryStatus is the state of an outbound message.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySending DeliveryStatus = "sending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

// Outbox message kinds.
const (
	KindRegistration      = "registration"
	KindActivation        = "activation"
	KindEventNotification = "event_notification"
)

// OutboxMessage is an email waiting for (or done with) delivery.
type OutboxMessage struct {
	ID            string         `bson:"_id" json:"id"`
	Kind          string         `bson:"kind" json:"kind"`
	To            string         `bson:"to" json:"to"`
	ToName        string         `bson:"to_name,omitempty" json:"to_name,omitempty"`
	Subject       string         `bson:"subject" json:"subject"`
	TextBody      string         `bson:"text_body" json:"text_body"`
	HTMLBody      string         `bson:"html_body,omitempty" json:"html_body,omitempty"`
	Status        DeliveryStatus `bson:"status" json:"status"`
	Attempts      int            `bson:"attempts" json:"attempts"`
	LastError     string         `bson:"last_error,omitempty" json:"last_error,omitempty"`
	NextAttemptAt time.Time      `bson:"next_attempt_at" json:"next_attempt_at"`
	CreatedAt     time.Time      `bson:"created_at" json:"created_at"`
	SentAt        *time.Time     `bson:"sent_at,omitempty" json:"sent_at,omitempty"`
}
