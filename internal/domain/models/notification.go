// internal/domain/models/notification.go
package models

import "time"

// RecipientMode selects which members an event notification goes to.
type RecipientMode string

const (
	RecipientsAll      RecipientMode = "all"
	RecipientsActive   RecipientMode = "active"
	RecipientsSpecific RecipientMode = "specific"
)

// EventNotification records one fan-out of an event announcement.
// RecipientIDs is a snapshot taken at send time.
type EventNotification struct {
	ID            string        `bson:"_id" json:"id"`
	EventID       string        `bson:"event_id" json:"event_id"`
	EventTitle    string        `bson:"event_title" json:"event_title"`
	Subject       string        `bson:"subject" json:"subject"`
	Message       string        `bson:"message" json:"message"`
	RecipientMode RecipientMode `bson:"recipient_mode" json:"recipient_mode"`
	RecipientIDs  []string      `bson:"recipient_ids" json:"recipient_ids"`
	Queued        int           `bson:"queued" json:"queued"`
	SentBy        string        `bson:"sent_by" json:"sent_by"`
	SentAt        time.Time     `bson:"sent_at" json:"sent_at"`
}
