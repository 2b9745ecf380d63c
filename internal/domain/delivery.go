package domain

import "time"

// DeliveryStatus enumerates the terminal states of a delivery attempt.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
	DeliveryBounced DeliveryStatus = "bounced"
)

// DeliveryAttempt is a durable fact of one send outcome for one
// (newsletter, subscriber) pair. Attempts are append-only: re-sending a
// newsletter produces additional rows rather than superseding earlier ones,
// and a row is created only once the transport call has settled.
type DeliveryAttempt struct {
	ID           string         `json:"id" db:"id"`
	NewsletterID string         `json:"newsletter_id" db:"newsletter_id"`
	SubscriberID string         `json:"subscriber_id" db:"subscriber_id"`
	Status       DeliveryStatus `json:"status" db:"status"`
	MessageID    string         `json:"message_id,omitempty" db:"message_id"`
	ErrorMessage string         `json:"error_message,omitempty" db:"error_message"`
	SentAt       *time.Time     `json:"sent_at" db:"sent_at"`
	OpenedAt     *time.Time     `json:"opened_at" db:"opened_at"`
	ClickedAt    *time.Time     `json:"clicked_at" db:"clicked_at"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`

	// SubscriberEmail is populated only by joined report queries.
	SubscriberEmail string `json:"subscriber_email,omitempty" db:"-"`
}
