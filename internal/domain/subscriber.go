package domain

import "time"

// Subscriber is a single email recipient registered under one owning account.
// Email is unique per owner.
//
// Invariant: IsActive == false ⟺ UnsubscribedAt != nil. Only active
// subscribers are eligible for dispatch.
type Subscriber struct {
	ID             string     `json:"id" db:"id"`
	OwnerID        string     `json:"owner_id" db:"owner_id"`
	Email          string     `json:"email" db:"email"`
	Name           string     `json:"name" db:"name"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	SubscribedAt   time.Time  `json:"subscribed_at" db:"subscribed_at"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at" db:"unsubscribed_at"`
}
