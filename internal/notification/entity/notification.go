// Package entity defines the notification delivery types.
package entity

import "time"

// DeliveryLog records one email delivery attempt pipeline: the row is
// written as queued before sending and moved to sent or failed after.
type DeliveryLog struct {
	ID               int64
	UserID           int64
	Recipient        string
	Template         Template
	Subject          string
	Status           DeliveryStatus
	ProviderResponse string
	Attempts         int32
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CreateDeliveryLog carries the fields needed to insert a queued row.
type CreateDeliveryLog struct {
	ID        int64
	UserID    int64
	Recipient string
	Template  Template
	Subject   string
}

// UpdateDeliveryLog carries the delivery outcome.
type UpdateDeliveryLog struct {
	ID               int64
	Status           DeliveryStatus
	ProviderResponse string
	Attempts         int32
}
