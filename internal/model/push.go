package model

import "time"

// PushToken caches the provider-issued token locally. The backend profile
// record stays the source of truth; this row only survives reloads.
type PushToken struct {
	Model
	Token     string `json:"token" gorm:"uniqueIndex;not null"`
	Submitted bool   `json:"submitted" gorm:"default:false"`
}

// DeliveredPush records the dedupe tag of a payload already surfaced as a
// system notification, so redelivery by the transport does not show twice.
type DeliveredPush struct {
	MessageID string    `json:"message_id" gorm:"primaryKey"`
	ShownAt   time.Time `json:"shown_at"`
}

// PushPayload is the wire payload the push service delivers. Title and body
// may be absent; the delivery worker falls back to generic localized text.
type PushPayload struct {
	MessageID string            `json:"message_id,omitempty"`
	Title     string            `json:"title,omitempty"`
	Body      string            `json:"body,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}
