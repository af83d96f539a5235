package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationOrder    NotificationType = "order"
	NotificationVendor   NotificationType = "vendor"
	NotificationCustomer NotificationType = "customer"
	NotificationOther    NotificationType = "other"
)

// Notification is the server-owned feed record. The console only ever reads
// pages of these and flips Seen one way; it never deletes them.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	Title     datatypes.JSON   `json:"title"` // {"ar": ..., "en": ...}
	Body      datatypes.JSON   `json:"body"`
	Type      NotificationType `json:"type"`
	Seen      bool             `json:"seen"`
	TargetRef string           `json:"target_ref,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Page is the pagination metadata returned alongside a feed page.
type Page struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// Localized builds the {ar,en} JSON document used for titles and bodies.
func Localized(ar, en string) datatypes.JSON {
	b, _ := json.Marshal(map[string]string{"ar": ar, "en": en})
	return datatypes.JSON(b)
}

// TextIn picks the text for a locale, falling back to English then to any
// value present.
func TextIn(doc datatypes.JSON, locale string) string {
	var m map[string]string
	if err := json.Unmarshal(doc, &m); err != nil {
		return ""
	}
	if v, ok := m[locale]; ok && v != "" {
		return v
	}
	if v, ok := m["en"]; ok && v != "" {
		return v
	}
	for _, v := range m {
		if v != "" {
			return v
		}
	}
	return ""
}
