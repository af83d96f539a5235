package model

import (
	"time"

	"github.com/google/uuid"
)

type AuthorRole string

const (
	AuthorAdmin    AuthorRole = "admin"
	AuthorCustomer AuthorRole = "customer"
)

// ChatThread is the gateway-owned thread; the console holds a read-only copy
// for the active page of the thread list.
type ChatThread struct {
	ID           uuid.UUID `json:"id"`
	CustomerName string    `json:"customer_name"`
	CustomerRef  string    `json:"customer_ref,omitempty"`
	LastMessage  string    `json:"last_message,omitempty"`
	LastActivity time.Time `json:"last_activity"`
}

type ChatMessage struct {
	ID        uuid.UUID  `json:"id"`
	ThreadID  uuid.UUID  `json:"chat_id"`
	Body      string     `json:"body"`
	Author    AuthorRole `json:"author"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
