package entity

import (
	"time"

	"github.com/google/uuid"
)

// Broker is the tenant under which customers and documents are scoped.
type Broker struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}
