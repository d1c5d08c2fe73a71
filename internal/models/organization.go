package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization represents a tenant. All cloud accounts and memberships are partitioned by it.
type Organization struct {
	ID        uuid.UUID `json:"id"` // UUIDv7
	Name      string    `json:"name"`
	CNPJ      string    `json:"cnpj,omitempty"` // optional Brazilian company tax id, empty means unset
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
