package models

import (
	"time"

	"github.com/google/uuid"
)

// CloudProvider identifies a supported cloud vendor.
type CloudProvider string

const (
	CloudProviderAWS   CloudProvider = "aws"
	CloudProviderAzure CloudProvider = "azure"
	CloudProviderGCP   CloudProvider = "gcp"
)

// Valid reports whether p is a supported provider.
func (p CloudProvider) Valid() bool {
	switch p {
	case CloudProviderAWS, CloudProviderAzure, CloudProviderGCP:
		return true
	}
	return false
}

// CloudAccount holds the encrypted credentials of a tenant's cloud account.
// CredentialsEncrypted is only populated by reads that explicitly request it and is never serialized.
type CloudAccount struct {
	ID                   uuid.UUID     `json:"id"`
	OrganizationID       uuid.UUID     `json:"organizationId"`
	Provider             CloudProvider `json:"provider"`
	Alias                string        `json:"alias"`
	CredentialsEncrypted string        `json:"-"`
	IsActive             bool          `json:"isActive"`
	CreatedAt            time.Time     `json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}
