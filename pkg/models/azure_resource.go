package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ResourceStatusRunning     = "running"
	ResourceStatusStopped     = "stopped"
	ResourceStatusDeallocated = "deallocated"
	ResourceStatusUnknown     = "unknown"
)

// AzureResource is one reconciled record of an externally observed resource.
// ExternalID is the ARM resource id and the only stable key across renames.
type AzureResource struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`

	ExternalID     string `gorm:"type:varchar(512);not null;uniqueIndex" json:"external_id"`
	Name           string `gorm:"type:varchar(255);not null" json:"name"`
	Type           string `gorm:"type:varchar(255);not null;index" json:"type"`
	ResourceGroup  string `gorm:"type:varchar(255)" json:"resource_group"`
	Region         string `gorm:"type:varchar(100)" json:"region"`
	SubscriptionID string `gorm:"type:varchar(100)" json:"subscription_id"`
	Status         string `gorm:"type:varchar(20);not null;default:unknown;index" json:"status"`

	MonthlyCost float64 `gorm:"not null;default:0" json:"monthly_cost"`
	Tags        []byte  `gorm:"type:jsonb" json:"tags,omitempty"`

	DiscoveredAt  time.Time `gorm:"not null" json:"discovered_at"`
	LastUpdatedAt time.Time `gorm:"not null" json:"last_updated_at"`

	Customer *Customer `gorm:"foreignKey:CustomerID;references:ID" json:"-"`
}

func (AzureResource) TableName() string {
	return "cs_azure_resources"
}
