package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CustomerStatusActive    = "active"
	CustomerStatusInactive  = "inactive"
	CustomerStatusSuspended = "suspended"
)

type Customer struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	TenantID     string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"tenant_id"`
	ClientID     string    `gorm:"type:varchar(100)" json:"client_id"`
	ClientSecret string    `gorm:"type:varchar(255)" json:"-"`
	Status       string    `gorm:"type:varchar(20);not null;default:active" json:"status"`

	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Subscriptions []Subscription `gorm:"foreignKey:CustomerID" json:"subscriptions,omitempty"`
}

func (Customer) TableName() string {
	return "cs_customers"
}

type Subscription struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID     uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	SubscriptionID string    `gorm:"type:varchar(100);not null" json:"subscription_id"`
	Name           string    `gorm:"type:varchar(255)" json:"name"`
	State          string    `gorm:"type:varchar(50)" json:"state"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Customer *Customer `gorm:"foreignKey:CustomerID;references:ID" json:"-"`
}

func (Subscription) TableName() string {
	return "cs_subscriptions"
}
