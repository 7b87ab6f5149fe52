package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DeviceCompliant    = "compliant"
	DeviceNonCompliant = "non-compliant"
)

// M365Device is one Intune-managed device, upserted by (customer, device name).
type M365Device struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_m365_device_customer_name" json:"customer_id"`

	DeviceName      string `gorm:"type:varchar(255);not null;uniqueIndex:idx_m365_device_customer_name" json:"device_name"`
	OperatingSystem string `gorm:"type:varchar(100)" json:"operating_system"`
	ComplianceState string `gorm:"type:varchar(20)" json:"compliance_state"`

	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Customer *Customer `gorm:"foreignKey:CustomerID;references:ID" json:"-"`
}

func (M365Device) TableName() string {
	return "cs_m365_devices"
}
