package models

import (
	"time"

	"github.com/google/uuid"
)

type M365License struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_m365_license_customer_sku" json:"customer_id"`

	SKUID          string  `gorm:"column:sku_id;type:varchar(100);not null;uniqueIndex:idx_m365_license_customer_sku" json:"sku_id"`
	Name           string  `gorm:"type:varchar(255)" json:"name"`
	AssignedCount  int     `gorm:"not null;default:0" json:"assigned_count"`
	AvailableCount int     `gorm:"not null;default:0" json:"available_count"`
	UnitCost       float64 `gorm:"not null;default:0" json:"unit_cost"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Customer *Customer `gorm:"foreignKey:CustomerID;references:ID" json:"-"`
}

func (M365License) TableName() string {
	return "cs_m365_licenses"
}
