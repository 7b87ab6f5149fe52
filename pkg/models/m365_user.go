package models

import (
	"time"

	"github.com/google/uuid"
)

type M365User struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_m365_user_customer_upn" json:"customer_id"`

	UserPrincipalName string `gorm:"type:varchar(255);not null;uniqueIndex:idx_m365_user_customer_upn" json:"user_principal_name"`
	Mail              string `gorm:"type:varchar(255)" json:"mail"`
	DisplayName       string `gorm:"type:varchar(255)" json:"display_name"`
	LicenseSKUs       []byte `gorm:"type:jsonb" json:"license_skus,omitempty"`
	AccountEnabled    bool   `gorm:"not null;default:true" json:"account_enabled"`

	LastSignInAt *time.Time `json:"last_sign_in_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Customer *Customer `gorm:"foreignKey:CustomerID;references:ID" json:"-"`
}

func (M365User) TableName() string {
	return "cs_m365_users"
}
