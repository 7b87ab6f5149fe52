package models

import (
	"time"

	"github.com/google/uuid"
)

// VMDetail holds the best-effort enrichment for a virtual machine resource.
// Every observed field is nullable: a failed sub-fetch leaves it NULL rather
// than fabricating a value.
type VMDetail struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ResourceID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"resource_id"`

	VMSize            *string `gorm:"type:varchar(100)" json:"vm_size,omitempty"`
	OSType            *string `gorm:"type:varchar(50)" json:"os_type,omitempty"`
	Disks             []byte  `gorm:"type:jsonb" json:"disks,omitempty"`
	NetworkInterfaces []byte  `gorm:"type:jsonb" json:"network_interfaces,omitempty"`
	HasPublicIP       *bool   `json:"has_public_ip,omitempty"`
	PublicIPAddress   *string `gorm:"type:varchar(50)" json:"public_ip_address,omitempty"`
	BackupEnabled     *bool   `json:"backup_enabled,omitempty"`
	ProvisioningState *string `gorm:"type:varchar(50)" json:"provisioning_state,omitempty"`
	PowerState        *string `gorm:"type:varchar(50)" json:"power_state,omitempty"`

	LastUpdatedAt time.Time `gorm:"not null" json:"last_updated_at"`

	Resource *AzureResource `gorm:"foreignKey:ResourceID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (VMDetail) TableName() string {
	return "cs_vm_details"
}
