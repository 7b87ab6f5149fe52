package models

import "strings"

const TypeVirtualMachine = "Microsoft.Compute/virtualMachines"

// IsVirtualMachine reports whether an ARM resource type names a VM.
// Type casing varies between ARM endpoints.
func IsVirtualMachine(resourceType string) bool {
	return strings.EqualFold(resourceType, TypeVirtualMachine)
}
