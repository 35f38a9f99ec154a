// Package blueprint implements the Blueprint Store (§4.2): declarative
// range→VPC→subnet→host graphs with ownership and referential
// invariants, including standalone sub-graphs whose parent is null.
package blueprint

import (
	"time"

	"github.com/google/uuid"
)

// Provider enumerates the cloud providers a Range can target.
type Provider string

const (
	ProviderAWS   Provider = "AWS"
	ProviderAzure Provider = "AZURE"
)

// Range is a blueprint's root: a named topology on one provider/region.
type Range struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Provider  Provider
	Region    string
	VNC       bool
	VPN       bool
	CreatedAt time.Time
	UpdatedAt time.Time
	VPCs      []VPC
}

// VPC is a network within a Range, or standalone when ParentRangeID is nil.
type VPC struct {
	ID            uuid.UUID
	OwnerID       uuid.UUID
	ParentRangeID *uuid.UUID
	Name          string
	CIDR          string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Subnets       []Subnet
}

// Subnet is a slice of a VPC's address space, or standalone when
// ParentVPCID is nil.
type Subnet struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	ParentVPCID *uuid.UUID
	Name        string
	CIDR        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Hosts       []Host
}

// Host is a single instance definition, or standalone when
// ParentSubnetID is nil.
type Host struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	ParentSubnetID *uuid.UUID
	Hostname       string
	OS             string
	Spec           string
	DiskSizeGB     int
	Tags           []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// minDiskGBByOS enforces §3's "disk_size_gb ≥ minimum_for(os)" invariant.
// Values mirror common cloud-marketplace image minimums.
var minDiskGBByOS = map[string]int{
	"ubuntu-22.04":    8,
	"ubuntu-20.04":    8,
	"debian-12":       10,
	"windows-2022":    32,
	"windows-2019":    32,
	"kali-2024":       20,
}

// MinDiskGB returns the minimum disk size for an OS, or 1 if the OS is
// not in minDiskGBByOS. No other check rejects an unrecognized OS.
func MinDiskGB(os string) int {
	if v, ok := minDiskGBByOS[os]; ok {
		return v
	}
	return 1
}
