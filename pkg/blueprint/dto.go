package blueprint

import "github.com/google/uuid"

// RangeRequest is the JSON body for POST /blueprints/ranges.
type RangeRequest struct {
	Name     string        `json:"name" validate:"required"`
	Provider string        `json:"provider" validate:"required,oneof=AWS AZURE"`
	Region   string        `json:"region" validate:"required"`
	VNC      bool          `json:"vnc"`
	VPN      bool          `json:"vpn"`
	VPCs     []VPCRequest  `json:"vpcs"`
}

// VPCRequest is the JSON body for a VPC, nested or standalone.
type VPCRequest struct {
	Name    string          `json:"name" validate:"required"`
	CIDR    string          `json:"cidr" validate:"required"`
	Subnets []SubnetRequest `json:"subnets"`
}

// SubnetRequest is the JSON body for a subnet, nested or standalone.
type SubnetRequest struct {
	Name  string        `json:"name" validate:"required"`
	CIDR  string        `json:"cidr" validate:"required"`
	Hosts []HostRequest `json:"hosts"`
}

// HostRequest is the JSON body for a host, nested or standalone.
type HostRequest struct {
	Hostname   string   `json:"hostname" validate:"required"`
	OS         string   `json:"os" validate:"required"`
	Spec       string   `json:"spec" validate:"required"`
	DiskSizeGB int      `json:"disk_size_gb" validate:"required,gt=0"`
	Tags       []string `json:"tags"`
}

func (req *RangeRequest) toModel() *Range {
	r := &Range{
		Name:     req.Name,
		Provider: Provider(req.Provider),
		Region:   req.Region,
		VNC:      req.VNC,
		VPN:      req.VPN,
	}
	for _, vreq := range req.VPCs {
		r.VPCs = append(r.VPCs, *vreq.toModel())
	}
	return r
}

func (req *VPCRequest) toModel() *VPC {
	v := &VPC{Name: req.Name, CIDR: req.CIDR}
	for _, sreq := range req.Subnets {
		v.Subnets = append(v.Subnets, *sreq.toModel())
	}
	return v
}

func (req *SubnetRequest) toModel() *Subnet {
	s := &Subnet{Name: req.Name, CIDR: req.CIDR}
	for _, hreq := range req.Hosts {
		s.Hosts = append(s.Hosts, *hreq.toModel())
	}
	return s
}

func (req *HostRequest) toModel() *Host {
	return &Host{
		Hostname:   req.Hostname,
		OS:         req.OS,
		Spec:       req.Spec,
		DiskSizeGB: req.DiskSizeGB,
		Tags:       req.Tags,
	}
}

// RangeHeader is the response DTO for a list of ranges (no tree).
type RangeHeader struct {
	ID       uuid.UUID `json:"id"`
	OwnerID  uuid.UUID `json:"owner_id"`
	Name     string    `json:"name"`
	Provider Provider  `json:"provider"`
	Region   string    `json:"region"`
	VNC      bool      `json:"vnc"`
	VPN      bool      `json:"vpn"`
}

func (r *Range) ToHeader() RangeHeader {
	return RangeHeader{ID: r.ID, OwnerID: r.OwnerID, Name: r.Name, Provider: r.Provider, Region: r.Region, VNC: r.VNC, VPN: r.VPN}
}
