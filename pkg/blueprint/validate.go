package blueprint

import (
	"fmt"
	"net/netip"
	"regexp"

	"github.com/openlabshq/rangeapi/internal/apperr"
)

// rfc1035Hostname matches a valid RFC-1035 label: starts with a letter,
// contains only letters/digits/hyphens, ends with a letter or digit.
var rfc1035Hostname = regexp.MustCompile(`^[a-zA-Z]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)

// ValidateRangeGraph checks every invariant in §3 on ingest: unique VPC
// names within the range, subnet CIDR containment and unique names within
// VPC, RFC-1035 hostnames and unique names within subnet, and disk-size
// floors. Validation happens here, not in the store.
func ValidateRangeGraph(r *Range) error {
	if r.Name == "" {
		return apperr.New(apperr.KindValidationFailed, "range name is required")
	}
	if r.Provider != ProviderAWS && r.Provider != ProviderAzure {
		return apperr.New(apperr.KindValidationFailed, "provider must be AWS or AZURE")
	}

	seenVPC := make(map[string]bool, len(r.VPCs))
	for i := range r.VPCs {
		vpc := &r.VPCs[i]
		if seenVPC[vpc.Name] {
			return apperr.New(apperr.KindValidationFailed, fmt.Sprintf("duplicate VPC name %q in range", vpc.Name))
		}
		seenVPC[vpc.Name] = true

		if err := validateVPC(vpc); err != nil {
			return err
		}
	}
	return nil
}

// ValidateVPC validates a standalone VPC (no enclosing range).
func ValidateVPC(v *VPC) error {
	return validateVPC(v)
}

func validateVPC(vpc *VPC) error {
	if vpc.Name == "" {
		return apperr.New(apperr.KindValidationFailed, "VPC name is required")
	}
	vpcPrefix, err := netip.ParsePrefix(vpc.CIDR)
	if err != nil {
		return apperr.New(apperr.KindValidationFailed, fmt.Sprintf("VPC %q has an invalid CIDR: %v", vpc.Name, err))
	}

	seenSubnet := make(map[string]bool, len(vpc.Subnets))
	for i := range vpc.Subnets {
		subnet := &vpc.Subnets[i]
		if seenSubnet[subnet.Name] {
			return apperr.New(apperr.KindValidationFailed, fmt.Sprintf("duplicate subnet name %q in VPC %q", subnet.Name, vpc.Name))
		}
		seenSubnet[subnet.Name] = true

		subnetPrefix, err := netip.ParsePrefix(subnet.CIDR)
		if err != nil {
			return apperr.New(apperr.KindValidationFailed, fmt.Sprintf("subnet %q has an invalid CIDR: %v", subnet.Name, err))
		}
		if !subnetOf(subnetPrefix, vpcPrefix) {
			return apperr.New(apperr.KindValidationFailed, fmt.Sprintf("subnet %q (%s) is not contained in VPC %q (%s)", subnet.Name, subnet.CIDR, vpc.Name, vpc.CIDR))
		}

		if err := validateSubnet(subnet); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSubnet validates a standalone subnet (no enclosing VPC).
func ValidateSubnet(s *Subnet) error {
	if _, err := netip.ParsePrefix(s.CIDR); err != nil {
		return apperr.New(apperr.KindValidationFailed, fmt.Sprintf("subnet %q has an invalid CIDR: %v", s.Name, err))
	}
	return validateSubnet(s)
}

func validateSubnet(subnet *Subnet) error {
	if subnet.Name == "" {
		return apperr.New(apperr.KindValidationFailed, "subnet name is required")
	}

	seenHost := make(map[string]bool, len(subnet.Hosts))
	for i := range subnet.Hosts {
		host := &subnet.Hosts[i]
		if seenHost[host.Hostname] {
			return apperr.New(apperr.KindValidationFailed, fmt.Sprintf("duplicate hostname %q in subnet %q", host.Hostname, subnet.Name))
		}
		seenHost[host.Hostname] = true

		if err := ValidateHost(host); err != nil {
			return err
		}
	}
	return nil
}

// ValidateHost validates a single host definition: RFC-1035 hostname,
// non-empty tags, and disk size at or above the OS minimum.
func ValidateHost(host *Host) error {
	if !rfc1035Hostname.MatchString(host.Hostname) {
		return apperr.New(apperr.KindValidationFailed, fmt.Sprintf("hostname %q does not satisfy RFC-1035", host.Hostname))
	}
	if host.DiskSizeGB < MinDiskGB(host.OS) {
		return apperr.New(apperr.KindValidationFailed, fmt.Sprintf("host %q disk_size_gb (%d) is below the minimum for %s (%d)", host.Hostname, host.DiskSizeGB, host.OS, MinDiskGB(host.OS)))
	}
	for _, tag := range host.Tags {
		if tag == "" {
			return apperr.New(apperr.KindValidationFailed, fmt.Sprintf("host %q has an empty tag", host.Hostname))
		}
	}
	return nil
}

// subnetOf reports whether sub is fully contained within parent.
func subnetOf(sub, parent netip.Prefix) bool {
	if sub.Bits() < parent.Bits() {
		return false
	}
	return parent.Contains(sub.Addr())
}
