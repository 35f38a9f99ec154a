package blueprint

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/openlabshq/rangeapi/internal/apperr"
)

func mustParsePrefix(t *testing.T, s string) netip.Prefix {
	t.Helper()
	p, err := netip.ParsePrefix(s)
	if err != nil {
		t.Fatalf("netip.ParsePrefix(%q) error = %v", s, err)
	}
	return p
}

func validRange() *Range {
	return &Range{
		Name:     "test-range",
		Provider: ProviderAWS,
		Region:   "us-east-1",
		VPCs: []VPC{
			{
				Name: "vpc-a",
				CIDR: "10.0.0.0/16",
				Subnets: []Subnet{
					{
						Name: "subnet-a",
						CIDR: "10.0.1.0/24",
						Hosts: []Host{
							{Hostname: "web-1", OS: "ubuntu-22.04", Spec: "small", DiskSizeGB: 8},
						},
					},
				},
			},
		},
	}
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("error is not *apperr.Error: %v", err)
	}
	if ae.Kind != kind {
		t.Errorf("Kind = %v, want %v", ae.Kind, kind)
	}
}

func TestValidateRangeGraph_Valid(t *testing.T) {
	if err := ValidateRangeGraph(validRange()); err != nil {
		t.Fatalf("ValidateRangeGraph() error = %v, want nil", err)
	}
}

func TestValidateRangeGraph_MissingName(t *testing.T) {
	r := validRange()
	r.Name = ""
	wantKind(t, ValidateRangeGraph(r), apperr.KindValidationFailed)
}

func TestValidateRangeGraph_BadProvider(t *testing.T) {
	r := validRange()
	r.Provider = "GCP"
	wantKind(t, ValidateRangeGraph(r), apperr.KindValidationFailed)
}

func TestValidateRangeGraph_DuplicateVPCName(t *testing.T) {
	r := validRange()
	r.VPCs = append(r.VPCs, r.VPCs[0])
	wantKind(t, ValidateRangeGraph(r), apperr.KindValidationFailed)
}

func TestValidateVPC_DuplicateSubnetName(t *testing.T) {
	r := validRange()
	r.VPCs[0].Subnets = append(r.VPCs[0].Subnets, r.VPCs[0].Subnets[0])
	wantKind(t, ValidateRangeGraph(r), apperr.KindValidationFailed)
}

func TestValidateVPC_InvalidCIDR(t *testing.T) {
	r := validRange()
	r.VPCs[0].CIDR = "not-a-cidr"
	wantKind(t, ValidateRangeGraph(r), apperr.KindValidationFailed)
}

func TestValidateVPC_SubnetNotContained(t *testing.T) {
	r := validRange()
	r.VPCs[0].Subnets[0].CIDR = "10.1.0.0/24" // outside 10.0.0.0/16
	wantKind(t, ValidateRangeGraph(r), apperr.KindValidationFailed)
}

func TestValidateVPC_SubnetSameSizeAsVPC(t *testing.T) {
	r := validRange()
	r.VPCs[0].CIDR = "10.0.1.0/24"
	r.VPCs[0].Subnets[0].CIDR = "10.0.1.0/24"
	if err := ValidateRangeGraph(r); err != nil {
		t.Fatalf("equal-sized contained subnet should be valid: %v", err)
	}
}

func TestValidateHost_BadHostname(t *testing.T) {
	tests := []string{"-leading-hyphen", "trailing-hyphen-", "has_underscore", "", "1starts-with-digit"}
	for _, name := range tests {
		h := &Host{Hostname: name, OS: "ubuntu-22.04", DiskSizeGB: 8}
		if err := ValidateHost(h); err == nil {
			t.Errorf("ValidateHost(%q) should reject hostname", name)
		}
	}
}

func TestValidateHost_ValidHostnames(t *testing.T) {
	tests := []string{"web1", "web-1", "a", "web-server-01"}
	for _, name := range tests {
		h := &Host{Hostname: name, OS: "ubuntu-22.04", DiskSizeGB: 8}
		if err := ValidateHost(h); err != nil {
			t.Errorf("ValidateHost(%q) error = %v, want nil", name, err)
		}
	}
}

func TestValidateHost_DiskBelowMinimum(t *testing.T) {
	h := &Host{Hostname: "web1", OS: "windows-2022", DiskSizeGB: 10}
	wantKind(t, ValidateHost(h), apperr.KindValidationFailed)
}

func TestValidateHost_DiskAtMinimum(t *testing.T) {
	h := &Host{Hostname: "web1", OS: "windows-2022", DiskSizeGB: 32}
	if err := ValidateHost(h); err != nil {
		t.Errorf("ValidateHost() error = %v, want nil", err)
	}
}

func TestValidateHost_EmptyTag(t *testing.T) {
	h := &Host{Hostname: "web1", OS: "ubuntu-22.04", DiskSizeGB: 8, Tags: []string{"ok", ""}}
	wantKind(t, ValidateHost(h), apperr.KindValidationFailed)
}

func TestMinDiskGB_UnknownOS(t *testing.T) {
	if got := MinDiskGB("freebsd-14"); got != 1 {
		t.Errorf("MinDiskGB(unknown) = %d, want 1", got)
	}
}

func TestMinDiskGB_KnownOS(t *testing.T) {
	if got := MinDiskGB("ubuntu-22.04"); got != 8 {
		t.Errorf("MinDiskGB(ubuntu-22.04) = %d, want 8", got)
	}
}

func TestSubnetOf(t *testing.T) {
	tests := []struct {
		name         string
		sub, parent  string
		wantContains bool
	}{
		{"contained", "10.0.1.0/24", "10.0.0.0/16", true},
		{"equal", "10.0.0.0/16", "10.0.0.0/16", true},
		{"disjoint", "10.1.0.0/24", "10.0.0.0/16", false},
		{"larger-than-parent", "10.0.0.0/8", "10.0.0.0/16", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := mustParsePrefix(t, tt.sub)
			parent := mustParsePrefix(t, tt.parent)
			if got := subnetOf(sub, parent); got != tt.wantContains {
				t.Errorf("subnetOf(%s, %s) = %v, want %v", tt.sub, tt.parent, got, tt.wantContains)
			}
		})
	}
}
