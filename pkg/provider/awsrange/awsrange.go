// Package awsrange is the AWS Materializer variant (§4.3 "Provider plan
// (AWS reference)"): it turns a blueprint range into a Terraform-JSON plan
// laid out on disk, encoding the jumpbox access layer, a Transit Gateway,
// and one VPC per blueprint VPC.
//
// The real control plane generates this plan through CDKTF (explicitly
// out of scope per spec.md §1, treated as an opaque plan generator); this
// package reimplements the same resource shape by hand-building the
// equivalent Terraform-JSON document, ported resource-for-resource from
// original_source's aws_stack.py/base_stack.py.
package awsrange

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/openlabshq/rangeapi/pkg/blueprint"
	"github.com/openlabshq/rangeapi/pkg/provider"
	"github.com/openlabshq/rangeapi/pkg/secretvault"
)

const (
	jumpboxVPCCIDR      = "10.255.0.0/16"
	jumpboxPublicCIDR   = "10.255.99.0/24"
	jumpboxPrivateCIDR  = "10.255.98.0/24"
	jumpboxAMI          = "ami-0e2c8caa4b6378d8c" // Ubuntu 22.04 LTS (us-east-1 reference image)
	jumpboxInstanceType = "t2.micro"
)

// osToAMI maps a blueprint host's OS tag to a region-agnostic placeholder
// AMI id. A real deployment would resolve these per-region via an AMI
// data source; the control plane pins a reference value per §4.3.
var osToAMI = map[string]string{
	"ubuntu-22.04": "ami-0e2c8caa4b6378d8c",
	"ubuntu-20.04": "ami-0d7a109bf30624c99",
	"debian-12":    "ami-0c7217cdde317cfec",
	"debian-11":    "ami-0b0ea68c435eb488d",
	"windows-2022": "ami-0c2b8ca1dad447f8a",
	"windows-2019": "ami-0f9fc25dd2506cf6d",
	"kali-2024":    "ami-0a716d3f3b16d290c",
}

// specToInstanceType maps a blueprint host's spec tag to an EC2 instance
// type.
var specToInstanceType = map[string]string{
	"tiny":   "t3.micro",
	"small":  "t3.small",
	"medium": "t3.medium",
	"large":  "t3.xlarge",
}

// AWSRange is the AWS Materializer variant.
type AWSRange struct{}

// New creates an AWSRange materializer.
func New() *AWSRange { return &AWSRange{} }

var _ provider.Materializer = (*AWSRange)(nil)

func (a *AWSRange) Provider() blueprint.Provider { return blueprint.ProviderAWS }

// StackName returns "<range_name>-<deployed_range_id>" (§4.3).
func (a *AWSRange) StackName(input provider.Input) string {
	return input.Range.Name + "-" + input.DeployedRangeID.String()
}

func (a *AWSRange) HasSecrets(bundle *secretvault.SecretBundle) bool {
	return bundle.HasProvider(secretvault.ProviderAWS)
}

func (a *AWSRange) CredEnvVars(bundle *secretvault.SecretBundle) map[string]string {
	return bundle.CredEnvVars(secretvault.ProviderAWS)
}

// Materialize writes the Terraform-JSON plan to
// <workdir>/stacks/<stack_name>/cdk.tf.json.
func (a *AWSRange) Materialize(input provider.Input, workdir string) (string, error) {
	stackName := a.StackName(input)
	planDir := filepath.Join(workdir, "stacks", stackName)
	if err := os.MkdirAll(planDir, 0o755); err != nil {
		return "", fmt.Errorf("creating plan directory: %w", err)
	}

	doc := buildPlan(input, stackName)
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling plan: %w", err)
	}

	if err := os.WriteFile(filepath.Join(planDir, "cdk.tf.json"), body, 0o644); err != nil {
		return "", fmt.Errorf("writing plan: %w", err)
	}
	return planDir, nil
}

// buildPlan assembles the full Terraform-JSON document. Map keys are
// sorted by encoding/json on marshal, so the output is byte-identical for
// identical inputs (§4.3).
func buildPlan(input provider.Input, stackName string) map[string]any {
	vpcNames := vpcResourceNames(input.Range.VPCs)

	resources := map[string]any{
		"aws_vpc":                   map[string]any{"jumpbox": jumpboxVPC()},
		"aws_subnet":                map[string]any{},
		"aws_internet_gateway":      map[string]any{"jumpbox": jumpboxIGW()},
		"aws_eip":                   map[string]any{"jumpbox_nat": map[string]any{"domain": "vpc"}},
		"aws_nat_gateway":           map[string]any{},
		"aws_security_group":       map[string]any{},
		"aws_instance":              map[string]any{},
		"aws_key_pair":              map[string]any{"jumpbox": jumpboxKeyPair(input.JumpboxAuthorizedKey)},
		"aws_ec2_transit_gateway":   map[string]any{"range": transitGateway()},
		"aws_ec2_transit_gateway_vpc_attachment": map[string]any{},
		"aws_route_table":           map[string]any{},
		"aws_route_table_association": map[string]any{},
		"aws_route":                 map[string]any{},
	}

	subnets := resources["aws_subnet"].(map[string]any)
	natGateways := resources["aws_nat_gateway"].(map[string]any)
	sgs := resources["aws_security_group"].(map[string]any)
	instances := resources["aws_instance"].(map[string]any)
	tgwAttachments := resources["aws_ec2_transit_gateway_vpc_attachment"].(map[string]any)
	routeTables := resources["aws_route_table"].(map[string]any)
	routeTableAssocs := resources["aws_route_table_association"].(map[string]any)
	routes := resources["aws_route"].(map[string]any)

	subnets["jumpbox_public"] = subnetResource("aws_vpc.jumpbox.id", jumpboxPublicCIDR, true)
	subnets["jumpbox_private"] = subnetResource("aws_vpc.jumpbox.id", jumpboxPrivateCIDR, false)

	natGateways["jumpbox"] = map[string]any{
		"allocation_id": "${aws_eip.jumpbox_nat.id}",
		"subnet_id":     "${aws_subnet.jumpbox_public.id}",
	}

	sgs["jumpbox_ssh"] = sshOnlySecurityGroup("aws_vpc.jumpbox.id", []string{"0.0.0.0/0"})

	tgwAttachments["jumpbox"] = map[string]any{
		"transit_gateway_id": "${aws_ec2_transit_gateway.range.id}",
		"vpc_id":             "${aws_vpc.jumpbox.id}",
		"subnet_ids":         []string{"${aws_subnet.jumpbox_private.id}"},
	}

	routeTables["jumpbox_public"] = map[string]any{"vpc_id": "${aws_vpc.jumpbox.id}"}
	routes["jumpbox_public_igw"] = map[string]any{
		"route_table_id":         "${aws_route_table.jumpbox_public.id}",
		"destination_cidr_block": "0.0.0.0/0",
		"gateway_id":             "${aws_internet_gateway.jumpbox.id}",
	}
	routeTableAssocs["jumpbox_public"] = map[string]any{
		"subnet_id":      "${aws_subnet.jumpbox_public.id}",
		"route_table_id": "${aws_route_table.jumpbox_public.id}",
	}

	routeTables["jumpbox_nat"] = map[string]any{"vpc_id": "${aws_vpc.jumpbox.id}"}
	routeTableAssocs["jumpbox_private"] = map[string]any{
		"subnet_id":      "${aws_subnet.jumpbox_private.id}",
		"route_table_id": "${aws_route_table.jumpbox_nat.id}",
	}

	instances["jumpbox"] = map[string]any{
		"ami":                    jumpboxAMI,
		"instance_type":          jumpboxInstanceType,
		"subnet_id":              "${aws_subnet.jumpbox_public.id}",
		"vpc_security_group_ids": []string{"${aws_security_group.jumpbox_ssh.id}"},
		"key_name":               "${aws_key_pair.jumpbox.key_name}",
		"associate_public_ip_address": true,
		"tags": map[string]string{"Name": stackName + "-jumpbox"},
	}

	peerCIDRs := make([]string, 0, len(input.Range.VPCs))
	for _, vpc := range input.Range.VPCs {
		peerCIDRs = append(peerCIDRs, vpc.CIDR)
	}

	outputs := map[string]any{
		"jumpbox_public_ip": map[string]any{"value": "${aws_instance.jumpbox.public_ip}"},
	}

	for i, vpc := range input.Range.VPCs {
		name := vpcNames[i]
		resVPC := resources["aws_vpc"].(map[string]any)
		resVPC[name] = map[string]any{"cidr_block": vpc.CIDR, "tags": map[string]string{"Name": name}}

		sgs[name] = peeredSecurityGroup("${aws_vpc."+name+".id}", []string{jumpboxPublicCIDR}, peerCIDRs)

		routeTables[name+"_private"] = map[string]any{"vpc_id": "${aws_vpc." + name + ".id}"}
		routes[name+"_default_via_tgw"] = map[string]any{
			"route_table_id":         "${aws_route_table." + name + "_private.id}",
			"destination_cidr_block": "0.0.0.0/0",
			"transit_gateway_id":     "${aws_ec2_transit_gateway.range.id}",
		}

		// Public/NAT route tables get a route back to each private VPC
		// CIDR via the TGW so NAT-returned traffic reaches its VPC (§4.3).
		routes["jumpbox_public_to_"+name] = map[string]any{
			"route_table_id":         "${aws_route_table.jumpbox_public.id}",
			"destination_cidr_block": vpc.CIDR,
			"transit_gateway_id":     "${aws_ec2_transit_gateway.range.id}",
		}
		routes["jumpbox_nat_to_"+name] = map[string]any{
			"route_table_id":         "${aws_route_table.jumpbox_nat.id}",
			"destination_cidr_block": vpc.CIDR,
			"transit_gateway_id":     "${aws_ec2_transit_gateway.range.id}",
		}

		subnetIDs := make([]string, 0, len(vpc.Subnets))
		for j, subnet := range vpc.Subnets {
			subnetResName := fmt.Sprintf("%s_%s", name, subnetResourceSuffix(subnet.Name, j))
			subnets[subnetResName] = subnetResource("${aws_vpc."+name+".id}", subnet.CIDR, false)
			routeTableAssocs[subnetResName] = map[string]any{
				"subnet_id":      "${aws_subnet." + subnetResName + ".id}",
				"route_table_id": "${aws_route_table." + name + "_private.id}",
			}
			subnetIDs = append(subnetIDs, "${aws_subnet."+subnetResName+".id}")

			for k, host := range subnet.Hosts {
				instName := fmt.Sprintf("%s_%s", subnetResName, hostResourceSuffix(host.Hostname, k))
				instances[instName] = map[string]any{
					"ami":                    amiFor(host.OS),
					"instance_type":          instanceTypeFor(host.Spec),
					"subnet_id":              "${aws_subnet." + subnetResName + ".id}",
					"vpc_security_group_ids": []string{"${aws_security_group." + name + ".id}"},
					"tags":                   map[string]string{"Name": host.Hostname},
				}
				outputs[instName+"_private_ip"] = map[string]any{"value": "${aws_instance." + instName + ".private_ip}"}
			}
		}

		tgwAttachments[name] = map[string]any{
			"transit_gateway_id": "${aws_ec2_transit_gateway.range.id}",
			"vpc_id":             "${aws_vpc." + name + ".id}",
			"subnet_ids":         subnetIDs,
		}
	}

	return map[string]any{
		"terraform": map[string]any{
			"required_providers": map[string]any{
				"aws": map[string]any{"source": "hashicorp/aws", "version": "~> 5.0"},
			},
			"backend": map[string]any{
				"local": map[string]any{"path": provider.StateFileName(stackName)},
			},
		},
		"provider": map[string]any{
			"aws": map[string]any{"region": input.Region},
		},
		"resource": resources,
		"output":   outputs,
	}
}

func jumpboxVPC() map[string]any {
	return map[string]any{"cidr_block": jumpboxVPCCIDR, "tags": map[string]string{"Name": "jumpbox"}}
}

func jumpboxIGW() map[string]any {
	return map[string]any{"vpc_id": "${aws_vpc.jumpbox.id}"}
}

func jumpboxKeyPair(authorizedKey []byte) map[string]any {
	return map[string]any{"key_name": "jumpbox", "public_key": string(authorizedKey)}
}

func transitGateway() map[string]any {
	return map[string]any{
		"description":                     "range transit gateway",
		"default_route_table_association": "enable",
		"default_route_table_propagation": "enable",
	}
}

func subnetResource(vpcRef, cidr string, mapPublicIP bool) map[string]any {
	return map[string]any{
		"vpc_id":                  vpcRef,
		"cidr_block":              cidr,
		"map_public_ip_on_launch": mapPublicIP,
	}
}

func sshOnlySecurityGroup(vpcRef string, allowedCIDRs []string) map[string]any {
	return map[string]any{
		"vpc_id": vpcRef,
		"ingress": []map[string]any{{
			"from_port":   22,
			"to_port":     22,
			"protocol":    "tcp",
			"cidr_blocks": allowedCIDRs,
		}},
		"egress": []map[string]any{{
			"from_port":   0,
			"to_port":     0,
			"protocol":    "-1",
			"cidr_blocks": []string{"0.0.0.0/0"},
		}},
	}
}

// peeredSecurityGroup allows all traffic from the jumpbox public subnet
// and every peer VPC's CIDR, egress-any (§4.3).
func peeredSecurityGroup(vpcRef string, jumpboxCIDRs, peerCIDRs []string) map[string]any {
	allowed := append(append([]string{}, jumpboxCIDRs...), peerCIDRs...)
	return map[string]any{
		"vpc_id": vpcRef,
		"ingress": []map[string]any{{
			"from_port":   0,
			"to_port":     0,
			"protocol":    "-1",
			"cidr_blocks": allowed,
		}},
		"egress": []map[string]any{{
			"from_port":   0,
			"to_port":     0,
			"protocol":    "-1",
			"cidr_blocks": []string{"0.0.0.0/0"},
		}},
	}
}

func amiFor(os string) string {
	if ami, ok := osToAMI[os]; ok {
		return ami
	}
	return osToAMI["ubuntu-22.04"]
}

func instanceTypeFor(spec string) string {
	if t, ok := specToInstanceType[spec]; ok {
		return t
	}
	return specToInstanceType["small"]
}

func vpcResourceNames(vpcs []blueprint.VPC) []string {
	names := make([]string, len(vpcs))
	for i, v := range vpcs {
		names[i] = fmt.Sprintf("vpc_%d_%s", i, sanitize(v.Name))
	}
	return names
}

func subnetResourceSuffix(name string, idx int) string {
	return fmt.Sprintf("subnet_%d_%s", idx, sanitize(name))
}

func hostResourceSuffix(hostname string, idx int) string {
	return fmt.Sprintf("host_%d_%s", idx, sanitize(hostname))
}

// sanitize turns a user-supplied name into a Terraform-identifier-safe
// fragment: lowercase, non-alphanumerics collapsed to underscores.
func sanitize(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r-'A'+'a')
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
