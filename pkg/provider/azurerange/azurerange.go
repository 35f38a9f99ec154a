// Package azurerange is the Azure Materializer variant: a structurally
// analogous, smaller plan than awsrange's — one resource group, a jumpbox
// VNet, subnet, NSG and VM, plus a VNet and NSG per blueprint VPC, its
// subnets, and a VM per host — so the blueprint's
// provider ∈ {AWS,AZURE} tag has two real implementations (SPEC_FULL.md
// DOMAIN STACK mandate), not a single AWS-only path.
package azurerange

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
	jumpboxSubnetCIDR = "10.255.99.0/24"
	jumpboxVMSize     = "Standard_B1s"
)

var osToImage = map[string]map[string]string{
	"ubuntu-22.04": {"publisher": "Canonical", "offer": "0001-com-ubuntu-server-jammy", "sku": "22_04-lts", "version": "latest"},
	"ubuntu-20.04": {"publisher": "Canonical", "offer": "0001-com-ubuntu-server-focal", "sku": "20_04-lts", "version": "latest"},
	"debian-12":    {"publisher": "Debian", "offer": "debian-12", "sku": "12", "version": "latest"},
	"debian-11":    {"publisher": "Debian", "offer": "debian-11", "sku": "11", "version": "latest"},
	"windows-2022": {"publisher": "MicrosoftWindowsServer", "offer": "WindowsServer", "sku": "2022-datacenter", "version": "latest"},
	"windows-2019": {"publisher": "MicrosoftWindowsServer", "offer": "WindowsServer", "sku": "2019-datacenter", "version": "latest"},
	"kali-2024":    {"publisher": "kali-linux", "offer": "kali", "sku": "kali-2024-4", "version": "latest"},
}

var specToVMSize = map[string]string{
	"tiny":   "Standard_B1s",
	"small":  "Standard_B2s",
	"medium": "Standard_D2s_v5",
	"large":  "Standard_D4s_v5",
}

// AzureRange is the Azure Materializer variant.
type AzureRange struct{}

// New creates an AzureRange materializer.
func New() *AzureRange { return &AzureRange{} }

var _ provider.Materializer = (*AzureRange)(nil)

func (a *AzureRange) Provider() blueprint.Provider { return blueprint.ProviderAzure }

func (a *AzureRange) StackName(input provider.Input) string {
	return input.Range.Name + "-" + input.DeployedRangeID.String()
}

func (a *AzureRange) HasSecrets(bundle *secretvault.SecretBundle) bool {
	return bundle.HasProvider(secretvault.ProviderAzure)
}

func (a *AzureRange) CredEnvVars(bundle *secretvault.SecretBundle) map[string]string {
	return bundle.CredEnvVars(secretvault.ProviderAzure)
}

func (a *AzureRange) Materialize(input provider.Input, workdir string) (string, error) {
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

func buildPlan(input provider.Input, stackName string) map[string]any {
	rgName := sanitize(stackName)

	resources := map[string]any{
		"azurerm_resource_group":            map[string]any{"range": map[string]any{"name": rgName, "location": input.Region}},
		"azurerm_virtual_network":           map[string]any{},
		"azurerm_subnet":                    map[string]any{},
		"azurerm_network_security_group":    map[string]any{},
		"azurerm_subnet_network_security_group_association": map[string]any{},
		"azurerm_public_ip":                 map[string]any{"jumpbox": map[string]any{"name": "jumpbox-ip", "resource_group_name": "${azurerm_resource_group.range.name}", "location": input.Region, "allocation_method": "Static"}},
		"azurerm_network_interface":         map[string]any{},
		"azurerm_linux_virtual_machine":     map[string]any{},
		"tls_private_key":                   map[string]any{},
	}

	vnets := resources["azurerm_virtual_network"].(map[string]any)
	subnets := resources["azurerm_subnet"].(map[string]any)
	nsgs := resources["azurerm_network_security_group"].(map[string]any)
	nsgAssocs := resources["azurerm_subnet_network_security_group_association"].(map[string]any)
	nics := resources["azurerm_network_interface"].(map[string]any)
	vms := resources["azurerm_linux_virtual_machine"].(map[string]any)

	vnets["jumpbox"] = map[string]any{
		"name":                "jumpbox-vnet",
		"address_space":       []string{"10.255.0.0/16"},
		"location":            input.Region,
		"resource_group_name": "${azurerm_resource_group.range.name}",
	}
	subnets["jumpbox"] = map[string]any{
		"name":                 "jumpbox-subnet",
		"resource_group_name":  "${azurerm_resource_group.range.name}",
		"virtual_network_name": "${azurerm_virtual_network.jumpbox.name}",
		"address_prefixes":     []string{jumpboxSubnetCIDR},
	}
	nsgs["jumpbox_ssh"] = sshOnlyNSG(rgName, input.Region)
	nsgAssocs["jumpbox"] = map[string]any{
		"subnet_id":                 "${azurerm_subnet.jumpbox.id}",
		"network_security_group_id": "${azurerm_network_security_group.jumpbox_ssh.id}",
	}
	nics["jumpbox"] = map[string]any{
		"name":                "jumpbox-nic",
		"location":            input.Region,
		"resource_group_name": "${azurerm_resource_group.range.name}",
		"ip_configuration": []map[string]any{{
			"name":                          "internal",
			"subnet_id":                     "${azurerm_subnet.jumpbox.id}",
			"private_ip_address_allocation": "Dynamic",
			"public_ip_address_id":          "${azurerm_public_ip.jumpbox.id}",
		}},
	}
	vms["jumpbox"] = linuxVM("jumpbox", rgName, input.Region, jumpboxVMSize, "${azurerm_network_interface.jumpbox.id}", input.JumpboxAuthorizedKey)

	outputs := map[string]any{
		"jumpbox_public_ip": map[string]any{"value": "${azurerm_public_ip.jumpbox.ip_address}"},
	}

	for i, vpc := range input.Range.VPCs {
		name := fmt.Sprintf("vnet_%d_%s", i, sanitize(vpc.Name))
		vnets[name] = map[string]any{
			"name":                name,
			"address_space":       []string{vpc.CIDR},
			"location":            input.Region,
			"resource_group_name": "${azurerm_resource_group.range.name}",
		}
		nsgs[name] = peeredNSG(rgName, input.Region, vpc.CIDR)

		for j, subnet := range vpc.Subnets {
			subnetName := fmt.Sprintf("%s_subnet_%d_%s", name, j, sanitize(subnet.Name))
			subnets[subnetName] = map[string]any{
				"name":                 subnetName,
				"resource_group_name":  "${azurerm_resource_group.range.name}",
				"virtual_network_name": "${azurerm_virtual_network." + name + ".name}",
				"address_prefixes":     []string{subnet.CIDR},
			}
			nsgAssocs[subnetName] = map[string]any{
				"subnet_id":                 "${azurerm_subnet." + subnetName + ".id}",
				"network_security_group_id": "${azurerm_network_security_group." + name + ".id}",
			}

			for k, host := range subnet.Hosts {
				instName := fmt.Sprintf("%s_host_%d_%s", subnetName, k, sanitize(host.Hostname))
				nicName := instName + "_nic"
				nics[nicName] = map[string]any{
					"name":                instName + "-nic",
					"location":            input.Region,
					"resource_group_name": "${azurerm_resource_group.range.name}",
					"ip_configuration": []map[string]any{{
						"name":                          "internal",
						"subnet_id":                     "${azurerm_subnet." + subnetName + ".id}",
						"private_ip_address_allocation": "Dynamic",
					}},
				}
				vms[instName] = linuxVM(host.Hostname, rgName, input.Region, vmSizeFor(host.Spec), "${azurerm_network_interface."+nicName+".id}", input.JumpboxAuthorizedKey)
				outputs[instName+"_private_ip"] = map[string]any{"value": "${azurerm_network_interface." + nicName + ".private_ip_address}"}
			}
		}
	}

	return map[string]any{
		"terraform": map[string]any{
			"required_providers": map[string]any{
				"azurerm": map[string]any{"source": "hashicorp/azurerm", "version": "~> 3.0"},
			},
			"backend": map[string]any{
				"local": map[string]any{"path": provider.StateFileName(stackName)},
			},
		},
		"provider": map[string]any{
			"azurerm": map[string]any{"features": map[string]any{}},
		},
		"resource": resources,
		"output":   outputs,
	}
}

func sshOnlyNSG(rg, region string) map[string]any {
	return map[string]any{
		"name":                "jumpbox-ssh-nsg",
		"location":            region,
		"resource_group_name": "${azurerm_resource_group.range.name}",
		"security_rule": []map[string]any{{
			"name":                       "allow-ssh",
			"priority":                   100,
			"direction":                  "Inbound",
			"access":                     "Allow",
			"protocol":                   "Tcp",
			"source_port_range":          "*",
			"destination_port_range":     "22",
			"source_address_prefix":      "*",
			"destination_address_prefix": "*",
		}},
	}
}

func peeredNSG(rg, region, peerCIDR string) map[string]any {
	return map[string]any{
		"name":                "allow-peer-" + sanitize(peerCIDR),
		"location":            region,
		"resource_group_name": "${azurerm_resource_group.range.name}",
		"security_rule": []map[string]any{{
			"name":                       "allow-jumpbox-and-peers",
			"priority":                   100,
			"direction":                  "Inbound",
			"access":                     "Allow",
			"protocol":                   "*",
			"source_port_range":          "*",
			"destination_port_range":     "*",
			"source_address_prefixes":    []string{jumpboxSubnetCIDR, peerCIDR},
			"destination_address_prefix": "*",
		}},
	}
}

func linuxVM(name, rg, region, size, nicRef string, authorizedKey []byte) map[string]any {
	image := osToImage["ubuntu-22.04"]
	return map[string]any{
		"name":                  sanitize(name),
		"location":              region,
		"resource_group_name":   "${azurerm_resource_group.range.name}",
		"size":                  size,
		"admin_username":        "ranger",
		"network_interface_ids": []string{nicRef},
		"admin_ssh_key": []map[string]any{{
			"username":   "ranger",
			"public_key": string(authorizedKey),
		}},
		"os_disk": map[string]any{
			"caching":              "ReadWrite",
			"storage_account_type": "Standard_LRS",
		},
		"source_image_reference": image,
	}
}

func vmSizeFor(spec string) string {
	if t, ok := specToVMSize[spec]; ok {
		return t
	}
	return specToVMSize["small"]
}

func sanitize(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r-'A'+'a')
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}
