package azurerange

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/openlabshq/rangeapi/pkg/blueprint"
	"github.com/openlabshq/rangeapi/pkg/provider"
	"github.com/openlabshq/rangeapi/pkg/secretvault"
)

func testInput() provider.Input {
	return provider.Input{
		Range: blueprint.Range{
			Name:     "test-range",
			Provider: blueprint.ProviderAzure,
			Region:   "eastus",
			VPCs: []blueprint.VPC{
				{
					Name: "vnet-a",
					CIDR: "10.0.0.0/16",
					Subnets: []blueprint.Subnet{
						{
							Name: "subnet-a",
							CIDR: "10.0.1.0/24",
							Hosts: []blueprint.Host{
								{Hostname: "web-1", OS: "ubuntu-22.04", Spec: "small", DiskSizeGB: 8},
							},
						},
					},
				},
			},
		},
		Region:               "eastus",
		DeployedRangeID:      uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		JumpboxAuthorizedKey: []byte("ssh-rsa AAAAB3NzaC1yc2EAAAADAQABAAAB test"),
	}
}

func TestAzureRange_Identity(t *testing.T) {
	a := New()
	if a.Provider() != blueprint.ProviderAzure {
		t.Errorf("Provider() = %v, want %v", a.Provider(), blueprint.ProviderAzure)
	}
	want := "test-range-22222222-2222-2222-2222-222222222222"
	if got := a.StackName(testInput()); got != want {
		t.Errorf("StackName() = %q, want %q", got, want)
	}
}

func TestAzureRange_HasSecretsAndCredEnvVars(t *testing.T) {
	a := New()
	if a.HasSecrets(&secretvault.SecretBundle{}) {
		t.Error("HasSecrets() should be false for an empty bundle")
	}
	bundle := &secretvault.SecretBundle{Azure: &secretvault.AzureCredential{
		ClientID: "cid", ClientSecret: "secret", TenantID: "tid", SubscriptionID: "sub",
	}}
	if !a.HasSecrets(bundle) {
		t.Error("HasSecrets() should be true when Azure credentials are present")
	}

	env := a.CredEnvVars(bundle)
	if env["ARM_CLIENT_ID"] != "cid" || env["ARM_SUBSCRIPTION_ID"] != "sub" {
		t.Errorf("CredEnvVars() = %v", env)
	}
}

func TestAzureRange_Materialize_Deterministic(t *testing.T) {
	a := New()
	input := testInput()

	dir1 := t.TempDir()
	planDir1, err := a.Materialize(input, dir1)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	body1, err := os.ReadFile(filepath.Join(planDir1, "cdk.tf.json"))
	if err != nil {
		t.Fatalf("reading plan 1: %v", err)
	}

	dir2 := t.TempDir()
	planDir2, err := a.Materialize(input, dir2)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	body2, err := os.ReadFile(filepath.Join(planDir2, "cdk.tf.json"))
	if err != nil {
		t.Fatalf("reading plan 2: %v", err)
	}

	if !bytes.Equal(body1, body2) {
		t.Error("Materialize() with identical inputs should produce byte-identical plans")
	}
}
