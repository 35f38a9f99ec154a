package awsrange

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
			Provider: blueprint.ProviderAWS,
			Region:   "us-east-1",
			VPCs: []blueprint.VPC{
				{
					Name: "vpc-a",
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
		Region:               "us-east-1",
		DeployedRangeID:      uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		JumpboxAuthorizedKey: []byte("ssh-rsa AAAAB3NzaC1yc2EAAAADAQABAAAB test"),
	}
}

func TestAWSRange_Identity(t *testing.T) {
	a := New()
	if a.Provider() != blueprint.ProviderAWS {
		t.Errorf("Provider() = %v, want %v", a.Provider(), blueprint.ProviderAWS)
	}
	want := "test-range-11111111-1111-1111-1111-111111111111"
	if got := a.StackName(testInput()); got != want {
		t.Errorf("StackName() = %q, want %q", got, want)
	}
}

func TestAWSRange_HasSecretsAndCredEnvVars(t *testing.T) {
	a := New()
	if a.HasSecrets(&secretvault.SecretBundle{}) {
		t.Error("HasSecrets() should be false for an empty bundle")
	}
	bundle := &secretvault.SecretBundle{AWS: &secretvault.AWSCredential{AccessKeyID: "AKIA", SecretAccessKey: "shh"}}
	if !a.HasSecrets(bundle) {
		t.Error("HasSecrets() should be true when AWS credentials are present")
	}

	env := a.CredEnvVars(bundle)
	if env["AWS_ACCESS_KEY_ID"] != "AKIA" || env["AWS_SECRET_ACCESS_KEY"] != "shh" {
		t.Errorf("CredEnvVars() = %v", env)
	}
}

func TestAWSRange_Materialize_Deterministic(t *testing.T) {
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

func TestAWSRange_Materialize_ContainsExpectedResources(t *testing.T) {
	a := New()
	dir := t.TempDir()
	planDir, err := a.Materialize(testInput(), dir)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	body, err := os.ReadFile(filepath.Join(planDir, "cdk.tf.json"))
	if err != nil {
		t.Fatalf("reading plan: %v", err)
	}

	for _, want := range []string{
		`"aws_ec2_transit_gateway"`,
		`"aws_key_pair"`,
		`jumpbox`,
		`10.0.0.0/16`,
		`10.0.1.0/24`,
	} {
		if !bytes.Contains(body, []byte(want)) {
			t.Errorf("plan missing expected fragment %q", want)
		}
	}
}
