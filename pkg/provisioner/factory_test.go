package provisioner

import (
	"testing"

	"github.com/openlabshq/rangeapi/pkg/blueprint"
)

func TestMaterializerFor(t *testing.T) {
	aws, err := MaterializerFor(blueprint.ProviderAWS)
	if err != nil {
		t.Fatalf("MaterializerFor(AWS) error = %v", err)
	}
	if aws.Provider() != blueprint.ProviderAWS {
		t.Errorf("aws.Provider() = %v, want %v", aws.Provider(), blueprint.ProviderAWS)
	}

	azure, err := MaterializerFor(blueprint.ProviderAzure)
	if err != nil {
		t.Fatalf("MaterializerFor(AZURE) error = %v", err)
	}
	if azure.Provider() != blueprint.ProviderAzure {
		t.Errorf("azure.Provider() = %v, want %v", azure.Provider(), blueprint.ProviderAzure)
	}
}

func TestMaterializerFor_Unsupported(t *testing.T) {
	if _, err := MaterializerFor("gcp"); err == nil {
		t.Fatal("MaterializerFor(unsupported) should error")
	}
}
