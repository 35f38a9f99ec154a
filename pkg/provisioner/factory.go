package provisioner

import (
	"fmt"

	"github.com/openlabshq/rangeapi/pkg/blueprint"
	"github.com/openlabshq/rangeapi/pkg/provider"
	"github.com/openlabshq/rangeapi/pkg/provider/awsrange"
	"github.com/openlabshq/rangeapi/pkg/provider/azurerange"
)

// MaterializerFor selects the provider.Materializer variant for a
// blueprint's provider tag (§9: "a factory selects the variant from the
// blueprint's provider field").
func MaterializerFor(p blueprint.Provider) (provider.Materializer, error) {
	switch p {
	case blueprint.ProviderAWS:
		return awsrange.New(), nil
	case blueprint.ProviderAzure:
		return azurerange.New(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", p)
	}
}
