// Package provider defines the tagged-variant abstraction behind §9's
// "Range = AWSRange | AzureRange | …": a shared capability set the Range
// Materializer and Provisioner Driver drive without knowing which cloud
// they are talking to. pkg/provider/awsrange and pkg/provider/azurerange
// each implement Materializer; a factory elsewhere selects the variant
// from the blueprint's provider field.
package provider

import (
	"github.com/google/uuid"

	"github.com/openlabshq/rangeapi/pkg/blueprint"
	"github.com/openlabshq/rangeapi/pkg/secretvault"
)

// Input is everything a Materializer needs to produce a byte-identical
// plan for the same logical deploy (§4.3: "purely a function of inputs;
// repeated calls with the same inputs produce byte-identical output
// except for any embedded UUID"). The jumpbox keypair is generated by the
// caller before the deploy-time Synthesize, so the materializer itself
// never mints randomness. The destroy-time re-synthesize passes no
// JumpboxAuthorizedKey, so that plan carries an empty public key.
type Input struct {
	Range                blueprint.Range
	Region               string
	DeployedRangeID      uuid.UUID
	JumpboxAuthorizedKey []byte // SSH authorized_keys-format public key
}

// Materializer turns a blueprint + region + secrets into a provisioner
// plan on disk, and knows how to talk about credentials and state for its
// provider (§4.4's env-var injection, §4.5's has_secrets()).
type Materializer interface {
	// Provider identifies which blueprint.Provider this variant handles.
	Provider() blueprint.Provider

	// StackName returns "<range_name>-<deployed_range_id>" (§4.3).
	StackName(input Input) string

	// Materialize writes the plan to <workdir>/stacks/<stack_name>/ and
	// returns that directory.
	Materialize(input Input, workdir string) (planDir string, err error)

	// HasSecrets reports whether bundle carries the credentials this
	// variant's provisioner run needs (§4.5 admission step 4).
	HasSecrets(bundle *secretvault.SecretBundle) bool

	// CredEnvVars returns the environment variables the Provisioner
	// Driver injects into the subprocess (§4.4).
	CredEnvVars(bundle *secretvault.SecretBundle) map[string]string
}

// StateFileName returns the state file the Provisioner Driver reads after
// apply and rewrites before destroy: "terraform.<stack>.tfstate" (§4.4).
func StateFileName(stackName string) string {
	return "terraform." + stackName + ".tfstate"
}
