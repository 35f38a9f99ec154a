package secretvault

import "strings"

// Provider names match the Blueprint Range's provider tag (§3).
const (
	ProviderAWS   = "aws"
	ProviderAzure = "azure"
)

// AWSCredential is the decrypted AWS credential shape for a user.
type AWSCredential struct {
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
}

// AzureCredential is the decrypted Azure credential shape for a user.
type AzureCredential struct {
	ClientID       string `json:"client_id"`
	ClientSecret   string `json:"client_secret"`
	TenantID       string `json:"tenant_id"`
	SubscriptionID string `json:"subscription_id"`
}

// SecretBundle is the decrypted set of provider credentials available to
// one request (§4.1 get_decrypted_secrets). Either field may be nil if the
// user never uploaded credentials for that provider.
type SecretBundle struct {
	AWS   *AWSCredential
	Azure *AzureCredential
}

// HasProvider reports whether the bundle carries credentials for the named
// provider, backing the Job Coordinator's has_secrets() admission check
// (§4.5 step 4).
func (b *SecretBundle) HasProvider(provider string) bool {
	if b == nil {
		return false
	}
	switch strings.ToLower(provider) {
	case ProviderAWS:
		return b.AWS != nil
	case ProviderAzure:
		return b.Azure != nil
	default:
		return false
	}
}

// CredEnvVars returns the environment variables the Provisioner Driver
// injects into the subprocess for the given provider (§4.4).
func (b *SecretBundle) CredEnvVars(provider string) map[string]string {
	if b == nil {
		return nil
	}
	switch strings.ToLower(provider) {
	case ProviderAWS:
		if b.AWS == nil {
			return nil
		}
		return map[string]string{
			"AWS_ACCESS_KEY_ID":     b.AWS.AccessKeyID,
			"AWS_SECRET_ACCESS_KEY": b.AWS.SecretAccessKey,
		}
	case ProviderAzure:
		if b.Azure == nil {
			return nil
		}
		return map[string]string{
			"ARM_CLIENT_ID":       b.Azure.ClientID,
			"ARM_CLIENT_SECRET":   b.Azure.ClientSecret,
			"ARM_TENANT_ID":       b.Azure.TenantID,
			"ARM_SUBSCRIPTION_ID": b.Azure.SubscriptionID,
		}
	default:
		return nil
	}
}
