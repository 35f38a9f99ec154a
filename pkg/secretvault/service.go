package secretvault

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/openlabshq/rangeapi/internal/apperr"
)

// KeyMaterial is the subset of a User row the vault needs to decrypt
// secrets: the wrapped private key and the salt used to derive the master
// key. Kept separate from pkg/user's User type so secretvault has no
// dependency on the user package.
type KeyMaterial struct {
	EncryptedPrivateKey []byte
	KeySalt             []byte
}

// Service combines the Store with the envelope-decryption operations.
type Service struct {
	store *Store
}

// NewService creates a secretvault Service.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// GetDecryptedSecrets implements §4.1's get_decrypted_secrets: unwraps the
// user's private key with masterKey, then decrypts every stored provider
// record. A nil KeySalt (legacy account, §4.1 failure modes) yields
// NoCredentials rather than attempting decryption with an empty key.
func (s *Service) GetDecryptedSecrets(ctx context.Context, userID uuid.UUID, km KeyMaterial, masterKey []byte) (*SecretBundle, error) {
	if len(km.KeySalt) == 0 {
		return nil, apperr.New(apperr.KindNoCredentials, "account has no key material")
	}

	privPEM, err := DecryptPrivateKey(km.EncryptedPrivateKey, masterKey)
	if err != nil {
		return nil, err
	}

	records, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing secret records: %w", err)
	}
	if len(records) == 0 {
		return &SecretBundle{}, nil
	}

	bundle := &SecretBundle{}
	for _, rec := range records {
		plaintext, err := DecryptForUser(privPEM, rec.Ciphertext)
		if err != nil {
			return nil, fmt.Errorf("decrypting %s secret record: %w", rec.Provider, err)
		}

		switch rec.Provider {
		case ProviderAWS:
			var cred AWSCredential
			if err := json.Unmarshal(plaintext, &cred); err != nil {
				return nil, fmt.Errorf("unmarshaling AWS credential: %w", err)
			}
			bundle.AWS = &cred
		case ProviderAzure:
			var cred AzureCredential
			if err := json.Unmarshal(plaintext, &cred); err != nil {
				return nil, fmt.Errorf("unmarshaling Azure credential: %w", err)
			}
			bundle.Azure = &cred
		}
	}

	return bundle, nil
}

// UploadSecret encrypts a provider credential under the user's public key
// and upserts the resulting Secret Record. Uploading never requires the
// master key (§4.1: "writes do not require the master key").
func (s *Service) UploadSecret(ctx context.Context, userID uuid.UUID, publicKeyPEM []byte, provider string, credential any) error {
	plaintext, err := json.Marshal(credential)
	if err != nil {
		return fmt.Errorf("marshaling credential: %w", err)
	}

	ciphertext, err := EncryptForUser(publicKeyPEM, plaintext)
	if err != nil {
		return fmt.Errorf("encrypting credential: %w", err)
	}

	if _, err := s.store.Upsert(ctx, userID, provider, ciphertext); err != nil {
		return fmt.Errorf("storing secret record: %w", err)
	}
	return nil
}
