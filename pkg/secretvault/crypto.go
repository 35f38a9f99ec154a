package secretvault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/openlabshq/rangeapi/internal/apperr"
)

// aesGCMSeal encrypts plaintext with AES-256-GCM under key, prefixing the
// nonce onto the ciphertext. Grounded on the teacher's
// internal/auth/oidcadmin.go encryptAES256GCM.
func aesGCMSeal(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// aesGCMOpen reverses aesGCMSeal.
func aesGCMOpen(key, sealed []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(sealed) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("opening GCM: %w", err)
	}
	return plaintext, nil
}

// EncryptPrivateKey wraps a user's PEM private key under their
// password-derived master key (§9: "private key wrapped under a
// password-derived key").
func EncryptPrivateKey(privateKeyPEM, masterKey []byte) ([]byte, error) {
	return aesGCMSeal(masterKey, privateKeyPEM)
}

// DecryptPrivateKey unwraps a user's PEM private key. A wrong master key
// fails AES-GCM authentication, surfaced as AuthenticationFailure (§4.1).
func DecryptPrivateKey(ciphertext, masterKey []byte) ([]byte, error) {
	plaintext, err := aesGCMOpen(masterKey, ciphertext)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, "master key does not unwrap private key", err)
	}
	return plaintext, nil
}

// EncryptForUser envelope-encrypts plaintext under the user's RSA public
// key: a random AES-256 key seals the payload, then RSA-OAEP wraps the AES
// key. Layout: 2-byte big-endian wrapped-key length, wrapped key, sealed
// payload. Writes never require the master key (§4.1).
func EncryptForUser(publicKeyPEM, plaintext []byte) ([]byte, error) {
	pub, err := parsePublicKey(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}

	aesKey := make([]byte, 32)
	if _, err := rand.Read(aesKey); err != nil {
		return nil, fmt.Errorf("generating payload key: %w", err)
	}

	wrappedKey, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, aesKey, nil)
	if err != nil {
		return nil, fmt.Errorf("wrapping payload key: %w", err)
	}

	sealed, err := aesGCMSeal(aesKey, plaintext)
	if err != nil {
		return nil, fmt.Errorf("sealing payload: %w", err)
	}

	out := make([]byte, 2+len(wrappedKey)+len(sealed))
	binary.BigEndian.PutUint16(out[:2], uint16(len(wrappedKey)))
	copy(out[2:], wrappedKey)
	copy(out[2+len(wrappedKey):], sealed)
	return out, nil
}

// DecryptForUser reverses EncryptForUser using the caller's unwrapped RSA
// private key.
func DecryptForUser(privateKeyPEM, ciphertext []byte) ([]byte, error) {
	priv, err := parsePrivateKey(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	if len(ciphertext) < 2 {
		return nil, fmt.Errorf("ciphertext too short")
	}
	wrappedLen := binary.BigEndian.Uint16(ciphertext[:2])
	if len(ciphertext) < 2+int(wrappedLen) {
		return nil, fmt.Errorf("ciphertext truncated")
	}
	wrappedKey := ciphertext[2 : 2+wrappedLen]
	sealed := ciphertext[2+wrappedLen:]

	aesKey, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, wrappedKey, nil)
	if err != nil {
		return nil, fmt.Errorf("unwrapping payload key: %w", err)
	}

	return aesGCMOpen(aesKey, sealed)
}
