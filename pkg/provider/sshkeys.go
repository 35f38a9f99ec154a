package provider

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"golang.org/x/crypto/ssh"
)

// jumpboxKeyBits matches the teacher pack's GenerateSSHKeys reference
// (openshift-hypershift/cmd/util/sshkeys.go).
const jumpboxKeyBits = 4096

// GenerateJumpboxKeyPair mints a fresh RSA keypair for one range's jumpbox,
// grounded on openshift-hypershift's GenerateSSHKeys. The public half is
// embedded in the materialized plan's key_pair resource; the private half
// is what GET /ranges/{id}/key returns (§6), closing the Open Question
// left by the original's hardcoded key.
func GenerateJumpboxKeyPair() (authorizedKey, privateKeyPEM []byte, err error) {
	key, err := rsa.GenerateKey(rand.Reader, jumpboxKeyBits)
	if err != nil {
		return nil, nil, fmt.Errorf("generating jumpbox key: %w", err)
	}

	privDER := x509.MarshalPKCS1PrivateKey(key)
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: privDER})

	pub, err := ssh.NewPublicKey(&key.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("converting to SSH public key: %w", err)
	}

	return ssh.MarshalAuthorizedKey(pub), privPEM, nil
}
