package user

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestToInfo_OmitsSensitiveFields(t *testing.T) {
	u := User{
		ID:                  uuid.New(),
		Email:               "user@example.com",
		Name:                "Test User",
		PasswordHash:        "bcrypt-hash-should-never-leak",
		KeySalt:             []byte("salt-should-never-leak"),
		PublicKey:           []byte("public-key-pem"),
		EncryptedPrivateKey: []byte("encrypted-private-key-should-never-leak"),
		IsAdmin:             true,
	}

	info := u.ToInfo()
	raw, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("marshaling Info: %v", err)
	}

	for _, secret := range []string{"bcrypt-hash-should-never-leak", "salt-should-never-leak", "encrypted-private-key-should-never-leak"} {
		if strings.Contains(string(raw), secret) {
			t.Errorf("Info JSON leaked sensitive field: %s", secret)
		}
	}

	if info.ID != u.ID || info.Email != u.Email || info.Name != u.Name || info.IsAdmin != u.IsAdmin {
		t.Errorf("ToInfo() = %+v, want matching public fields from %+v", info, u)
	}
}
