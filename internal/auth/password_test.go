package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "correct-horse-battery-staple" {
		t.Fatal("hash should not equal the plaintext password")
	}

	if !CheckPassword(hash, "correct-horse-battery-staple") {
		t.Error("CheckPassword() should accept the correct password")
	}
	if CheckPassword(hash, "wrong-password") {
		t.Error("CheckPassword() should reject an incorrect password")
	}
}

func TestHashPassword_SaltedDifferently(t *testing.T) {
	h1, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	h2, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password should differ (bcrypt salts per call)")
	}
}
