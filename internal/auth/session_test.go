package auth

import (
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewSessionManager_RejectsShortSecret(t *testing.T) {
	if _, err := NewSessionManager("too-short", time.Minute); err == nil {
		t.Fatal("NewSessionManager() with <32 byte secret should error")
	}
}

func TestSessionManager_IssueAndValidate(t *testing.T) {
	sm, err := NewSessionManager(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}

	claims := SessionClaims{Email: "user@example.com", UserID: "11111111-1111-1111-1111-111111111111", IsAdmin: true}
	token, err := sm.IssueToken(claims)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("IssueToken() returned empty token")
	}

	got, err := sm.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if got.Email != claims.Email || got.UserID != claims.UserID || got.IsAdmin != claims.IsAdmin {
		t.Errorf("ValidateToken() = %+v, want %+v", got, claims)
	}
}

func TestSessionManager_ValidateToken_WrongKey(t *testing.T) {
	sm1, _ := NewSessionManager(testSecret, time.Hour)
	sm2, _ := NewSessionManager("fedcba9876543210fedcba9876543210", time.Hour)

	token, err := sm1.IssueToken(SessionClaims{Email: "a@b.com", UserID: "1"})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	if _, err := sm2.ValidateToken(token); err == nil {
		t.Fatal("ValidateToken() with wrong signing key should fail")
	}
}

func TestSessionManager_ValidateToken_Expired(t *testing.T) {
	sm, _ := NewSessionManager(testSecret, -time.Hour)
	token, err := sm.IssueToken(SessionClaims{Email: "a@b.com", UserID: "1"})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if _, err := sm.ValidateToken(token); err == nil {
		t.Fatal("ValidateToken() with expired token should fail")
	}
}

func TestSessionManager_ValidateToken_Malformed(t *testing.T) {
	sm, _ := NewSessionManager(testSecret, time.Hour)
	if _, err := sm.ValidateToken("not-a-jwt"); err == nil {
		t.Fatal("ValidateToken() with malformed token should fail")
	}
}

func TestGenerateDevSecret_LengthAndUniqueness(t *testing.T) {
	s1 := GenerateDevSecret()
	s2 := GenerateDevSecret()
	if len(s1) != 64 { // 32 bytes hex-encoded
		t.Errorf("len(secret) = %d, want 64", len(s1))
	}
	if s1 == s2 {
		t.Error("two calls to GenerateDevSecret() produced identical secrets")
	}
	if strings.ContainsAny(s1, "ghijklmnopqrstuvwxyz") {
		t.Error("secret should be lowercase hex only")
	}
}
