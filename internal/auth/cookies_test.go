package auth

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSetSessionCookies_ThenMasterKeyFromRequest(t *testing.T) {
	rec := httptest.NewRecorder()
	masterKey := []byte("0123456789abcdef0123456789abcdef")
	SetSessionCookies(rec, "a-jwt-token", masterKey, time.Hour)

	resp := rec.Result()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range resp.Cookies() {
		req.AddCookie(c)
	}

	got, err := MasterKeyFromRequest(req)
	if err != nil {
		t.Fatalf("MasterKeyFromRequest() error = %v", err)
	}
	if !bytes.Equal(got, masterKey) {
		t.Errorf("MasterKeyFromRequest() = %x, want %x", got, masterKey)
	}
}

func TestMasterKeyFromRequest_MissingCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := MasterKeyFromRequest(req); err == nil {
		t.Fatal("MasterKeyFromRequest() with no cookie should error")
	}
}

func TestMasterKeyFromRequest_InvalidBase64(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: EncKeyCookieName, Value: "not-valid-base64!!"})
	if _, err := MasterKeyFromRequest(req); err == nil {
		t.Fatal("MasterKeyFromRequest() with invalid base64 should error")
	}
}

func TestClearSessionCookies_ExpiresBoth(t *testing.T) {
	rec := httptest.NewRecorder()
	ClearSessionCookies(rec)

	resp := rec.Result()
	cookies := resp.Cookies()
	if len(cookies) != 2 {
		t.Fatalf("len(cookies) = %d, want 2", len(cookies))
	}
	for _, c := range cookies {
		if c.MaxAge >= 0 {
			t.Errorf("cookie %q MaxAge = %d, want negative (expire immediately)", c.Name, c.MaxAge)
		}
	}
}
