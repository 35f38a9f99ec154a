package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMiddleware_ValidSessionCookie(t *testing.T) {
	sm, err := NewSessionManager(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}

	userID := uuid.New()
	token, err := sm.IssueToken(SessionClaims{Email: "a@b.com", UserID: userID.String(), IsAdmin: true})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	var captured *Identity
	h := Middleware(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: token})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if captured == nil {
		t.Fatal("expected identity in context, got nil")
	}
	if captured.UserID != userID || captured.Email != "a@b.com" || !captured.IsAdmin {
		t.Errorf("captured identity = %+v", captured)
	}
}

func TestMiddleware_NoCookie(t *testing.T) {
	sm, _ := NewSessionManager(testSecret, time.Hour)

	var captured *Identity
	h := Middleware(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if captured != nil {
		t.Errorf("expected nil identity with no cookie, got %+v", captured)
	}
}

func TestMiddleware_InvalidToken(t *testing.T) {
	sm, _ := NewSessionManager(testSecret, time.Hour)

	var captured *Identity
	h := Middleware(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: "garbage"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if captured != nil {
		t.Errorf("expected nil identity with invalid token, got %+v", captured)
	}
}

func TestRequireAuth(t *testing.T) {
	called := false
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(rec, req)

	if called {
		t.Error("handler should not be called without an identity")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuth_WithIdentity(t *testing.T) {
	called := false
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(NewContext(req.Context(), &Identity{UserID: uuid.New()}))
	h.ServeHTTP(rec, req)

	if !called {
		t.Error("handler should be called with a valid identity")
	}
}

func TestRequireAdmin_NonAdminGetsNotFound(t *testing.T) {
	called := false
	h := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(NewContext(req.Context(), &Identity{UserID: uuid.New(), IsAdmin: false}))
	h.ServeHTTP(rec, req)

	if called {
		t.Error("handler should not be called for a non-admin identity")
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d (non-admin existence should not leak via 403)", rec.Code, http.StatusNotFound)
	}
}

func TestRequireAdmin_Admin(t *testing.T) {
	called := false
	h := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(NewContext(req.Context(), &Identity{UserID: uuid.New(), IsAdmin: true}))
	h.ServeHTTP(rec, req)

	if !called {
		t.Error("handler should be called for an admin identity")
	}
}
