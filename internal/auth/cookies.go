package auth

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/openlabshq/rangeapi/internal/apperr"
)

const (
	// TokenCookieName carries the HS256 session JWT.
	TokenCookieName = "token"
	// EncKeyCookieName carries the base64-encoded, password-derived master
	// key that unwraps the caller's RSA private key (§4.1/§9).
	EncKeyCookieName = "enc_key"
)

// SetSessionCookies sets both the session token and master-key cookies,
// each HttpOnly/Secure/SameSite=Strict scoped to "/" for maxAge.
func SetSessionCookies(w http.ResponseWriter, token string, masterKey []byte, maxAge time.Duration) {
	encKey := base64.StdEncoding.EncodeToString(masterKey)
	maxAgeSeconds := int(maxAge.Seconds())

	for _, c := range []*http.Cookie{
		{
			Name:     TokenCookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   maxAgeSeconds,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		},
		{
			Name:     EncKeyCookieName,
			Value:    encKey,
			Path:     "/",
			MaxAge:   maxAgeSeconds,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		},
	} {
		http.SetCookie(w, c)
	}
}

// ClearSessionCookies deletes both the session and master-key cookies.
func ClearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{TokenCookieName, EncKeyCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// MasterKeyFromRequest reads and decodes the enc_key cookie. A missing
// cookie or one that fails to base64-decode both surface as
// Unauthenticated — per §4.1, absence of the master key is a 401 on any
// endpoint that needs decryption.
func MasterKeyFromRequest(r *http.Request) ([]byte, error) {
	c, err := r.Cookie(EncKeyCookieName)
	if err != nil {
		return nil, apperr.New(apperr.KindUnauthenticated, "missing encryption key cookie")
	}

	key, err := base64.StdEncoding.DecodeString(c.Value)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, "invalid encryption key cookie", err)
	}

	return key, nil
}
