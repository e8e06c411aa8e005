package auth

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ms-gallery/internal/apperr"
	"ms-gallery/internal/logger"
	"ms-gallery/internal/models"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-with-enough-length"

func mintHS256(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	token, err := SignHMAC(testSecret, Claims{
		Email: "curator@gallery.example",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    "gallery-idp",
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	require.NoError(t, err)
	return token
}

func TestExtractTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := ExtractTokenFromRequest(r)
	assert.Error(t, err)

	r.Header.Set("Authorization", "Token abc")
	_, err = ExtractTokenFromRequest(r)
	assert.Error(t, err)

	r.Header.Set("Authorization", "bearer abc")
	tok, err := ExtractTokenFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
}

func TestHMACVerifier(t *testing.T) {
	v := NewHMACVerifier(testSecret, "gallery-idp")

	p, err := v.Verify(context.Background(), mintHS256(t, "admin-1", time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "admin-1", p.Subject)
	assert.Equal(t, "curator@gallery.example", p.Email)

	_, err = v.Verify(context.Background(), mintHS256(t, "admin-1", time.Now().Add(-time.Hour)))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(context.Background(), mintHS256(t, "", time.Now().Add(time.Hour)))
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewHMACVerifier("another-secret", "")
	_, err = other.Verify(context.Background(), mintHS256(t, "admin-1", time.Now().Add(time.Hour)))
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := NewHMACVerifier(testSecret, "someone-else")
	_, err = wrongIssuer.Verify(context.Background(), mintHS256(t, "admin-1", time.Now().Add(time.Hour)))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestOIDCVerifierWithStaticKeys(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	issuer := "https://idp.gallery.example"
	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{key.Public()}}
	v := NewOIDCVerifierWithKeySet(issuer, "gallery-admin", keySet)

	sign := func(aud string) string {
		token := jwt.NewWithClaims(jwt.SigningMethodRS256, Claims{
			Email: "curator@gallery.example",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "oidc-user",
				Issuer:    issuer,
				Audience:  jwt.ClaimStrings{aud},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now()),
			},
		})
		raw, err := token.SignedString(key)
		require.NoError(t, err)
		return raw
	}

	p, err := v.Verify(context.Background(), sign("gallery-admin"))
	require.NoError(t, err)
	assert.Equal(t, "oidc-user", p.Subject)
	assert.Equal(t, "curator@gallery.example", p.Email)

	_, err = v.Verify(context.Background(), sign("some-other-client"))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	v := NewHMACVerifier(testSecret, "")
	var seen *models.Principal
	handler := Middleware(v, logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "unauthorized", body["error"])
	})

	t.Run("expired token gets the same generic answer", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
		req.Header.Set("Authorization", "Bearer "+mintHS256(t, "admin-1", time.Now().Add(-time.Hour)))
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NotContains(t, rec.Body.String(), "expired")
	})

	t.Run("valid token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
		req.Header.Set("Authorization", "Bearer "+mintHS256(t, "admin-1", time.Now().Add(time.Hour)))
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "admin-1", seen.Subject)
	})
}

func TestRequirePrincipal(t *testing.T) {
	_, err := RequirePrincipal(context.Background())
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	_, err = RequirePrincipal(WithPrincipal(context.Background(), &models.Principal{}))
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	p, err := RequirePrincipal(WithPrincipal(context.Background(), &models.Principal{Subject: "a"}))
	require.NoError(t, err)
	assert.Equal(t, "a", p.Subject)
}
