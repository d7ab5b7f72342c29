package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/sjw787/HovverAdminDashboard/internal/apperr"
)

const testKeyID = "test-key"

func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return key
}

// buildJWKSetJSON renders the RSA public key as a provider-style key set.
func buildJWKSetJSON(pub *rsa.PublicKey, kid string) json.RawMessage {
	jwks := map[string]any{
		"keys": []map[string]any{
			{
				"kty": "RSA",
				"kid": kid,
				"use": "sig",
				"alg": "RS256",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			},
		},
	}
	data, _ := json.Marshal(jwks)
	return data
}

func newTestVerifier(t *testing.T, key *rsa.PrivateKey) *Verifier {
	t.Helper()
	kf, err := keyfunc.NewJWKSetJSON(buildJWKSetJSON(&key.PublicKey, testKeyID))
	if err != nil {
		t.Fatalf("create keyfunc: %v", err)
	}
	return NewVerifierWithKeyfunc(kf, 0, "Admins", "Customers")
}

func signTestToken(t *testing.T, key *rsa.PrivateKey, kid string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func validClaims() Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "sub-1234",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Username: "alice@example.com",
		Email:    "alice@example.com",
		Groups:   []string{"Customers"},
		TokenUse: "access",
	}
}

func TestVerifyAcceptsSignedToken(t *testing.T) {
	key := generateTestKey(t)
	verifier := newTestVerifier(t, key)

	tokenString := signTestToken(t, key, testKeyID, validClaims())

	claims, err := verifier.Verify(context.Background(), tokenString)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if claims.Subject != "sub-1234" || claims.Username != "alice@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Role("Admins", "Customers") != RoleCustomer {
		t.Fatalf("expected customer role")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	key := generateTestKey(t)
	verifier := newTestVerifier(t, key)

	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	tokenString := signTestToken(t, key, testKeyID, claims)

	_, err := verifier.Verify(context.Background(), tokenString)
	if apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if apperr.Detail(err) != "token has expired" {
		t.Fatalf("unexpected detail: %q", apperr.Detail(err))
	}
}

func TestVerifyRejectsUnknownKeyID(t *testing.T) {
	key := generateTestKey(t)
	verifier := newTestVerifier(t, key)

	tokenString := signTestToken(t, key, "rotated-away", validClaims())

	if _, err := verifier.Verify(context.Background(), tokenString); err == nil {
		t.Fatalf("expected verification failure for unknown kid")
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	key := generateTestKey(t)
	otherKey := generateTestKey(t)
	verifier := newTestVerifier(t, key)

	// Signed by a key outside the published set, but claiming the known kid.
	tokenString := signTestToken(t, otherKey, testKeyID, validClaims())

	_, err := verifier.Verify(context.Background(), tokenString)
	if apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	key := generateTestKey(t)
	verifier := newTestVerifier(t, key)

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := verifier.Verify(context.Background(), tok); err == nil {
			t.Fatalf("expected error for token %q", tok)
		}
	}
}

func TestStorageIDPrefersCustomAttribute(t *testing.T) {
	c := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "sub-1"}}
	if c.StorageID() != "sub-1" {
		t.Fatalf("expected sub fallback, got %q", c.StorageID())
	}
	c.CustomerID = "cust-9"
	if c.StorageID() != "cust-9" {
		t.Fatalf("expected custom attribute, got %q", c.StorageID())
	}
}
