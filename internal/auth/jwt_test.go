package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTManager_GenerateAndParse(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour)
	token, err := manager.GenerateToken("crm-sync", RoleAdmin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := manager.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != "crm-sync" || claims.Role != RoleAdmin || claims.Issuer != Issuer {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time); ttl != time.Hour {
		t.Fatalf("expected 1h lifetime, got %s", ttl)
	}

	if _, err := manager.ParseToken(token + "tampered"); err == nil {
		t.Fatalf("expected parse error for tampered token")
	}
	if _, err := NewJWTManager("other", time.Hour).ParseToken(token); err == nil {
		t.Fatalf("expected parse error for foreign secret")
	}
}

func TestJWTManager_GenerateErrors(t *testing.T) {
	tests := map[string]struct {
		secret  string
		subject string
		role    string
	}{
		"empty secret":  {secret: "", subject: "client", role: RoleClient},
		"empty subject": {secret: "secret", subject: "", role: RoleClient},
		"unknown role":  {secret: "secret", subject: "client", role: "root"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := NewJWTManager(tc.secret, time.Hour).GenerateToken(tc.subject, tc.role); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestJWTManager_RejectsForeignIssuer(t *testing.T) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Subject:   "client",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: RoleAdmin,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewJWTManager("secret", time.Hour).ParseToken(signed); err == nil {
		t.Fatalf("expected issuer mismatch to fail")
	}
}

func TestJWTManager_DefaultTTL(t *testing.T) {
	if NewJWTManager("secret", 0).ttl != 24*time.Hour {
		t.Fatalf("expected default ttl")
	}
}
