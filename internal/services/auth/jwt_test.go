package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const testSecret = "super-secret-supabase-jwt-key"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestVerifierParseAccessToken(t *testing.T) {
	verifier := NewVerifier(testSecret)

	raw := signToken(t, testSecret, jwt.MapClaims{
		"sub":   "6f1e1a3e-9be1-4f6a-8a36-000000000001",
		"email": "player@example.com",
		"role":  "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	claims, err := verifier.ParseAccessToken(raw)
	if err != nil {
		t.Fatalf("ParseAccessToken() error = %v", err)
	}
	if claims.UserID != "6f1e1a3e-9be1-4f6a-8a36-000000000001" {
		t.Errorf("UserID = %q", claims.UserID)
	}
	if claims.Email != "player@example.com" {
		t.Errorf("Email = %q", claims.Email)
	}
	if claims.Role != "authenticated" {
		t.Errorf("Role = %q", claims.Role)
	}
}

func TestVerifierRejectsBadTokens(t *testing.T) {
	verifier := NewVerifier(testSecret)

	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "empty token",
			raw:  "",
		},
		{
			name: "garbage token",
			raw:  "not-a-jwt",
		},
		{
			name: "wrong secret",
			raw: signToken(t, "another-secret", jwt.MapClaims{
				"sub": "6f1e1a3e-9be1-4f6a-8a36-000000000001",
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
		},
		{
			name: "expired",
			raw: signToken(t, testSecret, jwt.MapClaims{
				"sub": "6f1e1a3e-9be1-4f6a-8a36-000000000001",
				"exp": time.Now().Add(-time.Hour).Unix(),
			}),
		},
		{
			name: "missing subject",
			raw: signToken(t, testSecret, jwt.MapClaims{
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
		},
		{
			name: "missing expiry",
			raw: signToken(t, testSecret, jwt.MapClaims{
				"sub": "6f1e1a3e-9be1-4f6a-8a36-000000000001",
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := verifier.ParseAccessToken(tt.raw); err == nil {
				t.Fatal("ParseAccessToken() expected error, got nil")
			}
		})
	}
}

func TestVerifierRejectsNoneAlgorithm(t *testing.T) {
	verifier := NewVerifier(testSecret)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "6f1e1a3e-9be1-4f6a-8a36-000000000001",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	if _, err := verifier.ParseAccessToken(raw); err == nil {
		t.Fatal("ParseAccessToken() accepted alg=none token")
	}
}
