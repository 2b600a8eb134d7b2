package credentials

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func generateTestDPoPKey(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	return key, string(pemBytes)
}

func TestParseDPoPKeyRoundTrip(t *testing.T) {
	key, pemKey := generateTestDPoPKey(t)
	parsed, err := ParseDPoPKey(pemKey)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.X.Cmp(key.X) != 0 || parsed.Y.Cmp(key.Y) != 0 {
		t.Fatal("parsed key does not match original")
	}
}

func TestBuildDPoPProofStructure(t *testing.T) {
	key, _ := generateTestDPoPKey(t)
	now := time.Unix(1700000000, 0)

	proof, err := BuildDPoPProof(key, "https://us-east-1.signin.aws.amazon.com/v1/token", now)
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := jwt.ParseWithClaims(proof, &dpopClaims{}, func(tok *jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	})
	if err != nil {
		t.Fatalf("proof did not verify: %v", err)
	}
	if parsed.Header["typ"] != "dpop+jwt" {
		t.Fatalf("expected typ=dpop+jwt header, got %v", parsed.Header["typ"])
	}
	if _, ok := parsed.Header["jwk"]; !ok {
		t.Fatal("expected jwk header to be present")
	}
	claims := parsed.Claims.(*dpopClaims)
	if claims.HTM != "POST" || claims.HTU != "https://us-east-1.signin.aws.amazon.com/v1/token" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.JTI == "" {
		t.Fatal("expected non-empty jti")
	}
}
