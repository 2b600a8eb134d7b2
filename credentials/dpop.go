package credentials

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// dpopClaims is the payload of a DPoP proof JWT.
type dpopClaims struct {
	JTI string `json:"jti"`
	HTM string `json:"htm"`
	HTU string `json:"htu"`
	IAT int64  `json:"iat"`
	jwt.RegisteredClaims
}

// dpopJWK mirrors the header `jwk` member: the public half of the on-disk
// P-256 key, used by the server to verify the proof signature.
type dpopJWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// ParseDPoPKey decodes the PEM-encoded P-256 private key stored in a
// TokenFile's dpopKey field.
func ParseDPoPKey(pemKey string) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return nil, fmt.Errorf("credentials: dpopKey is not valid PEM")
	}
	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("credentials: parsing dpopKey: %w", err)
	}
	return key, nil
}

// BuildDPoPProof constructs the signed `DPoP` header value for a POST to
// endpointURL, bound to key.
func BuildDPoPProof(key *ecdsa.PrivateKey, endpointURL string, now time.Time) (string, error) {
	jwk := dpopJWK{
		Kty: "EC",
		Crv: "P-256",
		X:   base64.RawURLEncoding.EncodeToString(key.X.Bytes()),
		Y:   base64.RawURLEncoding.EncodeToString(key.Y.Bytes()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, dpopClaims{
		JTI: uuid.NewString(),
		HTM: "POST",
		HTU: endpointURL,
		IAT: now.Unix(),
	})
	token.Header["typ"] = "dpop+jwt"
	token.Header["jwk"] = jwk

	return token.SignedString(key)
}
