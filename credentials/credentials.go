// Package credentials implements the credential subsystem: the abstract
// Provider, an expiring-value cache shared across concurrent callers with
// single-flight refresh, a rotating provider wrapper, and a file-backed
// Login provider performing DPoP-signed token refresh.
package credentials

import (
	"context"
	"log/slog"
	"time"
)

// Credential is the signer-facing access key triple.
type Credential struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// IsEmpty reports whether all three fields are blank — the anonymous
// credential, which the signer must not sign with.
func (c Credential) IsEmpty() bool {
	return c.AccessKeyID == "" && c.SecretAccessKey == "" && c.SessionToken == ""
}

// ExpiringCredential extends Credential with an expiration instant. An
// expiring credential with Expiration <= now must never be handed back
// from the cache.
type ExpiringCredential struct {
	Credential
	Expiration time.Time
}

// Provider is the abstract credential source: getCredential may
// suspend (here: block on ctx).
type Provider interface {
	GetCredential(ctx context.Context, logger *slog.Logger) (Credential, error)
}

// StaticProvider returns a fixed credential forever.
type StaticProvider struct {
	Credential Credential
}

func NewStatic(accessKeyID, secretAccessKey, sessionToken string) *StaticProvider {
	return &StaticProvider{Credential: Credential{
		AccessKeyID:     accessKeyID,
		SecretAccessKey: secretAccessKey,
		SessionToken:    sessionToken,
	}}
}

func (p *StaticProvider) GetCredential(ctx context.Context, logger *slog.Logger) (Credential, error) {
	return p.Credential, nil
}

// AnonymousProvider always returns the empty (unsigned) credential.
type AnonymousProvider struct{}

func (AnonymousProvider) GetCredential(ctx context.Context, logger *slog.Logger) (Credential, error) {
	return Credential{}, nil
}
