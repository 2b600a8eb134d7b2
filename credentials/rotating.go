package credentials

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// RotatingCredentialProvider wraps an inner ExpiringProvider that yields
// ExpiringCredential values behind an ExpiringValue cache. GetCredential never blocks past the
// refresh threshold once a credential has been loaded once.
//
// A separate singleflight.Group guards explicit Rotate calls (e.g. a SIGHUP
// handler forcing re-authentication) so that N concurrent forced rotations
// still only perform one upstream fetch.
type RotatingCredentialProvider struct {
	inner    Provider
	cache    *ExpiringValue[Credential]
	rotation singleflight.Group
	logger   *slog.Logger
}

// ExpiringProvider is a source of credentials that also reports their
// expiration; since the plain Provider interface only returns a Credential,
// rotating providers in this package are constructed against an
// ExpiringProvider instead.
type ExpiringProvider interface {
	GetExpiringCredential(ctx context.Context, logger *slog.Logger) (ExpiringCredential, error)
}

// NewRotating builds a rotating provider around inner, refreshing eagerly
// once the cached credential is within threshold of its expiration.
func NewRotating(inner ExpiringProvider, threshold time.Duration, logger *slog.Logger) *RotatingCredentialProvider {
	if logger == nil {
		logger = slog.Default()
	}
	p := &RotatingCredentialProvider{logger: logger}
	p.cache = NewExpiringValue(threshold, func(ctx context.Context) (Credential, time.Time, error) {
		ec, err := inner.GetExpiringCredential(ctx, logger)
		if err != nil {
			return Credential{}, time.Time{}, err
		}
		return ec.Credential, ec.Expiration, nil
	})
	return p
}

func (p *RotatingCredentialProvider) GetCredential(ctx context.Context, logger *slog.Logger) (Credential, error) {
	return p.cache.GetValue(ctx)
}

// Rotate forces a refresh regardless of the cached credential's remaining
// lifetime. Concurrent callers collapse onto a single upstream fetch.
func (p *RotatingCredentialProvider) Rotate(ctx context.Context) (Credential, error) {
	v, err, _ := p.rotation.Do("rotate", func() (interface{}, error) {
		p.cache.mu.Lock()
		p.cache.state = stateNoValue
		p.cache.mu.Unlock()
		return p.cache.GetValue(ctx)
	})
	if err != nil {
		return Credential{}, err
	}
	return v.(Credential), nil
}
