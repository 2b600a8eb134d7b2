package credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// TokenRefreshError is a fatal, non-retryable failure of the login token
// refresh flow: the caller must re-authenticate out of
// band rather than retry.
type TokenRefreshError struct {
	Code    string
	Message string
}

func (e *TokenRefreshError) Error() string {
	return fmt.Sprintf("credentials: token refresh failed (%s): %s", e.Code, e.Message)
}

func tokenRefreshFailed(code, message string) *TokenRefreshError {
	return &TokenRefreshError{Code: code, Message: message}
}

// HTTPRequestFailedError wraps a non-2xx response from the token endpoint
// whose error code didn't match one of the fatal cases.
type HTTPRequestFailedError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HTTPRequestFailedError) Error() string {
	return fmt.Sprintf("credentials: token endpoint returned %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// loginErrorBody is the structured error envelope returned by the token
// endpoint on non-2xx responses.
type loginErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// loginRefreshRequest is the JSON body POSTed to the token endpoint.
type loginRefreshRequest struct {
	ClientID     string `json:"clientId"`
	RefreshToken string `json:"refreshToken"`
	GrantType    string `json:"grantType"`
}

// loginRefreshResponse is the JSON body of a successful token response.
type loginRefreshResponse struct {
	AccessToken struct {
		AccessKeyID     string `json:"accessKeyId"`
		SecretAccessKey string `json:"secretAccessKey"`
		SessionToken    string `json:"sessionToken"`
	} `json:"accessToken"`
	ExpiresIn    int64  `json:"expiresIn"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
}

// LoginCredentialProvider implements the file-backed, DPoP-authenticated
// refresh flow. It is stateless aside from the shared token file on disk,
// so it is always wrapped in a RotatingCredentialProvider to collapse
// concurrent refreshes in-process.
type LoginCredentialProvider struct {
	CacheDir     string
	LoginSession string
	Region       string
	HTTPClient   *http.Client
	Now          func() time.Time

	// Endpoint overrides the derived `https://{region}.signin.aws.amazon.com/v1/token`
	// URL. Left empty in production; tests point it at an httptest server.
	Endpoint string
}

func NewLoginCredentialProvider(cacheDir, loginSession, region string) *LoginCredentialProvider {
	if cacheDir == "" {
		cacheDir = DefaultCacheDir()
	}
	return &LoginCredentialProvider{
		CacheDir:     cacheDir,
		LoginSession: loginSession,
		Region:       region,
		HTTPClient:   http.DefaultClient,
		Now:          time.Now,
	}
}

func (p *LoginCredentialProvider) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *LoginCredentialProvider) path() string {
	return TokenFilePath(p.CacheDir, p.LoginSession)
}

// GetExpiringCredential implements ExpiringProvider, the hook consumed by
// RotatingCredentialProvider.
func (p *LoginCredentialProvider) GetExpiringCredential(ctx context.Context, logger *slog.Logger) (ExpiringCredential, error) {
	if logger == nil {
		logger = slog.Default()
	}
	path := p.path()

	tf, err := ReadTokenFile(path)
	if err == nil && tf.AccessToken.ExpiresAt.After(p.now()) {
		return toExpiringCredential(tf), nil
	}

	// Another process may have refreshed since our first read; re-read
	// before going to the network.
	tf, err = ReadTokenFile(path)
	if err == nil && tf.AccessToken.ExpiresAt.After(p.now()) {
		logger.Debug("credentials: token file refreshed by another process", "path", path)
		return toExpiringCredential(tf), nil
	}
	if err != nil {
		return ExpiringCredential{}, fmt.Errorf("credentials: reading token file %s: %w", path, err)
	}

	refreshed, err := p.refresh(ctx, tf, logger)
	if err != nil {
		return ExpiringCredential{}, err
	}
	return toExpiringCredential(refreshed), nil
}

func toExpiringCredential(tf TokenFile) ExpiringCredential {
	return ExpiringCredential{
		Credential: Credential{
			AccessKeyID:     tf.AccessToken.AccessKeyID,
			SecretAccessKey: tf.AccessToken.SecretAccessKey,
			SessionToken:    tf.AccessToken.SessionToken,
		},
		Expiration: tf.AccessToken.ExpiresAt,
	}
}

func (p *LoginCredentialProvider) refresh(ctx context.Context, tf TokenFile, logger *slog.Logger) (TokenFile, error) {
	if logger == nil {
		logger = slog.Default()
	}
	endpoint := p.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.signin.aws.amazon.com/v1/token", p.Region)
	}

	key, err := ParseDPoPKey(tf.DPoPKey)
	if err != nil {
		return TokenFile{}, err
	}
	proof, err := BuildDPoPProof(key, endpoint, p.now())
	if err != nil {
		return TokenFile{}, fmt.Errorf("credentials: building DPoP proof: %w", err)
	}

	body, err := json.Marshal(loginRefreshRequest{
		ClientID:     tf.ClientID,
		RefreshToken: tf.RefreshToken,
		GrantType:    "refresh_token",
	})
	if err != nil {
		return TokenFile{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return TokenFile{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Host", req.URL.Hostname())
	req.Header.Set("DPoP", proof)

	logger.Info("credentials: refreshing login token", "endpoint", endpoint)
	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return TokenFile{}, fmt.Errorf("credentials: token refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb loginErrorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		switch eb.Code {
		case "TOKEN_EXPIRED":
			return TokenFile{}, tokenRefreshFailed(eb.Code, "the login session has expired; reauthenticate with aws login")
		case "USER_CREDENTIALS_CHANGED":
			return TokenFile{}, tokenRefreshFailed(eb.Code, "the account password changed; reauthenticate with aws login")
		case "INSUFFICIENT_PERMISSIONS":
			return TokenFile{}, tokenRefreshFailed(eb.Code, "the client is missing CreateOAuth2Token permission")
		default:
			return TokenFile{}, &HTTPRequestFailedError{StatusCode: resp.StatusCode, Code: eb.Code, Message: eb.Message}
		}
	}

	var rr loginRefreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return TokenFile{}, fmt.Errorf("credentials: decoding token response: %w", err)
	}

	updated := tf
	updated.AccessToken = TokenFileAccessToken{
		AccessKeyID:     rr.AccessToken.AccessKeyID,
		SecretAccessKey: rr.AccessToken.SecretAccessKey,
		SessionToken:    rr.AccessToken.SessionToken,
		ExpiresAt:       p.now().Add(time.Duration(rr.ExpiresIn) * time.Second),
	}
	if rr.RefreshToken != "" {
		updated.RefreshToken = rr.RefreshToken
	}
	if rr.TokenType != "" {
		updated.TokenType = rr.TokenType
	}

	if err := WriteTokenFile(p.path(), updated); err != nil {
		logger.Warn("credentials: failed to persist refreshed token file", "error", err)
	}
	return updated, nil
}
