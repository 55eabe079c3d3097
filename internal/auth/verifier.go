// Package auth resolves bearer tokens against the hosted identity provider
// and applies the allow-list policy used by the internal finance endpoints.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrInvalidToken means the identity provider rejected the bearer token.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// Identity is the resolved caller identity.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Verifier resolves a bearer token to an identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// HTTPVerifier verifies tokens against a GoTrue-style user endpoint
// (GET {base}/auth/v1/user with the bearer token). The anon key rides
// along as the provider's project API key header.
type HTTPVerifier struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

// NewHTTPVerifier creates a verifier for the given provider base URL.
func NewHTTPVerifier(baseURL, anonKey string) *HTTPVerifier {
	return &HTTPVerifier{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify implements Verifier.
func (v *HTTPVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("Verify: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if v.anonKey != "" {
		req.Header.Set("apikey", v.anonKey)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Verify: calling identity provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Verify: identity provider returned %d", resp.StatusCode)
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("Verify: decode identity: %w", err)
	}
	if identity.Email == "" {
		return nil, ErrInvalidToken
	}

	return &identity, nil
}

var _ Verifier = (*HTTPVerifier)(nil)
