package llm

import (
	"errors"
	"fmt"
)

// ErrNotConfigured means the upstream credentials are missing. Handlers
// turn it into a 500 telling the operator to check secret configuration;
// no network call is made.
var ErrNotConfigured = errors.New("llm: upstream API key not configured")

// UpstreamError carries the status code and error body of a non-2xx
// upstream response so the handler can propagate them for diagnosis.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("llm: upstream returned %d: %s", e.StatusCode, e.Body)
}

// AsUpstreamError unwraps an UpstreamError from an error chain.
func AsUpstreamError(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
