package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/manifest-network/metaharvest/internal/models"
)

// ConfigurationError reports a query that cannot be sent: unknown network,
// missing credential or invalid criteria.
type ConfigurationError struct {
	Network models.Network
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Network == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error for %s: %s", e.Network, e.Reason)
}

// TransportError reports a request that got no HTTP response (DNS, timeout, reset).
type TransportError struct {
	Path string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error fetching %s: %v", e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamError reports a non-2xx response from the indexer.
type UpstreamError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	body := e.Body
	if body == "" {
		body = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d fetching %s: %s", e.StatusCode, e.Path, body)
}

// IsConfiguration checks whether err is a ConfigurationError and returns it.
func IsConfiguration(err error) (*ConfigurationError, bool) {
	var ce *ConfigurationError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsUpstream checks whether err is an UpstreamError and returns it.
func IsUpstream(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// IsTransport checks whether err is a TransportError and returns it.
func IsTransport(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// IsNotFound reports whether the indexer answered 404.
func IsNotFound(err error) bool {
	ue, ok := IsUpstream(err)
	return ok && ue.StatusCode == http.StatusNotFound
}
