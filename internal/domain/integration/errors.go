package integration

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderNotFound signals an unknown or unconfigured provider.
	ErrProviderNotFound = errors.New("integration: provider not found")
	// ErrInvalidRequest indicates malformed or incomplete caller input.
	ErrInvalidRequest = errors.New("integration: invalid request")
	// ErrStateMismatch indicates the callback state failed CSRF verification,
	// either because the stored attempt expired or the secret does not match.
	ErrStateMismatch = errors.New("integration: state verification failed")
	// ErrCredentialsNotFound signals that no credentials are stored for the
	// user/org pair, or that they were already consumed.
	ErrCredentialsNotFound = errors.New("integration: credentials not found")
)

// ExchangeError reports a rejected authorization-code exchange. The upstream
// status is preserved; response bodies are never carried since token
// endpoints may echo client secrets in error payloads.
type ExchangeError struct {
	Provider Provider
	Status   int
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("integration: %s token exchange failed: status=%d", e.Provider, e.Status)
}

// FetchError reports a failed resource request for a single branch of a
// fetch. Branches are failure-isolated, so one FetchError never implies the
// whole result set was lost.
type FetchError struct {
	Provider Provider
	Resource string
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("integration: %s fetch %s: %v", e.Provider, e.Resource, e.Err)
	}
	return fmt.Sprintf("integration: %s fetch %s: status=%d", e.Provider, e.Resource, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }
