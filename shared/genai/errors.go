package genai

import (
	"errors"
	"fmt"
)

// ErrEmptyCompletion is wrapped in a ProviderError when the provider answers
// without any text.
var ErrEmptyCompletion = errors.New("empty response")

// ConfigurationError reports a missing or invalid setting found while
// constructing a Client. No Client is returned alongside it.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Reason)
}

// ProviderError is any failure of the generation call: transport, non-2xx
// status, undecodable body or empty completion.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
