// Package llm talks to the language model collaborator: it builds the
// extraction instruction, calls the provider and classifies failures.
package llm

import "errors"

var (
	// ErrProviderUnavailable means the provider call failed or timed out.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrProviderProtocol means the call succeeded but carried no completion.
	ErrProviderProtocol = errors.New("provider protocol error")
)
