package llm

import "errors"

var (
	// ErrNotConfigured indicates the provider credentials are missing.
	ErrNotConfigured = errors.New("llm provider is not configured")

	// ErrUnauthorized indicates the provider rejected the credentials.
	ErrUnauthorized = errors.New("invalid API key or access denied")

	// ErrUpstream indicates any other provider-side failure.
	ErrUpstream = errors.New("llm provider error")

	// ErrEmptyContent indicates the provider answered without any content.
	ErrEmptyContent = errors.New("llm response was empty")

	// ErrInvalidOutput indicates the response could not be parsed
	// into the expected structured format.
	ErrInvalidOutput = errors.New("invalid llm output format")
)
