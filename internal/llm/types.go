package llm

import (
	"errors"
	"fmt"
)

// ErrCredentialsMissing is wrapped by GenerationError when no API key is set.
var ErrCredentialsMissing = errors.New("gemini api key missing")

// Reasons carried by GenerationError.
const (
	ReasonCredentials = "credentials"
	ReasonService     = "service"
	ReasonNoCandidate = "no_candidate"
	ReasonBlocked     = "blocked"
	ReasonEmpty       = "empty"
)

// GenerationError reports why no completion text was produced.
type GenerationError struct {
	Reason string
	Detail string
	Err    error
}

func (e *GenerationError) Error() string {
	msg := "generation failed: " + e.Reason
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
