package ai

import "fmt"

// GenerationError reports a failed LLM call: network error, timeout, quota,
// or a malformed response. Enrichment callers treat it as recoverable and
// degrade to default or empty fields.
type GenerationError struct {
	StatusCode int
	Err        error
}

func (e *GenerationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("generation failed: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
