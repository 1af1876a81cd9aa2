package ai

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyInput is returned before any network call when there is no text to embed.
var ErrEmptyInput = errors.New("embedding input is empty")

// ProviderError reports a non-2xx response from the embedding provider.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider returned status %d: %s", e.Status, e.Body)
}

// Transient reports whether the failure is worth retrying: rate limits and
// provider-side errors are, auth and malformed-request failures are not.
func (e *ProviderError) Transient() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}
