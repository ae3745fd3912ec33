// Package llmerr classifies provider HTTP failures for the LLM and embedding adapters.
package llmerr

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

const maxBody = 300

// Classifier turns provider failures into errors that wrap Unavailable when
// the provider cannot serve requests.
type Classifier struct {
	Provider    string
	Unavailable error
}

// ForLLM returns a classifier wrapping domain.ErrLLMUnavailable.
func ForLLM(provider string) Classifier {
	return Classifier{Provider: provider, Unavailable: domain.ErrLLMUnavailable}
}

// ForEmbedding returns a classifier wrapping domain.ErrEmbeddingUnavailable.
func ForEmbedding(provider string) Classifier {
	return Classifier{Provider: provider, Unavailable: domain.ErrEmbeddingUnavailable}
}

// Transport wraps a failed request as a connectivity failure.
func (c Classifier) Transport(err error) error {
	return fmt.Errorf("%s: send request: %w: %w", c.Provider, c.Unavailable, err)
}

// Status converts a non-2xx response into an error. Rate limiting,
// authentication failures and server errors are connectivity failures; any
// other status is a request rejection.
func (c Classifier) Status(code int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxBody {
		msg = msg[:maxBody] + "..."
	}

	switch {
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%s: status %d: %s: %w: %w", c.Provider, code, msg, domain.ErrRateLimited, c.Unavailable)
	case code == http.StatusUnauthorized, code == http.StatusForbidden, code >= http.StatusInternalServerError:
		return fmt.Errorf("%s: status %d: %s: %w", c.Provider, code, msg, c.Unavailable)
	default:
		return fmt.Errorf("%s: status %d: %s", c.Provider, code, msg)
	}
}
