package provider

import (
	"encoding/json"

	"github.com/JaimeStill/tollgate/pkg/apperr"
)

// ErrProvider classifies every failure reported by, or while reaching, the provider.
var ErrProvider = apperr.BadRequest("ProviderError", "Unknown error")

// remoteError is the error body shape of the provider.
type remoteError struct {
	Message     string `json:"message"`
	Description string `json:"description"`
}

// providerError builds a ProviderError from a failed response body. The
// message comes from message, then description, then a generic fallback.
func providerError(endpoint string, status int, body []byte) *apperr.Error {
	var re remoteError
	_ = json.Unmarshal(body, &re)

	msg := re.Message
	if msg == "" {
		msg = re.Description
	}

	e := ErrProvider.WithDetails(map[string]any{
		"endpoint": endpoint,
		"status":   status,
	})
	if msg != "" {
		e.Message = msg
	}
	return e
}
