package hydapi

import "errors"

var (
	// ErrInvalidAPIKey is returned when the API rejects the key (HTTP 401).
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrCannotConnect covers transport failures and unexpected status codes.
	ErrCannotConnect = errors.New("cannot connect to NVE API")

	ErrClientNotReady  = errors.New("client is not ready")
	ErrUnmarshalFailed = errors.New("failed to unmarshal response")
)
