package ai

import "errors"

// Provider error taxonomy. Providers translate their transport and API
// failures into exactly one of these so the gateway's fallback decision and
// the run log stay uniform across backends.
var (
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrInvalidCredentials  = errors.New("ai provider rejected credentials")
	ErrRateLimited         = errors.New("ai provider rate limited")
	ErrMalformedResponse   = errors.New("ai provider returned malformed response")
)

// errorKind maps a typed provider error to the label stored with the usage
// record. Unknown errors are labelled "other".
func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, ErrProviderUnavailable):
		return "unavailable"
	default:
		return "other"
	}
}
