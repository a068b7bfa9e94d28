package domain

import "errors"

// Failure classes. Adapters and the pipeline wrap these with context so
// callers can classify with errors.Is regardless of the wrapping depth.
var (
	// ErrInvalidInput is a caller mistake: blank address text, blank id.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound means a lookup by id or normalized text matched nothing.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a record with the same normalized text already exists.
	ErrConflict = errors.New("already exists")

	// ErrUnresolvable means the geocoder produced no usable coordinates for
	// the input. Resubmitting the same text will not help.
	ErrUnresolvable = errors.New("could not process this address")

	// ErrUpstreamUnavailable is a transport or timeout failure talking to a
	// provider. Safe for a caller-level retry.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrUnexpectedUpstream is a provider answering with a status or body the
	// service does not understand.
	ErrUnexpectedUpstream = errors.New("unexpected upstream response")

	// ErrConfiguration means a provider credential is missing or rejected.
	// Requires operator intervention.
	ErrConfiguration = errors.New("configuration error")

	// ErrInternal means the service could not complete an operation for
	// reasons unrelated to the input or the providers.
	ErrInternal = errors.New("internal error")
)

// Kind returns a stable label for err's failure class, used for metric
// labels and log fields.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrUnresolvable):
		return "unresolvable"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "upstream_unavailable"
	case errors.Is(err, ErrUnexpectedUpstream):
		return "unexpected_upstream"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "internal"
	}
}
