package domain

import (
	"context"
	"encoding/json"
)

// GeocodeResult is the provider-neutral outcome of a forward geocode.
type GeocodeResult struct {
	Lat float64
	Lng float64
	// Raw is the provider payload, retained for audit and never re-parsed.
	Raw json.RawMessage
}

// Geocoder turns free-form address text into coordinates.
type Geocoder interface {
	// Geocode issues a single lookup. Failures wrap ErrUpstreamUnavailable,
	// ErrUnresolvable, or ErrConfiguration.
	Geocode(ctx context.Context, address string) (GeocodeResult, error)
}

// WildfireProvider returns recent fire detections around a point.
type WildfireProvider interface {
	// FetchWildfires failures wrap ErrUpstreamUnavailable,
	// ErrUnexpectedUpstream, or ErrConfiguration.
	FetchWildfires(ctx context.Context, lat, lng float64) (WildfireData, error)
}
