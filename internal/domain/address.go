package domain

import (
	"encoding/json"
	"time"
)

// DefaultRangeDays is the nominal day span a wildfire fetch covers. The
// upstream limits a single request to 5 days, so the span is assembled from
// two shorter windows but always reported as this value.
const DefaultRangeDays = 7

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// FireDetection is a single decoded row of the upstream wildfire CSV, keyed
// by header name. Values are kept as strings; at least "latitude" and
// "longitude" are present and non-empty.
type FireDetection map[string]string

// WildfireData is the enrichment attached to an address.
type WildfireData struct {
	Count     int             `json:"count"`
	Records   []FireDetection `json:"records"`
	BBox      string          `json:"bbox"`
	RangeDays int             `json:"rangeDays"`
	Source    string          `json:"source,omitempty"`
}

// EmptyWildfireData returns the well-formed placeholder stored until the
// first successful enrichment.
func EmptyWildfireData() WildfireData {
	return WildfireData{
		Records:   []FireDetection{},
		RangeDays: DefaultRangeDays,
	}
}

// UnmarshalJSON tolerates the legacy "{}" column default and always leaves
// Records non-nil so the record serializes as an empty array.
func (w *WildfireData) UnmarshalJSON(data []byte) error {
	type plain WildfireData
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Records == nil {
		p.Records = []FireDetection{}
	}
	if p.RangeDays == 0 {
		p.RangeDays = DefaultRangeDays
	}
	*w = WildfireData(p)
	return nil
}

// Address is the unit of caching: a submitted address, its geocoded
// coordinates, and the wildfire activity around them.
type Address struct {
	ID                string          `json:"id"`
	Address           string          `json:"address"`
	AddressNormalized string          `json:"addressNormalized"`
	Latitude          *float64        `json:"latitude"`
	Longitude         *float64        `json:"longitude"`
	GeocodeRaw        json.RawMessage `json:"geocodeRaw,omitempty"`
	WildfireData      WildfireData    `json:"wildfireData"`
	WildfireFetchedAt *time.Time      `json:"wildfireFetchedAt"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Coordinates returns the geocoded position. ok is false unless both
// latitude and longitude are set.
func (a Address) Coordinates() (Coordinates, bool) {
	if a.Latitude == nil || a.Longitude == nil {
		return Coordinates{}, false
	}
	return Coordinates{Lat: *a.Latitude, Lng: *a.Longitude}, true
}

// Page is one slice of a newest-first address listing.
type Page struct {
	Items  []Address
	Total  int
	Limit  int
	Offset int
}
