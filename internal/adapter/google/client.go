package google

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/wildfire-geo-service/internal/adapter/httputil"
	"github.com/couchcryptid/wildfire-geo-service/internal/domain"
	"github.com/couchcryptid/wildfire-geo-service/internal/observability"
)

// DefaultBaseURL is the Google Geocoding API JSON endpoint.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client implements domain.Geocoder using the Google Geocoding API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Google geocoding client. A missing API key is not an
// error here; every Geocode call fails with domain.ErrConfiguration instead.
func NewClient(cfg Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		apiKey:     cfg.APIKey,
		httpClient: httputil.NewClient(timeout),
		baseURL:    baseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// Geocode resolves free-form address text to coordinates. The first result
// is authoritative.
func (c *Client) Geocode(ctx context.Context, address string) (domain.GeocodeResult, error) {
	if c.apiKey == "" {
		c.metrics.GeocodeRequests.WithLabelValues("configuration").Inc()
		return domain.GeocodeResult{}, fmt.Errorf("%w: google geocoding api key is not set", domain.ErrConfiguration)
	}

	query := strings.TrimSpace(address)
	if query == "" {
		return domain.GeocodeResult{}, fmt.Errorf("%w: address is required", domain.ErrInvalidInput)
	}

	params := url.Values{
		"address": {query},
		"key":     {c.apiKey},
	}

	result, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.GeocodeRequests.WithLabelValues(outcomeFor(err)).Inc()
	if err != nil {
		c.logger.Warn("geocode failed", "kind", domain.Kind(err), "error", err)
	}
	return result, err
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.GeocodeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.GeocodeResult{}, fmt.Errorf("create request: %w", httputil.RedactURLError(err))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.GeocodeResult{}, fmt.Errorf("%w: geocode: %w", domain.ErrUpstreamUnavailable, httputil.RedactURLError(err))
	}
	defer resp.Body.Close()

	body, err := httputil.ReadBody(resp)
	if err != nil {
		return domain.GeocodeResult{}, fmt.Errorf("%w: read geocode response: %w", domain.ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.GeocodeResult{}, fmt.Errorf("%w: google API error: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	return decodeResponse(body)
}

func decodeResponse(body []byte) (domain.GeocodeResult, error) {
	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return domain.GeocodeResult{}, fmt.Errorf("%w: decode geocode response: %w", domain.ErrUnresolvable, err)
	}

	switch r.Status {
	case "REQUEST_DENIED":
		return domain.GeocodeResult{}, fmt.Errorf("%w: google rejected the request: %s", domain.ErrConfiguration, r.ErrorMessage)
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT", "UNKNOWN_ERROR":
		return domain.GeocodeResult{}, fmt.Errorf("%w: google status %s", domain.ErrUpstreamUnavailable, r.Status)
	}

	lat, lng, ok := r.location()
	if !ok {
		status := r.Status
		if status == "" {
			status = "no status"
		}
		return domain.GeocodeResult{}, fmt.Errorf("%w: no usable geocode result (%s)", domain.ErrUnresolvable, status)
	}
	if !isFinite(lat) || !isFinite(lng) {
		return domain.GeocodeResult{}, fmt.Errorf("%w: geocode result has non-finite coordinates", domain.ErrUnresolvable)
	}

	return domain.GeocodeResult{Lat: lat, Lng: lng, Raw: json.RawMessage(body)}, nil
}

// Google API response types. Some proxies flatten the payload to a bare
// {"lat":..,"lng":..} object; both shapes are accepted and the flat one wins.

type response struct {
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message"`
	Results      []result `json:"results"`
	Lat          *coord   `json:"lat"`
	Lng          *coord   `json:"lng"`
}

type result struct {
	FormattedAddress string   `json:"formatted_address"`
	Geometry         geometry `json:"geometry"`
}

type geometry struct {
	Location *location `json:"location"`
}

type location struct {
	Lat *coord `json:"lat"`
	Lng *coord `json:"lng"`
}

func (r response) location() (lat, lng float64, ok bool) {
	if r.Lat != nil && r.Lng != nil {
		return float64(*r.Lat), float64(*r.Lng), true
	}
	if len(r.Results) == 0 {
		return 0, 0, false
	}
	loc := r.Results[0].Geometry.Location
	if loc == nil || loc.Lat == nil || loc.Lng == nil {
		return 0, 0, false
	}
	return float64(*loc.Lat), float64(*loc.Lng), true
}

// coord accepts a JSON number or a numeric string. Unparsable strings decode
// to NaN so they fail the finiteness check instead of the whole decode.
type coord float64

func (c *coord) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			v = math.NaN()
		}
		*c = coord(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = coord(v)
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func outcomeFor(err error) string {
	if err == nil {
		return "success"
	}
	kind := domain.Kind(err)
	switch kind {
	case "upstream_unavailable":
		return "unavailable"
	case "unresolvable", "configuration", "invalid_input":
		return kind
	}
	return "error"
}
