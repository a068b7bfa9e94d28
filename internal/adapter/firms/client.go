package firms

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/wildfire-geo-service/internal/adapter/httputil"
	"github.com/couchcryptid/wildfire-geo-service/internal/domain"
	"github.com/couchcryptid/wildfire-geo-service/internal/observability"
)

// Defaults for the FIRMS area API.
const (
	DefaultBaseURL   = "https://firms.modaps.eosdis.nasa.gov"
	DefaultSource    = "VIIRS_SNPP_NRT"
	DefaultBBoxDelta = 0.1
)

// dayWindows are requested concurrently and concatenated in this order.
// The area API rejects ranges over 5 days.
var dayWindows = []int{5, 2}

// Config configures a Client.
type Config struct {
	MapKey    string
	BaseURL   string
	Source    string
	BBoxDelta float64
	Timeout   time.Duration
}

// Client implements domain.WildfireProvider using the NASA FIRMS area API.
type Client struct {
	mapKey     string
	baseURL    string
	source     string
	bboxDelta  float64
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a FIRMS client. A missing map key is not an error here;
// every fetch fails with domain.ErrConfiguration instead.
func NewClient(cfg Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	c := &Client{
		mapKey:    cfg.MapKey,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		source:    cfg.Source,
		bboxDelta: cfg.BBoxDelta,
		metrics:   metrics,
		logger:    logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.source == "" {
		c.source = DefaultSource
	}
	if c.bboxDelta <= 0 {
		c.bboxDelta = DefaultBBoxDelta
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	c.httpClient = httputil.NewClient(timeout)
	return c
}

// BoundingBox returns "west,south,east,north" around (lat, lng), each value
// printed with 6 decimal places.
func BoundingBox(lat, lng, delta float64) string {
	parts := []float64{lng - delta, lat - delta, lng + delta, lat + delta}
	out := make([]string, len(parts))
	for i, v := range parts {
		out[i] = strconv.FormatFloat(v, 'f', 6, 64)
	}
	return strings.Join(out, ",")
}

// FetchWildfires returns detections within the bounding box around (lat, lng)
// over the nominal 7-day range. Both windows must succeed; overlapping
// detections are not deduplicated.
func (c *Client) FetchWildfires(ctx context.Context, lat, lng float64) (domain.WildfireData, error) {
	if c.mapKey == "" {
		return domain.WildfireData{}, fmt.Errorf("%w: firms map key is not set", domain.ErrConfiguration)
	}

	bbox := BoundingBox(lat, lng, c.bboxDelta)
	windows := make([][]domain.FireDetection, len(dayWindows))

	g, gctx := errgroup.WithContext(ctx)
	for i, days := range dayWindows {
		g.Go(func() error {
			records, err := c.fetchWindow(gctx, bbox, days)
			if err != nil {
				return err
			}
			windows[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Warn("wildfire fetch failed", "bbox", bbox, "kind", domain.Kind(err), "error", err)
		return domain.WildfireData{}, err
	}

	total := 0
	for _, w := range windows {
		total += len(w)
	}
	records := make([]domain.FireDetection, 0, total)
	for _, w := range windows {
		records = append(records, w...)
	}

	c.logger.Debug("wildfire fetch complete", "bbox", bbox, "count", len(records))

	return domain.WildfireData{
		Count:     len(records),
		Records:   records,
		BBox:      bbox,
		RangeDays: domain.DefaultRangeDays,
		Source:    c.source,
	}, nil
}

func (c *Client) fetchWindow(ctx context.Context, bbox string, days int) ([]domain.FireDetection, error) {
	window := strconv.Itoa(days)
	u := fmt.Sprintf("%s/api/area/csv/%s/%s/%s/%d",
		c.baseURL, url.PathEscape(c.mapKey), url.PathEscape(c.source), bbox, days)

	records, err := c.doRequest(ctx, u, days)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.metrics.WildfireRequests.WithLabelValues(window, outcome).Inc()
	return records, err
}

func (c *Client) doRequest(ctx context.Context, fullURL string, days int) ([]domain.FireDetection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", httputil.RedactURLError(err))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.WildfireAPIDuration.WithLabelValues(strconv.Itoa(days)).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: firms %d-day window: %w", domain.ErrUpstreamUnavailable, days, httputil.RedactURLError(err))
	}
	defer resp.Body.Close()

	body, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: read firms %d-day window: %w", domain.ErrUpstreamUnavailable, days, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: firms API error: status %d", domain.ErrUnexpectedUpstream, resp.StatusCode)
	}

	return DecodeCSV(string(body))
}
