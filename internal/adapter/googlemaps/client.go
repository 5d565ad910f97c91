// Package googlemaps forward geocodes place names with the Google Maps
// Geocoding API.
package googlemaps

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"googlemaps.github.io/maps"

	"github.com/insightatlas/insight-atlas/internal/domain"
	"github.com/insightatlas/insight-atlas/internal/observability"
)

const provider = "google"

// Client implements domain.Geocoder using the Google Maps Geocoding API.
type Client struct {
	maps    *maps.Client
	metrics *observability.Metrics
	logger  *slog.Logger
}

// Option customizes the underlying maps client.
type Option = maps.ClientOption

// WithBaseURL points the client at another host, mainly for tests.
func WithBaseURL(u string) Option {
	return maps.WithBaseURL(u)
}

// NewClient creates a Google Maps geocoding client.
func NewClient(apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) (*Client, error) {
	all := append([]maps.ClientOption{
		maps.WithAPIKey(apiKey),
		maps.WithHTTPClient(&http.Client{Timeout: timeout}),
	}, opts...)
	mc, err := maps.NewClient(all...)
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return &Client{maps: mc, metrics: metrics, logger: logger}, nil
}

// ForwardGeocode resolves a place name to the first geocoding result.
func (c *Client) ForwardGeocode(ctx context.Context, name string) (domain.GeocodingResult, error) {
	start := time.Now()
	results, err := c.maps.Geocode(ctx, &maps.GeocodingRequest{Address: name})
	c.metrics.GeocodeAPIDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(provider, "error").Inc()
		return domain.GeocodingResult{}, fmt.Errorf("google geocode request: %w", err)
	}
	if len(results) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues(provider, "empty").Inc()
		c.logger.Debug("google returned no results", "location", name)
		return domain.GeocodingResult{}, nil
	}
	c.metrics.GeocodeRequests.WithLabelValues(provider, "success").Inc()

	r := results[0]
	out := domain.GeocodingResult{
		Lat:              r.Geometry.Location.Lat,
		Lon:              r.Geometry.Location.Lng,
		FormattedAddress: r.FormattedAddress,
		Confidence:       1.0,
	}
	if len(r.AddressComponents) > 0 {
		out.PlaceName = r.AddressComponents[0].LongName
	}
	if r.PartialMatch {
		out.Confidence = 0.5
	}
	return out, nil
}
