package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Found reports whether the provider resolved the query to coordinates.
func (r GeocodingResult) Found() bool {
	return r.Lat != 0 || r.Lon != 0
}

// Geocoder resolves place names to coordinates.
type Geocoder interface {
	// ForwardGeocode converts a free-form place name to coordinates. An empty
	// result with a nil error means the provider found nothing.
	ForwardGeocode(ctx context.Context, name string) (GeocodingResult, error)
}

// EntityExtractor finds named locations and organizations in free text.
type EntityExtractor interface {
	Extract(ctx context.Context, text string) (Entities, error)
}

// RiskClassifier assigns risk categories and a confidence to free text.
type RiskClassifier interface {
	Classify(ctx context.Context, text string) (RiskAssessment, error)
}
