package domain

import (
	"context"
	"log/slog"
)

// GeocodeLocations forward geocodes each name in order. Names the geocoder
// fails on or cannot resolve are omitted (graceful degradation); a nil
// geocoder resolves nothing.
func GeocodeLocations(ctx context.Context, names []string, geocoder Geocoder, logger *slog.Logger) []GeoPoint {
	if geocoder == nil {
		return nil
	}

	points := make([]GeoPoint, 0, len(names))
	for _, name := range names {
		if ctx.Err() != nil {
			logger.Warn("geocoding interrupted", "remaining", len(names)-len(points), "error", ctx.Err())
			break
		}

		result, err := geocoder.ForwardGeocode(ctx, name)
		if err != nil {
			logger.Warn("forward geocoding failed", "location", name, "error", err)
			continue
		}
		if !result.Found() {
			logger.Debug("location not resolved", "location", name)
			continue
		}
		points = append(points, GeoPoint{Name: name, Lat: result.Lat, Lon: result.Lon})
	}
	return points
}
