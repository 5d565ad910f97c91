// Package domain models incident analysis data and the pure algorithms that
// turn extraction output into spatial and risk structures.
//
// # Data Flow
//
// Free text is handed to an [EntityExtractor] and a [RiskClassifier]. The
// extracted location names are forward geocoded by [GeocodeLocations], which
// drops names the provider cannot resolve. The resulting points are cleaned
// by [CleanPoints] (coordinates required, deduplicated by name) and then fed
// to:
//
//	Cluster           density-based grouping over raw (lat, lon)
//	Score             weighted risk index in [0, 100]
//	Summarize         per-city event counts with the global index broadcast
//	PairwiseExtremes  closest and farthest great-circle pair
//
// # Clustering
//
// [Cluster] runs DBSCAN over (lat, lon) treated as a flat plane: no geodesic
// correction is applied, so ε is expressed in degrees. With the default
// minimum of one point per neighborhood every point is a core point and the
// noise label is unreachable, but [NoiseCluster] stays reserved for stricter
// thresholds. Cluster ids are labels for a single call only:
//
//	same input order + same ε  →  same membership
//	label numbers themselves    →  not meaningful, never persisted
//
// # Risk Weights
//
// Category weights used by [Score]:
//
//	health          1.0
//	fire            0.9
//	flood           0.8
//	infrastructure  0.7
//	protest         0.6
//	anything else   0.5
//
// The per-city risk score in a [CitySummary] is the single global index
// copied onto every city. It is not a per-location model.
//
// # Coordinates
//
// A [GeoPoint] with lat = lon = 0, a non-finite value, or a value outside the
// WGS-84 range is treated as missing. Null Island is not a plausible incident
// location for city-granularity text.
package domain
