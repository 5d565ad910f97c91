package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Geocoder provider names accepted by GEOCODER_PROVIDER.
const (
	GeocoderMapbox = "mapbox"
	GeocoderGoogle = "google"
	GeocoderNone   = "none"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr           string
	LogLevel           string
	LogFormat          string
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string

	// Generative-text backend.
	LLM LLMSettings

	// Clustering parameters.
	ClusterEpsilon   float64
	ClusterMinPoints int

	// Geocoding.
	GeocoderProvider string
	MapboxToken      string
	GoogleMapsAPIKey string
	GeocodeTimeout   time.Duration
	GeocodeCacheSize int

	// Base64 service account JSON for Cloud Natural Language. Empty selects
	// the pattern extractor.
	NLCredentials string

	// Stream mode.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	llm, err := loadLLMSettings()
	if err != nil {
		return nil, err
	}

	epsilon, err := parsePositiveFloat("CLUSTER_EPSILON", "0.3")
	if err != nil {
		return nil, err
	}

	minPoints, err := strconv.Atoi(sharedcfg.EnvOrDefault("CLUSTER_MIN_POINTS", "1"))
	if err != nil || minPoints < 1 {
		return nil, errors.New("invalid CLUSTER_MIN_POINTS: must be a positive integer")
	}

	geocodeTimeout, err := parsePositiveDuration("GEOCODE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8000"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		CORSAllowedOrigins: splitList(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),

		LLM: llm,

		ClusterEpsilon:   epsilon,
		ClusterMinPoints: minPoints,

		MapboxToken:      os.Getenv("MAPBOX_TOKEN"),
		GoogleMapsAPIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
		GeocodeTimeout:   geocodeTimeout,
		GeocodeCacheSize: parseCacheSize(),

		NLCredentials: os.Getenv("NL_CREDENTIALS"),

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "incident-reports"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "incident-analyses"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "insight-atlas"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	cfg.GeocoderProvider, err = resolveGeocoder(os.Getenv("GEOCODER_PROVIDER"), cfg.MapboxToken, cfg.GoogleMapsAPIKey)
	if err != nil {
		return nil, err
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

// resolveGeocoder picks the provider named by GEOCODER_PROVIDER, or the first
// provider with credentials when unset.
func resolveGeocoder(requested, mapboxToken, googleKey string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(requested)) {
	case "":
		switch {
		case mapboxToken != "":
			return GeocoderMapbox, nil
		case googleKey != "":
			return GeocoderGoogle, nil
		default:
			return GeocoderNone, nil
		}
	case GeocoderMapbox:
		if mapboxToken == "" {
			return "", errors.New("GEOCODER_PROVIDER is mapbox but MAPBOX_TOKEN is not set")
		}
		return GeocoderMapbox, nil
	case GeocoderGoogle:
		if googleKey == "" {
			return "", errors.New("GEOCODER_PROVIDER is google but GOOGLE_MAPS_API_KEY is not set")
		}
		return GeocoderGoogle, nil
	case GeocoderNone:
		return GeocoderNone, nil
	default:
		return "", fmt.Errorf("invalid GEOCODER_PROVIDER %q: want mapbox, google, or none", requested)
	}
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parsePositiveFloat(key, def string) (float64, error) {
	v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive number", key)
	}
	return v, nil
}

func parseCacheSize() int {
	if s := os.Getenv("GEOCODE_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
