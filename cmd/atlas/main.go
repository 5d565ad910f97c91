package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/insightatlas/insight-atlas/internal/adapter/geocache"
	"github.com/insightatlas/insight-atlas/internal/adapter/googlemaps"
	httpadapter "github.com/insightatlas/insight-atlas/internal/adapter/http"
	kafkaadapter "github.com/insightatlas/insight-atlas/internal/adapter/kafka"
	"github.com/insightatlas/insight-atlas/internal/adapter/llm"
	"github.com/insightatlas/insight-atlas/internal/adapter/mapbox"
	"github.com/insightatlas/insight-atlas/internal/adapter/nlp"
	"github.com/insightatlas/insight-atlas/internal/analysis"
	"github.com/insightatlas/insight-atlas/internal/config"
	"github.com/insightatlas/insight-atlas/internal/domain"
	"github.com/insightatlas/insight-atlas/internal/narrative"
	"github.com/insightatlas/insight-atlas/internal/observability"
	"github.com/insightatlas/insight-atlas/internal/pipeline"
	"github.com/insightatlas/insight-atlas/internal/render"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	extractor, err := newExtractor(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize entity extractor", "error", err)
		os.Exit(1)
	}
	defer extractor.Close() //nolint:errcheck // best-effort on exit

	geocoder, err := newGeocoder(cfg, metrics, logger)
	if err != nil {
		logger.Error("failed to initialize geocoder", "error", err)
		os.Exit(1)
	}

	backend := llm.NewClient(llm.Settings{
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	synthesizer := narrative.NewSynthesizer(backend, narrative.Options{
		DefaultToken: cfg.LLM.Token,
		Role:         cfg.LLM.Role,
	}, logger, metrics)
	if cfg.LLM.Token == "" {
		logger.Warn("no default LLM token configured; requests must supply llm_token")
	}

	analyzer := analysis.New(analysis.Deps{
		Extractor:   extractor,
		Classifier:  domain.NewKeywordClassifier(),
		Geocoder:    geocoder,
		Synthesizer: synthesizer,
		Renderer:    render.NewMapRenderer(),
	}, analysis.Params{
		Epsilon:   cfg.ClusterEpsilon,
		MinPoints: cfg.ClusterMinPoints,
	}, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, analyzer, analyzer, httpadapter.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		WriteTimeout:   2 * cfg.LLM.Timeout,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	var closers []io.Closer
	if cfg.KafkaEnabled {
		reader := kafkaadapter.NewReader(cfg, logger)
		writer := kafkaadapter.NewWriter(cfg, logger)
		closers = append(closers, reader, writer)

		p := pipeline.New(reader, pipeline.NewTransformer(analyzer), writer, logger, metrics, cfg.BatchSize)
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		logger.Info("kafka stream mode disabled")
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("kafka client close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// closableExtractor is an entity extractor that may hold a client connection.
type closableExtractor interface {
	domain.EntityExtractor
	io.Closer
}

type nopCloseExtractor struct {
	domain.EntityExtractor
}

func (nopCloseExtractor) Close() error { return nil }

// newExtractor selects Cloud Natural Language when credentials are present,
// otherwise the pattern extractor.
func newExtractor(cfg *config.Config, logger *slog.Logger) (closableExtractor, error) {
	if cfg.NLCredentials == "" {
		logger.Info("entity extraction using pattern extractor")
		return nopCloseExtractor{nlp.NewPatternExtractor()}, nil
	}
	extractor, err := nlp.NewGoogleExtractor(cfg.NLCredentials, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("entity extraction using cloud natural language")
	return extractor, nil
}

// newGeocoder builds the configured provider wrapped in the LRU cache. A nil
// geocoder disables geocoding.
func newGeocoder(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (domain.Geocoder, error) {
	var provider domain.Geocoder
	switch cfg.GeocoderProvider {
	case config.GeocoderMapbox:
		provider = mapbox.NewClient(cfg.MapboxToken, cfg.GeocodeTimeout, metrics, logger)
	case config.GeocoderGoogle:
		client, err := googlemaps.NewClient(cfg.GoogleMapsAPIKey, cfg.GeocodeTimeout, metrics, logger)
		if err != nil {
			return nil, err
		}
		provider = client
	default:
		metrics.GeocodeEnabled.Set(0)
		logger.Warn("geocoding disabled; no points will be mapped")
		return nil, nil
	}

	cached, err := geocache.New(provider, cfg.GeocodeCacheSize, metrics)
	if err != nil {
		return nil, err
	}
	metrics.GeocodeEnabled.Set(1)
	logger.Info("geocoding enabled",
		"provider", cfg.GeocoderProvider,
		"cache_size", cfg.GeocodeCacheSize,
		"timeout", cfg.GeocodeTimeout,
	)
	return cached, nil
}
