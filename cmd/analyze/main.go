// Command analyze runs one incident text through the analysis pipeline
// offline and prints the result as JSON. With -parse it instead re-parses a
// saved model response, which helps diagnose decode failures.
//
// Usage:
//
//	go run ./cmd/analyze -in incident.txt -map map.html
//	go run ./cmd/analyze -parse response.txt
//	echo "Flooding in Vellore" | go run ./cmd/analyze -in -
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"

	"github.com/insightatlas/insight-atlas/internal/adapter/geocache"
	"github.com/insightatlas/insight-atlas/internal/adapter/googlemaps"
	"github.com/insightatlas/insight-atlas/internal/adapter/llm"
	"github.com/insightatlas/insight-atlas/internal/adapter/mapbox"
	"github.com/insightatlas/insight-atlas/internal/adapter/nlp"
	"github.com/insightatlas/insight-atlas/internal/analysis"
	"github.com/insightatlas/insight-atlas/internal/config"
	"github.com/insightatlas/insight-atlas/internal/domain"
	"github.com/insightatlas/insight-atlas/internal/narrative"
	"github.com/insightatlas/insight-atlas/internal/observability"
	"github.com/insightatlas/insight-atlas/internal/render"
)

type options struct {
	in      string
	parse   string
	mapOut  string
	token   string
	at      string
	verbose bool
}

func main() {
	var opts options
	flag.StringVar(&opts.in, "in", "", "incident text file to analyze (- for stdin)")
	flag.StringVar(&opts.parse, "parse", "", "saved model response to re-parse instead of analyzing")
	flag.StringVar(&opts.mapOut, "map", "", "write the rendered map HTML to this file")
	flag.StringVar(&opts.token, "token", "", "LLM token (defaults to LLM_TOKEN)")
	flag.StringVar(&opts.at, "at", "", "freeze generated_at to this RFC 3339 time")
	flag.BoolVar(&opts.verbose, "v", false, "log pipeline progress to stderr")
	flag.Parse()

	if (opts.in == "") == (opts.parse == "") {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, os.Stdin, os.Stdout, logger); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdin io.Reader, stdout io.Writer, logger *slog.Logger) error {
	if opts.parse != "" {
		raw, err := os.ReadFile(opts.parse)
		if err != nil {
			return fmt.Errorf("read model response: %w", err)
		}
		return writeJSON(stdout, narrative.Parse(string(raw)))
	}

	text, err := readInput(opts.in, stdin)
	if err != nil {
		return err
	}

	if opts.at != "" {
		at, err := time.Parse(time.RFC3339, opts.at)
		if err != nil {
			return fmt.Errorf("invalid -at: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(at))
		defer domain.SetClock(nil)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to load .env", "error", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	analyzer, cleanup, err := buildAnalyzer(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := analyzer.Analyze(ctx, analysis.Request{Text: text, Token: opts.token, Source: "cli"})
	if err != nil {
		return err
	}

	if opts.mapOut != "" {
		if result.MapHTML == "" {
			logger.Warn("no geocoded points; map not written")
		} else if err := os.WriteFile(opts.mapOut, []byte(result.MapHTML), 0o600); err != nil {
			return fmt.Errorf("write map: %w", err)
		}
	}
	result.MapHTML = ""
	return writeJSON(stdout, result)
}

func readInput(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read incident text: %w", err)
	}
	return string(data), nil
}

// buildAnalyzer wires the same collaborators as the service, using
// unregistered metrics.
func buildAnalyzer(cfg *config.Config, logger *slog.Logger) (*analysis.Analyzer, func(), error) {
	metrics := observability.NewMetricsForTesting()
	cleanup := func() {}

	var extractor domain.EntityExtractor = nlp.NewPatternExtractor()
	if cfg.NLCredentials != "" {
		google, err := nlp.NewGoogleExtractor(cfg.NLCredentials, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("entity extractor: %w", err)
		}
		extractor = google
		cleanup = func() { _ = google.Close() }
	}

	var geocoder domain.Geocoder
	switch cfg.GeocoderProvider {
	case config.GeocoderMapbox:
		geocoder = mapbox.NewClient(cfg.MapboxToken, cfg.GeocodeTimeout, metrics, logger)
	case config.GeocoderGoogle:
		client, err := googlemaps.NewClient(cfg.GoogleMapsAPIKey, cfg.GeocodeTimeout, metrics, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("geocoder: %w", err)
		}
		geocoder = client
	}
	if geocoder != nil {
		cached, err := geocache.New(geocoder, cfg.GeocodeCacheSize, metrics)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("geocode cache: %w", err)
		}
		geocoder = cached
	}

	backend := llm.NewClient(llm.Settings{
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	analyzer := analysis.New(analysis.Deps{
		Extractor:  extractor,
		Classifier: domain.NewKeywordClassifier(),
		Geocoder:   geocoder,
		Synthesizer: narrative.NewSynthesizer(backend, narrative.Options{
			DefaultToken: cfg.LLM.Token,
			Role:         cfg.LLM.Role,
		}, logger, metrics),
		Renderer: render.NewMapRenderer(),
	}, analysis.Params{Epsilon: cfg.ClusterEpsilon, MinPoints: cfg.ClusterMinPoints}, logger, metrics)

	return analyzer, cleanup, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
