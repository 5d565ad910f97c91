package mapbox

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightatlas/insight-atlas/internal/observability"
)

const (
	testToken         = "test-token"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string) *Client {
	return &Client{
		token:      testToken,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_ForwardGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Tamil Nadu.json", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, testToken, r.URL.Query().Get("access_token"))

		resp := featureCollection{
			Features: []feature{
				{
					Center:    []float64{78.6569, 11.1271},
					PlaceName: "Tamil Nadu, India",
					Text:      "Tamil Nadu",
					Relevance: 0.97,
				},
			},
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	result, err := c.ForwardGeocode(context.Background(), "Tamil Nadu")
	require.NoError(t, err)

	assert.Equal(t, 11.1271, result.Lat)
	assert.Equal(t, 78.6569, result.Lon)
	assert.Equal(t, "Tamil Nadu, India", result.FormattedAddress)
	assert.Equal(t, "Tamil Nadu", result.PlaceName)
	assert.Equal(t, 0.97, result.Confidence)
	assert.InDelta(t, 1.0, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues(provider, "success")), 0)
}

func TestClient_ForwardGeocode_NoFeatures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	result, err := c.ForwardGeocode(context.Background(), "Atlantis")
	require.NoError(t, err)

	assert.False(t, result.Found())
	assert.InDelta(t, 1.0, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues(provider, "empty")), 0)
}

func TestClient_ForwardGeocode_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Not Authorized - Invalid Token"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.ForwardGeocode(context.Background(), "Vellore")
	require.Error(t, err)

	assert.Contains(t, err.Error(), "status 401")
	assert.InDelta(t, 1.0, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues(provider, "error")), 0)
}

func TestClient_ForwardGeocode_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ForwardGeocode(context.Background(), "Vellore")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_ForwardGeocode_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).ForwardGeocode(ctx, "Vellore")
	require.Error(t, err)
}
