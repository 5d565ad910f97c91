package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIncidentID = "inc-42"

func TestParseIncident(t *testing.T) {
	t.Run("id from payload", func(t *testing.T) {
		raw := RawEvent{Key: []byte("key-1"), Value: []byte(`{"id":"` + testIncidentID + `","text":"  Flooding in Vellore  "}`)}
		msg, err := ParseIncident(raw)

		require.NoError(t, err)
		assert.Equal(t, testIncidentID, msg.ID)
		assert.Equal(t, "Flooding in Vellore", msg.Text)
	})

	t.Run("id falls back to key", func(t *testing.T) {
		raw := RawEvent{Key: []byte("key-1"), Value: []byte(`{"text":"Fire near Chennai"}`)}
		msg, err := ParseIncident(raw)

		require.NoError(t, err)
		assert.Equal(t, "key-1", msg.ID)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseIncident(RawEvent{Value: []byte("{invalid json")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse incident")
	})

	t.Run("blank text", func(t *testing.T) {
		_, err := ParseIncident(RawEvent{Value: []byte(`{"text":"   "}`)})
		assert.ErrorIs(t, err, ErrEmptyText)
	})
}

func TestSerializeResult(t *testing.T) {
	generated := time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC)
	result := AnalysisResult{
		ID:          testIncidentID,
		GeneratedAt: generated,
		Risk: ScoredRisk{
			RiskAssessment: RiskAssessment{Risks: []string{"flood"}, Confidence: 0.6},
			RiskIndex:      48,
		},
		GeoPoints: []GeoPoint{vellore},
		Clusters:  Clusters{},
	}

	out, err := SerializeResult(result)
	require.NoError(t, err)

	assert.Equal(t, []byte(testIncidentID), out.Key)
	assert.Equal(t, "48.00", out.Headers["risk_index"])
	assert.Equal(t, "2025-07-01T09:30:00Z", out.Headers["generated_at"])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Value, &decoded))
	assert.Equal(t, testIncidentID, decoded["id"])
	risk := decoded["risk"].(map[string]any)
	assert.Equal(t, 48.0, risk["risk_index"])
	assert.Equal(t, 0.6, risk["confidence"])
}
