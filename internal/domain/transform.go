package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrEmptyText is returned when an incident carries no text to analyze.
var ErrEmptyText = errors.New("incident text is empty")

// ParseIncident decodes a RawEvent's value into an IncidentMessage. The
// message key is used as the id when the payload has none.
func ParseIncident(raw RawEvent) (IncidentMessage, error) {
	var msg IncidentMessage
	if err := json.Unmarshal(raw.Value, &msg); err != nil {
		return IncidentMessage{}, fmt.Errorf("parse incident: %w", err)
	}
	msg.Text = strings.TrimSpace(msg.Text)
	if msg.Text == "" {
		return IncidentMessage{}, fmt.Errorf("parse incident: %w", ErrEmptyText)
	}
	if msg.ID == "" {
		msg.ID = string(raw.Key)
	}
	return msg, nil
}

// SerializeResult marshals an AnalysisResult into an OutputEvent keyed by
// analysis id.
func SerializeResult(result AnalysisResult) (OutputEvent, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize analysis result: %w", err)
	}
	return OutputEvent{
		Key:   []byte(result.ID),
		Value: data,
		Headers: map[string]string{
			"risk_index":   strconv.FormatFloat(result.Risk.RiskIndex, 'f', 2, 64),
			"generated_at": result.GeneratedAt.Format(time.RFC3339),
		},
	}, nil
}
