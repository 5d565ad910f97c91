package narrative

import (
	"context"
	"fmt"
)

// FailureReason classifies why a backend call produced no text.
type FailureReason string

const (
	ReasonMissingCredential FailureReason = "missing_credential"
	ReasonTransport         FailureReason = "transport"
	ReasonHTTPStatus        FailureReason = "http_status"
	ReasonEmptyResponse     FailureReason = "empty_response"
)

// BackendFailure describes a failed backend call. Status is set only for
// ReasonHTTPStatus.
type BackendFailure struct {
	Reason FailureReason
	Status int
	Detail string
}

// Completion is the result of one backend call: either Text, or a Failure.
type Completion struct {
	Text    string
	Failure *BackendFailure
}

// Succeeded wraps model output in a Completion.
func Succeeded(text string) Completion {
	return Completion{Text: text}
}

// Failed builds a failed Completion.
func Failed(reason FailureReason, status int, detail string) Completion {
	return Completion{Failure: &BackendFailure{Reason: reason, Status: status, Detail: detail}}
}

// OK reports whether the call produced text.
func (c Completion) OK() bool {
	return c.Failure == nil
}

// Output returns the model text, or a one-line diagnostic for a failure. The
// diagnostic is what the parser receives in place of a model response.
func (c Completion) Output() string {
	if c.Failure == nil {
		return c.Text
	}
	f := c.Failure
	switch f.Reason {
	case ReasonMissingCredential:
		return "LLM Request Failed: no API token supplied"
	case ReasonHTTPStatus:
		return fmt.Sprintf("LLM Request Failed: status %d: %s", f.Status, f.Detail)
	case ReasonEmptyResponse:
		return "LLM Request Failed: empty response"
	default:
		return "LLM Request Failed: " + f.Detail
	}
}

// Backend sends one prompt to a generative-text model. Implementations never
// return an error: failures come back as a Completion with Failure set.
type Backend interface {
	Complete(ctx context.Context, prompt, token string) Completion
}
