// Package summarizer defines the summarization provider port
// (spec.md §4.F) and the post-call output validation the job driver
// runs on every result before accepting it.
package summarizer

import (
	"context"

	"github.com/corvidlabs/vidsum/apperr"
)

// Result mirrors the teacher's scripts.SummaryResult shape (summary text
// plus structured metadata) generalized to the spec's key-point list and
// confidence score.
type Result struct {
	Summary    string   `json:"summary"`
	KeyPoints  []string `json:"keyPoints"`
	Confidence int      `json:"confidence"`
	ModelID    string   `json:"modelId"`
}

// Provider is the capability contract spec.md §4.F names.
type Provider interface {
	Summarize(ctx context.Context, text, length, format string) (Result, error)
}

// LengthWindow bounds the acceptable summary character count for a
// requested length tier.
type LengthWindow struct {
	Min int
	Max int
}

// KeyPointBounds bounds the acceptable key-point count.
type KeyPointBounds struct {
	Min int
	Max int
}

// Validate applies the output-validation rules of spec.md §4.F. Any
// violation is reported as GEMINI_INVALID_RESPONSE so malformed output
// never reaches the job state machine as a success.
func Validate(op string, r Result, window LengthWindow, bounds KeyPointBounds) error {
	if n := len(r.Summary); n < window.Min || n > window.Max {
		return apperr.Upstream(op, apperr.CodeGeminiInvalidResponse, apperr.ProviderSummarizer, nil, "summary length outside configured window")
	}

	if len(r.KeyPoints) < bounds.Min || len(r.KeyPoints) > bounds.Max {
		return apperr.Upstream(op, apperr.CodeGeminiInvalidResponse, apperr.ProviderSummarizer, nil, "key point count out of bounds")
	}
	for _, kp := range r.KeyPoints {
		if kp == "" {
			return apperr.Upstream(op, apperr.CodeGeminiInvalidResponse, apperr.ProviderSummarizer, nil, "key point must not be empty")
		}
	}

	if r.Confidence < 0 || r.Confidence > 100 {
		return apperr.Upstream(op, apperr.CodeGeminiInvalidResponse, apperr.ProviderSummarizer, nil, "confidence out of range")
	}

	return nil
}

// Signal is what an adapter reports when a call did not simply succeed.
type Signal string

const (
	SignalAuth      Signal = "auth"
	SignalQuota     Signal = "quota"
	SignalNetwork   Signal = "network"
	SignalMalformed Signal = "malformed"
	SignalOther     Signal = "other"
)

// Classify maps an observed provider signal to the summarizer error
// taxonomy of spec.md §4.F.
func Classify(op string, signal Signal, err error, message string) *apperr.AppError {
	switch signal {
	case SignalAuth:
		return apperr.Upstream(op, apperr.CodeGeminiAuth, apperr.ProviderSummarizer, err, message)
	case SignalQuota:
		return apperr.Upstream(op, apperr.CodeGeminiQuota, apperr.ProviderSummarizer, err, message)
	case SignalMalformed:
		return apperr.Upstream(op, apperr.CodeGeminiInvalidResponse, apperr.ProviderSummarizer, err, message)
	default:
		return apperr.Upstream(op, apperr.CodeGeminiUpstreamError, apperr.ProviderSummarizer, err, message)
	}
}
