// Package transcript defines the transcript-acquisition provider port
// (spec.md §4.E) and its error classification, grounded on the shape of
// the teacher's scripts.TranscriptionResult JSON-result struct
// (app/scripts/types.go) but fronted by an HTTP adapter rather than a
// subprocess call, since spec.md treats the transcript service as opaque
// over the wire.
package transcript

import (
	"context"

	"github.com/corvidlabs/vidsum/apperr"
)

// OutcomeKind tags the shape of a provider response.
type OutcomeKind string

const (
	KindReady     OutcomeKind = "ready"
	KindAsync     OutcomeKind = "async"
	KindQueued    OutcomeKind = "queued"
	KindActive    OutcomeKind = "active"
	KindCompleted OutcomeKind = "completed"
	KindFailed    OutcomeKind = "failed"
)

// Outcome is the tagged union returned by both port methods, mirroring
// the teacher's single JSON-result-struct-with-optional-fields idiom.
type Outcome struct {
	Kind           OutcomeKind
	Content        string
	Lang           string
	AvailableLangs []string
	RemoteHandle   string
	FailureReason  string
}

// Provider is the capability contract spec.md §4.E names. RequestTranscript
// starts acquisition; PollTranscriptJob advances an async job started by a
// prior RequestTranscript call that returned KindAsync.
type Provider interface {
	RequestTranscript(ctx context.Context, url, lang, mode string) (Outcome, error)
	PollTranscriptJob(ctx context.Context, handle string) (Outcome, error)
}

// Signal is what an adapter reports when a call did not simply succeed,
// used by Classify to select an apperr.Code without the core needing to
// understand the provider's wire format.
type Signal string

const (
	SignalInputRejected  Signal = "input_rejected"
	SignalVideoForbidden Signal = "video_forbidden"
	SignalPartial        Signal = "partial_unavailable"
	SignalOther          Signal = "other"
)

// Classify maps an observed provider signal to the transcript error
// taxonomy of spec.md §4.E.
func Classify(op string, signal Signal, err error, message string) *apperr.AppError {
	switch signal {
	case SignalInputRejected:
		return apperr.Upstream(op, apperr.CodeSupadataInvalidRequest, apperr.ProviderTranscript, err, message)
	case SignalVideoForbidden:
		return apperr.Upstream(op, apperr.CodeVideoUnavailable, apperr.ProviderTranscript, err, message)
	case SignalPartial:
		return apperr.Upstream(op, apperr.CodeTranscriptUnavailable, apperr.ProviderTranscript, err, message)
	default:
		return apperr.Upstream(op, apperr.CodeSupadataUpstreamError, apperr.ProviderTranscript, err, message)
	}
}
