// Package job implements the job state machine and polling-driven
// progress engine of spec.md §3-4.H, grounded on the teacher's
// services/video/service.go status-transition shape but reworked from a
// fire-and-forget background goroutine into an in-request, per-poll
// advance (spec.md §4.H/§9: no background worker pool).
package job

import "time"

// Status is one of the four job lifecycle states of spec.md §3.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether no further transitions occur from this
// status, per spec.md §3 invariant 1.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Stage is the coarse-grained phase of a job. Stage advances only
// forward: transcript -> summarize, per spec.md §3 invariant 2.
type Stage string

const (
	StageTranscript Stage = "transcript"
	StageSummarize  Stage = "summarize"
)

// Options are the client-supplied presentation/acquisition knobs.
type Options struct {
	Length         string `json:"length,omitempty"`
	Format         string `json:"format,omitempty"`
	TranscriptMode string `json:"transcriptMode,omitempty"`
}

// Input is the original client request that created the job.
type Input struct {
	URL     string  `json:"url"`
	Title   string  `json:"title,omitempty"`
	Lang    string  `json:"lang,omitempty"`
	Options Options `json:"options,omitempty"`
}

// TranscriptContext tracks the state of an in-flight or resolved
// transcript acquisition.
type TranscriptContext struct {
	Mode            string   `json:"mode,omitempty"`
	RemoteJobHandle string   `json:"remoteJobHandle,omitempty"`
	TranscriptLang  string   `json:"transcriptLang,omitempty"`
	AvailableLangs  []string `json:"availableLangs,omitempty"`
}

// Result is the structured output of a completed job.
type Result struct {
	Summary    string   `json:"summary"`
	KeyPoints  []string `json:"keyPoints"`
	Confidence int      `json:"confidence"`
	ModelID    string   `json:"modelId"`
}

// Provider identifies which external collaborator a failure originated
// from, per spec.md §3.
type Provider string

const (
	ProviderTranscript Provider = "transcript"
	ProviderSummarizer Provider = "summarizer"
	ProviderBackend    Provider = "backend"
)

// JobError is the failure envelope attached to a job in the failed
// state.
type JobError struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Provider Provider `json:"provider"`
}

// Job is the persisted unit of work. Result present iff status is
// completed; Error present iff status is failed (spec.md §3 invariant 3).
type Job struct {
	ID                string             `json:"id"`
	Status            Status             `json:"status"`
	Stage             Stage              `json:"stage"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
	Input             Input              `json:"input"`
	TranscriptContext TranscriptContext  `json:"transcriptContext"`
	Result            *Result            `json:"result,omitempty"`
	Error             *JobError          `json:"error,omitempty"`
	ProviderStatus    string             `json:"providerStatus,omitempty"`

	// transcriptText is the in-process-only handoff between the
	// transcript and summarize stages within a single poll. It is
	// never persisted to the KV store (spec.md §3 "Ownership &
	// lifecycle", §4.H "Transcript handoff", §9 "Transcript memory").
	transcriptText string
}

// CachedJobID is the sentinel jobId returned on a POST cache hit,
// per spec.md §4.H "Creation (POST)".
const CachedJobID = "cached"
