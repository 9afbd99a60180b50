package transcript

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"

	"github.com/corvidlabs/vidsum/apperr"
)

func TestClassifyMapsSignals(t *testing.T) {
	tests := []struct {
		signal Signal
		want   apperr.Code
	}{
		{SignalInputRejected, apperr.CodeSupadataInvalidRequest},
		{SignalVideoForbidden, apperr.CodeVideoUnavailable},
		{SignalPartial, apperr.CodeTranscriptUnavailable},
		{SignalOther, apperr.CodeSupadataUpstreamError},
	}

	for _, tt := range tests {
		got := Classify("op", tt.signal, nil, "msg")
		if got.Code != tt.want {
			t.Errorf("Classify(%s) code = %s, want %s", tt.signal, got.Code, tt.want)
		}
	}
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Supadata, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	adapter := NewSupadata(SupadataConfig{APIKey: "k", BaseURL: srv.URL}, rate.NewLimiter(rate.Inf, 1))
	return adapter, srv.Close
}

func TestRequestTranscriptReady(t *testing.T) {
	adapter, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(transcriptResponse{Content: "hello world", Lang: "en"})
	})
	defer closeFn()

	outcome, err := adapter.RequestTranscript(context.Background(), "https://youtu.be/abc", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != KindReady || outcome.Content != "hello world" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestRequestTranscriptAsync(t *testing.T) {
	adapter, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(transcriptResponse{Status: "async", JobID: "job-1"})
	})
	defer closeFn()

	outcome, err := adapter.RequestTranscript(context.Background(), "https://youtu.be/abc", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != KindAsync || outcome.RemoteHandle != "job-1" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestPollTranscriptJobQueuedThenCompleted(t *testing.T) {
	calls := 0
	adapter, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_ = json.NewEncoder(w).Encode(transcriptResponse{Status: "queued", JobID: "job-1"})
			return
		}
		_ = json.NewEncoder(w).Encode(transcriptResponse{Status: "completed", Content: "text", Lang: "en"})
	})
	defer closeFn()

	outcome, err := adapter.PollTranscriptJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != KindQueued {
		t.Fatalf("expected queued, got %+v", outcome)
	}

	outcome, err = adapter.PollTranscriptJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != KindCompleted || outcome.Content != "text" {
		t.Fatalf("expected completed, got %+v", outcome)
	}
}

func TestRequestTranscriptPartialSignal(t *testing.T) {
	adapter, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(transcriptResponse{Error: "no captions available", ErrorType: "no_captions"})
	})
	defer closeFn()

	_, err := adapter.RequestTranscript(context.Background(), "https://youtu.be/abc", "", "")
	if err == nil {
		t.Fatal("expected error")
	}
	appErr, ok := err.(*apperr.AppError)
	if !ok {
		t.Fatalf("expected *apperr.AppError, got %T", err)
	}
	if appErr.Code != apperr.CodeTranscriptUnavailable {
		t.Errorf("code = %s, want %s", appErr.Code, apperr.CodeTranscriptUnavailable)
	}
}
