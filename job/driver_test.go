package job

import (
	"context"
	"testing"
	"time"

	"github.com/corvidlabs/vidsum/apperr"
	"github.com/corvidlabs/vidsum/cache"
	"github.com/corvidlabs/vidsum/store"
	"github.com/corvidlabs/vidsum/summarizer"
	"github.com/corvidlabs/vidsum/transcript"
)

type fakeTranscriptProvider struct {
	requestOutcome transcript.Outcome
	requestErr     error
	pollOutcomes   []transcript.Outcome
	pollErr        error
	pollCalls      int
}

func (f *fakeTranscriptProvider) RequestTranscript(ctx context.Context, url, lang, mode string) (transcript.Outcome, error) {
	return f.requestOutcome, f.requestErr
}

func (f *fakeTranscriptProvider) PollTranscriptJob(ctx context.Context, handle string) (transcript.Outcome, error) {
	if f.pollErr != nil {
		return transcript.Outcome{}, f.pollErr
	}
	idx := f.pollCalls
	if idx >= len(f.pollOutcomes) {
		idx = len(f.pollOutcomes) - 1
	}
	f.pollCalls++
	return f.pollOutcomes[idx], nil
}

type fakeSummarizerProvider struct {
	result Result
	err    error
	calls  int
}

func (f *fakeSummarizerProvider) Summarize(ctx context.Context, text, length, format string) (summarizer.Result, error) {
	f.calls++
	if f.err != nil {
		return summarizer.Result{}, f.err
	}
	return summarizer.Result{Summary: f.result.Summary, KeyPoints: f.result.KeyPoints, Confidence: f.result.Confidence, ModelID: f.result.ModelID}, nil
}

func testConfig() Config {
	return Config{
		JobTTL:             time.Hour,
		TranscriptMaxChars: 12000,
		ChunkMinChars:      2000,
		ChunkMaxChars:      4000,
		LengthWindows: LengthWindows{
			Short:    summarizer.LengthWindow{Min: 1, Max: 1000},
			Standard: summarizer.LengthWindow{Min: 1, Max: 1000},
			Detailed: summarizer.LengthWindow{Min: 1, Max: 2000},
		},
		KeyPointBounds: summarizer.KeyPointBounds{Min: 1, Max: 9},
	}
}

func newTestDriver(t *testing.T, tp transcript.Provider, sp summarizer.Provider) (*Driver, func()) {
	t.Helper()
	backend := store.NewMemory(time.Minute)
	c := cache.New(backend, time.Hour)
	d := NewDriver(backend, c, tp, sp, testConfig())
	return d, func() { backend.Close() }
}

func TestCreateMintsFreshJob(t *testing.T) {
	tp := &fakeTranscriptProvider{}
	sp := &fakeSummarizerProvider{}
	d, closeFn := newTestDriver(t, tp, sp)
	defer closeFn()

	j, err := d.Create(context.Background(), Input{URL: "https://youtu.be/abc"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if j.ID == "" || j.ID == CachedJobID {
		t.Fatalf("expected fresh job id, got %q", j.ID)
	}
	if j.Status != StatusProcessing || j.Stage != StageTranscript {
		t.Fatalf("unexpected initial state: %+v", j)
	}
}

func TestCreateCacheHitDoesNotMaterializeJob(t *testing.T) {
	tp := &fakeTranscriptProvider{
		requestOutcome: transcript.Outcome{Kind: transcript.KindReady, Content: "some transcript text", Lang: "en"},
	}
	sp := &fakeSummarizerProvider{result: Result{Summary: "a summary that is long enough", KeyPoints: []string{"a", "b", "c", "d", "e"}, Confidence: 80, ModelID: "gemini-2.0"}}
	d, closeFn := newTestDriver(t, tp, sp)
	defer closeFn()

	first, err := d.Create(context.Background(), Input{URL: "https://youtu.be/abc"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := d.Advance(context.Background(), first.ID); err != nil {
		t.Fatalf("advance: %v", err)
	}

	second, err := d.Create(context.Background(), Input{URL: "https://youtu.be/abc"})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second.ID != CachedJobID {
		t.Fatalf("expected cache hit sentinel id, got %q", second.ID)
	}
	if second.Status != StatusCompleted {
		t.Fatalf("expected completed status on cache hit, got %s", second.Status)
	}
}

func TestAdvanceHappyPathCompletesInOnePoll(t *testing.T) {
	tp := &fakeTranscriptProvider{
		requestOutcome: transcript.Outcome{Kind: transcript.KindReady, Content: "some transcript text", Lang: "en"},
	}
	sp := &fakeSummarizerProvider{result: Result{Summary: "a summary that is long enough", KeyPoints: []string{"a", "b", "c", "d", "e"}, Confidence: 80, ModelID: "gemini-2.0"}}
	d, closeFn := newTestDriver(t, tp, sp)
	defer closeFn()

	j, err := d.Create(context.Background(), Input{URL: "https://youtu.be/abc"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	advanced, err := d.Advance(context.Background(), j.ID)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if advanced.Status != StatusCompleted {
		t.Fatalf("expected completed after one poll, got %s", advanced.Status)
	}
	if advanced.Result == nil || len(advanced.Result.KeyPoints) != 5 {
		t.Fatalf("unexpected result: %+v", advanced.Result)
	}
	if sp.calls != 1 {
		t.Errorf("expected exactly 1 summarizer call for a short transcript, got %d", sp.calls)
	}
}

func TestAdvanceAsyncTranscriptStaysInTranscriptStage(t *testing.T) {
	tp := &fakeTranscriptProvider{
		requestOutcome: transcript.Outcome{Kind: transcript.KindAsync, RemoteHandle: "handle-1"},
	}
	sp := &fakeSummarizerProvider{}
	d, closeFn := newTestDriver(t, tp, sp)
	defer closeFn()

	j, _ := d.Create(context.Background(), Input{URL: "https://youtu.be/abc"})
	advanced, err := d.Advance(context.Background(), j.ID)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if advanced.Status != StatusProcessing || advanced.Stage != StageTranscript {
		t.Fatalf("expected to remain in transcript stage, got %+v", advanced)
	}
	if advanced.TranscriptContext.RemoteJobHandle != "handle-1" {
		t.Errorf("expected remote handle to persist, got %q", advanced.TranscriptContext.RemoteJobHandle)
	}
}

func TestAdvanceTranscriptFailureTransitionsToFailed(t *testing.T) {
	tp := &fakeTranscriptProvider{
		requestErr: apperr.Upstream("op", apperr.CodeTranscriptUnavailable, apperr.ProviderTranscript, nil, "no transcript available"),
	}
	sp := &fakeSummarizerProvider{}
	d, closeFn := newTestDriver(t, tp, sp)
	defer closeFn()

	j, _ := d.Create(context.Background(), Input{URL: "https://youtu.be/abc"})
	advanced, err := d.Advance(context.Background(), j.ID)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if advanced.Status != StatusFailed {
		t.Fatalf("expected failed status, got %s", advanced.Status)
	}
	if advanced.Error == nil || advanced.Error.Code != string(apperr.CodeTranscriptUnavailable) {
		t.Fatalf("unexpected error envelope: %+v", advanced.Error)
	}
	if advanced.Error.Provider != ProviderTranscript {
		t.Errorf("expected provider transcript, got %s", advanced.Error.Provider)
	}
}

func TestCancelThenAdvanceIsNoop(t *testing.T) {
	tp := &fakeTranscriptProvider{
		requestOutcome: transcript.Outcome{Kind: transcript.KindReady, Content: "text", Lang: "en"},
	}
	sp := &fakeSummarizerProvider{result: Result{Summary: "a summary that is long enough", KeyPoints: []string{"a", "b", "c", "d", "e"}, Confidence: 80}}
	d, closeFn := newTestDriver(t, tp, sp)
	defer closeFn()

	j, _ := d.Create(context.Background(), Input{URL: "https://youtu.be/abc"})
	if err := d.Cancel(context.Background(), j.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	advanced, err := d.Advance(context.Background(), j.ID)
	if err != nil {
		t.Fatalf("advance after cancel: %v", err)
	}
	if advanced.Status != StatusCancelled {
		t.Fatalf("expected job to remain cancelled, got %s", advanced.Status)
	}
}

func TestCancelOnTerminalJobFails(t *testing.T) {
	tp := &fakeTranscriptProvider{requestOutcome: transcript.Outcome{Kind: transcript.KindReady, Content: "text"}}
	sp := &fakeSummarizerProvider{result: Result{Summary: "a summary that is long enough", KeyPoints: []string{"a", "b", "c", "d", "e"}, Confidence: 80}}
	d, closeFn := newTestDriver(t, tp, sp)
	defer closeFn()

	j, _ := d.Create(context.Background(), Input{URL: "https://youtu.be/abc"})
	_, _ = d.Advance(context.Background(), j.ID)

	if err := d.Cancel(context.Background(), j.ID); err == nil {
		t.Fatal("expected cancelling a terminal job to fail")
	}
}

func TestCancelMissingJobFails(t *testing.T) {
	tp := &fakeTranscriptProvider{}
	sp := &fakeSummarizerProvider{}
	d, closeFn := newTestDriver(t, tp, sp)
	defer closeFn()

	if err := d.Cancel(context.Background(), "does-not-exist"); err == nil {
		t.Fatal("expected error cancelling a missing job")
	}
}
