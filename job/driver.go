package job

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/corvidlabs/vidsum/apperr"
	"github.com/corvidlabs/vidsum/cache"
	"github.com/corvidlabs/vidsum/chunk"
	"github.com/corvidlabs/vidsum/store"
	"github.com/corvidlabs/vidsum/summarizer"
	"github.com/corvidlabs/vidsum/transcript"
)

// LengthWindows maps a requested length tier to its char-count window.
type LengthWindows struct {
	Short    summarizer.LengthWindow
	Standard summarizer.LengthWindow
	Detailed summarizer.LengthWindow
}

func (w LengthWindows) forLength(length string) summarizer.LengthWindow {
	switch length {
	case "short":
		return w.Short
	case "detailed":
		return w.Detailed
	default:
		return w.Standard
	}
}

// Config bundles the tunables the driver needs, mirroring the shape of
// the teacher's services/video.Config{ProcessTimeout,MaxDuration,...}.
type Config struct {
	JobTTL           time.Duration
	TranscriptMaxChars int
	ChunkMinChars      int
	ChunkMaxChars      int
	LengthWindows      LengthWindows
	KeyPointBounds     summarizer.KeyPointBounds
}

// Driver implements the state machine and progress engine of
// spec.md §4.H. Job IDs use google/uuid, the same call-site shape as the
// teacher's services/video/service.go and its requestid middleware.
type Driver struct {
	store      store.Store
	cache      *cache.Cache
	transcript transcript.Provider
	summarizer summarizer.Provider
	cfg        Config
}

func NewDriver(s store.Store, c *cache.Cache, t transcript.Provider, sm summarizer.Provider, cfg Config) *Driver {
	return &Driver{store: s, cache: c, transcript: t, summarizer: sm, cfg: cfg}
}

func toCacheOptions(o Options) cache.Options {
	return cache.Options{Length: o.Length, Format: o.Format, TranscriptMode: o.TranscriptMode}
}

// Create implements spec.md §4.H "Creation (POST)": on cache hit, return
// a synthetic completed projection without materializing a Job record
// (spec.md §9 open question, resolved "no"); on miss, mint a fresh job
// in processing/transcript.
func (d *Driver) Create(ctx context.Context, input Input) (*Job, error) {
	entry, hit, err := d.cache.Lookup(ctx, input.URL, toCacheOptions(input.Options))
	if err != nil {
		return nil, apperr.Internal("job.Driver.Create", err, "cache lookup failed")
	}
	if hit {
		return &Job{
			ID:     CachedJobID,
			Status: StatusCompleted,
			Stage:  StageSummarize,
			Result: &Result{
				Summary:    entry.Result.Summary,
				KeyPoints:  entry.Result.KeyPoints,
				Confidence: entry.Result.Confidence,
				ModelID:    entry.Result.ModelID,
			},
			TranscriptContext: TranscriptContext{
				TranscriptLang: entry.Meta.TranscriptLang,
				AvailableLangs: entry.Meta.AvailableLangs,
			},
			Input:     input,
			CreatedAt: entry.CreatedAt,
			UpdatedAt: entry.CreatedAt,
		}, nil
	}

	now := time.Now()
	j := &Job{
		ID:                uuid.New().String(),
		Status:            StatusProcessing,
		Stage:             StageTranscript,
		CreatedAt:         now,
		UpdatedAt:         now,
		Input:             input,
		TranscriptContext: TranscriptContext{Mode: input.Options.TranscriptMode},
	}

	if err := d.persist(ctx, j); err != nil {
		return nil, apperr.Internal("job.Driver.Create", err, "failed to persist job")
	}

	return j, nil
}

// Get loads a job's current snapshot without advancing it.
func (d *Driver) Get(ctx context.Context, id string) (*Job, error) {
	var j Job
	ok, err := d.store.Get(ctx, store.JobKey(id), &j)
	if err != nil {
		return nil, apperr.Internal("job.Driver.Get", err, "failed to load job")
	}
	if !ok {
		return nil, apperr.NotFound("job.Driver.Get", nil, "job not found")
	}
	return &j, nil
}

// Advance implements spec.md §4.H "Advance (GET)". It loads the job,
// short-circuits on terminal states, and otherwise invokes the handler for
// the current stage, observing cancellation before and after each external
// call per the re-entry guard in spec.md §4.H/§5. Once the transcript is in
// hand, the transcript handler continues into the summarize stage within
// the same call.
func (d *Driver) Advance(ctx context.Context, id string) (*Job, error) {
	const op = "job.Driver.Advance"

	j, err := d.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if j.Status.IsTerminal() {
		return j, nil
	}

	switch j.Stage {
	case StageTranscript:
		if err := d.advanceTranscript(ctx, j); err != nil {
			return nil, err
		}
	case StageSummarize:
		if err := d.advanceSummarize(ctx, j); err != nil {
			return nil, err
		}
	}

	if err := d.reload(ctx, j); err != nil {
		return nil, apperr.Internal(op, err, "failed to reload job after advance")
	}

	return j, nil
}

// reload re-reads the persisted job into j's fields, used to guard
// against a cancel that raced the in-flight advance (spec.md §5).
func (d *Driver) reload(ctx context.Context, j *Job) error {
	var latest Job
	ok, err := d.store.Get(ctx, store.JobKey(j.ID), &latest)
	if err != nil || !ok {
		return err
	}
	*j = latest
	return nil
}

// isCancelled re-reads the job and reports whether it has since been
// cancelled, the re-entry checkpoint spec.md §4.H requires before and
// after each external call.
func (d *Driver) isCancelled(ctx context.Context, id string) (bool, error) {
	var latest Job
	ok, err := d.store.Get(ctx, store.JobKey(id), &latest)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return latest.Status == StatusCancelled, nil
}

func (d *Driver) advanceTranscript(ctx context.Context, j *Job) error {
	const op = "job.Driver.advanceTranscript"

	if cancelled, err := d.isCancelled(ctx, j.ID); err != nil {
		return apperr.Internal(op, err, "failed to check cancellation")
	} else if cancelled {
		return nil
	}

	var outcome transcript.Outcome
	var err error

	if j.TranscriptContext.RemoteJobHandle == "" {
		outcome, err = d.transcript.RequestTranscript(ctx, j.Input.URL, j.Input.Lang, j.Input.Options.TranscriptMode)
	} else {
		outcome, err = d.transcript.PollTranscriptJob(ctx, j.TranscriptContext.RemoteJobHandle)
	}

	if cancelled, cErr := d.isCancelled(ctx, j.ID); cErr != nil {
		return apperr.Internal(op, cErr, "failed to check cancellation")
	} else if cancelled {
		return nil
	}

	if err != nil {
		return d.fail(ctx, j, err)
	}

	switch outcome.Kind {
	case transcript.KindReady, transcript.KindCompleted:
		j.transcriptText = outcome.Content
		j.TranscriptContext.TranscriptLang = outcome.Lang
		j.TranscriptContext.AvailableLangs = outcome.AvailableLangs
		j.Stage = StageSummarize
		j.UpdatedAt = time.Now()
		if err := d.persist(ctx, j); err != nil {
			return apperr.Internal(op, err, "failed to persist transcript stage advance")
		}
		return d.advanceSummarize(ctx, j)

	case transcript.KindAsync, transcript.KindQueued, transcript.KindActive:
		j.TranscriptContext.RemoteJobHandle = outcome.RemoteHandle
		j.ProviderStatus = string(outcome.Kind)
		j.UpdatedAt = time.Now()
		return d.persist(ctx, j)

	case transcript.KindFailed:
		return d.fail(ctx, j, transcript.Classify(op, transcript.SignalPartial, nil, outcome.FailureReason))

	default:
		return d.fail(ctx, j, transcript.Classify(op, transcript.SignalOther, nil, "unrecognized transcript outcome"))
	}
}

// advanceSummarize implements the summarize stage. Per spec.md §4.H
// "Transcript handoff", it runs inside the same poll that completed the
// transcript stage whenever possible, using the in-memory transcript
// text carried on j.
func (d *Driver) advanceSummarize(ctx context.Context, j *Job) error {
	const op = "job.Driver.advanceSummarize"

	if j.transcriptText == "" {
		return d.fail(ctx, j, transcript.Classify(op, transcript.SignalPartial, nil, "transcript unavailable for summarization"))
	}

	if cancelled, err := d.isCancelled(ctx, j.ID); err != nil {
		return apperr.Internal(op, err, "failed to check cancellation")
	} else if cancelled {
		return nil
	}

	length := j.Input.Options.Length
	format := j.Input.Options.Format
	if length == "" {
		length = "standard"
	}
	if format == "" {
		format = "paragraph"
	}

	summarize := func(ctx context.Context, text, l, f string) (summarizer.Result, error) {
		return d.summarizer.Summarize(ctx, text, l, f)
	}

	result, err := chunk.Reduce(ctx, j.transcriptText, d.cfg.TranscriptMaxChars, d.cfg.ChunkMinChars, d.cfg.ChunkMaxChars, length, format, summarize)

	if cancelled, cErr := d.isCancelled(ctx, j.ID); cErr != nil {
		return apperr.Internal(op, cErr, "failed to check cancellation")
	} else if cancelled {
		return nil
	}

	if err != nil {
		return d.fail(ctx, j, err)
	}

	window := d.cfg.LengthWindows.forLength(length)
	if verr := summarizer.Validate(op, result, window, d.cfg.KeyPointBounds); verr != nil {
		return d.fail(ctx, j, verr)
	}

	j.Status = StatusCompleted
	j.Result = &Result{
		Summary:    result.Summary,
		KeyPoints:  result.KeyPoints,
		Confidence: result.Confidence,
		ModelID:    result.ModelID,
	}
	j.UpdatedAt = time.Now()

	if err := d.persist(ctx, j); err != nil {
		return apperr.Internal(op, err, "failed to persist completed job")
	}

	entry := cache.Entry{
		Result: cache.Result{
			Summary:    result.Summary,
			KeyPoints:  result.KeyPoints,
			Confidence: result.Confidence,
			ModelID:    result.ModelID,
		},
		Meta: cache.Meta{
			TranscriptLang: j.TranscriptContext.TranscriptLang,
			AvailableLangs: j.TranscriptContext.AvailableLangs,
		},
		CreatedAt: j.UpdatedAt,
	}
	if err := d.cache.Store(ctx, j.Input.URL, toCacheOptions(j.Input.Options), entry); err != nil {
		return apperr.Internal(op, err, "failed to write cache entry")
	}

	return nil
}

// fail transitions the job to failed with the classified error, per
// spec.md §7 "Provider and processing errors are absorbed into the job".
func (d *Driver) fail(ctx context.Context, j *Job, err error) error {
	appErr, ok := err.(*apperr.AppError)
	if !ok {
		appErr = apperr.Internal("job.Driver.fail", err, "unclassified failure")
	}

	if cancelled, cErr := d.isCancelled(ctx, j.ID); cErr == nil && cancelled {
		return nil
	}

	provider := ProviderBackend
	switch appErr.Provider {
	case apperr.ProviderTranscript:
		provider = ProviderTranscript
	case apperr.ProviderSummarizer:
		provider = ProviderSummarizer
	}

	j.Status = StatusFailed
	j.Error = &JobError{
		Code:     string(appErr.Code),
		Message:  apperr.Sanitize(appErr.Message),
		Provider: provider,
	}
	j.UpdatedAt = time.Now()

	return d.persist(ctx, j)
}

// Cancel implements spec.md §4.H "Cancel (DELETE)": a missing or
// already-terminal job is left unchanged and a JOB_NOT_FOUND error is
// returned; otherwise the status flips to cancelled.
func (d *Driver) Cancel(ctx context.Context, id string) error {
	const op = "job.Driver.Cancel"

	j, err := d.Get(ctx, id)
	if err != nil {
		return err
	}
	if j.Status.IsTerminal() {
		return apperr.NotFound(op, nil, "job already terminal")
	}

	j.Status = StatusCancelled
	j.UpdatedAt = time.Now()
	return d.persist(ctx, j)
}

func (d *Driver) persist(ctx context.Context, j *Job) error {
	return d.store.Put(ctx, store.JobKey(j.ID), j, d.cfg.JobTTL)
}
