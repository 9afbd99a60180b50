package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// SupadataConfig configures the concrete HTTP adapter.
type SupadataConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Supadata is the HTTP-backed Provider adapter. The outbound
// golang.org/x/time/rate limiter throttles the rate of calls to the
// upstream service — the teacher dependency repurposed from a
// client-facing token bucket (app/main.go's rate.NewLimiter call site)
// into an outbound provider throttle, per SPEC_FULL.md §4.D.
type Supadata struct {
	cfg     SupadataConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewSupadata(cfg SupadataConfig, limiter *rate.Limiter) *Supadata {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.supadata.ai/v1"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Supadata{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
	}
}

type transcriptRequest struct {
	URL  string `json:"url"`
	Lang string `json:"lang,omitempty"`
	Mode string `json:"mode,omitempty"`
}

type transcriptResponse struct {
	Content        string   `json:"content"`
	Lang           string   `json:"lang"`
	AvailableLangs []string `json:"availableLangs"`
	JobID          string   `json:"jobId"`
	Status         string   `json:"status"`
	Error          string   `json:"error"`
	ErrorType      string   `json:"errorType"`
}

func (s *Supadata) RequestTranscript(ctx context.Context, url, lang, mode string) (Outcome, error) {
	const op = "transcript.Supadata.RequestTranscript"

	if err := s.limiter.Wait(ctx); err != nil {
		return Outcome{}, err
	}

	body, err := json.Marshal(transcriptRequest{URL: url, Lang: lang, Mode: mode})
	if err != nil {
		return Outcome{}, err
	}

	resp, err := s.do(ctx, http.MethodPost, "/transcript", body)
	if err != nil {
		return Outcome{}, Classify(op, SignalOther, err, "transcript request failed")
	}

	return decodeOutcome(op, resp)
}

func (s *Supadata) PollTranscriptJob(ctx context.Context, handle string) (Outcome, error) {
	const op = "transcript.Supadata.PollTranscriptJob"

	if err := s.limiter.Wait(ctx); err != nil {
		return Outcome{}, err
	}

	resp, err := s.do(ctx, http.MethodGet, "/transcript/"+handle, nil)
	if err != nil {
		return Outcome{}, Classify(op, SignalOther, err, "transcript poll failed")
	}

	return decodeOutcome(op, resp)
}

func (s *Supadata) do(ctx context.Context, method, path string, body []byte) (transcriptResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.cfg.BaseURL+path, reader)
	if err != nil {
		return transcriptResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := s.client.Do(req)
	if err != nil {
		return transcriptResponse{}, err
	}
	defer httpResp.Body.Close()

	var out transcriptResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&out); err != nil {
		return transcriptResponse{}, err
	}

	if httpResp.StatusCode >= 400 {
		return out, fmt.Errorf("upstream status %d: %s", httpResp.StatusCode, out.Error)
	}

	return out, nil
}

func decodeOutcome(op string, resp transcriptResponse) (Outcome, error) {
	if resp.Error != "" {
		return Outcome{}, Classify(op, classifyErrorType(resp.ErrorType), nil, resp.Error)
	}

	switch resp.Status {
	case "", "ready", "completed":
		if resp.Content == "" {
			return Outcome{}, Classify(op, SignalPartial, nil, "transcript unavailable")
		}
		kind := KindReady
		if resp.Status == "completed" {
			kind = KindCompleted
		}
		return Outcome{Kind: kind, Content: resp.Content, Lang: resp.Lang, AvailableLangs: resp.AvailableLangs}, nil
	case "queued":
		return Outcome{Kind: KindQueued, RemoteHandle: resp.JobID}, nil
	case "active", "processing":
		return Outcome{Kind: KindActive, RemoteHandle: resp.JobID}, nil
	case "async":
		return Outcome{Kind: KindAsync, RemoteHandle: resp.JobID}, nil
	case "failed":
		return Outcome{Kind: KindFailed, FailureReason: resp.Error}, nil
	default:
		return Outcome{}, Classify(op, SignalOther, nil, "unrecognized provider status: "+resp.Status)
	}
}

func classifyErrorType(errType string) Signal {
	switch errType {
	case "invalid_request", "invalid_url":
		return SignalInputRejected
	case "video_unavailable", "forbidden", "not_found":
		return SignalVideoForbidden
	case "transcript_unavailable", "no_captions":
		return SignalPartial
	default:
		return SignalOther
	}
}
