package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// GeminiConfig configures the concrete HTTP adapter against the Gemini
// generateContent REST endpoint.
type GeminiConfig struct {
	APIKey  string
	ModelID string
	BaseURL string
	Timeout time.Duration
}

// Gemini is the HTTP-backed Provider adapter, requesting structured JSON
// output from the model. Shares the outbound rate.Limiter idiom with
// transcript.Supadata (SPEC_FULL.md §4.D).
type Gemini struct {
	cfg     GeminiConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewGemini(cfg GeminiConfig, limiter *rate.Limiter) *Gemini {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Gemini{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}, limiter: limiter}
}

type generateContentRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig geminiGenConfig  `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	ResponseMimeType string `json:"responseMimeType"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

type structuredSummary struct {
	Summary    string   `json:"summary"`
	KeyPoints  []string `json:"keyPoints"`
	Confidence int      `json:"confidence"`
}

func (g *Gemini) Summarize(ctx context.Context, text, length, format string) (Result, error) {
	const op = "summarizer.Gemini.Summarize"

	if err := g.limiter.Wait(ctx); err != nil {
		return Result{}, err
	}

	prompt := buildPrompt(text, length, format)
	reqBody, err := json.Marshal(generateContentRequest{
		Contents:         []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenConfig{ResponseMimeType: "application/json"},
	})
	if err != nil {
		return Result{}, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.cfg.BaseURL, g.cfg.ModelID, g.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := g.client.Do(req)
	if err != nil {
		return Result{}, Classify(op, SignalNetwork, err, "summarizer request failed")
	}
	defer httpResp.Body.Close()

	var resp generateContentResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return Result{}, Classify(op, SignalMalformed, err, "could not decode summarizer response")
	}

	if resp.Error != nil {
		return Result{}, Classify(op, classifyHTTPStatus(httpResp.StatusCode), nil, resp.Error.Message)
	}
	if httpResp.StatusCode >= 400 {
		return Result{}, Classify(op, classifyHTTPStatus(httpResp.StatusCode), nil, fmt.Sprintf("upstream status %d", httpResp.StatusCode))
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return Result{}, Classify(op, SignalMalformed, nil, "summarizer returned no candidates")
	}

	var structured structuredSummary
	if err := json.Unmarshal([]byte(resp.Candidates[0].Content.Parts[0].Text), &structured); err != nil {
		return Result{}, Classify(op, SignalMalformed, err, "summarizer output was not valid structured JSON")
	}

	return Result{
		Summary:    structured.Summary,
		KeyPoints:  structured.KeyPoints,
		Confidence: structured.Confidence,
		ModelID:    g.cfg.ModelID,
	}, nil
}

func buildPrompt(text, length, format string) string {
	return fmt.Sprintf(
		"Summarize the following transcript. Length: %s. Format: %s. "+
			"Respond as JSON with fields summary (string), keyPoints (array of strings), confidence (integer 0-100).\n\n%s",
		length, format, text,
	)
}

func classifyHTTPStatus(status int) Signal {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return SignalAuth
	case status == http.StatusTooManyRequests:
		return SignalQuota
	case status >= 500:
		return SignalNetwork
	default:
		return SignalOther
	}
}
