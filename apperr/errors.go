// Package apperr defines the error taxonomy surfaced to HTTP clients.
package apperr

import (
	"fmt"
	"net/http"
	"regexp"
)

// Code is one of the error codes enumerated in the API contract.
type Code string

const (
	CodeInvalidRequest         Code = "INVALID_REQUEST"
	CodeJobNotFound            Code = "JOB_NOT_FOUND"
	CodeJobCancelled           Code = "JOB_CANCELLED"
	CodeConfigurationError     Code = "CONFIGURATION_ERROR"
	CodeRateLimitExceeded      Code = "RATE_LIMIT_EXCEEDED"
	CodeVideoUnavailable       Code = "VIDEO_UNAVAILABLE"
	CodeTranscriptUnavailable Code = "TRANSCRIPT_UNAVAILABLE"
	CodeSupadataInvalidRequest Code = "SUPADATA_INVALID_REQUEST"
	CodeSupadataUpstreamError Code = "SUPADATA_UPSTREAM_ERROR"
	CodeGeminiAuth             Code = "GEMINI_AUTH"
	CodeGeminiQuota            Code = "GEMINI_QUOTA"
	CodeGeminiUpstreamError   Code = "GEMINI_UPSTREAM_ERROR"
	CodeGeminiInvalidResponse Code = "GEMINI_INVALID_RESPONSE"
	CodeInternalError          Code = "INTERNAL_ERROR"
)

// Provider identifies which external collaborator an error originated from.
type Provider string

const (
	ProviderTranscript Provider = "transcript"
	ProviderSummarizer Provider = "summarizer"
	ProviderBackend    Provider = "backend"
)

// AppError is the error type carried from any layer up to the HTTP surface.
type AppError struct {
	Code       Code     `json:"code"`
	HTTPStatus int      `json:"-"`
	Message    string   `json:"message"`
	Provider   Provider `json:"-"`
	Op         string   `json:"-"`
	Err        error    `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(op string, code Code, status int, err error, message string) *AppError {
	return &AppError{Code: code, HTTPStatus: status, Message: message, Op: op, Err: err}
}

func InvalidInput(op string, err error, message string) *AppError {
	return New(op, CodeInvalidRequest, http.StatusBadRequest, err, message)
}

func NotFound(op string, err error, message string) *AppError {
	return New(op, CodeJobNotFound, http.StatusNotFound, err, message)
}

func Cancelled(op string, message string) *AppError {
	return New(op, CodeJobCancelled, http.StatusGone, nil, message)
}

func Configuration(op string, err error, message string) *AppError {
	return New(op, CodeConfigurationError, http.StatusInternalServerError, err, message)
}

func RateLimited(op string, message string) *AppError {
	return New(op, CodeRateLimitExceeded, http.StatusTooManyRequests, nil, message)
}

func Internal(op string, err error, message string) *AppError {
	return New(op, CodeInternalError, http.StatusInternalServerError, err, message)
}

// Upstream builds a job-scoped provider failure for the given code/provider.
func Upstream(op string, code Code, provider Provider, err error, message string) *AppError {
	return &AppError{
		Code:       code,
		HTTPStatus: http.StatusInternalServerError,
		Message:    message,
		Provider:   provider,
		Op:         op,
		Err:        err,
	}
}

var (
	apiKeyPattern = regexp.MustCompile(`(?i)api[_-]?key[=:][^\s&]+`)
	urlPattern    = regexp.MustCompile(`https?://\S+`)
)

// Sanitize strips credential-like substrings and absolute URLs from a
// message before it is ever written to a client.
func Sanitize(msg string) string {
	msg = apiKeyPattern.ReplaceAllString(msg, "API_KEY")
	msg = urlPattern.ReplaceAllString(msg, "[URL]")
	return msg
}
