package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/corvidlabs/vidsum/apperr"
)

// errorHandler is fiber's Config.ErrorHandler. Grounded on the teacher's
// app/handlers/error.go: switch on *apperr.AppError for status/code/
// message, log via zerolog with request context, and always sanitize the
// outbound message per spec.md §7.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var appErr *apperr.AppError
	if !errors.As(err, &appErr) {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			appErr = apperr.New("api", apperr.CodeInvalidRequest, fiberErr.Code, fiberErr, fiberErr.Message)
		} else {
			appErr = apperr.Internal("api", err, "internal error")
		}
	}

	s.logger.Error().
		Err(appErr.Err).
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("path", c.Path()).
		Str("method", c.Method()).
		Int("status", appErr.HTTPStatus).
		Str("code", string(appErr.Code)).
		Msg("request failed")

	return c.Status(appErr.HTTPStatus).JSON(fiber.Map{
		"code":    appErr.Code,
		"message": apperr.Sanitize(appErr.Message),
	})
}

// writeRateLimitHeaders echoes the sliding-window counters the client needs
// to back off correctly, per spec.md §4.D.
func writeRateLimitHeaders(c *fiber.Ctx, limit, remaining int, resetAtMs int64) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(resetAtMs, 10))
}
