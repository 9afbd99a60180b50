package api

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/corvidlabs/vidsum/apperr"
	"github.com/corvidlabs/vidsum/job"
	"github.com/corvidlabs/vidsum/ratelimit"
)

// createSummaryRequest is the POST body per spec.md §6.
type createSummaryRequest struct {
	URL     string       `json:"url"`
	Title   string       `json:"title"`
	Lang    string       `json:"lang"`
	Options job.Options `json:"options"`
}

func (s *Server) checkRateLimit(c *fiber.Ctx, class ratelimit.Class) (bool, error) {
	res, err := s.limiter.Check(c.Context(), class, ratelimit.Identity(c))
	if err != nil {
		return false, apperr.Internal("api.checkRateLimit", err, "rate limit check failed")
	}
	writeRateLimitHeaders(c, res.Limit, res.Remaining, res.ResetAtMs)
	if !res.Allowed {
		retryAfter := (res.ResetAtMs - time.Now().UnixMilli() + 999) / 1000
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
		return false, nil
	}
	return true, nil
}

// handleCreateSummary implements spec.md §6 "POST /api/v1/summaries".
func (s *Server) handleCreateSummary(c *fiber.Ctx) error {
	const op = "api.handleCreateSummary"

	allowed, err := s.checkRateLimit(c, ratelimit.ClassPost)
	if err != nil {
		return err
	}
	if !allowed {
		return apperr.RateLimited(op, "rate limit exceeded")
	}

	var req createSummaryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.InvalidInput(op, err, "malformed request body")
	}

	if err := s.validator.ValidateURL(req.URL); err != nil {
		return err
	}
	if req.Title != "" {
		if err := s.validator.ValidateTitle(req.Title); err != nil {
			return err
		}
	}

	input := job.Input{URL: req.URL, Title: req.Title, Lang: req.Lang, Options: req.Options}

	j, err := s.driver.Create(c.Context(), input)
	if err != nil {
		return err
	}

	if j.ID == job.CachedJobID {
		return c.Status(fiber.StatusOK).JSON(projectJob(j))
	}

	return c.Status(fiber.StatusAccepted).JSON(projectJob(j))
}

// handleGetSummary implements spec.md §6 "GET /api/v1/summaries/:id".
func (s *Server) handleGetSummary(c *fiber.Ctx) error {
	const op = "api.handleGetSummary"

	allowed, err := s.checkRateLimit(c, ratelimit.ClassGet)
	if err != nil {
		return err
	}
	if !allowed {
		return apperr.RateLimited(op, "rate limit exceeded")
	}

	id := c.Params("id")

	j, err := s.driver.Advance(c.Context(), id)
	if err != nil {
		return err
	}

	switch j.Status {
	case job.StatusCancelled:
		return c.Status(fiber.StatusGone).JSON(fiber.Map{
			"code":    apperr.CodeJobCancelled,
			"message": "job was cancelled",
		})
	case job.StatusFailed:
		return c.Status(fiber.StatusInternalServerError).JSON(projectJob(j))
	case job.StatusCompleted:
		return c.Status(fiber.StatusOK).JSON(projectJob(j))
	default:
		return c.Status(fiber.StatusAccepted).JSON(projectJob(j))
	}
}

// handleDeleteSummary implements spec.md §6 "DELETE /api/v1/summaries/:id".
func (s *Server) handleDeleteSummary(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := s.driver.Cancel(c.Context(), id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// projectJob builds the public JSON projection of a job. The in-process
// transcript handoff field is not part of the projection.
func projectJob(j *job.Job) fiber.Map {
	m := fiber.Map{
		"jobId":     j.ID,
		"status":    j.Status,
		"stage":     j.Stage,
		"createdAt": j.CreatedAt,
		"updatedAt": j.UpdatedAt,
		"meta":      projectMeta(j),
	}
	if j.Result != nil {
		m["result"] = j.Result
	}
	if j.Error != nil {
		m["error"] = j.Error
	}
	return m
}

// projectMeta builds the meta object spec.md §6 requires on both the POST
// cache-hit response and the GET-completed response, so a client can
// observe the transcript language actually resolved (spec.md §9).
func projectMeta(j *job.Job) fiber.Map {
	return fiber.Map{
		"title":          j.Input.Title,
		"transcriptLang": j.TranscriptContext.TranscriptLang,
		"availableLangs": j.TranscriptContext.AvailableLangs,
	}
}
