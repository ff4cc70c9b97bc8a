// Package handler adapts the pipeline orchestrator to Fiber's request/
// response cycle. It is the only layer that knows about HTTP — everything
// it calls into works with plain Go types.
package handler

import (
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/boothworks/pipeline/internal/apperror"
	"github.com/boothworks/pipeline/internal/model"
	"github.com/boothworks/pipeline/internal/pipeline"
	"github.com/boothworks/pipeline/pkg/response"
)

// PipelineHandler exposes the core's sole entry point plus the
// supplemental, read-only job lookup endpoint.
type PipelineHandler struct {
	orchestrator *pipeline.Orchestrator
	records      *pipeline.RecordStore
	validator    *validator.Validate
}

func NewPipelineHandler(o *pipeline.Orchestrator, records *pipeline.RecordStore, v *validator.Validate) *PipelineHandler {
	return &PipelineHandler{orchestrator: o, records: records, validator: v}
}

// Process handles POST /pipeline/v2/process. This handler never answers
// anything but HTTP 200 — even a malformed body becomes a Failure
// JobResult rather than a 4xx. A request rejected by the route's rate
// limiter never reaches this handler and gets a 429 with the generic
// error envelope instead.
func (h *PipelineHandler) Process(c *fiber.Ctx) error {
	var req model.ProcessRequest
	if err := c.BodyParser(&req); err != nil {
		return c.JSON(badRequestResult("failed to parse request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(badRequestResult(firstValidationMessage(err)))
	}
	if !filepath.IsAbs(req.RawPath) {
		return c.JSON(badRequestResult("rawPath must be an absolute local path"))
	}

	result := h.orchestrator.Process(c.Context(), pipeline.Request{
		TemplateCode:   req.TemplateCode,
		VersionSemver:  req.VersionSemver,
		DownloadURL:    req.DownloadURL,
		ChecksumSha256: req.ChecksumSha256,
		RawPath:        req.RawPath,
	})
	return c.JSON(result)
}

// GetJob handles GET /pipeline/v2/jobs/:jobId. It is read-only and never
// re-runs the pipeline; a miss falls back to the generic error envelope
// (not a JobResult) because there is no job to describe.
func (h *PipelineHandler) GetJob(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.NotFound(c, "job not found")
	}

	result, err := h.records.Get(c.Context(), jobID)
	if err != nil {
		return response.ServiceError(c, "failed to look up job record")
	}
	if result == nil {
		return response.NotFound(c, "job not found")
	}
	return c.JSON(result)
}

// badRequestResult builds a Failure JobResult for requests that never
// reached the orchestrator. jobId is empty because none was ever minted.
func badRequestResult(message string) *model.JobResult {
	return model.Failure("", apperror.New(apperror.CodeInternalError, message, nil), model.Timing{}, nil)
}

func firstValidationMessage(err error) string {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		e := verrs[0]
		return "invalid field " + e.Field() + ": failed " + e.Tag()
	}
	return "request validation failed"
}
