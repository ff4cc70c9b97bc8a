package model

import "github.com/boothworks/pipeline/internal/apperror"

// Step names, drawn from the closed set named in spec.md §3. A step is
// appended to Timing.Steps only if that stage was actually entered.
const (
	StepTemplateResolve = "TEMPLATE_RESOLVE"
	StepManifestLoad    = "MANIFEST_LOAD"
	StepRender          = "RENDER"
	StepStore           = "STORE"
)

// StepTiming records one stage's wall-clock duration.
type StepTiming struct {
	Name string `json:"name"`
	Ms   int64  `json:"ms"`
}

// Timing is the per-request timing envelope.
type Timing struct {
	TotalMs int64        `json:"totalMs"`
	Steps   []StepTiming `json:"steps"`
}

// Note is an append-only, informational observation. Notes never change
// JobResult.Ok; they exist purely for operators and client diagnostics.
type Note struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Detail  map[string]interface{} `json:"detail,omitempty"`
}

const (
	NoteTemplateCached     = "TEMPLATE_CACHED"
	NoteTemplateDownloaded = "TEMPLATE_DOWNLOADED"
	NotePreviewEqualsFinal = "PREVIEW_EQUALS_FINAL"
	NoteAssetNotFound      = "ASSET_NOT_FOUND"
)

// TemplateInfo identifies the template a job resolved against.
type TemplateInfo struct {
	TemplateCode    string `json:"templateCode"`
	VersionSemver   string `json:"versionSemver"`
	ManifestVersion int    `json:"manifestVersion"`
}

// Outputs carries the two URLs the storage adapter minted.
type Outputs struct {
	PreviewURL string `json:"previewUrl"`
	FinalURL   string `json:"finalUrl"`
}

// ErrorDetail is the failure branch of a JobResult.
type ErrorDetail struct {
	Code      apperror.Code          `json:"code"`
	Message   string                 `json:"message"`
	Retryable bool                   `json:"retryable"`
	Detail    map[string]interface{} `json:"detail,omitempty"`
}

// JobResult is the single response shape for POST /pipeline/v2/process.
// Exactly one of (Template, Outputs) or Error is populated, selected by Ok.
type JobResult struct {
	Ok       bool          `json:"ok"`
	JobID    string        `json:"jobId"`
	Template *TemplateInfo `json:"template,omitempty"`
	Outputs  *Outputs      `json:"outputs,omitempty"`
	Timing   Timing        `json:"timing"`
	Warnings []string      `json:"warnings,omitempty"`
	Notes    []Note        `json:"notes,omitempty"`
	Error    *ErrorDetail  `json:"error,omitempty"`
}

// Success builds the success envelope. Ok is always true and FinalURL is
// always non-empty — the invariant from spec.md §3 is enforced by
// construction, not checked after the fact.
func Success(jobID string, tmpl TemplateInfo, outputs Outputs, timing Timing, notes []Note, warnings []string) *JobResult {
	if outputs.FinalURL == "" {
		panic("model: Success requires a non-empty finalUrl")
	}
	return &JobResult{
		Ok:       true,
		JobID:    jobID,
		Template: &tmpl,
		Outputs:  &outputs,
		Timing:   timing,
		Warnings: warnings,
		Notes:    notes,
	}
}

// Failure builds the failure envelope from a typed apperror.Error.
func Failure(jobID string, appErr *apperror.Error, timing Timing, notes []Note) *JobResult {
	return &JobResult{
		Ok:     false,
		JobID:  jobID,
		Timing: timing,
		Notes:  notes,
		Error: &ErrorDetail{
			Code:      appErr.Code,
			Message:   appErr.Message,
			Retryable: appErr.Retryable(),
			Detail:    appErr.Detail,
		},
	}
}
