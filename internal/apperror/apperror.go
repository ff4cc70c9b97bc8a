// Package apperror defines the closed error taxonomy shared by every stage
// of the pipeline. Every failure a caller can observe carries one of these
// codes; nothing propagates past the orchestrator unmapped.
package apperror

import "fmt"

// Code is a member of the closed error taxonomy. No other value may appear
// in a JobResult's error.code field.
type Code string

const (
	CodeTemplateDownloadFailed   Code = "TEMPLATE_DOWNLOAD_FAILED"
	CodeTemplateChecksumMismatch Code = "TEMPLATE_CHECKSUM_MISMATCH"
	CodeTemplateExtractError     Code = "TEMPLATE_EXTRACT_ERROR"
	CodeTemplateInvalid          Code = "TEMPLATE_INVALID"
	CodeManifestLoadError        Code = "MANIFEST_LOAD_ERROR"
	CodeManifestInvalid          Code = "MANIFEST_INVALID"
	CodeAssetNotFound            Code = "ASSET_NOT_FOUND"
	CodeRenderFailed             Code = "RENDER_FAILED"
	CodeStoreFailed              Code = "STORE_FAILED"
	CodeInternalError            Code = "INTERNAL_ERROR"
)

// retryable is the authoritative mapping named in spec.md §7. A code absent
// from this map is a bug, not a legal state — Retryable panics on a miss so
// the gap surfaces in tests instead of silently defaulting.
var retryable = map[Code]bool{
	CodeTemplateDownloadFailed:   true,
	CodeTemplateChecksumMismatch: false,
	CodeTemplateExtractError:     false,
	CodeTemplateInvalid:          false,
	CodeManifestLoadError:        false,
	CodeManifestInvalid:          false,
	CodeAssetNotFound:            false,
	CodeRenderFailed:             false,
	CodeStoreFailed:              true,
	CodeInternalError:            false,
}

// Retryable reports whether re-issuing the identical request might succeed.
func Retryable(code Code) bool {
	r, ok := retryable[code]
	if !ok {
		panic(fmt.Sprintf("apperror: %q missing from retryability table", code))
	}
	return r
}

// Error is the error type the resolver, manifest loader and render engine
// raise. The storage adapter returns plain errors, which the orchestrator
// wraps as STORE_FAILED. The orchestrator is the only place that unwraps it
// into a JobResult failure envelope.
type Error struct {
	Code    Code
	Message string
	Detail  map[string]interface{}
}

func New(code Code, message string, detail map[string]interface{}) *Error {
	return &Error{Code: code, Message: message, Detail: detail}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Retryable reports the retryability of this error's code.
func (e *Error) Retryable() bool {
	return Retryable(e.Code)
}

// As recovers the structured error when err is itself an *Error. It is a
// plain type assertion: an *Error wrapped inside another error is not found.
func As(err error) (*Error, bool) {
	ae, ok := err.(*Error)
	return ae, ok
}
