// Package pipeline sequences the four core stages — template resolution,
// manifest loading, rendering, and storage — behind a single synchronous
// operation that never returns an error: every outcome, success or
// failure, is a model.JobResult.
package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"log"
	"time"

	"github.com/disintegration/imaging"

	"github.com/boothworks/pipeline/internal/apperror"
	"github.com/boothworks/pipeline/internal/manifest"
	"github.com/boothworks/pipeline/internal/model"
	"github.com/boothworks/pipeline/internal/render"
	"github.com/boothworks/pipeline/internal/resolver"
	"github.com/boothworks/pipeline/internal/storage"
)

// Request is the decoded body of POST /pipeline/v2/process.
type Request struct {
	TemplateCode   string
	VersionSemver  string
	DownloadURL    string
	ChecksumSha256 string
	RawPath        string
}

// Orchestrator wires the resolver, manifest loader, render engine, and
// storage adapter into the process(request) -> JobResult operation.
type Orchestrator struct {
	resolver *resolver.Resolver
	storage  storage.Client
	records  *RecordStore
}

func New(res *resolver.Resolver, store storage.Client, records *RecordStore) *Orchestrator {
	return &Orchestrator{resolver: res, storage: store, records: records}
}

// timer accumulates per-stage durations into a model.Timing.
type timer struct {
	start time.Time
	steps []model.StepTiming
}

func newTimer() *timer {
	return &timer{start: time.Now()}
}

func (t *timer) record(name string, stageStart time.Time) {
	t.steps = append(t.steps, model.StepTiming{
		Name: name,
		Ms:   time.Since(stageStart).Milliseconds(),
	})
}

func (t *timer) timing() model.Timing {
	return model.Timing{
		TotalMs: time.Since(t.start).Milliseconds(),
		Steps:   t.steps,
	}
}

// Process runs the full pipeline for one request. It never returns a Go
// error: every failure is mapped into a Failure JobResult before this
// function returns, so the HTTP handler always has a 200-worthy body.
func (o *Orchestrator) Process(ctx context.Context, req Request) *model.JobResult {
	jobID, err := newJobID(time.Now().UnixMilli())
	if err != nil {
		return o.finish(model.Failure("", apperror.New(apperror.CodeInternalError, "failed to generate job id", nil), newTimer().timing(), nil))
	}

	t := newTimer()
	var notes []model.Note

	stageStart := time.Now()
	res, err := o.resolver.Resolve(ctx, req.TemplateCode, req.VersionSemver, req.DownloadURL, req.ChecksumSha256)
	t.record(model.StepTemplateResolve, stageStart)
	if err != nil {
		return o.finish(toFailure(jobID, err, t.timing(), notes))
	}
	if res.FromCache {
		notes = append(notes, model.Note{Code: model.NoteTemplateCached, Message: "template served from cache"})
	} else {
		notes = append(notes, model.Note{Code: model.NoteTemplateDownloaded, Message: "template downloaded and extracted"})
	}

	stageStart = time.Now()
	doc, err := manifest.Load(res.Dir)
	if err == nil {
		err = manifest.Validate(doc)
	}
	var spec *model.RuntimeSpec
	if err == nil {
		spec = manifest.ToRuntimeSpec(doc, res.Dir)
		err = manifest.ValidateAssets(spec)
	}
	t.record(model.StepManifestLoad, stageStart)
	if err != nil {
		if appErr, ok := apperror.As(err); ok && appErr.Code == apperror.CodeAssetNotFound {
			notes = append(notes, model.Note{Code: model.NoteAssetNotFound, Message: appErr.Message, Detail: appErr.Detail})
		}
		return o.finish(toFailure(jobID, err, t.timing(), notes))
	}

	stageStart = time.Now()
	raw, err := imaging.Open(req.RawPath)
	if err != nil {
		t.record(model.StepRender, stageStart)
		return o.finish(toFailure(jobID, apperror.New(apperror.CodeRenderFailed,
			"failed to decode raw image: "+err.Error(), nil), t.timing(), notes))
	}
	rendered, err := render.Render(spec, render.Sources{Raw: raw})
	t.record(model.StepRender, stageStart)
	if err != nil {
		return o.finish(toFailure(jobID, err, t.timing(), notes))
	}

	stageStart = time.Now()
	outputs, err := o.store(ctx, jobID, rendered)
	t.record(model.StepStore, stageStart)
	if err != nil {
		return o.finish(toFailure(jobID, err, t.timing(), notes))
	}
	notes = append(notes, model.Note{Code: model.NotePreviewEqualsFinal, Message: "preview and final outputs are identical bytes"})

	tmpl := model.TemplateInfo{
		TemplateCode:    spec.TemplateCode,
		VersionSemver:   spec.VersionSemver,
		ManifestVersion: spec.ManifestVersion,
	}
	return o.finish(model.Success(jobID, tmpl, *outputs, t.timing(), notes, nil))
}

// store persists the same rendered bytes as both preview and final, per
// the initial-implementation allowance in spec.md §4.4 step 6. Output is
// always PNG-encoded regardless of the manifest's declared output.format —
// the storage URL contract (§6) pins the suffix to a literal ".png".
func (o *Orchestrator) store(ctx context.Context, jobID string, img image.Image) (*model.Outputs, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, apperror.New(apperror.CodeStoreFailed, "failed to encode output image: "+err.Error(), nil)
	}
	bodyBytes := buf.Bytes()

	previewURL, err := o.storage.Put(ctx, jobID, storage.KindPreview, bytes.NewReader(bodyBytes), "image/png")
	if err != nil {
		return nil, apperror.New(apperror.CodeStoreFailed, "failed to store preview: "+err.Error(), nil)
	}

	finalURL, err := o.storage.Put(ctx, jobID, storage.KindFinal, bytes.NewReader(bodyBytes), "image/png")
	if err != nil {
		return nil, apperror.New(apperror.CodeStoreFailed, "failed to store final output: "+err.Error(), nil)
	}

	return &model.Outputs{PreviewURL: previewURL, FinalURL: finalURL}, nil
}

// toFailure maps any error the pipeline stages raise into a Failure
// JobResult. Errors that are not *apperror.Error (a bug in a stage, not a
// modeled failure) fall back to INTERNAL_ERROR so nothing ever escapes
// unmapped.
func toFailure(jobID string, err error, timing model.Timing, notes []model.Note) *model.JobResult {
	appErr, ok := apperror.As(err)
	if !ok {
		appErr = apperror.New(apperror.CodeInternalError, "an unexpected error occurred", nil)
	}
	return model.Failure(jobID, appErr, timing, notes)
}

// finish persists the result to the supplemental job-record store and
// returns it unchanged. Persistence failures are logged, not surfaced —
// the synchronous response was already computed correctly.
func (o *Orchestrator) finish(result *model.JobResult) *model.JobResult {
	if o.records == nil {
		return result
	}
	if err := o.records.Save(context.Background(), result); err != nil {
		log.Printf("pipeline: failed to persist job record %s: %v", result.JobID, err)
	}
	return result
}
