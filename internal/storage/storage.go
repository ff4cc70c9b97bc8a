// Package storage is the boundary adapter between a rendered job's output
// bytes and wherever they end up being servable from: an S3-compatible
// bucket in production, or a local directory tree for development and
// single-node deployments.
package storage

import (
	"context"
	"io"
)

// Kind distinguishes a job's two persisted artifacts.
type Kind string

const (
	KindPreview Kind = "preview"
	KindFinal   Kind = "final"
)

// Client uploads one job artifact and returns the public URL it is
// reachable at. The returned URL always has the form
// {publicBaseUrl}/files/{kind}/{jobId}/{kind}.png regardless of backend —
// that shape is a system boundary the caller depends on. The extension is
// always "png" because the orchestrator always PNG-encodes the rendered
// output, independent of whatever the manifest's optional output.format
// declares.
type Client interface {
	Put(ctx context.Context, jobID string, kind Kind, body io.Reader, contentType string) (string, error)
}

// objectKey builds the backend-agnostic key files/{kind}/{jobId}/{kind}.png.
func objectKey(jobID string, kind Kind) string {
	name := string(kind) + ".png"
	return "files/" + string(kind) + "/" + jobID + "/" + name
}
