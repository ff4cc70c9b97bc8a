package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalClient writes output bytes under a base directory and serves them
// back through a caller-supplied public base URL, for development and
// single-node deployments that have no object store configured.
type LocalClient struct {
	baseDir       string
	publicBaseURL string
}

// NewLocalClient creates a LocalClient rooted at baseDir, creating it if
// absent. publicBaseURL is the externally-reachable prefix the files are
// mounted under (e.g. a static file route on this same server).
func NewLocalClient(baseDir, publicBaseURL string) (*LocalClient, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create base dir: %w", err)
	}
	return &LocalClient{
		baseDir:       baseDir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// Put writes the artifact to {baseDir}/{key} and returns
// {publicBaseURL}/{key}, where key is files/{kind}/{jobId}/{kind}.png.
// The server's static file route serves baseDir rooted at /.
func (c *LocalClient) Put(ctx context.Context, jobID string, kind Kind, body io.Reader, contentType string) (string, error) {
	key := objectKey(jobID, kind)
	dst := filepath.Join(c.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("storage: create output dir for %s: %w", key, err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("storage: create %s: %w", key, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return "", fmt.Errorf("storage: write %s: %w", key, err)
	}

	return c.publicBaseURL + "/" + key, nil
}
