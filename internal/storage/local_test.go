package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalClient_PutWritesFileAndReturnsURL(t *testing.T) {
	dir := t.TempDir()
	c, err := NewLocalClient(dir, "http://localhost:9002")
	if err != nil {
		t.Fatalf("NewLocalClient: %v", err)
	}

	url, err := c.Put(context.Background(), "job_123", KindFinal, strings.NewReader("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	want := "http://localhost:9002/files/final/job_123/final.png"
	if url != want {
		t.Errorf("expected url %s, got %s", want, url)
	}

	data, err := os.ReadFile(filepath.Join(dir, "files", "final", "job_123", "final.png"))
	if err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("unexpected file contents: %q", data)
	}
}

func TestObjectKey(t *testing.T) {
	if objectKey("job_1", KindPreview) != "files/preview/job_1/preview.png" {
		t.Errorf("unexpected preview key: %s", objectKey("job_1", KindPreview))
	}
	if objectKey("job_1", KindFinal) != "files/final/job_1/final.png" {
		t.Errorf("unexpected final key: %s", objectKey("job_1", KindFinal))
	}
}
