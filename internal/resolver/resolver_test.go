package resolver

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boothworks/pipeline/internal/apperror"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func checksumOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestResolve_DownloadsAndCaches(t *testing.T) {
	zipBytes := buildZip(t, map[string]string{
		"manifest.json": `{"manifestVersion":1}`,
		"assets/bg.png": "fake-png-bytes",
	})
	checksum := checksumOf(zipBytes)

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write(zipBytes)
	}))
	defer srv.Close()

	r, err := New(t.TempDir(), 5*time.Second, 30*time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := r.Resolve(context.Background(), "tpl_001", "0.1.0", srv.URL, checksum)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.FromCache {
		t.Error("expected first resolve to be a cache miss")
	}
	if !fileExists(filepath.Join(res.Dir, "manifest.json")) {
		t.Error("expected manifest.json in resolved dir")
	}

	res2, err := r.Resolve(context.Background(), "tpl_001", "0.1.0", srv.URL, checksum)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if !res2.FromCache {
		t.Error("expected second resolve to hit the cache")
	}
	if hits != 1 {
		t.Errorf("expected exactly 1 download, got %d", hits)
	}
}

func TestResolve_ChecksumMismatch(t *testing.T) {
	zipBytes := buildZip(t, map[string]string{"manifest.json": "{}"})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(zipBytes)
	}))
	defer srv.Close()

	r, err := New(t.TempDir(), 5*time.Second, 30*time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = r.Resolve(context.Background(), "tpl_001", "0.1.0", srv.URL, "0000000000000000000000000000000000000000000000000000000000000000")
	if err == nil {
		t.Fatal("expected checksum mismatch error")
	}
	appErr, ok := apperror.As(err)
	if !ok || appErr.Code != apperror.CodeTemplateChecksumMismatch {
		t.Errorf("expected CodeTemplateChecksumMismatch, got %v", err)
	}
}

func TestResolve_MissingManifestIsInvalid(t *testing.T) {
	zipBytes := buildZip(t, map[string]string{"assets/bg.png": "data"})
	checksum := checksumOf(zipBytes)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(zipBytes)
	}))
	defer srv.Close()

	r, err := New(t.TempDir(), 5*time.Second, 30*time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = r.Resolve(context.Background(), "tpl_001", "0.1.0", srv.URL, checksum)
	if err == nil {
		t.Fatal("expected invalid template error")
	}
	appErr, ok := apperror.As(err)
	if !ok || appErr.Code != apperror.CodeTemplateInvalid {
		t.Errorf("expected CodeTemplateInvalid, got %v", err)
	}
}

func TestResolve_ConcurrentCallersDownloadOnce(t *testing.T) {
	zipBytes := buildZip(t, map[string]string{"manifest.json": "{}"})
	checksum := checksumOf(zipBytes)

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write(zipBytes)
	}))
	defer srv.Close()

	r, err := New(t.TempDir(), 5*time.Second, 30*time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.Resolve(context.Background(), "tpl_concurrent", "1.0.0", srv.URL, checksum)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("goroutine %d: %v", i, err)
		}
	}
	if hits != 1 {
		t.Errorf("expected exactly 1 download across %d concurrent callers, got %d", n, hits)
	}
}

func TestExtractZip_RejectsPathTraversal(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("../../evil.txt")
	_, _ = w.Write([]byte("escape"))
	_ = zw.Close()

	src := filepath.Join(t.TempDir(), "evil.zip")
	if err := os.WriteFile(src, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write zip: %v", err)
	}

	dst := filepath.Join(t.TempDir(), "extracted")
	err := extractZip(src, dst)
	if err == nil {
		t.Fatal("expected traversal rejection")
	}
}
