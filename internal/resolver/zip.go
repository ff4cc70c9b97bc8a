package resolver

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/boothworks/pipeline/internal/apperror"
)

// extractZip extracts src into dst, rejecting any entry whose name would
// escape dst via ".." traversal or an absolute path. dst is recreated
// fresh; extraction is not atomic by itself — the caller publishes it via
// an atomic rename once this returns successfully.
func extractZip(src, dst string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return apperror.New(apperror.CodeTemplateExtractError, fmt.Sprintf("invalid zip file: %v", err), nil)
	}
	defer zr.Close()

	if err := os.RemoveAll(dst); err != nil {
		return apperror.New(apperror.CodeTemplateExtractError, fmt.Sprintf("failed to prepare extraction directory: %v", err), nil)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return apperror.New(apperror.CodeTemplateExtractError, fmt.Sprintf("failed to create extraction directory: %v", err), nil)
	}

	for _, f := range zr.File {
		if err := extractEntry(dst, f); err != nil {
			return apperror.New(apperror.CodeTemplateExtractError, fmt.Sprintf("failed to extract zip file: %v", err), nil)
		}
	}

	return nil
}

func extractEntry(dst string, f *zip.File) error {
	name := filepath.Clean(f.Name)
	if filepath.IsAbs(name) || strings.HasPrefix(name, ".."+string(filepath.Separator)) || name == ".." {
		return fmt.Errorf("zip entry escapes extraction root: %s", f.Name)
	}

	target := filepath.Join(dst, name)

	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}
