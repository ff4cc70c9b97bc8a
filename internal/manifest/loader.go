// Package manifest loads a template's manifest.json, validates its
// structure, and normalizes it into a model.RuntimeSpec the render engine
// can consume directly.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/boothworks/pipeline/internal/apperror"
	"github.com/boothworks/pipeline/internal/model"
)

const manifestFileName = "manifest.json"

// Load reads and parses manifest.json from templateDir without validating
// its contents.
func Load(templateDir string) (*model.ManifestDoc, error) {
	path := filepath.Join(templateDir, manifestFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperror.New(apperror.CodeManifestLoadError,
			fmt.Sprintf("failed to read %s: %v", path, err), nil)
	}

	var doc model.ManifestDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperror.New(apperror.CodeManifestLoadError,
			fmt.Sprintf("failed to parse %s: %v", path, err), parseErrorDetail(data, err))
	}

	return &doc, nil
}

// parseErrorDetail carries the parser position of a JSON syntax error, so a
// MANIFEST_LOAD_ERROR's detail lets a caller locate the offending byte
// instead of only repeating the error string already in message.
func parseErrorDetail(data []byte, err error) map[string]interface{} {
	syn, ok := err.(*json.SyntaxError)
	if !ok {
		return nil
	}
	line, col := lineAndColumn(data, syn.Offset)
	return map[string]interface{}{
		"offset": syn.Offset,
		"line":   line,
		"column": col,
	}
}

// lineAndColumn converts a byte offset into a 1-based (line, column) pair.
func lineAndColumn(data []byte, offset int64) (line, column int) {
	line, column = 1, 1
	for i := int64(0); i < offset && i < int64(len(data)); i++ {
		if data[i] == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}

// Validate checks manifest structure field by field, in the same order and
// with the same presence-then-type semantics as the reference loader:
// required fields must be present and non-zero, optional fields may be
// absent but must be well-typed when present.
func Validate(doc *model.ManifestDoc) error {
	if doc.ManifestVersion == nil || *doc.ManifestVersion != 1 {
		return invalid("manifestVersion must be 1")
	}
	if doc.TemplateCode == nil || strings.TrimSpace(*doc.TemplateCode) == "" {
		return invalid("templateCode is required and must be a non-empty string")
	}
	if doc.VersionSemver == nil || strings.TrimSpace(*doc.VersionSemver) == "" {
		return invalid("versionSemver is required and must be a non-empty string")
	}

	if doc.Output == nil {
		return invalid("output is required")
	}
	if doc.Output.Width == nil || *doc.Output.Width <= 0 {
		return invalid("output.width is required and must be a positive integer")
	}
	if doc.Output.Height == nil || *doc.Output.Height <= 0 {
		return invalid("output.height is required and must be a positive integer")
	}
	if _, err := decodeOptionalString(doc.Output.Format, "output.format"); err != nil {
		return err
	}

	if doc.Assets != nil {
		if _, err := decodeOptionalString(doc.Assets.BasePath, "assets.basePath"); err != nil {
			return err
		}
	}

	if doc.Compose == nil {
		return invalid("compose is required")
	}
	if doc.Compose.Background == nil || strings.TrimSpace(*doc.Compose.Background) == "" {
		return invalid("compose.background is required and must be a non-empty string")
	}
	if len(doc.Compose.Photos) < 1 {
		return invalid("compose.photos is required and must contain at least one photo")
	}
	for i, p := range doc.Compose.Photos {
		if p.ID == nil || strings.TrimSpace(*p.ID) == "" {
			return invalid(fmt.Sprintf("compose.photos[%d].id is required", i))
		}
		if p.Source == nil || (*p.Source != model.PhotoSourceRaw && *p.Source != model.PhotoSourceCutout) {
			return invalid(fmt.Sprintf("compose.photos[%d].source must be %q or %q", i, model.PhotoSourceRaw, model.PhotoSourceCutout))
		}
		if p.W == nil || *p.W <= 0 {
			return invalid(fmt.Sprintf("compose.photos[%d].w must be a positive integer", i))
		}
		if p.H == nil || *p.H <= 0 {
			return invalid(fmt.Sprintf("compose.photos[%d].h must be a positive integer", i))
		}
		if p.Fit != nil && *p.Fit != model.FitCover && *p.Fit != model.FitContain {
			return invalid(fmt.Sprintf("compose.photos[%d].fit must be %q or %q", i, model.FitCover, model.FitContain))
		}
	}
	for i, s := range doc.Compose.Stickers {
		if s.ID == nil || strings.TrimSpace(*s.ID) == "" {
			return invalid(fmt.Sprintf("compose.stickers[%d].id is required", i))
		}
		if s.Src == nil || strings.TrimSpace(*s.Src) == "" {
			return invalid(fmt.Sprintf("compose.stickers[%d].src is required", i))
		}
		if s.W == nil || *s.W <= 0 {
			return invalid(fmt.Sprintf("compose.stickers[%d].w must be a positive integer", i))
		}
		if s.H == nil || *s.H <= 0 {
			return invalid(fmt.Sprintf("compose.stickers[%d].h must be a positive integer", i))
		}
		if s.Opacity != nil && (*s.Opacity < 0 || *s.Opacity > 1) {
			return invalid(fmt.Sprintf("compose.stickers[%d].opacity must be in [0,1]", i))
		}
	}

	return nil
}

func invalid(msg string) error {
	return apperror.New(apperror.CodeManifestInvalid, msg, nil)
}

// decodeOptionalString decodes an optional raw JSON field that must be a
// string when present. An absent key or an explicit JSON null both count as
// absent; any other non-string JSON value is a MANIFEST_INVALID naming
// fieldPath, matching spec.md §4.2's "if present is a string" checks for
// output.format and assets.basePath.
func decodeOptionalString(raw json.RawMessage, fieldPath string) (*string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, invalid(fmt.Sprintf("%s must be a string", fieldPath))
	}
	return &s, nil
}

// ToRuntimeSpec normalizes a validated ManifestDoc into absolute paths and
// defaulted values. Validate must be called first — ToRuntimeSpec does not
// re-check required-field presence or re-validate optional field types.
func ToRuntimeSpec(doc *model.ManifestDoc, templateDir string) *model.RuntimeSpec {
	basePath := "assets"
	if doc.Assets != nil {
		if s, _ := decodeOptionalString(doc.Assets.BasePath, "assets.basePath"); s != nil && *s != "" {
			basePath = *s
		}
	}
	assetsDir := filepath.Join(templateDir, basePath)

	format := "png"
	if s, _ := decodeOptionalString(doc.Output.Format, "output.format"); s != nil && *s != "" {
		format = *s
	}

	spec := &model.RuntimeSpec{
		ManifestVersion: *doc.ManifestVersion,
		TemplateCode:    *doc.TemplateCode,
		VersionSemver:   *doc.VersionSemver,
		Output: model.RuntimeOutput{
			Width:  *doc.Output.Width,
			Height: *doc.Output.Height,
			Format: format,
		},
		Background: model.RuntimeBackground{
			Path: filepath.Join(assetsDir, *doc.Compose.Background),
		},
	}

	for _, p := range doc.Compose.Photos {
		fit := model.FitCover
		if p.Fit != nil {
			fit = *p.Fit
		}
		z := 0
		if p.Z != nil {
			z = *p.Z
		}
		spec.Photos = append(spec.Photos, model.RuntimePhoto{
			ID:     *p.ID,
			Source: *p.Source,
			X:      intOrZero(p.X),
			Y:      intOrZero(p.Y),
			W:      intOrZero(p.W),
			H:      intOrZero(p.H),
			Fit:    fit,
			Z:      z,
		})
	}

	for _, s := range doc.Compose.Stickers {
		rotate := 0.0
		if s.Rotate != nil {
			rotate = *s.Rotate
		}
		opacity := 1.0
		if s.Opacity != nil {
			opacity = *s.Opacity
		}
		z := 0
		if s.Z != nil {
			z = *s.Z
		}

		// assets/-prefixed src is relative to the template root, not the
		// assets base path.
		var path string
		if strings.HasPrefix(*s.Src, "assets/") {
			path = filepath.Join(templateDir, *s.Src)
		} else {
			path = filepath.Join(assetsDir, *s.Src)
		}

		spec.Stickers = append(spec.Stickers, model.RuntimeSticker{
			ID:      *s.ID,
			Path:    path,
			X:       intOrZero(s.X),
			Y:       intOrZero(s.Y),
			W:       intOrZero(s.W),
			H:       intOrZero(s.H),
			Rotate:  rotate,
			Opacity: opacity,
			Z:       z,
		})
	}

	return spec
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// ValidateAssets checks that every file the runtime spec references
// actually exists on disk: the background, then each sticker in order.
// Missing photo sources are not checked here — a photo's source is the
// caller-supplied raw/cutout image, not a template asset.
func ValidateAssets(spec *model.RuntimeSpec) error {
	if !fileExists(spec.Background.Path) {
		return apperror.New(apperror.CodeAssetNotFound,
			fmt.Sprintf("background asset not found: %s", spec.Background.Path),
			map[string]interface{}{"path": spec.Background.Path})
	}
	for _, s := range spec.Stickers {
		if !fileExists(s.Path) {
			return apperror.New(apperror.CodeAssetNotFound,
				fmt.Sprintf("sticker asset not found for sticker %q: %s", s.ID, s.Path),
				map[string]interface{}{"stickerId": s.ID, "path": s.Path})
		}
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
