package model

import "encoding/json"

// ManifestDoc is the loosely-typed shape of manifest.json as parsed by
// encoding/json, before structural validation. Fields are pointers where
// the distinction between "absent" and "present but zero" matters for
// validation (manifest.go in the reference implementation checks presence
// before type, and we need the same two-step check here).
type ManifestDoc struct {
	ManifestVersion *int             `json:"manifestVersion"`
	TemplateCode    *string          `json:"templateCode"`
	VersionSemver   *string          `json:"versionSemver"`
	Output          *ManifestOutput  `json:"output"`
	Assets          *ManifestAssets  `json:"assets"`
	Compose         *ManifestCompose `json:"compose"`
}

// Format and BasePath are kept as raw JSON rather than *string: spec.md
// §4.2 requires these optional fields to be *validated* as strings with a
// MANIFEST_INVALID error naming the field, not rejected one layer up as a
// MANIFEST_LOAD_ERROR when encoding/json's own type coercion fails first.
type ManifestOutput struct {
	Width  *int            `json:"width"`
	Height *int            `json:"height"`
	Format json.RawMessage `json:"format"`
}

type ManifestAssets struct {
	BasePath json.RawMessage `json:"basePath"`
}

type ManifestCompose struct {
	Background *string           `json:"background"`
	Photos     []ManifestPhoto   `json:"photos"`
	Stickers   []ManifestSticker `json:"stickers"`
}

type ManifestPhoto struct {
	ID     *string `json:"id"`
	Source *string `json:"source"`
	X      *int    `json:"x"`
	Y      *int    `json:"y"`
	W      *int    `json:"w"`
	H      *int    `json:"h"`
	Fit    *string `json:"fit"`
	Z      *int    `json:"z"`
}

type ManifestSticker struct {
	ID      *string  `json:"id"`
	Src     *string  `json:"src"`
	X       *int     `json:"x"`
	Y       *int     `json:"y"`
	W       *int     `json:"w"`
	H       *int     `json:"h"`
	Rotate  *float64 `json:"rotate"`
	Opacity *float64 `json:"opacity"`
	Z       *int     `json:"z"`
}

const (
	PhotoSourceRaw    = "raw"
	PhotoSourceCutout = "cutout"

	FitCover   = "cover"
	FitContain = "contain"
)
