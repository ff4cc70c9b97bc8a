package model

// RuntimeSpec is the normalized form produced by the manifest loader: every
// path is absolute, every optional field has its default applied. It is the
// only input the render engine accepts besides the raw image.
type RuntimeSpec struct {
	ManifestVersion int
	TemplateCode    string
	VersionSemver   string
	Output          RuntimeOutput
	Background      RuntimeBackground
	Photos          []RuntimePhoto
	Stickers        []RuntimeSticker
}

type RuntimeOutput struct {
	Width  int
	Height int
	Format string
}

type RuntimeBackground struct {
	Path string
}

type RuntimePhoto struct {
	ID     string
	Source string
	X, Y   int
	W, H   int
	Fit    string
	Z      int
}

type RuntimeSticker struct {
	ID      string
	Path    string
	X, Y    int
	W, H    int
	Rotate  float64
	Opacity float64
	Z       int
}
