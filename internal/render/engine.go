// Package render turns a model.RuntimeSpec and a raw input photo into the
// final composited image. It does not download, parse manifests, or
// persist anything — those are the resolver's, the manifest loader's, and
// the storage adapter's jobs respectively.
package render

import (
	"fmt"
	"image"
	"image/color"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/boothworks/pipeline/internal/apperror"
	"github.com/boothworks/pipeline/internal/model"
)

// Sources supplies the pixel data a photo layer can draw from. Raw is
// always present; Cutout may be nil when no cutout artifact was produced,
// in which case a photo declared source=cutout falls back to Raw.
type Sources struct {
	Raw    image.Image
	Cutout image.Image
}

// Render composites spec against sources and returns the final RGBA image.
func Render(spec *model.RuntimeSpec, sources Sources) (*image.NRGBA, error) {
	canvas := image.NewNRGBA(image.Rect(0, 0, spec.Output.Width, spec.Output.Height))

	if err := renderBackground(canvas, spec.Background); err != nil {
		return nil, err
	}

	layers := buildLayers(spec.Photos, spec.Stickers)
	sort.SliceStable(layers, func(i, j int) bool {
		if layers[i].z != layers[j].z {
			return layers[i].z < layers[j].z
		}
		return layers[i].order < layers[j].order
	})

	for _, l := range layers {
		switch {
		case l.photo != nil:
			if err := renderPhoto(canvas, *l.photo, sources); err != nil {
				return nil, err
			}
		case l.sticker != nil:
			if err := renderSticker(canvas, *l.sticker); err != nil {
				return nil, err
			}
		}
	}

	return canvas, nil
}

// renderBackground composites the template background over the canvas,
// resizing it to the canvas size. A dimension mismatch between the
// background asset and the output size is not an error: the background is
// stretched to fit, matching the reference renderer.
func renderBackground(canvas *image.NRGBA, bg model.RuntimeBackground) error {
	img, err := openRGBA(bg.Path)
	if err != nil {
		// The manifest loader already validated that this path exists;
		// reaching here means the file vanished or is unreadable between
		// validation and render, which we treat as a render failure.
		return apperror.New(apperror.CodeRenderFailed,
			fmt.Sprintf("failed to open background image: %v", err), nil)
	}

	b := canvas.Bounds()
	resized := imaging.Resize(img, b.Dx(), b.Dy(), imaging.Linear)
	compositeOver(canvas, resized, image.Pt(0, 0))
	return nil
}

func renderPhoto(canvas *image.NRGBA, p model.RuntimePhoto, sources Sources) error {
	src := sources.Raw
	if p.Source == model.PhotoSourceCutout && sources.Cutout != nil {
		src = sources.Cutout
	}
	if src == nil {
		return apperror.New(apperror.CodeRenderFailed,
			fmt.Sprintf("no source image available for photo %q", p.ID), nil)
	}

	mode := fitModeFill
	if p.Fit == model.FitContain {
		mode = fitModeFit
	}

	placed := fitOrFill(src, p.W, p.H, mode)
	compositeOver(canvas, placed, image.Pt(p.X, p.Y))
	return nil
}

// renderSticker composites a sticker asset over the canvas. By the time the
// render stage runs, the manifest loader's asset validation has already
// guaranteed every sticker path exists, so reaching a missing file here
// means it vanished between validation and render — treated as a
// RenderError, same as a vanished background (see renderBackground).
func renderSticker(canvas *image.NRGBA, s model.RuntimeSticker) error {
	img, err := openRGBA(s.Path)
	if err != nil {
		return apperror.New(apperror.CodeRenderFailed,
			fmt.Sprintf("failed to open sticker %q: %v", s.ID, err), nil)
	}

	if s.W > 0 && s.H > 0 {
		img = imaging.Resize(img, s.W, s.H, imaging.Linear)
	}

	if s.Rotate != 0 {
		// The reference renderer negates its rotate value before handing
		// it to a counter-clockwise-positive rotate primitive; imaging's
		// Rotate is counter-clockwise-positive too, so the same negation
		// carries over unchanged.
		img = imaging.Rotate(img, -s.Rotate, color.Transparent)
	}

	if s.Opacity < 1.0 {
		img = scaleAlpha(img, s.Opacity)
	}

	compositeOver(canvas, img, image.Pt(s.X, s.Y))
	return nil
}

func scaleAlpha(img *image.NRGBA, opacity float64) *image.NRGBA {
	out := image.NewNRGBA(img.Bounds())
	copy(out.Pix, img.Pix)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = uint8(float64(out.Pix[i]) * opacity)
	}
	return out
}

func openRGBA(path string) (*image.NRGBA, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	return imaging.Clone(img), nil
}
