package render

import (
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
)

// fitMode mirrors the two placement strategies a photo layer can request.
type fitMode int

const (
	fitModeFill fitMode = iota // cover: scale to fully cover, center-crop overflow
	fitModeFit                 // contain: scale to fit inside, letterbox with transparency
)

// fitOrFill scales src to targetW x targetH using the given mode and returns
// a fully-sized RGBA canvas with src centered on it. For fill, the scaled
// image is at least as large as the target in both dimensions and overflow
// is clipped by the canvas bounds; for fit, the scaled image is at most as
// large as the target and the remainder is transparent.
func fitOrFill(src image.Image, targetW, targetH int, mode fitMode) *image.NRGBA {
	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()

	var scale float64
	scaleFit := minFloat(float64(targetW)/float64(sw), float64(targetH)/float64(sh))
	scaleFill := maxFloat(float64(targetW)/float64(sw), float64(targetH)/float64(sh))
	if mode == fitModeFill {
		scale = scaleFill
	} else {
		scale = scaleFit
	}

	nw := int(float64(sw) * scale)
	nh := int(float64(sh) * scale)
	resized := imaging.Resize(src, nw, nh, imaging.Linear)

	canvas := image.NewNRGBA(image.Rect(0, 0, targetW, targetH))
	x := (targetW - nw) / 2
	y := (targetH - nh) / 2
	compositeOver(canvas, resized, image.Pt(x, y))

	return canvas
}

// compositeOver alpha-composites src onto dst at pos, clipped to dst's
// bounds on every side (pos may be negative when src overflows dst).
func compositeOver(dst *image.NRGBA, src image.Image, pos image.Point) {
	sb := src.Bounds()
	destRect := image.Rect(pos.X, pos.Y, pos.X+sb.Dx(), pos.Y+sb.Dy())
	draw.Draw(dst, destRect, src, sb.Min, draw.Over)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
