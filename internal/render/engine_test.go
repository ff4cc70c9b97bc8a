package render

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/boothworks/pipeline/internal/apperror"
	"github.com/boothworks/pipeline/internal/model"
)

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func TestRender_BackgroundAndPhoto(t *testing.T) {
	dir := t.TempDir()
	bgPath := filepath.Join(dir, "bg.png")
	writePNG(t, bgPath, 200, 200, color.NRGBA{255, 0, 0, 255})

	spec := &model.RuntimeSpec{
		Output:     model.RuntimeOutput{Width: 100, Height: 100},
		Background: model.RuntimeBackground{Path: bgPath},
		Photos: []model.RuntimePhoto{
			{ID: "p1", Source: model.PhotoSourceRaw, X: 10, Y: 10, W: 50, H: 50, Fit: model.FitCover, Z: 1},
		},
	}

	raw := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			raw.Set(x, y, color.NRGBA{0, 255, 0, 255})
		}
	}

	out, err := Render(spec, Sources{Raw: raw})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.Bounds().Dx() != 100 || out.Bounds().Dy() != 100 {
		t.Fatalf("unexpected canvas size: %v", out.Bounds())
	}

	// A corner far from the photo should show the red background.
	r, g, _, _ := out.At(5, 5).RGBA()
	if r == 0 || g != 0 {
		t.Errorf("expected red background at corner, got rgba=%v", out.At(5, 5))
	}

	// The photo region should show green.
	_, g2, _, _ := out.At(35, 35).RGBA()
	if g2 == 0 {
		t.Errorf("expected green photo at (35,35), got %v", out.At(35, 35))
	}
}

func TestRender_ZOrderPhotosBeforeStickersOnTie(t *testing.T) {
	dir := t.TempDir()
	bgPath := filepath.Join(dir, "bg.png")
	writePNG(t, bgPath, 50, 50, color.NRGBA{0, 0, 0, 255})

	stickerPath := filepath.Join(dir, "sticker.png")
	writePNG(t, stickerPath, 50, 50, color.NRGBA{0, 0, 255, 255})

	spec := &model.RuntimeSpec{
		Output:     model.RuntimeOutput{Width: 50, Height: 50},
		Background: model.RuntimeBackground{Path: bgPath},
		Photos: []model.RuntimePhoto{
			{ID: "p1", Source: model.PhotoSourceRaw, X: 0, Y: 0, W: 50, H: 50, Fit: model.FitCover, Z: 0},
		},
		Stickers: []model.RuntimeSticker{
			{ID: "s1", Path: stickerPath, X: 0, Y: 0, W: 50, H: 50, Opacity: 1.0, Z: 0},
		},
	}

	raw := image.NewNRGBA(image.Rect(0, 0, 50, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			raw.Set(x, y, color.NRGBA{255, 0, 0, 255})
		}
	}

	out, err := Render(spec, Sources{Raw: raw})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	// Same z: photo renders first, sticker (opaque blue) renders on top and wins.
	_, _, b, _ := out.At(25, 25).RGBA()
	if b == 0 {
		t.Errorf("expected sticker to win tie at z=0, got %v", out.At(25, 25))
	}
}

func TestRender_MissingStickerIsRenderError(t *testing.T) {
	dir := t.TempDir()
	bgPath := filepath.Join(dir, "bg.png")
	writePNG(t, bgPath, 20, 20, color.NRGBA{10, 10, 10, 255})

	spec := &model.RuntimeSpec{
		Output:     model.RuntimeOutput{Width: 20, Height: 20},
		Background: model.RuntimeBackground{Path: bgPath},
		Photos: []model.RuntimePhoto{
			{ID: "p1", Source: model.PhotoSourceRaw, X: 0, Y: 0, W: 20, H: 20, Fit: model.FitCover, Z: 0},
		},
		Stickers: []model.RuntimeSticker{
			{ID: "missing", Path: filepath.Join(dir, "nope.png"), X: 0, Y: 0, W: 10, H: 10, Opacity: 1.0, Z: 5},
		},
	}

	raw := image.NewNRGBA(image.Rect(0, 0, 20, 20))

	_, err := Render(spec, Sources{Raw: raw})
	if err == nil {
		t.Fatal("expected a RenderError for a sticker file missing at render time")
	}
	appErr, ok := apperror.As(err)
	if !ok || appErr.Code != apperror.CodeRenderFailed {
		t.Errorf("expected CodeRenderFailed, got %v", err)
	}
}

func TestFitOrFill_ContainLetterboxesTransparent(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 100, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 100; x++ {
			src.Set(x, y, color.NRGBA{255, 255, 255, 255})
		}
	}

	out := fitOrFill(src, 50, 50, fitModeFit)
	_, _, _, a := out.At(0, 0).RGBA()
	if a != 0 {
		t.Errorf("expected transparent letterbox corner, got alpha=%d", a)
	}
}
