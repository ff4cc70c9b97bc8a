package render

import "github.com/boothworks/pipeline/internal/model"

// layer is a tagged union over the two things the engine composites on top
// of the background: a photo or a sticker. A slice of []interface{} with
// type switches would work just as well, but a closed sum type keeps the
// z-sort and the per-kind render calls in one place without reflection.
type layer struct {
	z        int
	order    int // declaration order, used as the sort tiebreak
	photo    *model.RuntimePhoto
	sticker  *model.RuntimeSticker
}

func photoLayer(p model.RuntimePhoto, order int) layer {
	return layer{z: p.Z, order: order, photo: &p}
}

func stickerLayer(s model.RuntimeSticker, order int) layer {
	return layer{z: s.Z, order: order, sticker: &s}
}

// buildLayers merges photos and stickers into a single z-ordered list.
// Photos are appended before stickers, so a photo and a sticker sharing
// the same z value keep the photo first once sorted — a stable sort on
// the merged slice preserves that declaration order for every other tie.
func buildLayers(photos []model.RuntimePhoto, stickers []model.RuntimeSticker) []layer {
	layers := make([]layer, 0, len(photos)+len(stickers))
	order := 0
	for _, p := range photos {
		layers = append(layers, photoLayer(p, order))
		order++
	}
	for _, s := range stickers {
		layers = append(layers, stickerLayer(s, order))
		order++
	}
	return layers
}
