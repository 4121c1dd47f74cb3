package imageutil

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

type disposal int

const (
	disposeNone disposal = iota
	disposeBackground
	disposePrevious
)

// patch is one animation frame: a sub-image placed at pos on the canvas.
type patch struct {
	img image.Image
	pos image.Point
	// blend composites over the canvas instead of replacing its pixels.
	blend   bool
	dispose disposal
}

// composite renders each patch onto a canvas of the given size and returns a
// snapshot of the canvas after every patch. Disposal is applied after the
// snapshot is taken.
func composite(width, height int, background color.Color, patches []patch) []*image.NRGBA {
	canvas := imaging.New(width, height, background)
	frames := make([]*image.NRGBA, 0, len(patches))
	for _, p := range patches {
		previous := canvas
		if p.blend {
			canvas = imaging.Overlay(canvas, p.img, p.pos, 1.0)
		} else {
			canvas = imaging.Paste(canvas, p.img, p.pos)
		}
		frames = append(frames, canvas)

		switch p.dispose {
		case disposeBackground:
			size := p.img.Bounds().Size()
			canvas = imaging.Paste(canvas, imaging.New(size.X, size.Y, background), p.pos)
		case disposePrevious:
			canvas = previous
		}
	}
	return frames
}
