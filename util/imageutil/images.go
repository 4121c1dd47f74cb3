package imageutil

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"

	multitiff "github.com/chai2010/tiff"
	"github.com/disintegration/imaging"
	"github.com/kettek/apng"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Frame is one decoded page of an image file, already oriented and in
// non-premultiplied 8-bit RGBA.
type Frame struct {
	Image *image.NRGBA
	// HasAlpha is set when the source encoding carries an alpha channel, not
	// when the decoded pixels happen to be translucent.
	HasAlpha bool
}

func (f Frame) Size() (int, int) {
	b := f.Image.Bounds()
	return b.Dx(), b.Dy()
}

// DecodeFrames decodes every frame or page of an encoded image. Animated GIF
// and APNG frames are composited onto the logical screen, multi-page TIFFs
// yield one frame per page. Every frame is then rotated according to the EXIF
// orientation embedded in the file.
func DecodeFrames(b []byte) ([]Frame, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return nil, "", err
	}

	var images []*image.NRGBA
	switch {
	case format == "gif":
		images, err = decodeGIF(b)
	case format == "tiff":
		images, err = decodeTIFF(b)
	case format == "png" && isAnimatedPNG(b):
		images, err = decodeAPNG(b, cfg)
	default:
		var img image.Image
		if img, err = imaging.Decode(bytes.NewReader(b)); err == nil {
			images = []*image.NRGBA{imaging.Clone(img)}
		}
	}
	if err != nil {
		return nil, format, err
	}

	hasAlpha := hasAlphaChannel(cfg.ColorModel)
	orientation := readOrientation(format, b)
	frames := make([]Frame, len(images))
	for i, img := range images {
		frames[i] = Frame{Image: orient(img, orientation), HasAlpha: hasAlpha}
	}
	return frames, format, nil
}

func decodeGIF(b []byte) ([]*image.NRGBA, error) {
	g, err := gif.DecodeAll(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	patches := make([]patch, len(g.Image))
	for i, src := range g.Image {
		p := patch{img: src, pos: src.Bounds().Min, blend: true}
		if i < len(g.Disposal) {
			switch g.Disposal[i] {
			case gif.DisposalBackground:
				p.dispose = disposeBackground
			case gif.DisposalPrevious:
				p.dispose = disposePrevious
			}
		}
		patches[i] = p
	}
	return composite(g.Config.Width, g.Config.Height, gifBackground(g), patches), nil
}

// gifBackground is the opaque global palette entry named by the logical
// screen's background index, or black without a global palette.
func gifBackground(g *gif.GIF) color.Color {
	palette, ok := g.Config.ColorModel.(color.Palette)
	if !ok || int(g.BackgroundIndex) >= len(palette) {
		return color.Black
	}
	r, gr, b, _ := palette[g.BackgroundIndex].RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(gr >> 8), B: uint8(b >> 8), A: 0xff}
}

// APNG frame control values.
const (
	apngDisposeBackground = 1
	apngDisposePrevious   = 2
	apngBlendOver         = 1
)

func decodeAPNG(b []byte, cfg image.Config) ([]*image.NRGBA, error) {
	a, err := apng.DecodeAll(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	patches := make([]patch, 0, len(a.Frames))
	for _, f := range a.Frames {
		// the default image is only shown by decoders without APNG support
		if f.IsDefault {
			continue
		}
		p := patch{img: f.Image, pos: image.Pt(f.XOffset, f.YOffset), blend: f.BlendOp == apngBlendOver}
		switch f.DisposeOp {
		case apngDisposeBackground:
			p.dispose = disposeBackground
		case apngDisposePrevious:
			p.dispose = disposePrevious
		}
		patches = append(patches, p)
	}
	if len(patches) == 0 {
		return nil, errors.New("apng: no animation frames")
	}
	return composite(cfg.Width, cfg.Height, color.Transparent, patches), nil
}

func decodeTIFF(b []byte) ([]*image.NRGBA, error) {
	pages, pageErrs, err := multitiff.DecodeAll(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	images := make([]*image.NRGBA, 0, len(pages))
	for i, page := range pages {
		// sub-IFDs hold thumbnails and reduced resolutions of the same page
		if len(page) == 0 {
			continue
		}
		if i < len(pageErrs) && len(pageErrs[i]) > 0 && pageErrs[i][0] != nil {
			return nil, fmt.Errorf("tiff page %d: %w", i, pageErrs[i][0])
		}
		images = append(images, imaging.Clone(page[0]))
	}
	if len(images) == 0 {
		return nil, errors.New("tiff: no pages")
	}
	return images, nil
}

// orient applies an EXIF orientation value, 1 through 8.
func orient(img *image.NRGBA, orientation int) *image.NRGBA {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}

// hasAlphaChannel reports whether a decoder's color model stores alpha.
// The png, bmp and tiff decoders report RGBAModel for opaque truecolor data,
// so only the non-premultiplied and explicit alpha models count. GIF palettes
// never do: transparency there is a palette index.
func hasAlphaChannel(m color.Model) bool {
	switch m {
	case color.NRGBAModel, color.NRGBA64Model, color.NYCbCrAModel, color.AlphaModel, color.Alpha16Model:
		return true
	}
	return false
}

type NormalizationStep interface {
	Apply(r, g, b float32) (float32, float32, float32)
}

type RescalePreprocessor struct{}

func (s *RescalePreprocessor) Apply(r, g, b float32) (float32, float32, float32) {
	scale := float32(1.0 / 255.0)
	return r * scale, g * scale, b * scale
}

func RescaleStep() *RescalePreprocessor {
	return &RescalePreprocessor{}
}
