package nodes

import (
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), os.ModePerm))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func loadImage(t *testing.T, loader *ImageLoader, path string) (*tensor.Dense, *tensor.Dense) {
	t.Helper()
	out, err := loader.Execute(context.Background(), Inputs{"image_path": path})
	require.NoError(t, err)
	require.Len(t, out, 2)
	images, ok := out[0].(*tensor.Dense)
	require.True(t, ok)
	masks, ok := out[1].(*tensor.Dense)
	require.True(t, ok)
	return images, masks
}

func TestLoadOpaqueImage(t *testing.T) {
	base := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 5, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 5; x++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	writePNG(t, filepath.Join(base, "input", "blue.png"), img)

	images, masks := loadImage(t, NewImageLoader(base), "input/blue.png")
	assert.Equal(t, tensor.Shape{1, 4, 5, 3}, images.Shape())
	assert.Equal(t, tensor.Shape{1, 64, 64}, masks.Shape())
	for _, v := range masks.Data().([]float32) {
		assert.Zero(t, v)
	}
	blue, err := images.At(0, 3, 4, 2)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, blue, 1e-6)
}

func TestLoadImageWithAlpha(t *testing.T) {
	base := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	alphas := []uint8{0, 64, 128, 191, 255, 17}
	for i, a := range alphas {
		img.SetNRGBA(i%3, i/3, color.NRGBA{200, 100, 50, a})
	}
	path := filepath.Join(base, "alpha.png")
	writePNG(t, path, img)

	images, masks := loadImage(t, NewImageLoader("/somewhere/else"), path)
	assert.Equal(t, tensor.Shape{1, 2, 3, 3}, images.Shape())
	assert.Equal(t, tensor.Shape{1, 2, 3}, masks.Shape())

	expected := make([]float32, len(alphas))
	for i, a := range alphas {
		expected[i] = 1 - float32(a)/255
	}
	assert.InDeltaSlice(t, expected, masks.Data().([]float32), 1e-6)

	r, err := images.At(0, 0, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 200.0/255.0, r, 1e-6)
}

func TestLoadMultiFrameImage(t *testing.T) {
	base := t.TempDir()
	palette := color.Palette{color.Black, color.White}
	anim := &gif.GIF{}
	for i := 0; i < 4; i++ {
		frame := image.NewPaletted(image.Rect(0, 0, 6, 5), palette)
		frame.Pix[0] = uint8(i % 2)
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 5)
	}
	f, err := os.Create(filepath.Join(base, "anim.gif"))
	require.NoError(t, err)
	require.NoError(t, gif.EncodeAll(f, anim))
	require.NoError(t, f.Close())

	images, masks := loadImage(t, NewImageLoader(base), "anim.gif")
	assert.Equal(t, tensor.Shape{4, 5, 6, 3}, images.Shape())
	assert.Equal(t, images.Shape()[0], masks.Shape()[0])

	// frames keep file order
	for i := 0; i < 4; i++ {
		v, err := images.At(i, 0, 0, 0)
		require.NoError(t, err)
		assert.InDelta(t, float32(i%2), v, 1e-6, "frame %d", i)
	}
}

func TestLoadMissingImage(t *testing.T) {
	base := t.TempDir()
	_, err := NewImageLoader(base).Execute(context.Background(), Inputs{"image_path": "input/missing.png"})
	require.ErrorIs(t, err, ErrImageNotFound)
	assert.Contains(t, err.Error(), filepath.Join(base, "input", "missing.png"))
	assert.Contains(t, err.Error(), "image not found at path")
}

func TestLoadCorruptImage(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "broken.png"), []byte("\x89PNG\r\n\x1a\nnope"), 0o644))
	_, err := NewImageLoader(base).Execute(context.Background(), Inputs{"image_path": "broken.png"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrImageNotFound)
	assert.Contains(t, err.Error(), "decoding image")
}

func TestImageLoaderMetadata(t *testing.T) {
	loader := NewImageLoader("")
	assert.Equal(t, "load_image", loader.Function())
	assert.Equal(t, []Output{{Name: "IMAGE", Type: TypeImage}, {Name: "MASK", Type: TypeMask}}, loader.Outputs())
	def, ok := loader.Inputs()[0].Default()
	assert.True(t, ok)
	assert.Equal(t, "input/example.png", def)
}
