package nodes

import (
	"context"
	"errors"
	"fmt"

	"github.com/phuslu/log"
	"gorgonia.org/tensor"

	"github.com/knights-analytics/paramnodes/util/fileutil"
	"github.com/knights-analytics/paramnodes/util/imageutil"
)

// ErrImageNotFound is returned when the resolved image path does not exist.
var ErrImageNotFound = errors.New("image not found")

const imagePathName = "image_path"

// ImageLoader loads an image file named by the API into an image tensor and
// a mask tensor. The file must be readable by the process running the host.
type ImageLoader struct {
	basePath string
}

// NewImageLoader returns a loader resolving relative paths against basePath.
func NewImageLoader(basePath string) *ImageLoader {
	return &ImageLoader{basePath: basePath}
}

func (l *ImageLoader) Category() string    { return CategoryParams }
func (l *ImageLoader) Function() string    { return "load_image" }
func (l *ImageLoader) Description() string { return "Loads an image and its mask from a path given by the API." }

func (l *ImageLoader) Inputs() []InputSpec {
	return []InputSpec{{
		Name:    imagePathName,
		Type:    TypeString,
		Options: &InputOptions{Default: "input/example.png"},
	}}
}

func (l *ImageLoader) Outputs() []Output {
	return []Output{{Name: "IMAGE", Type: TypeImage}, {Name: "MASK", Type: TypeMask}}
}

func (l *ImageLoader) Execute(ctx context.Context, in Inputs) ([]any, error) {
	path, err := in.String(imagePathName)
	if err != nil {
		return nil, err
	}
	images, masks, err := l.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return []any{images, masks}, nil
}

// Load reads every frame of the image at path. The image tensor has shape
// (frames, height, width, 3); the mask tensor (frames, height, width) holds
// 1 - alpha, or a zero 64x64 plane per frame when the image has no alpha.
func (l *ImageLoader) Load(ctx context.Context, path string) (*tensor.Dense, *tensor.Dense, error) {
	resolved, err := fileutil.ResolvePath(l.basePath, path)
	if err != nil {
		return nil, nil, err
	}

	exists, err := fileutil.FileExists(ctx, resolved)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		return nil, nil, fmt.Errorf("%w at path: %s", ErrImageNotFound, resolved)
	}

	b, err := fileutil.ReadFileBytes(ctx, resolved)
	if err != nil {
		return nil, nil, err
	}
	frames, format, err := imageutil.DecodeFrames(b)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding image %s: %w", resolved, err)
	}

	images, err := imageutil.ImageTensor(frames)
	if err != nil {
		return nil, nil, fmt.Errorf("image %s: %w", resolved, err)
	}
	masks, err := imageutil.MaskTensor(frames)
	if err != nil {
		return nil, nil, fmt.Errorf("image %s: %w", resolved, err)
	}

	width, height := frames[0].Size()
	log.Debug().
		Str("path", resolved).
		Str("format", format).
		Int("frames", len(frames)).
		Int("width", width).
		Int("height", height).
		Bool("alpha", frames[0].HasAlpha).
		Msg("loaded image")
	return images, masks, nil
}
