package imageutil

import (
	"errors"
	"fmt"

	"gorgonia.org/tensor"
)

// EmptyMaskSize is the side of the zero mask produced for frames without alpha.
const EmptyMaskSize = 64

// ImageTensor stacks frames into a float32 tensor of shape
// (frames, height, width, 3). Without steps, samples are rescaled to [0,1].
func ImageTensor(frames []Frame, steps ...NormalizationStep) (*tensor.Dense, error) {
	if len(frames) == 0 {
		return nil, errors.New("no frames to convert")
	}
	if len(steps) == 0 {
		steps = []NormalizationStep{RescaleStep()}
	}

	width, height := frames[0].Size()
	plane := width * height * 3
	backing := make([]float32, len(frames)*plane)
	for i, frame := range frames {
		if w, h := frame.Size(); w != width || h != height {
			return nil, fmt.Errorf("frame %d is %dx%d, expected %dx%d", i, w, h, width, height)
		}
		pix := frame.Image.Pix
		stride := frame.Image.Stride
		offset := i * plane
		for y := 0; y < height; y++ {
			row := pix[y*stride : y*stride+width*4]
			for x := 0; x < width; x++ {
				r, g, b := float32(row[x*4]), float32(row[x*4+1]), float32(row[x*4+2])
				for _, step := range steps {
					r, g, b = step.Apply(r, g, b)
				}
				idx := offset + (y*width+x)*3
				backing[idx] = r
				backing[idx+1] = g
				backing[idx+2] = b
			}
		}
	}
	return tensor.New(
		tensor.WithShape(len(frames), height, width, 3),
		tensor.WithBacking(backing),
	), nil
}

// MaskTensor builds a float32 tensor of shape (frames, height, width) holding
// 1 - alpha for frames with an alpha channel and a zero
// EmptyMaskSize x EmptyMaskSize plane otherwise.
func MaskTensor(frames []Frame) (*tensor.Dense, error) {
	if len(frames) == 0 {
		return nil, errors.New("no frames to convert")
	}

	planes := make([][]float32, len(frames))
	var width, height int
	for i, frame := range frames {
		w, h := EmptyMaskSize, EmptyMaskSize
		if frame.HasAlpha {
			w, h = frame.Size()
		}
		if i == 0 {
			width, height = w, h
		} else if w != width || h != height {
			return nil, fmt.Errorf("mask %d is %dx%d, expected %dx%d", i, w, h, width, height)
		}
		if frame.HasAlpha {
			planes[i] = invertedAlpha(frame)
		}
	}

	plane := width * height
	backing := make([]float32, len(frames)*plane)
	for i, p := range planes {
		if p != nil {
			copy(backing[i*plane:], p)
		}
	}
	return tensor.New(
		tensor.WithShape(len(frames), height, width),
		tensor.WithBacking(backing),
	), nil
}

func invertedAlpha(frame Frame) []float32 {
	width, height := frame.Size()
	pix := frame.Image.Pix
	stride := frame.Image.Stride
	out := make([]float32, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out[y*width+x] = 1 - float32(pix[y*stride+x*4+3])/255
		}
	}
	return out
}
