package dataset

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"

	"github.com/Utkarsh4430/ARER/pkg/tensor"
)

// DefaultImageSize is the conditioning image edge length when the run
// config leaves data.image_size unset.
const DefaultImageSize = 224

// Channel statistics of the dataset the frozen vision tower was trained
// on; inputs are normalized to match.
var (
	imagenetMean = [3]float32{0.485, 0.456, 0.406}
	imagenetStd  = [3]float32{0.229, 0.224, 0.225}
)

// ReadImage decodes a PNG or JPEG file, bilinearly rescales it to
// size×size, and returns a normalized (1, 3, size, size) tensor. A size
// of zero or less selects DefaultImageSize.
func ReadImage(path string, size int) (*tensor.Tensor, error) {
	if size <= 0 {
		size = DefaultImageSize
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("dataset: decode %s: %w", path, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := tensor.New(1, 3, size, size)
	od := out.Data()
	plane := size * size
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			px := dst.RGBAAt(x, y)
			for c, v := range [3]uint8{px.R, px.G, px.B} {
				od[c*plane+y*size+x] = (float32(v)/255 - imagenetMean[c]) / imagenetStd[c]
			}
		}
	}
	return out, nil
}

// NeutralImage returns the zero conditioning tensor used when an
// utterance has no paired image.
func NeutralImage(size int) *tensor.Tensor {
	if size <= 0 {
		size = DefaultImageSize
	}
	return tensor.New(1, 3, size, size)
}
