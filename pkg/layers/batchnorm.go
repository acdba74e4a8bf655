package layers

import (
	"fmt"
	"math"

	"github.com/Utkarsh4430/ARER/pkg/tensor"
)

// BatchNorm normalizes per-channel activations using stored running
// statistics. Evaluation mode only; this codebase has no training path.
// It serves both (B, C, T) and (B, C, H, W) inputs; dimension 1 is the
// channel axis in either layout.
type BatchNorm struct {
	Channels int
	Eps      float64

	// Affine parameters and running statistics, each of length Channels.
	Weight      []float32
	Bias        []float32
	RunningMean []float32
	RunningVar  []float32
}

// NewBatchNorm builds a batch normalization layer initialized to the
// identity transform (weight 1, variance 1), the state a freshly
// constructed layer has before checkpoint parameters overwrite it.
func NewBatchNorm(channels int) *BatchNorm {
	bn := &BatchNorm{
		Channels:    channels,
		Eps:         1e-5,
		Weight:      make([]float32, channels),
		Bias:        make([]float32, channels),
		RunningMean: make([]float32, channels),
		RunningVar:  make([]float32, channels),
	}
	for i := 0; i < channels; i++ {
		bn.Weight[i] = 1
		bn.RunningVar[i] = 1
	}
	return bn
}

// Forward normalizes x per channel: (x - mean) / sqrt(var + eps) · weight + bias.
func (bn *BatchNorm) Forward(x *tensor.Tensor) *tensor.Tensor {
	if x.Dims() < 3 {
		panic(fmt.Sprintf("layers: batchnorm wants a 3-D or 4-D input, got %v", x.Shape()))
	}
	if x.Dim(1) != bn.Channels {
		panic(fmt.Sprintf("layers: batchnorm wants %d channels, got %d", bn.Channels, x.Dim(1)))
	}
	B := x.Dim(0)
	inner := 1
	for i := 2; i < x.Dims(); i++ {
		inner *= x.Dim(i)
	}

	// Collapse the affine transform to one scale and shift per channel.
	scale := make([]float32, bn.Channels)
	shift := make([]float32, bn.Channels)
	for c := 0; c < bn.Channels; c++ {
		inv := 1.0 / math.Sqrt(float64(bn.RunningVar[c])+bn.Eps)
		scale[c] = bn.Weight[c] * float32(inv)
		shift[c] = bn.Bias[c] - bn.RunningMean[c]*scale[c]
	}

	out := x.Clone()
	d := out.Data()
	for b := 0; b < B; b++ {
		for c := 0; c < bn.Channels; c++ {
			row := d[(b*bn.Channels+c)*inner:][:inner]
			for i, v := range row {
				row[i] = v*scale[c] + shift[c]
			}
		}
	}
	return out
}
