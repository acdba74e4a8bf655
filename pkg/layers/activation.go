package layers

import (
	"math"

	"github.com/Utkarsh4430/ARER/pkg/tensor"
)

// ELU applies the exponential linear unit elementwise:
// x for x > 0, exp(x)-1 otherwise. The input is not modified.
func ELU(x *tensor.Tensor) *tensor.Tensor {
	out := x.Clone()
	d := out.Data()
	for i, v := range d {
		if v < 0 {
			d[i] = float32(math.Expm1(float64(v)))
		}
	}
	return out
}

// LeakyReLU applies max(x, slope·x) elementwise. The input is not modified.
func LeakyReLU(x *tensor.Tensor, slope float32) *tensor.Tensor {
	out := x.Clone()
	d := out.Data()
	for i, v := range d {
		if v < 0 {
			d[i] = slope * v
		}
	}
	return out
}

// ReLU applies max(x, 0) elementwise. The input is not modified.
func ReLU(x *tensor.Tensor) *tensor.Tensor {
	out := x.Clone()
	d := out.Data()
	for i, v := range d {
		if v < 0 {
			d[i] = 0
		}
	}
	return out
}
