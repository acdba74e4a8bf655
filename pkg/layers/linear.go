package layers

import (
	"fmt"

	"github.com/Utkarsh4430/ARER/pkg/tensor"
)

// Linear is a fully connected projection over (batch, features) tensors.
type Linear struct {
	InFeatures  int
	OutFeatures int

	// Weight is (OutFeatures, InFeatures) row-major.
	Weight []float32
	Bias   []float32
}

// NewLinear builds a zero-initialized linear layer.
func NewLinear(inFeatures, outFeatures int, bias bool) *Linear {
	l := &Linear{
		InFeatures:  inFeatures,
		OutFeatures: outFeatures,
		Weight:      make([]float32, outFeatures*inFeatures),
	}
	if bias {
		l.Bias = make([]float32, outFeatures)
	}
	return l
}

// Forward maps x (B, InFeatures) to (B, OutFeatures).
func (l *Linear) Forward(x *tensor.Tensor) *tensor.Tensor {
	if x.Dims() != 2 {
		panic(fmt.Sprintf("layers: linear wants a 2-D input, got %v", x.Shape()))
	}
	if x.Dim(1) != l.InFeatures {
		panic(fmt.Sprintf("layers: linear wants %d input features, got %d", l.InFeatures, x.Dim(1)))
	}
	B := x.Dim(0)
	in := x.Data()
	out := tensor.New(B, l.OutFeatures)
	od := out.Data()
	for b := 0; b < B; b++ {
		row := in[b*l.InFeatures:][:l.InFeatures]
		for o := 0; o < l.OutFeatures; o++ {
			var sum float32
			if l.Bias != nil {
				sum = l.Bias[o]
			}
			w := l.Weight[o*l.InFeatures:][:l.InFeatures]
			for i, v := range row {
				sum += v * w[i]
			}
			od[b*l.OutFeatures+o] = sum
		}
	}
	return out
}
