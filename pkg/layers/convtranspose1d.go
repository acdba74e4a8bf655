package layers

import (
	"fmt"

	"github.com/Utkarsh4430/ARER/pkg/tensor"
)

// ConvTranspose1d is a 1-D transposed convolution used by the decoder's
// upsampling blocks. With kernel 2·S it maps a time length T to exactly T·S
// in both modes: causal replicate-pads the input left by ceil(K/S)-1 and
// trims S samples from each end of the transposed output; non-causal trims
// the untouched transposed output symmetrically.
type ConvTranspose1d struct {
	InChannels  int
	OutChannels int
	Kernel      int
	Stride      int

	// Weight is (InChannels, OutChannels, Kernel) row-major.
	Weight []float32
	Bias   []float32

	mode Mode
}

// NewConvTranspose1d builds a zero-initialized transposed convolution.
func NewConvTranspose1d(mode Mode, inChannels, outChannels, kernel, stride int, bias bool) *ConvTranspose1d {
	if kernel < 1 || stride < 1 {
		panic(fmt.Sprintf("layers: invalid conv_transpose1d geometry k=%d s=%d", kernel, stride))
	}
	c := &ConvTranspose1d{
		InChannels:  inChannels,
		OutChannels: outChannels,
		Kernel:      kernel,
		Stride:      stride,
		Weight:      make([]float32, inChannels*outChannels*kernel),
		mode:        mode,
	}
	if bias {
		c.Bias = make([]float32, outChannels)
	}
	return c
}

// Mode returns the execution mode fixed at construction.
func (c *ConvTranspose1d) Mode() Mode { return c.mode }

// OutLen returns the output time length for an input of length T.
func (c *ConvTranspose1d) OutLen(T int) int { return T * c.Stride }

// Forward upsamples x (B, InChannels, T) into (B, OutChannels, T·Stride).
func (c *ConvTranspose1d) Forward(x *tensor.Tensor) *tensor.Tensor {
	if x.Dims() != 3 {
		panic(fmt.Sprintf("layers: conv_transpose1d wants a 3-D input, got %v", x.Shape()))
	}
	if x.Dim(1) != c.InChannels {
		panic(fmt.Sprintf("layers: conv_transpose1d wants %d input channels, got %d", c.InChannels, x.Dim(1)))
	}
	B, T := x.Dim(0), x.Dim(2)

	in := x.Data()
	padIn := 0
	if c.mode == Causal {
		padIn = (c.Kernel+c.Stride-1)/c.Stride - 1
		if padIn > 0 {
			ext := make([]float32, B*c.InChannels*(T+padIn))
			for b := 0; b < B; b++ {
				for ic := 0; ic < c.InChannels; ic++ {
					row := ext[(b*c.InChannels+ic)*(T+padIn):][:T+padIn]
					src := in[(b*c.InChannels+ic)*T:][:T]
					for t := 0; t < padIn; t++ {
						row[t] = src[0] // replicate the first sample
					}
					copy(row[padIn:], src)
				}
			}
			in = ext
		}
	}
	extT := T + padIn
	fullLen := (extT-1)*c.Stride + c.Kernel

	full := make([]float32, B*c.OutChannels*fullLen)
	for b := 0; b < B; b++ {
		for ic := 0; ic < c.InChannels; ic++ {
			inRow := in[(b*c.InChannels+ic)*extT:][:extT]
			for oc := 0; oc < c.OutChannels; oc++ {
				w := c.Weight[(ic*c.OutChannels+oc)*c.Kernel:][:c.Kernel]
				outRow := full[(b*c.OutChannels+oc)*fullLen:][:fullLen]
				for t := 0; t < extT; t++ {
					v := inRow[t]
					if v == 0 {
						continue
					}
					base := t * c.Stride
					for k := 0; k < c.Kernel; k++ {
						outRow[base+k] += v * w[k]
					}
				}
			}
		}
	}

	outLen := T * c.Stride
	var trim int
	if c.mode == Causal {
		trim = c.Stride
	} else {
		trim = (c.Kernel - c.Stride + 1) / 2
	}
	out := tensor.New(B, c.OutChannels, outLen)
	od := out.Data()
	for b := 0; b < B; b++ {
		for oc := 0; oc < c.OutChannels; oc++ {
			src := full[(b*c.OutChannels+oc)*fullLen+trim:][:outLen]
			dst := od[(b*c.OutChannels+oc)*outLen:][:outLen]
			copy(dst, src)
			if c.Bias != nil {
				for i := range dst {
					dst[i] += c.Bias[oc]
				}
			}
		}
	}
	return out
}
