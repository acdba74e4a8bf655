package layers

import (
	"fmt"
	"math"

	"github.com/Utkarsh4430/ARER/pkg/tensor"
)

// Conv2d is a square-kernel 2-D convolution over (batch, channels, height,
// width) tensors, with symmetric zero padding. Only the visual backbone
// uses it; there is no causal variant for images.
type Conv2d struct {
	InChannels  int
	OutChannels int
	Kernel      int
	Stride      int
	Padding     int

	// Weight is (OutChannels, InChannels, Kernel, Kernel) row-major.
	Weight []float32
	Bias   []float32
}

// NewConv2d builds a zero-initialized 2-D convolution.
func NewConv2d(inChannels, outChannels, kernel, stride, padding int, bias bool) *Conv2d {
	c := &Conv2d{
		InChannels:  inChannels,
		OutChannels: outChannels,
		Kernel:      kernel,
		Stride:      stride,
		Padding:     padding,
		Weight:      make([]float32, outChannels*inChannels*kernel*kernel),
	}
	if bias {
		c.Bias = make([]float32, outChannels)
	}
	return c
}

// Forward convolves x (B, InChannels, H, W) into (B, OutChannels, H', W')
// where H' = (H + 2·Padding - Kernel)/Stride + 1 and likewise for W'.
func (c *Conv2d) Forward(x *tensor.Tensor) *tensor.Tensor {
	if x.Dims() != 4 {
		panic(fmt.Sprintf("layers: conv2d wants a 4-D input, got %v", x.Shape()))
	}
	if x.Dim(1) != c.InChannels {
		panic(fmt.Sprintf("layers: conv2d wants %d input channels, got %d", c.InChannels, x.Dim(1)))
	}
	B, H, W := x.Dim(0), x.Dim(2), x.Dim(3)
	outH := (H+2*c.Padding-c.Kernel)/c.Stride + 1
	outW := (W+2*c.Padding-c.Kernel)/c.Stride + 1
	if outH < 1 || outW < 1 {
		panic(fmt.Sprintf("layers: conv2d input %dx%d too small for k=%d", H, W, c.Kernel))
	}

	in := x.Data()
	out := tensor.New(B, c.OutChannels, outH, outW)
	od := out.Data()
	for b := 0; b < B; b++ {
		for oc := 0; oc < c.OutChannels; oc++ {
			for oy := 0; oy < outH; oy++ {
				for ox := 0; ox < outW; ox++ {
					var sum float32
					if c.Bias != nil {
						sum = c.Bias[oc]
					}
					y0 := oy*c.Stride - c.Padding
					x0 := ox*c.Stride - c.Padding
					for ic := 0; ic < c.InChannels; ic++ {
						inPlane := in[(b*c.InChannels+ic)*H*W:]
						wPlane := c.Weight[((oc*c.InChannels)+ic)*c.Kernel*c.Kernel:]
						for ky := 0; ky < c.Kernel; ky++ {
							iy := y0 + ky
							if iy < 0 || iy >= H {
								continue
							}
							for kx := 0; kx < c.Kernel; kx++ {
								ix := x0 + kx
								if ix < 0 || ix >= W {
									continue
								}
								sum += inPlane[iy*W+ix] * wPlane[ky*c.Kernel+kx]
							}
						}
					}
					od[((b*c.OutChannels+oc)*outH+oy)*outW+ox] = sum
				}
			}
		}
	}
	return out
}

// MaxPool2d is a square max pooling layer. Padded positions never win the
// max (equivalent to negative-infinity padding).
type MaxPool2d struct {
	Kernel  int
	Stride  int
	Padding int
}

// Forward pools x (B, C, H, W) into (B, C, H', W').
func (p *MaxPool2d) Forward(x *tensor.Tensor) *tensor.Tensor {
	if x.Dims() != 4 {
		panic(fmt.Sprintf("layers: maxpool2d wants a 4-D input, got %v", x.Shape()))
	}
	B, C, H, W := x.Dim(0), x.Dim(1), x.Dim(2), x.Dim(3)
	outH := (H+2*p.Padding-p.Kernel)/p.Stride + 1
	outW := (W+2*p.Padding-p.Kernel)/p.Stride + 1
	if outH < 1 || outW < 1 {
		panic(fmt.Sprintf("layers: maxpool2d input %dx%d too small for k=%d", H, W, p.Kernel))
	}

	in := x.Data()
	out := tensor.New(B, C, outH, outW)
	od := out.Data()
	for b := 0; b < B; b++ {
		for c := 0; c < C; c++ {
			plane := in[(b*C+c)*H*W:]
			for oy := 0; oy < outH; oy++ {
				for ox := 0; ox < outW; ox++ {
					best := float32(math.Inf(-1))
					y0 := oy*p.Stride - p.Padding
					x0 := ox*p.Stride - p.Padding
					for ky := 0; ky < p.Kernel; ky++ {
						iy := y0 + ky
						if iy < 0 || iy >= H {
							continue
						}
						for kx := 0; kx < p.Kernel; kx++ {
							ix := x0 + kx
							if ix < 0 || ix >= W {
								continue
							}
							if v := plane[iy*W+ix]; v > best {
								best = v
							}
						}
					}
					od[((b*C+c)*outH+oy)*outW+ox] = best
				}
			}
		}
	}
	return out
}

// GlobalAvgPool2d averages each (H, W) plane of x (B, C, H, W) down to a
// (B, C) tensor.
func GlobalAvgPool2d(x *tensor.Tensor) *tensor.Tensor {
	if x.Dims() != 4 {
		panic(fmt.Sprintf("layers: global avg pool wants a 4-D input, got %v", x.Shape()))
	}
	B, C, H, W := x.Dim(0), x.Dim(1), x.Dim(2), x.Dim(3)
	in := x.Data()
	out := tensor.New(B, C)
	od := out.Data()
	inv := 1.0 / float64(H*W)
	for b := 0; b < B; b++ {
		for c := 0; c < C; c++ {
			plane := in[(b*C+c)*H*W:][:H*W]
			sum := 0.0
			for _, v := range plane {
				sum += float64(v)
			}
			od[b*C+c] = float32(sum * inv)
		}
	}
	return out
}
