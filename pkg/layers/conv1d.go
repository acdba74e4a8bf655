package layers

import (
	"fmt"

	"github.com/Utkarsh4430/ARER/pkg/tensor"
)

// Conv1d is a 1-D convolution over (batch, channels, time) tensors.
//
// Padding is implicit (taps outside the sequence read zero) and follows the
// mode: non-causal pads ((K-1)/2)·D on both sides, causal pads (K-1)·D on
// the left only. For stride S both modes map a time length T to ceil(T/S),
// which is exactly T/S when T is divisible by S.
type Conv1d struct {
	InChannels  int
	OutChannels int
	Kernel      int
	Stride      int
	Dilation    int

	// Weight is (OutChannels, InChannels, Kernel) row-major.
	// Bias is nil when the layer has no bias term.
	Weight []float32
	Bias   []float32

	mode Mode
}

// NewConv1d builds a zero-initialized convolution. Weights are filled later
// from a checkpoint (or directly by tests).
func NewConv1d(mode Mode, inChannels, outChannels, kernel, stride, dilation int, bias bool) *Conv1d {
	if kernel < 1 || stride < 1 || dilation < 1 {
		panic(fmt.Sprintf("layers: invalid conv1d geometry k=%d s=%d d=%d", kernel, stride, dilation))
	}
	c := &Conv1d{
		InChannels:  inChannels,
		OutChannels: outChannels,
		Kernel:      kernel,
		Stride:      stride,
		Dilation:    dilation,
		Weight:      make([]float32, outChannels*inChannels*kernel),
		mode:        mode,
	}
	if bias {
		c.Bias = make([]float32, outChannels)
	}
	return c
}

// Mode returns the execution mode fixed at construction.
func (c *Conv1d) Mode() Mode { return c.mode }

func (c *Conv1d) padLeft() int {
	if c.mode == Causal {
		return (c.Kernel - 1) * c.Dilation
	}
	return (c.Kernel - 1) / 2 * c.Dilation
}

func (c *Conv1d) padRight() int {
	if c.mode == Causal {
		return 0
	}
	return (c.Kernel - 1) / 2 * c.Dilation
}

// OutLen returns the output time length for an input of length T.
func (c *Conv1d) OutLen(T int) int {
	span := (c.Kernel-1)*c.Dilation + 1
	return (T+c.padLeft()+c.padRight()-span)/c.Stride + 1
}

// Forward convolves x (B, InChannels, T) into (B, OutChannels, OutLen(T)).
func (c *Conv1d) Forward(x *tensor.Tensor) *tensor.Tensor {
	B, T := c.checkInput(x)
	outLen := c.OutLen(T)
	if outLen < 1 {
		panic(fmt.Sprintf("layers: conv1d input length %d too short for k=%d d=%d", T, c.Kernel, c.Dilation))
	}
	out := tensor.New(B, c.OutChannels, outLen)
	c.convolve(x.Data(), out.Data(), B, T, c.padLeft(), outLen)
	return out
}

// Conv1dState is the carried input history for one streaming session.
// It is owned by the caller: Inference never mutates it and returns a fresh
// state, so distinct sessions can stream against one shared layer.
type Conv1dState struct {
	batch int
	hist  []float32 // (batch, InChannels, histLen)
}

func (c *Conv1d) histLen() int { return (c.Kernel - 1) * c.Dilation }

// NewState returns the zero history that precedes the first chunk.
func (c *Conv1d) NewState(batch int) *Conv1dState {
	return &Conv1dState{
		batch: batch,
		hist:  make([]float32, batch*c.InChannels*c.histLen()),
	}
}

// Inference convolves one chunk of a stream. Chunk lengths must be
// multiples of the stride for the concatenated outputs to match a one-shot
// Forward over the full sequence. Returns ErrModeMismatch when the layer
// was constructed non-causal.
func (c *Conv1d) Inference(x *tensor.Tensor, st *Conv1dState) (*tensor.Tensor, *Conv1dState, error) {
	if c.mode != Causal {
		return nil, nil, ErrModeMismatch
	}
	B, L := c.checkInput(x)
	if st == nil || st.batch != B {
		return nil, nil, fmt.Errorf("layers: conv1d state batch mismatch (state %v, input %d)", st, B)
	}
	h := c.histLen()
	ext := make([]float32, B*c.InChannels*(h+L))
	next := make([]float32, B*c.InChannels*h)
	xd := x.Data()
	for b := 0; b < B; b++ {
		for ic := 0; ic < c.InChannels; ic++ {
			row := ext[(b*c.InChannels+ic)*(h+L):][:h+L]
			copy(row, st.hist[(b*c.InChannels+ic)*h:][:h])
			copy(row[h:], xd[(b*c.InChannels+ic)*L:][:L])
			copy(next[(b*c.InChannels+ic)*h:][:h], row[L:])
		}
	}

	span := (c.Kernel-1)*c.Dilation + 1
	outLen := (h+L-span)/c.Stride + 1
	out := tensor.New(B, c.OutChannels, outLen)
	c.convolve(ext, out.Data(), B, h+L, 0, outLen)
	return out, &Conv1dState{batch: B, hist: next}, nil
}

// convolve runs the core kernel: input (B, InChannels, T) with padLeft
// implicit zeros on the left, writing (B, OutChannels, outLen).
func (c *Conv1d) convolve(in, out []float32, B, T, padLeft, outLen int) {
	for b := 0; b < B; b++ {
		inBase := b * c.InChannels * T
		outBase := b * c.OutChannels * outLen
		for oc := 0; oc < c.OutChannels; oc++ {
			wBase := oc * c.InChannels * c.Kernel
			for o := 0; o < outLen; o++ {
				var sum float32
				if c.Bias != nil {
					sum = c.Bias[oc]
				}
				start := o*c.Stride - padLeft
				for ic := 0; ic < c.InChannels; ic++ {
					inRow := inBase + ic*T
					wRow := wBase + ic*c.Kernel
					for k := 0; k < c.Kernel; k++ {
						pos := start + k*c.Dilation
						if pos >= 0 && pos < T {
							sum += in[inRow+pos] * c.Weight[wRow+k]
						}
					}
				}
				out[outBase+oc*outLen+o] = sum
			}
		}
	}
}

func (c *Conv1d) checkInput(x *tensor.Tensor) (batch, T int) {
	if x.Dims() != 3 {
		panic(fmt.Sprintf("layers: conv1d wants a 3-D input, got %v", x.Shape()))
	}
	if x.Dim(1) != c.InChannels {
		panic(fmt.Sprintf("layers: conv1d wants %d input channels, got %d", c.InChannels, x.Dim(1)))
	}
	return x.Dim(0), x.Dim(2)
}
