// Package tensor provides dense float32 tensors for the codec's model core.
//
// Tensors are backed by a flat row-major slice with an explicit shape, the
// layout the convolution kernels in pkg/layers index into directly. The two
// layouts used throughout the codec are (batch, channels, time) for audio
// and latent streams, and (batch, 3, height, width) for visual inputs.
//
// Shape violations are programming errors and panic; numeric preconditions
// (stride divisibility, tiling alignment) are the caller's responsibility
// and are not guarded here.
package tensor

import "fmt"

// Tensor is a dense float32 array in row-major (C-order) layout.
type Tensor struct {
	shape []int
	data  []float32
}

// New returns a zero-filled tensor with the given shape.
func New(shape ...int) *Tensor {
	n := checkShape(shape)
	return &Tensor{shape: append([]int(nil), shape...), data: make([]float32, n)}
}

// FromSlice wraps data (without copying) in a tensor of the given shape.
// The length of data must equal the product of the shape dimensions.
func FromSlice(data []float32, shape ...int) *Tensor {
	n := checkShape(shape)
	if len(data) != n {
		panic(fmt.Sprintf("tensor: data length %d does not match shape %v (%d)", len(data), shape, n))
	}
	return &Tensor{shape: append([]int(nil), shape...), data: data}
}

// FromChannels builds a (1, C, T) tensor from per-channel sample slices.
// All channels must have the same length.
func FromChannels(channels [][]float32) *Tensor {
	if len(channels) == 0 {
		panic("tensor: no channels")
	}
	T := len(channels[0])
	out := New(1, len(channels), T)
	for c, ch := range channels {
		if len(ch) != T {
			panic(fmt.Sprintf("tensor: channel %d has length %d, want %d", c, len(ch), T))
		}
		copy(out.data[c*T:], ch)
	}
	return out
}

// Dims returns the number of dimensions.
func (t *Tensor) Dims() int { return len(t.shape) }

// Dim returns the size of dimension i.
func (t *Tensor) Dim(i int) int { return t.shape[i] }

// Shape returns a copy of the tensor's shape.
func (t *Tensor) Shape() []int { return append([]int(nil), t.shape...) }

// Len returns the total number of elements.
func (t *Tensor) Len() int { return len(t.data) }

// Data returns the backing slice. Mutations are visible to the tensor.
func (t *Tensor) Data() []float32 { return t.data }

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	data := make([]float32, len(t.data))
	copy(data, t.data)
	return &Tensor{shape: append([]int(nil), t.shape...), data: data}
}

// At returns the element at the given multi-index.
func (t *Tensor) At(idx ...int) float32 { return t.data[t.offset(idx)] }

// Set stores v at the given multi-index.
func (t *Tensor) Set(v float32, idx ...int) { t.data[t.offset(idx)] = v }

// Fill sets every element to v.
func (t *Tensor) Fill(v float32) {
	for i := range t.data {
		t.data[i] = v
	}
}

// Add returns the elementwise sum of two tensors of identical shape.
func Add(a, b *Tensor) *Tensor {
	if len(a.shape) != len(b.shape) {
		panic(fmt.Sprintf("tensor: Add shape mismatch %v vs %v", a.shape, b.shape))
	}
	for i := range a.shape {
		if a.shape[i] != b.shape[i] {
			panic(fmt.Sprintf("tensor: Add shape mismatch %v vs %v", a.shape, b.shape))
		}
	}
	out := &Tensor{shape: append([]int(nil), a.shape...), data: make([]float32, len(a.data))}
	for i, v := range a.data {
		out.data[i] = v + b.data[i]
	}
	return out
}

// ConcatTime concatenates two (B, C, T) tensors along the time axis.
// Batch and channel dimensions must match.
func ConcatTime(a, b *Tensor) *Tensor {
	if a.Dims() != 3 || b.Dims() != 3 {
		panic("tensor: ConcatTime requires 3-D tensors")
	}
	if a.shape[0] != b.shape[0] || a.shape[1] != b.shape[1] {
		panic(fmt.Sprintf("tensor: ConcatTime shape mismatch %v vs %v", a.shape, b.shape))
	}
	B, C := a.shape[0], a.shape[1]
	Ta, Tb := a.shape[2], b.shape[2]
	out := New(B, C, Ta+Tb)
	for bi := 0; bi < B; bi++ {
		for c := 0; c < C; c++ {
			dst := out.data[(bi*C+c)*(Ta+Tb):]
			copy(dst, a.data[(bi*C+c)*Ta:(bi*C+c)*Ta+Ta])
			copy(dst[Ta:], b.data[(bi*C+c)*Tb:(bi*C+c)*Tb+Tb])
		}
	}
	return out
}

// Channels splits a single-utterance (1, C, T) tensor into per-channel
// sample slices, the inverse of FromChannels. The slices are copies.
func (t *Tensor) Channels() [][]float32 {
	if t.Dims() != 3 || t.shape[0] != 1 {
		panic(fmt.Sprintf("tensor: Channels requires a (1, C, T) tensor, got %v", t.shape))
	}
	C, T := t.shape[1], t.shape[2]
	channels := make([][]float32, C)
	for c := 0; c < C; c++ {
		ch := make([]float32, T)
		copy(ch, t.data[c*T:(c+1)*T])
		channels[c] = ch
	}
	return channels
}

// TimeMajor flattens a (B, C, T) tensor to B*T rows of C values, batch-major
// then time. This is the sample-per-row layout the statistics scaler and the
// quantizer's nearest-code search consume.
func (t *Tensor) TimeMajor() [][]float32 {
	if t.Dims() != 3 {
		panic("tensor: TimeMajor requires a 3-D tensor")
	}
	B, C, T := t.shape[0], t.shape[1], t.shape[2]
	rows := make([][]float32, 0, B*T)
	for b := 0; b < B; b++ {
		for ti := 0; ti < T; ti++ {
			row := make([]float32, C)
			for c := 0; c < C; c++ {
				row[c] = t.data[(b*C+c)*T+ti]
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func (t *Tensor) offset(idx []int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: index %v for %d-D tensor", idx, len(t.shape)))
	}
	off := 0
	for i, x := range idx {
		if x < 0 || x >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %v out of range for shape %v", idx, t.shape))
		}
		off = off*t.shape[i] + x
	}
	return off
}

func checkShape(shape []int) int {
	if len(shape) == 0 {
		panic("tensor: empty shape")
	}
	n := 1
	for _, d := range shape {
		if d <= 0 {
			panic(fmt.Sprintf("tensor: invalid shape %v", shape))
		}
		n *= d
	}
	return n
}
