package autoencoder

import (
	"fmt"

	"github.com/Utkarsh4430/ARER/pkg/checkpoint"
	"github.com/Utkarsh4430/ARER/pkg/layers"
	"github.com/Utkarsh4430/ARER/pkg/tensor"
)

// defaultDilations are the residual dilations of every encoder and decoder
// block, widening the receptive field geometrically.
var defaultDilations = []int{1, 3, 9}

// EncoderBlock is one downsampling stage: a stack of residual units at the
// input width followed by a strided conv (kernel 2·stride) changing both
// channel count and time resolution. A (B, Cin, T) input becomes
// (B, Cout, T/stride) exactly when T is divisible by the stride.
type EncoderBlock struct {
	units  []*ResidualUnit
	conv   *layers.Conv1d
	stride int
}

// NewEncoderBlock builds a block downsampling by stride.
func NewEncoderBlock(mode layers.Mode, inChannels, outChannels, stride int, bias bool) *EncoderBlock {
	b := &EncoderBlock{
		conv:   layers.NewConv1d(mode, inChannels, outChannels, 2*stride, stride, 1, bias),
		stride: stride,
	}
	for _, d := range defaultDilations {
		b.units = append(b.units, NewResidualUnit(mode, inChannels, d))
	}
	return b
}

// Stride returns the block's downsampling factor.
func (b *EncoderBlock) Stride() int { return b.stride }

// Forward runs the block over a whole sequence.
func (b *EncoderBlock) Forward(x *tensor.Tensor) *tensor.Tensor {
	for _, u := range b.units {
		x = u.Forward(x)
	}
	return b.conv.Forward(x)
}

// EncoderBlockState carries the streaming state of every sublayer.
type EncoderBlockState struct {
	units []*ResidualUnitState
	conv  *layers.Conv1dState
}

// NewState returns the zero history preceding the first chunk.
func (b *EncoderBlock) NewState(batch int) *EncoderBlockState {
	st := &EncoderBlockState{conv: b.conv.NewState(batch)}
	for _, u := range b.units {
		st.units = append(st.units, u.NewState(batch))
	}
	return st
}

// Inference runs the block over one chunk. The chunk's time length must be
// a multiple of the stride for streamed outputs to match Forward.
func (b *EncoderBlock) Inference(x *tensor.Tensor, st *EncoderBlockState) (*tensor.Tensor, *EncoderBlockState, error) {
	next := &EncoderBlockState{units: make([]*ResidualUnitState, len(b.units))}
	var err error
	for i, u := range b.units {
		x, next.units[i], err = u.Inference(x, st.units[i])
		if err != nil {
			return nil, nil, fmt.Errorf("autoencoder: encoder block: %w", err)
		}
	}
	y, convSt, err := b.conv.Inference(x, st.conv)
	if err != nil {
		return nil, nil, fmt.Errorf("autoencoder: encoder block: %w", err)
	}
	next.conv = convSt
	return y, next, nil
}

// LoadParams fills every sublayer from the named checkpoint tensors.
func (b *EncoderBlock) LoadParams(p checkpoint.Params, prefix string) error {
	for i, u := range b.units {
		if err := u.LoadParams(p, fmt.Sprintf("%s.res_units.%d", prefix, i)); err != nil {
			return err
		}
	}
	return b.conv.LoadParams(p, prefix+".conv")
}

// ExportParams writes every sublayer's tensors into p.
func (b *EncoderBlock) ExportParams(p checkpoint.Params, prefix string) {
	for i, u := range b.units {
		u.ExportParams(p, fmt.Sprintf("%s.res_units.%d", prefix, i))
	}
	b.conv.ExportParams(p, prefix+".conv")
}
