// Package autoencoder implements the audio-visual codec's generator: a
// dual-branch convolutional encoder conditioned on visual features, residual
// vector quantizers, and per-branch decoders reconstructing speech and room
// impulse response streams from quantized codes.
//
// Every component is built in one of two modes fixed at construction.
// Non-causal components process whole sequences; causal components
// additionally support chunked streaming through explicit state objects
// owned by the caller. Parameters come from checkpoint bundles and are
// treated as read-only after loading, so one generator can serve concurrent
// streaming sessions as long as each session threads its own state.
package autoencoder

import (
	"fmt"

	"github.com/Utkarsh4430/ARER/pkg/checkpoint"
	"github.com/Utkarsh4430/ARER/pkg/layers"
	"github.com/Utkarsh4430/ARER/pkg/tensor"
)

// residualKernel is the dilated conv's kernel size in every residual unit.
const residualKernel = 7

// ResidualUnit is the shape-preserving building block of encoder and
// decoder stacks: act -> dilated conv (k=7) -> act -> 1x1 conv, summed with
// the input. Both convolutions are bias-free.
type ResidualUnit struct {
	conv1 *layers.Conv1d
	conv2 *layers.Conv1d
}

// NewResidualUnit builds a residual unit over the given channel count.
func NewResidualUnit(mode layers.Mode, channels, dilation int) *ResidualUnit {
	return &ResidualUnit{
		conv1: layers.NewConv1d(mode, channels, channels, residualKernel, 1, dilation, false),
		conv2: layers.NewConv1d(mode, channels, channels, 1, 1, 1, false),
	}
}

// Forward runs the unit over a whole (B, C, T) sequence.
func (u *ResidualUnit) Forward(x *tensor.Tensor) *tensor.Tensor {
	y := u.conv1.Forward(layers.ELU(x))
	y = u.conv2.Forward(layers.ELU(y))
	return tensor.Add(x, y)
}

// ResidualUnitState carries the dilated conv's input history for one
// streaming session. The 1x1 conv needs no history but its state is
// threaded anyway to keep the layer contract uniform.
type ResidualUnitState struct {
	conv1 *layers.Conv1dState
	conv2 *layers.Conv1dState
}

// NewState returns the zero history preceding the first chunk.
func (u *ResidualUnit) NewState(batch int) *ResidualUnitState {
	return &ResidualUnitState{
		conv1: u.conv1.NewState(batch),
		conv2: u.conv2.NewState(batch),
	}
}

// Inference runs the unit over one chunk of a stream.
func (u *ResidualUnit) Inference(x *tensor.Tensor, st *ResidualUnitState) (*tensor.Tensor, *ResidualUnitState, error) {
	y, st1, err := u.conv1.Inference(layers.ELU(x), st.conv1)
	if err != nil {
		return nil, nil, fmt.Errorf("autoencoder: residual unit: %w", err)
	}
	y, st2, err := u.conv2.Inference(layers.ELU(y), st.conv2)
	if err != nil {
		return nil, nil, fmt.Errorf("autoencoder: residual unit: %w", err)
	}
	return tensor.Add(x, y), &ResidualUnitState{conv1: st1, conv2: st2}, nil
}

// LoadParams fills both convolutions from the named checkpoint tensors.
func (u *ResidualUnit) LoadParams(p checkpoint.Params, prefix string) error {
	if err := u.conv1.LoadParams(p, prefix+".conv1"); err != nil {
		return err
	}
	return u.conv2.LoadParams(p, prefix+".conv2")
}

// ExportParams writes both convolutions' tensors into p.
func (u *ResidualUnit) ExportParams(p checkpoint.Params, prefix string) {
	u.conv1.ExportParams(p, prefix+".conv1")
	u.conv2.ExportParams(p, prefix+".conv2")
}
