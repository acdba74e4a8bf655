package autoencoder

import (
	"github.com/Utkarsh4430/ARER/pkg/checkpoint"
	"github.com/Utkarsh4430/ARER/pkg/layers"
	"github.com/Utkarsh4430/ARER/pkg/tensor"
)

// Projector maps a branch's latent stream down to the quantizer's code
// dimension with a bias-free k=3 conv, preserving the time length.
type Projector struct {
	conv *layers.Conv1d
}

// NewProjector builds the projection inChannels -> codeDim.
func NewProjector(mode layers.Mode, inChannels, codeDim int) *Projector {
	return &Projector{conv: layers.NewConv1d(mode, inChannels, codeDim, 3, 1, 1, false)}
}

// Forward projects z (B, inChannels, T) to (B, codeDim, T).
func (p *Projector) Forward(z *tensor.Tensor) *tensor.Tensor {
	return p.conv.Forward(z)
}

// LoadParams fills the projection from the named checkpoint tensors.
func (p *Projector) LoadParams(params checkpoint.Params, prefix string) error {
	return p.conv.LoadParams(params, prefix)
}

// ExportParams writes the projection's tensors into params.
func (p *Projector) ExportParams(params checkpoint.Params, prefix string) {
	p.conv.ExportParams(params, prefix)
}
