package autoencoder

import (
	"fmt"

	"github.com/Utkarsh4430/ARER/pkg/checkpoint"
	"github.com/Utkarsh4430/ARER/pkg/layers"
	"github.com/Utkarsh4430/ARER/pkg/tensor"
)

// DecoderBlock is one upsampling stage: a transposed conv (kernel
// 2·stride) multiplying the time length by stride, followed by residual
// units at the output width.
type DecoderBlock struct {
	conv  *layers.ConvTranspose1d
	units []*ResidualUnit
}

// NewDecoderBlock builds a block upsampling by stride.
func NewDecoderBlock(mode layers.Mode, inChannels, outChannels, stride int, bias bool) *DecoderBlock {
	b := &DecoderBlock{
		conv: layers.NewConvTranspose1d(mode, inChannels, outChannels, 2*stride, stride, bias),
	}
	for _, d := range defaultDilations {
		b.units = append(b.units, NewResidualUnit(mode, outChannels, d))
	}
	return b
}

// Forward runs the block over a whole sequence.
func (b *DecoderBlock) Forward(x *tensor.Tensor) *tensor.Tensor {
	x = b.conv.Forward(x)
	for _, u := range b.units {
		x = u.Forward(x)
	}
	return x
}

// LoadParams fills every sublayer from the named checkpoint tensors.
func (b *DecoderBlock) LoadParams(p checkpoint.Params, prefix string) error {
	if err := b.conv.LoadParams(p, prefix+".conv"); err != nil {
		return err
	}
	for i, u := range b.units {
		if err := u.LoadParams(p, fmt.Sprintf("%s.res_units.%d", prefix, i)); err != nil {
			return err
		}
	}
	return nil
}

// ExportParams writes every sublayer's tensors into p.
func (b *DecoderBlock) ExportParams(p checkpoint.Params, prefix string) {
	b.conv.ExportParams(p, prefix+".conv")
	for i, u := range b.units {
		u.ExportParams(p, fmt.Sprintf("%s.res_units.%d", prefix, i))
	}
}

// Decoder reconstructs one branch's waveform from quantized codes: a wide
// conv lifting codeDim to the first block's width, a stack of upsampling
// blocks over the branch's strides, and a final wide conv to the output
// channel count. The total upsampling factor is the product of the
// strides.
type Decoder struct {
	conv1  *layers.Conv1d
	blocks []*DecoderBlock
	conv2  *layers.Conv1d
}

// NewDecoder builds the decoder for one branch. ratios and strides have
// equal length; block i consumes decodeChannels·ratios[i] channels and the
// last block emits outputChannels directly.
func NewDecoder(mode layers.Mode, codeDim, outputChannels, decodeChannels int, ratios, strides []int, kernel int, bias bool) *Decoder {
	d := &Decoder{
		conv1: layers.NewConv1d(mode, codeDim, decodeChannels*ratios[0], kernel, 1, 1, false),
	}
	in := decodeChannels * ratios[0]
	for i, stride := range strides {
		out := outputChannels
		if i < len(ratios)-1 {
			out = decodeChannels * ratios[i+1]
		}
		d.blocks = append(d.blocks, NewDecoderBlock(mode, in, out, stride, bias))
		in = out
	}
	d.conv2 = layers.NewConv1d(mode, in, outputChannels, kernel, 1, 1, false)
	return d
}

// Forward decodes quantized codes (B, codeDim, T) into a waveform batch
// (B, outputChannels, T·∏strides).
func (d *Decoder) Forward(z *tensor.Tensor) *tensor.Tensor {
	x := d.conv1.Forward(z)
	for _, b := range d.blocks {
		x = b.Forward(x)
	}
	return d.conv2.Forward(x)
}

// LoadParams fills the decoder from the named checkpoint tensors.
func (d *Decoder) LoadParams(p checkpoint.Params, prefix string) error {
	if err := d.conv1.LoadParams(p, prefix+".conv1"); err != nil {
		return err
	}
	for i, b := range d.blocks {
		if err := b.LoadParams(p, fmt.Sprintf("%s.blocks.%d", prefix, i)); err != nil {
			return err
		}
	}
	return d.conv2.LoadParams(p, prefix+".conv2")
}

// ExportParams writes the decoder's tensors into p.
func (d *Decoder) ExportParams(p checkpoint.Params, prefix string) {
	d.conv1.ExportParams(p, prefix+".conv1")
	for i, b := range d.blocks {
		b.ExportParams(p, fmt.Sprintf("%s.blocks.%d", prefix, i))
	}
	d.conv2.ExportParams(p, prefix+".conv2")
}
