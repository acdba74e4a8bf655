package layers

import (
	"github.com/Utkarsh4430/ARER/pkg/checkpoint"
)

// Parameter naming follows the checkpoint layout: each layer owns
// "<prefix>.weight" plus "<prefix>.bias" when it carries a bias term, and
// batch norms add their running statistics. Loading is strict: a missing
// or mis-shaped tensor is an error, never a silent skip.

// LoadParams fills the convolution from the named checkpoint tensors.
func (c *Conv1d) LoadParams(p checkpoint.Params, prefix string) error {
	w, err := p.Get(prefix+".weight", c.OutChannels, c.InChannels, c.Kernel)
	if err != nil {
		return err
	}
	copy(c.Weight, w)
	if c.Bias != nil {
		b, err := p.Get(prefix+".bias", c.OutChannels)
		if err != nil {
			return err
		}
		copy(c.Bias, b)
	}
	return nil
}

// ExportParams writes the convolution's tensors into p.
func (c *Conv1d) ExportParams(p checkpoint.Params, prefix string) {
	p.Put(prefix+".weight", []int{c.OutChannels, c.InChannels, c.Kernel}, c.Weight)
	if c.Bias != nil {
		p.Put(prefix+".bias", []int{c.OutChannels}, c.Bias)
	}
}

// LoadParams fills the transposed convolution from the named checkpoint
// tensors.
func (c *ConvTranspose1d) LoadParams(p checkpoint.Params, prefix string) error {
	w, err := p.Get(prefix+".weight", c.InChannels, c.OutChannels, c.Kernel)
	if err != nil {
		return err
	}
	copy(c.Weight, w)
	if c.Bias != nil {
		b, err := p.Get(prefix+".bias", c.OutChannels)
		if err != nil {
			return err
		}
		copy(c.Bias, b)
	}
	return nil
}

// ExportParams writes the transposed convolution's tensors into p.
func (c *ConvTranspose1d) ExportParams(p checkpoint.Params, prefix string) {
	p.Put(prefix+".weight", []int{c.InChannels, c.OutChannels, c.Kernel}, c.Weight)
	if c.Bias != nil {
		p.Put(prefix+".bias", []int{c.OutChannels}, c.Bias)
	}
}

// LoadParams fills the 2-D convolution from the named checkpoint tensors.
func (c *Conv2d) LoadParams(p checkpoint.Params, prefix string) error {
	w, err := p.Get(prefix+".weight", c.OutChannels, c.InChannels, c.Kernel, c.Kernel)
	if err != nil {
		return err
	}
	copy(c.Weight, w)
	if c.Bias != nil {
		b, err := p.Get(prefix+".bias", c.OutChannels)
		if err != nil {
			return err
		}
		copy(c.Bias, b)
	}
	return nil
}

// ExportParams writes the 2-D convolution's tensors into p.
func (c *Conv2d) ExportParams(p checkpoint.Params, prefix string) {
	p.Put(prefix+".weight", []int{c.OutChannels, c.InChannels, c.Kernel, c.Kernel}, c.Weight)
	if c.Bias != nil {
		p.Put(prefix+".bias", []int{c.OutChannels}, c.Bias)
	}
}

// LoadParams fills the batch norm's affine parameters and running
// statistics from the named checkpoint tensors.
func (bn *BatchNorm) LoadParams(p checkpoint.Params, prefix string) error {
	for _, f := range []struct {
		name string
		dst  []float32
	}{
		{".weight", bn.Weight},
		{".bias", bn.Bias},
		{".running_mean", bn.RunningMean},
		{".running_var", bn.RunningVar},
	} {
		src, err := p.Get(prefix+f.name, bn.Channels)
		if err != nil {
			return err
		}
		copy(f.dst, src)
	}
	return nil
}

// ExportParams writes the batch norm's tensors into p.
func (bn *BatchNorm) ExportParams(p checkpoint.Params, prefix string) {
	shape := []int{bn.Channels}
	p.Put(prefix+".weight", shape, bn.Weight)
	p.Put(prefix+".bias", shape, bn.Bias)
	p.Put(prefix+".running_mean", shape, bn.RunningMean)
	p.Put(prefix+".running_var", shape, bn.RunningVar)
}

// LoadParams fills the linear layer from the named checkpoint tensors.
func (l *Linear) LoadParams(p checkpoint.Params, prefix string) error {
	w, err := p.Get(prefix+".weight", l.OutFeatures, l.InFeatures)
	if err != nil {
		return err
	}
	copy(l.Weight, w)
	if l.Bias != nil {
		b, err := p.Get(prefix+".bias", l.OutFeatures)
		if err != nil {
			return err
		}
		copy(l.Bias, b)
	}
	return nil
}

// ExportParams writes the linear layer's tensors into p.
func (l *Linear) ExportParams(p checkpoint.Params, prefix string) {
	p.Put(prefix+".weight", []int{l.OutFeatures, l.InFeatures}, l.Weight)
	if l.Bias != nil {
		p.Put(prefix+".bias", []int{l.OutFeatures}, l.Bias)
	}
}
