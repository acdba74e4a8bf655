package autoencoder

import (
	"fmt"

	"github.com/Utkarsh4430/ARER/pkg/checkpoint"
	"github.com/Utkarsh4430/ARER/pkg/layers"
	"github.com/Utkarsh4430/ARER/pkg/tensor"
)

// resnetWidths are the per-stage channel counts of the 18-layer residual
// image network the visual towers embed with.
var resnetWidths = [4]int{64, 128, 256, 512}

// basicBlock is the two-conv residual block of the 18-layer network. The
// first block of a widening stage carries a 1x1 projection on the skip
// path.
type basicBlock struct {
	conv1 *layers.Conv2d
	bn1   *layers.BatchNorm
	conv2 *layers.Conv2d
	bn2   *layers.BatchNorm

	downConv *layers.Conv2d
	downBN   *layers.BatchNorm
}

func newBasicBlock(inChannels, outChannels, stride int) *basicBlock {
	b := &basicBlock{
		conv1: layers.NewConv2d(inChannels, outChannels, 3, stride, 1, false),
		bn1:   layers.NewBatchNorm(outChannels),
		conv2: layers.NewConv2d(outChannels, outChannels, 3, 1, 1, false),
		bn2:   layers.NewBatchNorm(outChannels),
	}
	if stride != 1 || inChannels != outChannels {
		b.downConv = layers.NewConv2d(inChannels, outChannels, 1, stride, 0, false)
		b.downBN = layers.NewBatchNorm(outChannels)
	}
	return b
}

func (b *basicBlock) forward(x *tensor.Tensor) *tensor.Tensor {
	identity := x
	if b.downConv != nil {
		identity = b.downBN.Forward(b.downConv.Forward(x))
	}
	y := layers.ReLU(b.bn1.Forward(b.conv1.Forward(x)))
	y = b.bn2.Forward(b.conv2.Forward(y))
	return layers.ReLU(tensor.Add(y, identity))
}

func (b *basicBlock) loadParams(p checkpoint.Params, prefix string) error {
	pairs := []struct {
		name  string
		layer interface {
			LoadParams(checkpoint.Params, string) error
		}
	}{
		{".conv1", b.conv1},
		{".bn1", b.bn1},
		{".conv2", b.conv2},
		{".bn2", b.bn2},
	}
	for _, pr := range pairs {
		if err := pr.layer.LoadParams(p, prefix+pr.name); err != nil {
			return err
		}
	}
	if b.downConv != nil {
		if err := b.downConv.LoadParams(p, prefix+".downsample.conv"); err != nil {
			return err
		}
		if err := b.downBN.LoadParams(p, prefix+".downsample.bn"); err != nil {
			return err
		}
	}
	return nil
}

func (b *basicBlock) exportParams(p checkpoint.Params, prefix string) {
	b.conv1.ExportParams(p, prefix+".conv1")
	b.bn1.ExportParams(p, prefix+".bn1")
	b.conv2.ExportParams(p, prefix+".conv2")
	b.bn2.ExportParams(p, prefix+".bn2")
	if b.downConv != nil {
		b.downConv.ExportParams(p, prefix+".downsample.conv")
		b.downBN.ExportParams(p, prefix+".downsample.bn")
	}
}

// ResNetBackbone is the frozen 18-layer residual feature tower: a 7x7
// strided stem, four stages of two basic blocks, and a global average pool
// collapsing any spatial size to a (B, 512) feature batch.
type ResNetBackbone struct {
	conv1  *layers.Conv2d
	bn1    *layers.BatchNorm
	pool   *layers.MaxPool2d
	stages [4][]*basicBlock
}

// NewResNetBackbone builds the zero-initialized tower; weights come from a
// checkpoint.
func NewResNetBackbone() *ResNetBackbone {
	r := &ResNetBackbone{
		conv1: layers.NewConv2d(3, resnetWidths[0], 7, 2, 3, false),
		bn1:   layers.NewBatchNorm(resnetWidths[0]),
		pool:  &layers.MaxPool2d{Kernel: 3, Stride: 2, Padding: 1},
	}
	in := resnetWidths[0]
	for s, width := range resnetWidths {
		stride := 2
		if s == 0 {
			stride = 1
		}
		r.stages[s] = []*basicBlock{
			newBasicBlock(in, width, stride),
			newBasicBlock(width, width, 1),
		}
		in = width
	}
	return r
}

// Forward embeds an image batch (B, 3, H, W) into (B, 512) features.
func (r *ResNetBackbone) Forward(x *tensor.Tensor) *tensor.Tensor {
	y := r.pool.Forward(layers.ReLU(r.bn1.Forward(r.conv1.Forward(x))))
	for _, stage := range r.stages {
		for _, b := range stage {
			y = b.forward(y)
		}
	}
	return layers.GlobalAvgPool2d(y)
}

// LoadParams fills the tower from the named checkpoint tensors.
func (r *ResNetBackbone) LoadParams(p checkpoint.Params, prefix string) error {
	if err := r.conv1.LoadParams(p, prefix+".conv1"); err != nil {
		return err
	}
	if err := r.bn1.LoadParams(p, prefix+".bn1"); err != nil {
		return err
	}
	for s, stage := range r.stages {
		for i, b := range stage {
			if err := b.loadParams(p, fmt.Sprintf("%s.layer%d.%d", prefix, s+1, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// ExportParams writes the tower's tensors into p.
func (r *ResNetBackbone) ExportParams(p checkpoint.Params, prefix string) {
	r.conv1.ExportParams(p, prefix+".conv1")
	r.bn1.ExportParams(p, prefix+".bn1")
	for s, stage := range r.stages {
		for i, b := range stage {
			b.exportParams(p, fmt.Sprintf("%s.layer%d.%d", prefix, s+1, i))
		}
	}
}
