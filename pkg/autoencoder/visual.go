package autoencoder

import (
	"github.com/Utkarsh4430/ARER/pkg/checkpoint"
	"github.com/Utkarsh4430/ARER/pkg/layers"
	"github.com/Utkarsh4430/ARER/pkg/tensor"
)

const (
	// EmbeddingChannels is the channel width of a visual embedding. It is
	// fixed by the backbone's feature width and must equal the latent
	// channel count of the branch the embedding is appended to.
	EmbeddingChannels = 512

	// EmbeddingFrames is the number of time frames a visual embedding
	// contributes when appended to a latent stream.
	EmbeddingFrames = 4
)

// Backbone turns an image batch (B, 3, H, W) into (B, EmbeddingChannels)
// features. Implementations hold frozen weights loaded from a checkpoint.
type Backbone interface {
	Forward(x *tensor.Tensor) *tensor.Tensor
	LoadParams(p checkpoint.Params, prefix string) error
	ExportParams(p checkpoint.Params, prefix string)
}

// VisualEncoder embeds a conditioning image into a short latent segment:
// backbone features through a linear predictor, reshaped to one frame and
// tiled to EmbeddingFrames. The encoder owns two independently-weighted
// instances (material and scene); they share no parameters.
type VisualEncoder struct {
	backbone  Backbone
	predictor *layers.Linear
}

// NewVisualEncoder wraps a backbone with the embedding predictor.
func NewVisualEncoder(backbone Backbone) *VisualEncoder {
	return &VisualEncoder{
		backbone:  backbone,
		predictor: layers.NewLinear(EmbeddingChannels, EmbeddingChannels, true),
	}
}

// Forward embeds img (B, 3, H, W) into (B, EmbeddingChannels,
// EmbeddingFrames). The output shape does not depend on H or W.
func (v *VisualEncoder) Forward(img *tensor.Tensor) *tensor.Tensor {
	pred := v.predictor.Forward(v.backbone.Forward(img))
	B := pred.Dim(0)
	out := tensor.New(B, EmbeddingChannels, EmbeddingFrames)
	od := out.Data()
	pd := pred.Data()
	for b := 0; b < B; b++ {
		for c := 0; c < EmbeddingChannels; c++ {
			v := pd[b*EmbeddingChannels+c]
			row := od[(b*EmbeddingChannels+c)*EmbeddingFrames:][:EmbeddingFrames]
			for t := range row {
				row[t] = v
			}
		}
	}
	return out
}

// LoadParams fills the backbone and predictor from the named checkpoint
// tensors.
func (v *VisualEncoder) LoadParams(p checkpoint.Params, prefix string) error {
	if err := v.backbone.LoadParams(p, prefix+".backbone"); err != nil {
		return err
	}
	return v.predictor.LoadParams(p, prefix+".predictor")
}

// ExportParams writes the backbone's and predictor's tensors into p.
func (v *VisualEncoder) ExportParams(p checkpoint.Params, prefix string) {
	v.backbone.ExportParams(p, prefix+".backbone")
	v.predictor.ExportParams(p, prefix+".predictor")
}
