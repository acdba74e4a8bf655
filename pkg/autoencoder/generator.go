package autoencoder

import (
	"fmt"

	"github.com/Utkarsh4430/ARER/pkg/checkpoint"
	"github.com/Utkarsh4430/ARER/pkg/layers"
	"github.com/Utkarsh4430/ARER/pkg/tensor"
)

// Generator is the full codec: one shared encoder and a projector,
// quantizer, and decoder per branch. Analyze runs the encoding half,
// Synthesize the decoding half; the drivers compose them.
type Generator struct {
	Encoder *Encoder

	ProjectorSpeech *Projector
	ProjectorRIR    *Projector

	QuantizerSpeech *Quantizer
	QuantizerRIR    *Quantizer

	DecoderSpeech *Decoder
	DecoderRIR    *Decoder

	mode layers.Mode
}

// NewGenerator builds a zero-initialized generator from cfg. The visual
// towers use the default frozen backbone; parameters come from LoadParams.
func NewGenerator(cfg checkpoint.GeneratorConfig) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("autoencoder: %w", err)
	}
	mode, err := layers.ParseMode(cfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("autoencoder: %w", err)
	}

	material := NewVisualEncoder(NewResNetBackbone())
	scene := NewVisualEncoder(NewResNetBackbone())
	enc := NewEncoder(mode, cfg, material, scene)

	g := &Generator{
		Encoder:         enc,
		ProjectorSpeech: NewProjector(mode, enc.SpeechChannels(), cfg.CodeDim),
		ProjectorRIR:    NewProjector(mode, enc.RIRChannels(), cfg.CodeDim),
		QuantizerSpeech: NewQuantizer(cfg.CodebookNum, cfg.CodebookSize, cfg.CodeDim),
		QuantizerRIR:    NewQuantizer(cfg.CodebookNum, cfg.CodebookSize, cfg.CodeDim),
		DecoderSpeech: NewDecoder(mode, cfg.CodeDim, cfg.OutputChannels, cfg.DecodeChannels,
			cfg.DecRatiosSpeech, cfg.DecStridesSpeech, cfg.KernelSize, cfg.Bias),
		DecoderRIR: NewDecoder(mode, cfg.CodeDim, cfg.OutputChannels, cfg.DecodeChannels,
			cfg.DecRatiosRIR, cfg.DecStridesRIR, cfg.KernelSize, cfg.Bias),
		mode: mode,
	}
	return g, nil
}

// Mode returns the execution mode fixed at construction.
func (g *Generator) Mode() layers.Mode { return g.mode }

// Analyze encodes, projects, and quantizes both branches. x is
// (B, Cin, T); mi and ci are the material and scene image batches.
func (g *Generator) Analyze(x, mi, ci *tensor.Tensor) (zqSpeech, zqRIR *tensor.Tensor) {
	xSpeech, xRIR := g.Encoder.Forward(x, mi, ci)
	zqSpeech = g.QuantizerSpeech.Forward(g.ProjectorSpeech.Forward(xSpeech))
	zqRIR = g.QuantizerRIR.Forward(g.ProjectorRIR.Forward(xRIR))
	return zqSpeech, zqRIR
}

// Synthesize decodes both branches' quantized codes into waveforms.
func (g *Generator) Synthesize(zqSpeech, zqRIR *tensor.Tensor) (ySpeech, yRIR *tensor.Tensor) {
	return g.DecoderSpeech.Forward(zqSpeech), g.DecoderRIR.Forward(zqRIR)
}

// LoadParams fills every component from a checkpoint's generator section.
func (g *Generator) LoadParams(p checkpoint.Params) error {
	if err := g.Encoder.LoadParams(p, "encoder"); err != nil {
		return fmt.Errorf("autoencoder: load encoder: %w", err)
	}
	if err := g.ProjectorSpeech.LoadParams(p, "projector_speech"); err != nil {
		return fmt.Errorf("autoencoder: load speech projector: %w", err)
	}
	if err := g.ProjectorRIR.LoadParams(p, "projector_rir"); err != nil {
		return fmt.Errorf("autoencoder: load rir projector: %w", err)
	}
	if err := g.QuantizerSpeech.LoadParams(p, "quantizer_speech"); err != nil {
		return fmt.Errorf("autoencoder: load speech quantizer: %w", err)
	}
	if err := g.QuantizerRIR.LoadParams(p, "quantizer_rir"); err != nil {
		return fmt.Errorf("autoencoder: load rir quantizer: %w", err)
	}
	if err := g.DecoderSpeech.LoadParams(p, "decoder_speech"); err != nil {
		return fmt.Errorf("autoencoder: load speech decoder: %w", err)
	}
	if err := g.DecoderRIR.LoadParams(p, "decoder_rir"); err != nil {
		return fmt.Errorf("autoencoder: load rir decoder: %w", err)
	}
	return nil
}

// ExportParams collects every component's tensors under the checkpoint
// naming scheme. It is the inverse of LoadParams and exists so tests and
// tools can materialize well-formed checkpoints.
func (g *Generator) ExportParams() checkpoint.Params {
	p := checkpoint.Params{}
	g.Encoder.ExportParams(p, "encoder")
	g.ProjectorSpeech.ExportParams(p, "projector_speech")
	g.ProjectorRIR.ExportParams(p, "projector_rir")
	g.QuantizerSpeech.ExportParams(p, "quantizer_speech")
	g.QuantizerRIR.ExportParams(p, "quantizer_rir")
	g.DecoderSpeech.ExportParams(p, "decoder_speech")
	g.DecoderRIR.ExportParams(p, "decoder_rir")
	return p
}
