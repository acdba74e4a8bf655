package autoencoder

import (
	"fmt"

	"github.com/Utkarsh4430/ARER/pkg/checkpoint"
	"github.com/Utkarsh4430/ARER/pkg/layers"
	"github.com/Utkarsh4430/ARER/pkg/tensor"
)

// rirSlope is the negative slope of the RIR stack's activations.
const rirSlope = 0.2

// rirStack extracts the room-impulse-response latent with one very wide
// strided conv followed by two medium-kernel refinement convs. Channel
// widths scale with the encoder width E: 16E -> 24E -> 32E.
type rirStack struct {
	conv1 *layers.Conv1d // Cin -> 16E, k=14401, s=225
	conv2 *layers.Conv1d // 16E -> 24E, k=41, s=2
	bn2   *layers.BatchNorm
	conv3 *layers.Conv1d // 24E -> 32E, k=41, s=2
	bn3   *layers.BatchNorm
}

func newRIRStack(mode layers.Mode, inChannels, encodeChannels int) *rirStack {
	return &rirStack{
		conv1: layers.NewConv1d(mode, inChannels, 16*encodeChannels, 14401, 225, 1, false),
		conv2: layers.NewConv1d(mode, 16*encodeChannels, 24*encodeChannels, 41, 2, 1, false),
		bn2:   layers.NewBatchNorm(24 * encodeChannels),
		conv3: layers.NewConv1d(mode, 24*encodeChannels, 32*encodeChannels, 41, 2, 1, false),
		bn3:   layers.NewBatchNorm(32 * encodeChannels),
	}
}

func (r *rirStack) forward(x *tensor.Tensor) *tensor.Tensor {
	y := layers.LeakyReLU(r.conv1.Forward(x), rirSlope)
	y = layers.LeakyReLU(r.bn2.Forward(r.conv2.Forward(y)), rirSlope)
	return layers.LeakyReLU(r.bn3.Forward(r.conv3.Forward(y)), rirSlope)
}

type rirState struct {
	conv1, conv2, conv3 *layers.Conv1dState
}

func (r *rirStack) newState(batch int) *rirState {
	return &rirState{
		conv1: r.conv1.NewState(batch),
		conv2: r.conv2.NewState(batch),
		conv3: r.conv3.NewState(batch),
	}
}

func (r *rirStack) inference(x *tensor.Tensor, st *rirState) (*tensor.Tensor, *rirState, error) {
	y, st1, err := r.conv1.Inference(x, st.conv1)
	if err != nil {
		return nil, nil, err
	}
	y = layers.LeakyReLU(y, rirSlope)
	y, st2, err := r.conv2.Inference(y, st.conv2)
	if err != nil {
		return nil, nil, err
	}
	y = layers.LeakyReLU(r.bn2.Forward(y), rirSlope)
	y, st3, err := r.conv3.Inference(y, st.conv3)
	if err != nil {
		return nil, nil, err
	}
	y = layers.LeakyReLU(r.bn3.Forward(y), rirSlope)
	return y, &rirState{conv1: st1, conv2: st2, conv3: st3}, nil
}

func (r *rirStack) loadParams(p checkpoint.Params, prefix string) error {
	if err := r.conv1.LoadParams(p, prefix+".conv1"); err != nil {
		return err
	}
	if err := r.conv2.LoadParams(p, prefix+".conv2"); err != nil {
		return err
	}
	if err := r.bn2.LoadParams(p, prefix+".bn2"); err != nil {
		return err
	}
	if err := r.conv3.LoadParams(p, prefix+".conv3"); err != nil {
		return err
	}
	return r.bn3.LoadParams(p, prefix+".bn3")
}

func (r *rirStack) exportParams(p checkpoint.Params, prefix string) {
	r.conv1.ExportParams(p, prefix+".conv1")
	r.conv2.ExportParams(p, prefix+".conv2")
	r.bn2.ExportParams(p, prefix+".bn2")
	r.conv3.ExportParams(p, prefix+".conv3")
	r.bn3.ExportParams(p, prefix+".bn3")
}

// Encoder maps a waveform batch and two conditioning images to a pair of
// audio-visual latent streams. A shared combine conv feeds both branches:
// the speech branch runs a widening conv and a stack of strided encoder
// blocks, the RIR branch runs the fixed large-kernel stack. Each branch's
// latent is extended along time with its visual embedding: the scene
// embedding joins the speech latent, the material embedding joins the RIR
// latent.
type Encoder struct {
	mode layers.Mode

	convCombine *layers.Conv1d
	conv        *layers.Conv1d
	speech      []*EncoderBlock
	rir         *rirStack

	visualMaterial *VisualEncoder
	visualScene    *VisualEncoder

	speechChannels int
	rirChannels    int
	speechStride   int
}

// NewEncoder builds the encoder described by cfg using the given visual
// towers. The caller has already validated cfg and parsed its mode.
func NewEncoder(mode layers.Mode, cfg checkpoint.GeneratorConfig, material, scene *VisualEncoder) *Encoder {
	e := &Encoder{
		mode:           mode,
		convCombine:    layers.NewConv1d(mode, cfg.InputChannels, cfg.InputChannels, 3, 1, 1, false),
		conv:           layers.NewConv1d(mode, cfg.InputChannels, cfg.EncodeChannels, cfg.KernelSize, 1, 1, false),
		rir:            newRIRStack(mode, cfg.InputChannels, cfg.EncodeChannels),
		visualMaterial: material,
		visualScene:    scene,
		rirChannels:    32 * cfg.EncodeChannels,
		speechStride:   1,
	}
	in := cfg.EncodeChannels
	for i, stride := range cfg.EncStrides {
		out := cfg.EncodeChannels * cfg.EncRatios[i]
		e.speech = append(e.speech, NewEncoderBlock(mode, in, out, stride, cfg.Bias))
		e.speechStride *= stride
		in = out
	}
	e.speechChannels = in
	return e
}

// Mode returns the execution mode fixed at construction.
func (e *Encoder) Mode() layers.Mode { return e.mode }

// SpeechChannels returns the channel width of the speech latent.
func (e *Encoder) SpeechChannels() int { return e.speechChannels }

// RIRChannels returns the channel width of the RIR latent.
func (e *Encoder) RIRChannels() int { return e.rirChannels }

// ChunkSamples returns the smallest streaming chunk length: the least
// common span after which both branches land on a frame boundary. Chunks
// passed to Encode must be multiples of this.
func (e *Encoder) ChunkSamples() int {
	// The RIR stack needs 225·4 input samples per aligned output frame;
	// the speech branch needs its stride product.
	rir := 225 * 4
	lcm := rir
	for lcm%e.speechStride != 0 {
		lcm += rir
	}
	return lcm
}

// Forward encodes a whole sequence. x is (B, Cin, T); mi and ci are image
// batches (B, 3, H, W). It returns the speech latent with the scene
// embedding appended and the RIR latent with the material embedding
// appended.
func (e *Encoder) Forward(x, mi, ci *tensor.Tensor) (speechAV, rirAV *tensor.Tensor) {
	miCode := e.visualMaterial.Forward(mi)
	ciCode := e.visualScene.Forward(ci)

	xc := e.convCombine.Forward(x)

	xs := e.conv.Forward(xc)
	for _, b := range e.speech {
		xs = b.Forward(xs)
	}

	xr := e.rir.forward(xc)

	return tensor.ConcatTime(xs, ciCode), tensor.ConcatTime(xr, miCode)
}

// EncoderState carries every sublayer's streaming state for one session.
type EncoderState struct {
	combine *layers.Conv1dState
	conv    *layers.Conv1dState
	speech  []*EncoderBlockState
	rir     *rirState
}

// NewState returns the zero history preceding the first chunk.
func (e *Encoder) NewState(batch int) *EncoderState {
	st := &EncoderState{
		combine: e.convCombine.NewState(batch),
		conv:    e.conv.NewState(batch),
		rir:     e.rir.newState(batch),
	}
	for _, b := range e.speech {
		st.speech = append(st.speech, b.NewState(batch))
	}
	return st
}

// Encode processes one chunk of a stream. Chunk lengths must be multiples
// of ChunkSamples. The visual embeddings are recomputed and appended per
// chunk, exactly as Forward appends them per sequence; callers that stream
// a fixed scene can reuse the same images every call. Returns a
// mode-mismatch error when the encoder is non-causal.
func (e *Encoder) Encode(x, mi, ci *tensor.Tensor, st *EncoderState) (speechAV, rirAV *tensor.Tensor, next *EncoderState, err error) {
	if e.mode != layers.Causal {
		return nil, nil, nil, fmt.Errorf("autoencoder: encoder: %w", layers.ErrModeMismatch)
	}

	miCode := e.visualMaterial.Forward(mi)
	ciCode := e.visualScene.Forward(ci)

	next = &EncoderState{speech: make([]*EncoderBlockState, len(e.speech))}

	xc, combineSt, err := e.convCombine.Inference(x, st.combine)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("autoencoder: encoder: %w", err)
	}
	next.combine = combineSt

	xs, convSt, err := e.conv.Inference(xc, st.conv)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("autoencoder: encoder: %w", err)
	}
	next.conv = convSt
	for i, b := range e.speech {
		xs, next.speech[i], err = b.Inference(xs, st.speech[i])
		if err != nil {
			return nil, nil, nil, fmt.Errorf("autoencoder: encoder: %w", err)
		}
	}

	xr, rirSt, err := e.rir.inference(xc, st.rir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("autoencoder: encoder: %w", err)
	}
	next.rir = rirSt

	return tensor.ConcatTime(xs, ciCode), tensor.ConcatTime(xr, miCode), next, nil
}

// LoadParams fills the encoder from the named checkpoint tensors.
func (e *Encoder) LoadParams(p checkpoint.Params, prefix string) error {
	if err := e.convCombine.LoadParams(p, prefix+".conv_combine"); err != nil {
		return err
	}
	if err := e.conv.LoadParams(p, prefix+".conv"); err != nil {
		return err
	}
	for i, b := range e.speech {
		if err := b.LoadParams(p, fmt.Sprintf("%s.speech_blocks.%d", prefix, i)); err != nil {
			return err
		}
	}
	if err := e.rir.loadParams(p, prefix+".rir"); err != nil {
		return err
	}
	if err := e.visualMaterial.LoadParams(p, prefix+".visual_material"); err != nil {
		return err
	}
	return e.visualScene.LoadParams(p, prefix+".visual_scene")
}

// ExportParams writes the encoder's tensors into p.
func (e *Encoder) ExportParams(p checkpoint.Params, prefix string) {
	e.convCombine.ExportParams(p, prefix+".conv_combine")
	e.conv.ExportParams(p, prefix+".conv")
	for i, b := range e.speech {
		b.ExportParams(p, fmt.Sprintf("%s.speech_blocks.%d", prefix, i))
	}
	e.rir.exportParams(p, prefix+".rir")
	e.visualMaterial.ExportParams(p, prefix+".visual_material")
	e.visualScene.ExportParams(p, prefix+".visual_scene")
}
