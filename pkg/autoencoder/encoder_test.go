package autoencoder

import (
	"errors"
	"testing"

	"github.com/Utkarsh4430/ARER/pkg/checkpoint"
	"github.com/Utkarsh4430/ARER/pkg/layers"
	"github.com/Utkarsh4430/ARER/pkg/tensor"
)

// testEncoderConfig keeps the speech branch narrow so encoder tests stay
// fast. The last ratio must lift the latent to the embedding width.
func testEncoderConfig() checkpoint.GeneratorConfig {
	cfg := checkpoint.DefaultGeneratorConfig()
	cfg.EncRatios = []int{2, 32}
	cfg.EncStrides = []int{3, 5}
	return cfg
}

func newTestEncoder(mode layers.Mode) *Encoder {
	material := NewVisualEncoder(&fakeBackbone{fill: 1})
	scene := NewVisualEncoder(&fakeBackbone{fill: 1})
	return NewEncoder(mode, testEncoderConfig(), material, scene)
}

func TestEncoderShapesAndPairing(t *testing.T) {
	enc := newTestEncoder(layers.Causal)
	// Zero conv weights keep both latents silent; distinct predictor
	// biases mark which tower fed which branch.
	for i := range enc.visualMaterial.predictor.Bias {
		enc.visualMaterial.predictor.Bias[i] = 7
	}
	for i := range enc.visualScene.predictor.Bias {
		enc.visualScene.predictor.Bias[i] = 3
	}

	x := tensor.New(1, 1, 900)
	mi := tensor.New(1, 3, 8, 8)
	ci := tensor.New(1, 3, 8, 8)

	speechAV, rirAV := enc.Forward(x, mi, ci)
	if speechAV.Dim(1) != EmbeddingChannels || speechAV.Dim(2) != 60+EmbeddingFrames {
		t.Fatalf("speech latent shape = %v, want [1 %d %d]", speechAV.Shape(), EmbeddingChannels, 64)
	}
	if rirAV.Dim(1) != EmbeddingChannels || rirAV.Dim(2) != 1+EmbeddingFrames {
		t.Fatalf("rir latent shape = %v, want [1 %d 5]", rirAV.Shape(), EmbeddingChannels)
	}

	// The speech branch carries the scene embedding, the RIR branch the
	// material embedding.
	sd := speechAV.Data()
	for c := 0; c < EmbeddingChannels; c++ {
		row := sd[c*64:][:64]
		for i := 0; i < 60; i++ {
			if row[i] != 0 {
				t.Fatalf("speech frame %d of channel %d = %v, want 0", i, c, row[i])
			}
		}
		for i := 60; i < 64; i++ {
			if row[i] != 3 {
				t.Fatalf("speech embedding frame %d of channel %d = %v, want 3", i, c, row[i])
			}
		}
	}
	rd := rirAV.Data()
	for c := 0; c < EmbeddingChannels; c++ {
		row := rd[c*5:][:5]
		if row[0] != 0 {
			t.Fatalf("rir frame 0 of channel %d = %v, want 0", c, row[0])
		}
		for i := 1; i < 5; i++ {
			if row[i] != 7 {
				t.Fatalf("rir embedding frame %d of channel %d = %v, want 7", i, c, row[i])
			}
		}
	}
}

func TestEncoderStreamingMatchesForward(t *testing.T) {
	enc := newTestEncoder(layers.Causal)
	randomizeParams(t, enc)

	chunk := enc.ChunkSamples()
	if chunk != 900 {
		t.Fatalf("ChunkSamples = %d, want 900", chunk)
	}
	T := 2 * chunk

	x := tensor.New(1, 1, T)
	fillDet(x.Data(), 0.25)
	mi := tensor.New(1, 3, 8, 8)
	fillDet(mi.Data(), 1.5)
	ci := tensor.New(1, 3, 8, 8)
	fillDet(ci.Data(), 2.5)

	wantSpeech, wantRIR := enc.Forward(x, mi, ci)

	st := enc.NewState(1)
	var gotSpeech, gotRIR *tensor.Tensor
	for from := 0; from < T; from += chunk {
		s, r, next, err := enc.Encode(timeSlice(x, from, from+chunk), mi, ci, st)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		st = next

		// Each chunk ends with the visual embedding; strip it before
		// splicing the audio-derived frames together.
		s = timeSlice(s, 0, s.Dim(2)-EmbeddingFrames)
		r = timeSlice(r, 0, r.Dim(2)-EmbeddingFrames)
		if gotSpeech == nil {
			gotSpeech, gotRIR = s, r
		} else {
			gotSpeech = tensor.ConcatTime(gotSpeech, s)
			gotRIR = tensor.ConcatTime(gotRIR, r)
		}
	}

	audioSpeech := timeSlice(wantSpeech, 0, wantSpeech.Dim(2)-EmbeddingFrames)
	audioRIR := timeSlice(wantRIR, 0, wantRIR.Dim(2)-EmbeddingFrames)
	if gotSpeech.Dim(2) != audioSpeech.Dim(2) {
		t.Fatalf("streamed %d speech frames, forward produced %d", gotSpeech.Dim(2), audioSpeech.Dim(2))
	}
	if gotRIR.Dim(2) != audioRIR.Dim(2) {
		t.Fatalf("streamed %d rir frames, forward produced %d", gotRIR.Dim(2), audioRIR.Dim(2))
	}
	if d := maxDiff(gotSpeech.Data(), audioSpeech.Data()); d > 1e-4 {
		t.Errorf("speech stream differs from forward by %g", d)
	}
	if d := maxDiff(gotRIR.Data(), audioRIR.Data()); d > 1e-4 {
		t.Errorf("rir stream differs from forward by %g", d)
	}
}

func TestEncoderNonCausalEncode(t *testing.T) {
	enc := newTestEncoder(layers.NonCausal)
	x := tensor.New(1, 1, 900)
	mi := tensor.New(1, 3, 8, 8)
	ci := tensor.New(1, 3, 8, 8)
	_, _, _, err := enc.Encode(x, mi, ci, nil)
	if !errors.Is(err, layers.ErrModeMismatch) {
		t.Fatalf("err = %v, want ErrModeMismatch", err)
	}
}

func TestEncoderNonCausalForwardLength(t *testing.T) {
	// Non-causal padding reaches the same frame counts for
	// stride-divisible inputs.
	enc := newTestEncoder(layers.NonCausal)
	x := tensor.New(1, 1, 1800)
	mi := tensor.New(1, 3, 8, 8)
	ci := tensor.New(1, 3, 8, 8)

	speechAV, rirAV := enc.Forward(x, mi, ci)
	if speechAV.Dim(2) != 120+EmbeddingFrames {
		t.Errorf("speech frames = %d, want %d", speechAV.Dim(2), 120+EmbeddingFrames)
	}
	if rirAV.Dim(2) != 2+EmbeddingFrames {
		t.Errorf("rir frames = %d, want %d", rirAV.Dim(2), 2+EmbeddingFrames)
	}
}

func TestEncoderChannelWidths(t *testing.T) {
	enc := newTestEncoder(layers.Causal)
	if enc.SpeechChannels() != 512 {
		t.Errorf("SpeechChannels = %d, want 512", enc.SpeechChannels())
	}
	if enc.RIRChannels() != 512 {
		t.Errorf("RIRChannels = %d, want 512", enc.RIRChannels())
	}
}
