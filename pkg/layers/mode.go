// Package layers implements the neural network primitives underneath the
// codec's autoencoder: 1-D convolutions with causal (streaming) and
// non-causal (batch) padding, transposed convolutions for upsampling, 2-D
// convolutions and pooling for the visual backbone, batch normalization in
// evaluation mode, linear projections, and pointwise activations.
//
// Causal layers support two execution paths. Forward processes a whole
// sequence at once. Inference processes one chunk at a time against a
// caller-owned state object holding the input history; no layer keeps
// cross-call state internally, so independent streaming sessions can share
// one loaded model as long as each session threads its own state.
//
// Weights are exposed as plain float32 slices and are written once at load
// time (or by tests); every forward path treats them as read-only.
package layers

import (
	"errors"
	"fmt"
)

// ErrModeMismatch is returned when a streaming entry point is invoked on a
// component constructed in non-causal mode. It signals a programming or
// configuration error, never a transient condition.
var ErrModeMismatch = errors.New("layers: streaming inference requires causal mode")

// Mode selects between batch and streaming padding behavior. It is fixed at
// construction and applies to every convolution in a component.
type Mode int

const (
	// NonCausal pads symmetrically; the full sequence must be available.
	NonCausal Mode = iota
	// Causal pads on the left only, so each output depends on past and
	// current input and the layer can stream with carried state.
	Causal
)

// ParseMode converts a configuration string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "causal":
		return Causal, nil
	case "noncausal":
		return NonCausal, nil
	}
	return 0, fmt.Errorf("layers: mode %q is not supported", s)
}

// String returns the configuration spelling of the mode.
func (m Mode) String() string {
	switch m {
	case Causal:
		return "causal"
	case NonCausal:
		return "noncausal"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}
