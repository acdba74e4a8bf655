// Package checkpoint reads and writes model checkpoint bundles and the
// config.yml architecture descriptions stored beside them.
//
// A bundle is a msgpack document with the generator's named parameter
// tensors under model/generator, plus an optional kwargs section holding
// constructor arguments for auxiliary sub-models. Bundles are loaded once
// at process start and treated as read-only afterwards.
package checkpoint

import (
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// Tensor is one named parameter array in a bundle.
type Tensor struct {
	Shape []int     `msgpack:"shape"`
	Data  []float32 `msgpack:"data"`
}

// Params maps parameter names to tensors. It is the "model.generator"
// section of a bundle.
type Params map[string]Tensor

// Get returns the data of the named tensor after validating its shape.
func (p Params) Get(name string, shape ...int) ([]float32, error) {
	t, ok := p[name]
	if !ok {
		return nil, fmt.Errorf("checkpoint: parameter %q not found", name)
	}
	if !shapeEqual(t.Shape, shape) {
		return nil, fmt.Errorf("checkpoint: parameter %q has shape %v, want %v", name, t.Shape, shape)
	}
	n := 1
	for _, d := range shape {
		n *= d
	}
	if len(t.Data) != n {
		return nil, fmt.Errorf("checkpoint: parameter %q has %d values, want %d", name, len(t.Data), n)
	}
	return t.Data, nil
}

// Put stores a copy of data under the given name.
func (p Params) Put(name string, shape []int, data []float32) {
	d := make([]float32, len(data))
	copy(d, data)
	p[name] = Tensor{Shape: append([]int(nil), shape...), Data: d}
}

func shapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Model is the trained-parameter section of a bundle.
type Model struct {
	Generator Params `msgpack:"generator"`
}

// Bundle is one persisted checkpoint: parameters plus optional constructor
// arguments for auxiliary sub-models.
type Bundle struct {
	Model  Model          `msgpack:"model"`
	Kwargs map[string]any `msgpack:"kwargs,omitempty"`
}

// Save writes the bundle to path in msgpack encoding.
func Save(path string, b *Bundle) error {
	data, err := msgpack.Marshal(b)
	if err != nil {
		return fmt.Errorf("checkpoint: encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("checkpoint: write %s: %w", path, err)
	}
	return nil
}

// Load reads a bundle from path.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: read %s: %w", path, err)
	}
	var b Bundle
	if err := msgpack.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("checkpoint: decode %s: %w", path, err)
	}
	return &b, nil
}
