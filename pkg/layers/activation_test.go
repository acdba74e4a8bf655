package layers

import (
	"math"
	"testing"

	"github.com/Utkarsh4430/ARER/pkg/tensor"
)

func TestELU(t *testing.T) {
	x := tensor.FromSlice([]float32{-1, 0, 2}, 1, 1, 3)
	y := ELU(x)
	// exp(-1)-1 ≈ -0.6321
	if diff := math.Abs(float64(y.Data()[0]) + 0.6321206); diff > 1e-6 {
		t.Errorf("ELU(-1) = %v", y.Data()[0])
	}
	if y.Data()[1] != 0 || y.Data()[2] != 2 {
		t.Errorf("ELU kept values wrong: %v", y.Data())
	}
	if x.Data()[0] != -1 {
		t.Error("input was modified")
	}
}

func TestLeakyReLU(t *testing.T) {
	x := tensor.FromSlice([]float32{-1, 0, 3}, 1, 1, 3)
	y := LeakyReLU(x, 0.2)
	want := []float32{-0.2, 0, 3}
	for i, w := range want {
		if diff := math.Abs(float64(y.Data()[i] - w)); diff > 1e-6 {
			t.Errorf("y[%d] = %v, want %v", i, y.Data()[i], w)
		}
	}
	if x.Data()[0] != -1 {
		t.Error("input was modified")
	}
}

func TestReLU(t *testing.T) {
	x := tensor.FromSlice([]float32{-2, 0, 5}, 1, 1, 3)
	y := ReLU(x)
	want := []float32{0, 0, 5}
	for i, w := range want {
		if y.Data()[i] != w {
			t.Errorf("y[%d] = %v, want %v", i, y.Data()[i], w)
		}
	}
}
