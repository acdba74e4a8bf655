package layers

import (
	"math"
	"testing"

	"github.com/Utkarsh4430/ARER/pkg/tensor"
)

func TestBatchNormIdentityInit(t *testing.T) {
	bn := NewBatchNorm(3)
	x := tensor.New(1, 3, 4)
	fillDeterministic(x.Data(), 0.2)

	y := bn.Forward(x)
	for i := range x.Data() {
		if diff := math.Abs(float64(y.Data()[i] - x.Data()[i])); diff > 1e-5 {
			t.Fatalf("identity-initialized norm changed sample %d: %v -> %v", i, x.Data()[i], y.Data()[i])
		}
	}
}

func TestBatchNormNormalizes(t *testing.T) {
	bn := NewBatchNorm(2)
	copy(bn.RunningMean, []float32{1, 0})
	copy(bn.RunningVar, []float32{4, 1})
	copy(bn.Weight, []float32{2, 1})
	copy(bn.Bias, []float32{1, 0})

	x := tensor.FromSlice([]float32{
		1, 3, // ch0: (x-1)/2*2 + 1
		5, -5, // ch1: x/1
	}, 1, 2, 2)
	y := bn.Forward(x)
	want := []float32{1, 3, 5, -5}
	for i, w := range want {
		if diff := math.Abs(float64(y.Data()[i] - w)); diff > 1e-4 {
			t.Errorf("y[%d] = %v, want %v", i, y.Data()[i], w)
		}
	}
}

func TestBatchNorm4D(t *testing.T) {
	bn := NewBatchNorm(2)
	copy(bn.RunningMean, []float32{10, -10})

	x := tensor.FromSlice([]float32{
		12, 8, // ch0 minus mean 10
		-8, -12, // ch1 minus mean -10
	}, 1, 2, 1, 2)
	y := bn.Forward(x)
	want := []float32{2, -2, 2, -2}
	for i, w := range want {
		if diff := math.Abs(float64(y.Data()[i] - w)); diff > 1e-4 {
			t.Errorf("y[%d] = %v, want %v", i, y.Data()[i], w)
		}
	}
}

func TestBatchNormWrongChannels(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for channel mismatch")
		}
	}()
	bn := NewBatchNorm(3)
	bn.Forward(tensor.New(1, 2, 4))
}
