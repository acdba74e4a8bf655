package layers

import (
	"errors"
	"math"
	"testing"

	"github.com/Utkarsh4430/ARER/pkg/tensor"
)

// fillDeterministic gives every slot a reproducible non-trivial value.
func fillDeterministic(s []float32, seed float64) {
	for i := range s {
		s[i] = float32(math.Sin(seed + float64(i)*0.7))
	}
}

func TestConv1dOutLen(t *testing.T) {
	tests := []struct {
		mode    Mode
		kernel  int
		stride  int
		dil     int
		T, want int
	}{
		{Causal, 7, 1, 1, 10, 10},
		{NonCausal, 7, 1, 1, 10, 10},
		{Causal, 7, 1, 9, 10, 10},
		{NonCausal, 7, 1, 9, 10, 10},
		{Causal, 6, 3, 1, 9, 3},
		{NonCausal, 6, 3, 1, 9, 3},
		{Causal, 10, 5, 1, 25, 5},
		{NonCausal, 10, 5, 1, 25, 5},
		{Causal, 14401, 225, 1, 2250, 10},
		{Causal, 3, 1, 1, 1, 1},
	}
	for _, tt := range tests {
		c := NewConv1d(tt.mode, 1, 1, tt.kernel, tt.stride, tt.dil, false)
		if got := c.OutLen(tt.T); got != tt.want {
			t.Errorf("%v k=%d s=%d d=%d: OutLen(%d) = %d, want %d",
				tt.mode, tt.kernel, tt.stride, tt.dil, tt.T, got, tt.want)
		}
	}
}

func TestConv1dForwardNonCausal(t *testing.T) {
	c := NewConv1d(NonCausal, 1, 1, 3, 1, 1, false)
	copy(c.Weight, []float32{1, 2, 3})
	x := tensor.FromSlice([]float32{1, 2, 3, 4}, 1, 1, 4)

	y := c.Forward(x)
	// Padded input [0 1 2 3 4 0], window dot (1,2,3).
	want := []float32{8, 14, 20, 11}
	for i, w := range want {
		if got := y.Data()[i]; math.Abs(float64(got-w)) > 1e-6 {
			t.Errorf("y[%d] = %v, want %v", i, got, w)
		}
	}
}

func TestConv1dForwardCausal(t *testing.T) {
	c := NewConv1d(Causal, 1, 1, 3, 1, 1, false)
	copy(c.Weight, []float32{1, 2, 3})
	x := tensor.FromSlice([]float32{1, 2, 3, 4}, 1, 1, 4)

	y := c.Forward(x)
	// Padded input [0 0 1 2 3 4]: output at t only sees x[..t].
	want := []float32{3, 8, 14, 20}
	for i, w := range want {
		if got := y.Data()[i]; math.Abs(float64(got-w)) > 1e-6 {
			t.Errorf("y[%d] = %v, want %v", i, got, w)
		}
	}
}

func TestConv1dForwardStridedBias(t *testing.T) {
	c := NewConv1d(Causal, 1, 1, 4, 2, 1, true)
	copy(c.Weight, []float32{1, 1, 1, 1})
	c.Bias[0] = 10
	x := tensor.FromSlice([]float32{1, 2, 3, 4}, 1, 1, 4)

	y := c.Forward(x)
	if y.Dim(2) != 2 {
		t.Fatalf("output length = %d, want 2", y.Dim(2))
	}
	// Windows [0 0 0 1] and [0 1 2 3] plus bias.
	want := []float32{11, 16}
	for i, w := range want {
		if got := y.Data()[i]; math.Abs(float64(got-w)) > 1e-6 {
			t.Errorf("y[%d] = %v, want %v", i, got, w)
		}
	}
}

func TestConv1dMultiChannel(t *testing.T) {
	c := NewConv1d(Causal, 2, 1, 1, 1, 1, false)
	// 1x1 kernel summing ch0 + 2*ch1.
	copy(c.Weight, []float32{1, 2})
	x := tensor.FromSlice([]float32{
		1, 2, 3, // ch0
		10, 20, 30, // ch1
	}, 1, 2, 3)
	y := c.Forward(x)
	want := []float32{21, 42, 63}
	for i, w := range want {
		if got := y.Data()[i]; got != w {
			t.Errorf("y[%d] = %v, want %v", i, got, w)
		}
	}
}

// Streaming a causal conv chunk by chunk must reproduce the one-shot
// forward output when chunk lengths are multiples of the stride.
func TestConv1dStreamingMatchesForward(t *testing.T) {
	tests := []struct {
		name   string
		kernel int
		stride int
		dil    int
		chunks []int
	}{
		{"k7s1", 7, 1, 1, []int{5, 1, 9, 3}},
		{"k7s1d9", 7, 1, 9, []int{6, 6, 6}},
		{"k6s3", 6, 3, 1, []int{3, 6, 9}},
		{"k10s5", 10, 5, 1, []int{5, 10, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const B, Cin, Cout = 2, 3, 4
			c := NewConv1d(Causal, Cin, Cout, tt.kernel, tt.stride, tt.dil, true)
			fillDeterministic(c.Weight, 0.3)
			fillDeterministic(c.Bias, 1.1)

			total := 0
			for _, l := range tt.chunks {
				total += l
			}
			x := tensor.New(B, Cin, total)
			fillDeterministic(x.Data(), 2.5)

			want := c.Forward(x)

			st := c.NewState(B)
			var got []float32
			off := 0
			outOff := 0
			outs := make([][]float32, 0)
			for _, l := range tt.chunks {
				chunk := tensor.New(B, Cin, l)
				for b := 0; b < B; b++ {
					for ic := 0; ic < Cin; ic++ {
						src := x.Data()[(b*Cin+ic)*total+off:][:l]
						dst := chunk.Data()[(b*Cin+ic)*l:][:l]
						copy(dst, src)
					}
				}
				y, next, err := c.Inference(chunk, st)
				if err != nil {
					t.Fatalf("Inference: %v", err)
				}
				st = next
				outs = append(outs, y.Data())
				outOff += y.Dim(2)
				off += l
			}
			if outOff != want.Dim(2) {
				t.Fatalf("streamed %d frames, forward produced %d", outOff, want.Dim(2))
			}

			// Reassemble (B, Cout, total/stride) from per-chunk outputs.
			outT := want.Dim(2)
			got = make([]float32, B*Cout*outT)
			pos := 0
			for _, o := range outs {
				l := len(o) / (B * Cout)
				for b := 0; b < B; b++ {
					for oc := 0; oc < Cout; oc++ {
						copy(got[(b*Cout+oc)*outT+pos:], o[(b*Cout+oc)*l:][:l])
					}
				}
				pos += l
			}
			for i := range got {
				if diff := math.Abs(float64(got[i] - want.Data()[i])); diff > 1e-5 {
					t.Fatalf("sample %d: streamed %v, forward %v (diff %g)", i, got[i], want.Data()[i], diff)
				}
			}
		})
	}
}

func TestConv1dStreamingStateNotMutated(t *testing.T) {
	c := NewConv1d(Causal, 1, 1, 3, 1, 1, false)
	copy(c.Weight, []float32{1, 2, 3})
	st := c.NewState(1)

	x := tensor.FromSlice([]float32{1, 2}, 1, 1, 2)
	y1, _, err := c.Inference(x, st)
	if err != nil {
		t.Fatalf("Inference: %v", err)
	}
	// Same state, same chunk: identical output.
	y2, _, err := c.Inference(x, st)
	if err != nil {
		t.Fatalf("Inference: %v", err)
	}
	for i := range y1.Data() {
		if y1.Data()[i] != y2.Data()[i] {
			t.Fatalf("state was mutated: %v vs %v", y1.Data(), y2.Data())
		}
	}
}

func TestConv1dInferenceNonCausal(t *testing.T) {
	c := NewConv1d(NonCausal, 1, 1, 3, 1, 1, false)
	x := tensor.New(1, 1, 3)
	if _, _, err := c.Inference(x, c.NewState(1)); !errors.Is(err, ErrModeMismatch) {
		t.Fatalf("err = %v, want ErrModeMismatch", err)
	}
}

func TestConv1dInferenceBatchMismatch(t *testing.T) {
	c := NewConv1d(Causal, 1, 1, 3, 1, 1, false)
	x := tensor.New(2, 1, 3)
	if _, _, err := c.Inference(x, c.NewState(1)); err == nil {
		t.Fatal("expected state batch mismatch error")
	}
}
