package autoencoder

import (
	"testing"

	"github.com/Utkarsh4430/ARER/pkg/checkpoint"
	"github.com/Utkarsh4430/ARER/pkg/tensor"
)

func TestQuantizerSnapsToNearestCode(t *testing.T) {
	q := NewQuantizer(1, 3, 2)
	// Codes (0,0), (1,1), (5,5).
	copy(q.Codebooks[0], []float32{0, 0, 1, 1, 5, 5})

	z := tensor.FromSlice([]float32{
		0.2, 0.9, 4.0,
		0.1, 1.2, 6.0,
	}, 1, 2, 3)
	y := q.Forward(z)

	want := []float32{
		0, 1, 5,
		0, 1, 5,
	}
	for i, w := range want {
		if y.Data()[i] != w {
			t.Fatalf("quantized[%d] = %v, want %v", i, y.Data()[i], w)
		}
	}
}

func TestQuantizerResidualStages(t *testing.T) {
	q := NewQuantizer(2, 3, 2)
	copy(q.Codebooks[0], []float32{0, 0, 1, 1, 5, 5})
	copy(q.Codebooks[1], []float32{0, 0, -0.125, 0.25, 2, 2})

	// z = (0.875, 1.25): stage 1 picks (1,1), residual (-0.125, 0.25),
	// stage 2 picks (-0.125, 0.25) exactly, so the sum recovers z.
	z := tensor.FromSlice([]float32{0.875, 1.25}, 1, 2, 1)
	y := q.Forward(z)
	if y.Data()[0] != 0.875 || y.Data()[1] != 1.25 {
		t.Fatalf("quantized = %v, want [0.875 1.25]", y.Data())
	}
}

func TestQuantizerTieBreaksLow(t *testing.T) {
	q := NewQuantizer(1, 2, 1)
	// 0.5 is equidistant from both codes; the lower index wins.
	copy(q.Codebooks[0], []float32{0, 1})

	z := tensor.FromSlice([]float32{0.5}, 1, 1, 1)
	if y := q.Forward(z); y.Data()[0] != 0 {
		t.Fatalf("tie quantized to %v, want 0", y.Data()[0])
	}
}

func TestQuantizerShapeAndBatch(t *testing.T) {
	q := NewQuantizer(4, 8, 3)
	for i, book := range q.Codebooks {
		fillDet(book, float64(i)*0.9)
	}
	z := tensor.New(2, 3, 5)
	fillDet(z.Data(), 0.3)
	y := q.Forward(z)
	if y.Dim(0) != 2 || y.Dim(1) != 3 || y.Dim(2) != 5 {
		t.Fatalf("shape = %v, want [2 3 5]", y.Shape())
	}
}

func TestQuantizerParamsRoundTrip(t *testing.T) {
	src := NewQuantizer(3, 4, 2)
	for i, book := range src.Codebooks {
		fillDet(book, float64(i)+0.1)
	}
	p := checkpoint.Params{}
	src.ExportParams(p, "quantizer_speech")

	dst := NewQuantizer(3, 4, 2)
	if err := dst.LoadParams(p, "quantizer_speech"); err != nil {
		t.Fatalf("LoadParams: %v", err)
	}
	for i := range src.Codebooks {
		if d := maxDiff(dst.Codebooks[i], src.Codebooks[i]); d != 0 {
			t.Errorf("codebook %d differs by %g", i, d)
		}
	}

	short := NewQuantizer(4, 4, 2)
	if err := short.LoadParams(p, "quantizer_speech"); err == nil {
		t.Error("expected an error for a missing codebook stage")
	}
}
