package autoencoder

import (
	"fmt"

	"github.com/Utkarsh4430/ARER/pkg/checkpoint"
	"github.com/Utkarsh4430/ARER/pkg/tensor"
)

// Quantizer is a residual vector quantizer: each stage snaps the running
// residual of a latent column to the nearest code in its codebook and the
// stage outputs sum to the quantized latent. Codebooks are frozen
// checkpoint parameters; there is no training path.
type Quantizer struct {
	NumCodebooks int
	CodebookSize int
	CodeDim      int

	// Codebooks[i] is stage i's (CodebookSize, CodeDim) table, row-major.
	Codebooks [][]float32
}

// NewQuantizer builds a zero-initialized residual quantizer.
func NewQuantizer(numCodebooks, codebookSize, codeDim int) *Quantizer {
	q := &Quantizer{
		NumCodebooks: numCodebooks,
		CodebookSize: codebookSize,
		CodeDim:      codeDim,
		Codebooks:    make([][]float32, numCodebooks),
	}
	for i := range q.Codebooks {
		q.Codebooks[i] = make([]float32, codebookSize*codeDim)
	}
	return q
}

// Forward quantizes z (B, CodeDim, T) and returns a tensor of the same
// shape holding the summed stage codes.
func (q *Quantizer) Forward(z *tensor.Tensor) *tensor.Tensor {
	if z.Dims() != 3 || z.Dim(1) != q.CodeDim {
		panic(fmt.Sprintf("autoencoder: quantizer wants (B, %d, T), got %v", q.CodeDim, z.Shape()))
	}
	B, T := z.Dim(0), z.Dim(2)
	out := tensor.New(B, q.CodeDim, T)

	zd := z.Data()
	od := out.Data()
	residual := make([]float64, q.CodeDim)
	column := make([]float64, q.CodeDim)
	for b := 0; b < B; b++ {
		for t := 0; t < T; t++ {
			for c := 0; c < q.CodeDim; c++ {
				residual[c] = float64(zd[(b*q.CodeDim+c)*T+t])
				column[c] = 0
			}
			for _, book := range q.Codebooks {
				code := q.nearest(book, residual)
				for c := 0; c < q.CodeDim; c++ {
					v := float64(code[c])
					column[c] += v
					residual[c] -= v
				}
			}
			for c := 0; c < q.CodeDim; c++ {
				od[(b*q.CodeDim+c)*T+t] = float32(column[c])
			}
		}
	}
	return out
}

// nearest returns the codebook row with minimal squared distance to the
// residual. Ties resolve to the lowest index.
func (q *Quantizer) nearest(book []float32, residual []float64) []float32 {
	bestIdx := 0
	bestDist := 0.0
	for i := 0; i < q.CodebookSize; i++ {
		row := book[i*q.CodeDim:][:q.CodeDim]
		dist := 0.0
		for c, v := range row {
			d := residual[c] - float64(v)
			dist += d * d
		}
		if i == 0 || dist < bestDist {
			bestIdx, bestDist = i, dist
		}
	}
	return book[bestIdx*q.CodeDim:][:q.CodeDim]
}

// LoadParams fills the codebooks from the named checkpoint tensors.
func (q *Quantizer) LoadParams(p checkpoint.Params, prefix string) error {
	for i := range q.Codebooks {
		book, err := p.Get(fmt.Sprintf("%s.codebooks.%d", prefix, i), q.CodebookSize, q.CodeDim)
		if err != nil {
			return err
		}
		copy(q.Codebooks[i], book)
	}
	return nil
}

// ExportParams writes the codebooks into p.
func (q *Quantizer) ExportParams(p checkpoint.Params, prefix string) {
	for i, book := range q.Codebooks {
		p.Put(fmt.Sprintf("%s.codebooks.%d", prefix, i), []int{q.CodebookSize, q.CodeDim}, book)
	}
}
