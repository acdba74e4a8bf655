// Package stats accumulates per-channel normalization statistics over
// quantized code streams and persists them as a compact (2, C) float32
// array: row 0 holds the channel means, row 1 the channel scales.
package stats

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoSamples is returned by Finalize when nothing was accumulated.
var ErrNoSamples = errors.New("stats: no samples accumulated")

// Scaler is an online mean/variance estimator with partial-fit semantics:
// feed it row batches in any order and finalize once at the end. Internals
// run in float64; batches fold in with Chan's parallel merge so a call may
// carry any number of rows.
type Scaler struct {
	channels int
	n        float64
	mean     []float64
	m2       []float64
}

// NewScaler builds an empty estimator over the given channel count.
func NewScaler(channels int) *Scaler {
	if channels < 1 {
		panic(fmt.Sprintf("stats: invalid channel count %d", channels))
	}
	return &Scaler{
		channels: channels,
		mean:     make([]float64, channels),
		m2:       make([]float64, channels),
	}
}

// Channels returns the channel count fixed at construction.
func (s *Scaler) Channels() int { return s.channels }

// Count returns the number of rows accumulated so far.
func (s *Scaler) Count() int { return int(s.n) }

// PartialFit folds a batch of rows into the running estimate. Every row
// must hold exactly Channels values. An empty batch is a no-op.
func (s *Scaler) PartialFit(rows [][]float32) error {
	if len(rows) == 0 {
		return nil
	}
	for i, row := range rows {
		if len(row) != s.channels {
			return fmt.Errorf("stats: row %d has %d values, want %d", i, len(row), s.channels)
		}
	}

	// Batch mean and M2 per channel, then merge into the running pair.
	bn := float64(len(rows))
	bMean := make([]float64, s.channels)
	bM2 := make([]float64, s.channels)
	for _, row := range rows {
		for c, v := range row {
			bMean[c] += float64(v)
		}
	}
	for c := range bMean {
		bMean[c] /= bn
	}
	for _, row := range rows {
		for c, v := range row {
			d := float64(v) - bMean[c]
			bM2[c] += d * d
		}
	}

	total := s.n + bn
	for c := 0; c < s.channels; c++ {
		delta := bMean[c] - s.mean[c]
		s.mean[c] += delta * bn / total
		s.m2[c] += bM2[c] + delta*delta*s.n*bn/total
	}
	s.n = total
	return nil
}

// Stats is a finalized mean/scale pair per channel, the exact values the
// binary (2, C) file carries.
type Stats struct {
	Mean  []float32
	Scale []float32
}

// Channels returns the channel count of the statistics.
func (st *Stats) Channels() int { return len(st.Mean) }

// Finalize computes the channel means and scales. Scale is the population
// standard deviation; a zero-variance channel gets scale 1 so later
// z-scoring stays finite.
func (s *Scaler) Finalize() (*Stats, error) {
	if s.n == 0 {
		return nil, ErrNoSamples
	}
	st := &Stats{
		Mean:  make([]float32, s.channels),
		Scale: make([]float32, s.channels),
	}
	for c := 0; c < s.channels; c++ {
		st.Mean[c] = float32(s.mean[c])
		scale := math.Sqrt(s.m2[c] / s.n)
		if scale == 0 {
			scale = 1
		}
		st.Scale[c] = float32(scale)
	}
	return st, nil
}
