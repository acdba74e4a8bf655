package dataset

import (
	"fmt"
	"math"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resample converts a to outRate, channel by channel. The input is
// returned untouched when the rates already match. Output length is
// exactly round(T·outRate/inRate) per channel: the resampler's filter
// tail is drained with silence and the result trimmed.
func Resample(a *Audio, outRate int) (*Audio, error) {
	if outRate <= 0 {
		return nil, fmt.Errorf("dataset: invalid target rate %d", outRate)
	}
	if a.Rate == outRate {
		return a, nil
	}
	if a.Rate <= 0 {
		return nil, fmt.Errorf("dataset: invalid source rate %d", a.Rate)
	}

	out := &Audio{Rate: outRate, Channels: make([][]float32, len(a.Channels))}
	for c, ch := range a.Channels {
		res, err := resampleChannel(ch, a.Rate, outRate)
		if err != nil {
			return nil, fmt.Errorf("dataset: resample channel %d: %w", c, err)
		}
		out.Channels[c] = res
	}
	return out, nil
}

func resampleChannel(ch []float32, inRate, outRate int) ([]float32, error) {
	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(inRate),
		OutputRate: float64(outRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, err
	}

	input := make([]float64, len(ch))
	for i, v := range ch {
		input[i] = float64(v)
	}
	want := int(math.Round(float64(len(ch)) * float64(outRate) / float64(inRate)))

	collected, err := rs.Process(input)
	if err != nil {
		return nil, err
	}
	// Push silence through until the filter's group delay has flushed the
	// remaining output samples.
	silence := make([]float64, 1024)
	for i := 0; len(collected) < want && i < 64; i++ {
		tail, err := rs.Process(silence)
		if err != nil {
			return nil, err
		}
		collected = append(collected, tail...)
	}

	res := make([]float32, want)
	for i := range res {
		if i < len(collected) {
			res[i] = float32(collected[i])
		}
	}
	return res, nil
}
