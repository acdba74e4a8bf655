package commands

import (
	"fmt"

	"github.com/Utkarsh4430/ARER/pkg/autoencoder"
	"github.com/Utkarsh4430/ARER/pkg/checkpoint"
	"github.com/Utkarsh4430/ARER/pkg/dataset"
)

// loadGenerator builds the generator described by modelCfg and fills it
// from the checkpoint bundle at path.
func loadGenerator(path string, modelCfg *checkpoint.ModelConfig) (*autoencoder.Generator, error) {
	gen, err := autoencoder.NewGenerator(modelCfg.Generator)
	if err != nil {
		return nil, err
	}
	bundle, err := checkpoint.Load(path)
	if err != nil {
		return nil, err
	}
	if err := gen.LoadParams(bundle.Model.Generator); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return gen, nil
}

// resampleTo converts audio to rate when a rate is configured and the
// input differs.
func resampleTo(a *dataset.Audio, rate int) (*dataset.Audio, error) {
	if rate <= 0 || a.Rate == rate {
		return a, nil
	}
	return dataset.Resample(a, rate)
}
