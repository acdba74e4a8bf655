package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Model types understood by the drivers. Both map to the same generator
// architecture; the distinction is carried through for checkpoint
// provenance.
const (
	ModelSymAudioDec     = "symAudioDec"
	ModelSymAudioDecUniv = "symAudioDecUniv"
)

// ModelConfig is the config.yml stored beside every checkpoint. It
// describes the generator architecture the checkpoint's parameters fit.
type ModelConfig struct {
	ModelType  string          `yaml:"model_type"`
	SampleRate int             `yaml:"sample_rate"`
	Generator  GeneratorConfig `yaml:"generator_params"`
	Data       *DataConfig     `yaml:"data"`
}

// UnmarshalYAML implements yaml.Unmarshaler for ModelConfig.
func (c *ModelConfig) UnmarshalYAML(value *yaml.Node) error {
	type alias ModelConfig
	out := alias{ModelType: ModelSymAudioDec}
	if err := value.Decode(&out); err != nil {
		return err
	}
	*c = ModelConfig(out)
	return c.Validate()
}

// Validate checks the fields that later stages cannot recover from.
func (c *ModelConfig) Validate() error {
	switch c.ModelType {
	case ModelSymAudioDec, ModelSymAudioDecUniv:
	default:
		return fmt.Errorf("checkpoint: model type %q is not supported", c.ModelType)
	}
	return nil
}

// GeneratorConfig is the generator_params section of a model config. Zero
// values are replaced by the architecture defaults during unmarshal, so a
// minimal config.yml only needs to name what it changes.
type GeneratorConfig struct {
	InputChannels  int    `yaml:"input_channels"`
	OutputChannels int    `yaml:"output_channels"`
	EncodeChannels int    `yaml:"encode_channels"`
	DecodeChannels int    `yaml:"decode_channels"`
	CodeDim        int    `yaml:"code_dim"`
	CodebookNum    int    `yaml:"codebook_num"`
	CodebookSize   int    `yaml:"codebook_size"`
	KernelSize     int    `yaml:"kernel_size"`
	Bias           bool   `yaml:"bias"`
	Mode           string `yaml:"mode"`

	EncRatios  []int `yaml:"enc_ratios"`
	EncStrides []int `yaml:"enc_strides"`

	DecRatiosSpeech  []int `yaml:"dec_ratios_speech"`
	DecStridesSpeech []int `yaml:"dec_strides_speech"`
	DecRatiosRIR     []int `yaml:"dec_ratios_rir"`
	DecStridesRIR    []int `yaml:"dec_strides_rir"`
}

// DefaultGeneratorConfig returns the trained architecture's
// hyperparameters.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		InputChannels:  1,
		OutputChannels: 1,
		EncodeChannels: 16,
		DecodeChannels: 16,
		CodeDim:        64,
		CodebookNum:    8,
		CodebookSize:   1024,
		KernelSize:     7,
		Bias:           true,
		Mode:           "causal",

		EncRatios:  []int{8, 16, 32},
		EncStrides: []int{3, 5, 5},

		DecRatiosSpeech:  []int{32, 16, 8},
		DecStridesSpeech: []int{5, 5, 3},
		DecRatiosRIR:     []int{32, 24, 16},
		DecStridesRIR:    []int{2, 2, 225},
	}
}

// UnmarshalYAML implements yaml.Unmarshaler for GeneratorConfig.
func (c *GeneratorConfig) UnmarshalYAML(value *yaml.Node) error {
	type alias GeneratorConfig
	out := alias(DefaultGeneratorConfig())
	if err := value.Decode(&out); err != nil {
		return err
	}
	*c = GeneratorConfig(out)
	return c.Validate()
}

// Validate checks internal consistency of the hyperparameters.
func (c *GeneratorConfig) Validate() error {
	switch c.Mode {
	case "causal", "noncausal":
	default:
		return fmt.Errorf("checkpoint: mode %q is not supported", c.Mode)
	}
	if c.InputChannels < 1 || c.OutputChannels < 1 {
		return fmt.Errorf("checkpoint: channel counts must be positive")
	}
	if c.EncodeChannels < 1 || c.DecodeChannels < 1 {
		return fmt.Errorf("checkpoint: encode/decode channels must be positive")
	}
	if c.CodeDim < 1 || c.CodebookNum < 1 || c.CodebookSize < 1 {
		return fmt.Errorf("checkpoint: quantizer sizes must be positive")
	}
	if len(c.EncRatios) != len(c.EncStrides) {
		return fmt.Errorf("checkpoint: enc_ratios (%d) and enc_strides (%d) differ in length",
			len(c.EncRatios), len(c.EncStrides))
	}
	if len(c.DecRatiosSpeech) != len(c.DecStridesSpeech) {
		return fmt.Errorf("checkpoint: dec_ratios_speech (%d) and dec_strides_speech (%d) differ in length",
			len(c.DecRatiosSpeech), len(c.DecStridesSpeech))
	}
	if len(c.DecRatiosRIR) != len(c.DecStridesRIR) {
		return fmt.Errorf("checkpoint: dec_ratios_rir (%d) and dec_strides_rir (%d) differ in length",
			len(c.DecRatiosRIR), len(c.DecStridesRIR))
	}
	return nil
}

// DataConfig names the dataset roots the drivers read from. All fields are
// optional; the drivers fall back to neutral inputs for what is absent.
type DataConfig struct {
	ReverbPath   string            `yaml:"reverb_path"`
	CleanPath    string            `yaml:"clean_path"`
	RIRPath      string            `yaml:"rir_path"`
	MaterialPath string            `yaml:"material_path"`
	ImagePath    string            `yaml:"image_path"`
	ImageSize    int               `yaml:"image_size"`
	Subset       map[string]string `yaml:"subset"`
}

// SubsetDir resolves a subset name ("train", "valid", "test") to its
// directory component.
func (d *DataConfig) SubsetDir(subset string) (string, error) {
	if d == nil || len(d.Subset) == 0 {
		return "", fmt.Errorf("checkpoint: no data subsets configured")
	}
	dir, ok := d.Subset[subset]
	if !ok {
		return "", fmt.Errorf("checkpoint: subset %q is not configured", subset)
	}
	return dir, nil
}

// LoadModelConfig reads the config.yml stored in the checkpoint's
// directory.
func LoadModelConfig(checkpointPath string) (*ModelConfig, error) {
	path := filepath.Join(filepath.Dir(checkpointPath), "config.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: read model config %s: %w", path, err)
	}
	var cfg ModelConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("checkpoint: parse model config %s: %w", path, err)
	}
	if cfg.Generator.Mode == "" {
		cfg.Generator = DefaultGeneratorConfig()
	}
	return &cfg, nil
}
