package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Utkarsh4430/ARER/pkg/checkpoint"
	"github.com/Utkarsh4430/ARER/pkg/cli"
	"github.com/Utkarsh4430/ARER/pkg/dataset"
	"github.com/Utkarsh4430/ARER/pkg/tensor"
)

var (
	testSubset    string
	testSubsetNum int
	testEncoder   string
	testDecoder   string
	testOutputDir string
)

var testCmd = &cobra.Command{
	Use:   "test --encoder <ckpt> --decoder <ckpt> --output_dir <dir>",
	Short: "Reconstruct a subset and write per-branch audio",
	Long: `Encode every utterance of a subset with the encoder checkpoint and
decode the quantized codes with the decoder checkpoint, writing
<utterance>_speech.wav and <utterance>_rir.wav per utterance.

The two checkpoints are loaded independently, each with its own sibling
config.yml; architecture compatibility between them is the caller's
responsibility. The dataset layout comes from the encoder's config.
Output lands under a directory named from both checkpoints:

  <output_dir>/<encName>-<decName>_<encSteps>-<decSteps>/<subsetDir>/

Example:
  arer test --encoder exp/enc/checkpoint-700000steps.pkl \
            --decoder exp/dec/checkpoint-500000steps.pkl \
            --output_dir out`,
	RunE: runTest,
}

func init() {
	testCmd.Flags().StringVar(&testSubset, "subset", "test", "dataset subset to reconstruct")
	testCmd.Flags().IntVar(&testSubsetNum, "subset_num", -1, "utterance limit (-1 for all)")
	testCmd.Flags().StringVar(&testEncoder, "encoder", "", "encoder checkpoint")
	testCmd.Flags().StringVar(&testDecoder, "decoder", "", "decoder checkpoint")
	testCmd.Flags().StringVar(&testOutputDir, "output_dir", "", "output root directory")
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	if testEncoder == "" || testDecoder == "" || testOutputDir == "" {
		return fmt.Errorf("flags --encoder, --decoder, and --output_dir are required")
	}
	logger := initLogging()
	logger.Info("device: cpu")

	encCfg, err := checkpoint.LoadModelConfig(testEncoder)
	if err != nil {
		return err
	}
	decCfg, err := checkpoint.LoadModelConfig(testDecoder)
	if err != nil {
		return err
	}
	if encCfg.Data == nil {
		return fmt.Errorf("encoder config has no data section; cannot locate the dataset")
	}

	subsetDir, err := encCfg.Data.SubsetDir(testSubset)
	if err != nil {
		return err
	}
	audioDir := filepath.Join(encCfg.Data.ReverbPath, subsetDir)
	utts, err := dataset.Discover(audioDir, testSubsetNum)
	if err != nil {
		return err
	}
	if len(utts) == 0 {
		return fmt.Errorf("no utterances under %s", audioDir)
	}
	logger.Info(fmt.Sprintf("The number of utterances = %d.", len(utts)))

	enc, err := loadGenerator(testEncoder, encCfg)
	if err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("Loaded Encoder from %s.", testEncoder))
	dec, err := loadGenerator(testDecoder, decCfg)
	if err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("Loaded Decoder from %s.", testDecoder))

	outDir := filepath.Join(testOutputDir, testDirName(testEncoder, testDecoder), subsetDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if verbose {
		err := cli.Dump(os.Stdout, map[string]any{
			"encoder":    testEncoder,
			"decoder":    testDecoder,
			"output_dir": outDir,
		})
		if err != nil {
			return err
		}
	}

	images := newImageSource(encCfg.Data, subsetDir)
	multiChannel := encCfg.Generator.InputChannels > 1
	outRate := decCfg.SampleRate
	if outRate == 0 {
		outRate = encCfg.SampleRate
	}

	progress := cli.NewProgress(os.Stdout, "[test]", len(utts))
	for _, utt := range utts {
		audio, err := dataset.ReadWAV(utt.Path)
		if err != nil {
			return err
		}
		audio, err = resampleTo(audio, encCfg.SampleRate)
		if err != nil {
			return fmt.Errorf("resample %s: %w", utt.ID, err)
		}
		x := encodeInput(audio, multiChannel)

		mi, err := images.material(utt.ID)
		if err != nil {
			return err
		}
		ci, err := images.scene(utt.ID)
		if err != nil {
			return err
		}

		zqSpeech, zqRIR := enc.Analyze(x, tileBatch(mi, x.Dim(0)), tileBatch(ci, x.Dim(0)))
		ySpeech, yRIR := dec.Synthesize(zqSpeech, zqRIR)

		rate := outRate
		if rate == 0 {
			rate = audio.Rate
		}
		if err := writeWave(filepath.Join(outDir, utt.ID+"_speech.wav"), ySpeech, multiChannel, rate); err != nil {
			return err
		}
		if err := writeWave(filepath.Join(outDir, utt.ID+"_rir.wav"), yRIR, multiChannel, rate); err != nil {
			return err
		}
		progress.Add(1)
	}
	progress.Done()

	logger.Info(fmt.Sprintf("Finished reconstruction of %d utterances.", len(utts)))
	return nil
}

// imageSource resolves per-utterance conditioning images, falling back
// to the neutral image for utterances (or whole runs) without one.
type imageSource struct {
	materialDir string
	sceneDir    string
	size        int
	neutral     *tensor.Tensor
}

func newImageSource(data *checkpoint.DataConfig, subsetDir string) *imageSource {
	src := &imageSource{
		size:    data.ImageSize,
		neutral: dataset.NeutralImage(data.ImageSize),
	}
	if data.MaterialPath != "" {
		src.materialDir = filepath.Join(data.MaterialPath, subsetDir)
	}
	if data.ImagePath != "" {
		src.sceneDir = filepath.Join(data.ImagePath, subsetDir)
	}
	return src
}

func (s *imageSource) material(uttID string) (*tensor.Tensor, error) {
	return s.load(s.materialDir, uttID)
}

func (s *imageSource) scene(uttID string) (*tensor.Tensor, error) {
	return s.load(s.sceneDir, uttID)
}

func (s *imageSource) load(dir, uttID string) (*tensor.Tensor, error) {
	if dir == "" {
		return s.neutral, nil
	}
	path, err := dataset.FindImage(dir, uttID)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return s.neutral, nil
	}
	return dataset.ReadImage(path, s.size)
}

// encodeInput lays the utterance out for the encoder: multi-channel
// audio becomes one (1, C, T) item, single-channel audio a (C, 1, T)
// batch of mono signals.
func encodeInput(a *dataset.Audio, multiChannel bool) *tensor.Tensor {
	if multiChannel {
		return tensor.FromChannels(a.Channels)
	}
	T := a.Samples()
	x := tensor.New(len(a.Channels), 1, T)
	for c, ch := range a.Channels {
		copy(x.Data()[c*T:], ch)
	}
	return x
}

// tileBatch repeats a single conditioning image across b utterance rows.
func tileBatch(img *tensor.Tensor, b int) *tensor.Tensor {
	if img.Dim(0) == b {
		return img
	}
	out := tensor.New(b, img.Dim(1), img.Dim(2), img.Dim(3))
	per := img.Len()
	for i := 0; i < b; i++ {
		copy(out.Data()[i*per:], img.Data())
	}
	return out
}

// waveChannels flattens decoder output back to per-channel samples,
// inverting the encodeInput layout.
func waveChannels(y *tensor.Tensor, multiChannel bool) [][]float32 {
	if multiChannel {
		return y.Channels()
	}
	B, C, T := y.Dim(0), y.Dim(1), y.Dim(2)
	channels := make([][]float32, 0, B*C)
	for b := 0; b < B; b++ {
		for c := 0; c < C; c++ {
			ch := make([]float32, T)
			copy(ch, y.Data()[(b*C+c)*T:(b*C+c)*T+T])
			channels = append(channels, ch)
		}
	}
	return channels
}

func writeWave(path string, y *tensor.Tensor, multiChannel bool, rate int) error {
	return dataset.WriteWAV(path, &dataset.Audio{Rate: rate, Channels: waveChannels(y, multiChannel)})
}

// checkpointName is the checkpoint's model identifier: the last
// component of its directory.
func checkpointName(path string) string {
	return filepath.Base(filepath.Dir(path))
}

// checkpointSteps extracts the step count from file names like
// "checkpoint-700000steps.pkl".
func checkpointSteps(path string) string {
	head, _, _ := strings.Cut(filepath.Base(path), "steps")
	if i := strings.LastIndex(head, "-"); i >= 0 {
		return head[i+1:]
	}
	return head
}

// testDirName derives the deterministic output directory for an
// encoder/decoder pairing.
func testDirName(encoderPath, decoderPath string) string {
	return fmt.Sprintf("%s-%s_%s-%s",
		checkpointName(encoderPath), checkpointName(decoderPath),
		checkpointSteps(encoderPath), checkpointSteps(decoderPath))
}
