package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Utkarsh4430/ARER/cmd/arer/internal/config"
	"github.com/Utkarsh4430/ARER/pkg/checkpoint"
	"github.com/Utkarsh4430/ARER/pkg/cli"
	"github.com/Utkarsh4430/ARER/pkg/dataset"
	"github.com/Utkarsh4430/ARER/pkg/stats"
	"github.com/Utkarsh4430/ARER/pkg/tensor"
)

var (
	statsConfig    string
	statsSubset    string
	statsSubsetNum int
)

var statsCmd = &cobra.Command{
	Use:   "stats -c <config.yaml>",
	Short: "Accumulate code normalization statistics over a subset",
	Long: `Run the analyzer checkpoint over every utterance of a subset and
accumulate per-channel mean and scale of the quantized speech and RIR
code streams. The two (2, C) float32 arrays are written to the
stats_speech and stats_rir paths of the run config.

Example:
  arer stats -c config.yaml --subset train`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVarP(&statsConfig, "config", "c", "", "run config YAML")
	statsCmd.Flags().StringVar(&statsSubset, "subset", "train", "dataset subset to analyze")
	statsCmd.Flags().IntVar(&statsSubsetNum, "subset_num", -1, "utterance limit (-1 for all)")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	if statsConfig == "" {
		return fmt.Errorf("flag --config is required")
	}
	logger := initLogging()
	logger.Info("device: cpu")

	cfg, err := config.Load(statsConfig)
	if err != nil {
		return err
	}
	modelCfg, err := checkpoint.LoadModelConfig(cfg.Analyzer)
	if err != nil {
		return err
	}

	subsetDir, err := cfg.Data.SubsetDir(statsSubset)
	if err != nil {
		return err
	}
	audioDir := filepath.Join(cfg.Data.ReverbPath, subsetDir)
	utts, err := dataset.Discover(audioDir, statsSubsetNum)
	if err != nil {
		return err
	}
	if len(utts) == 0 {
		return fmt.Errorf("no utterances under %s; refusing to write degenerate statistics", audioDir)
	}
	logger.Info(fmt.Sprintf("The number of %s audio files = %d.", statsSubset, len(utts)))

	analyzer, err := loadGenerator(cfg.Analyzer, modelCfg)
	if err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("Loaded Analyzer from %s.", cfg.Analyzer))

	rate := modelCfg.SampleRate
	if rate == 0 {
		rate = cfg.SampleRate
	}

	// A statistics pass has no conditioning images; both towers see the
	// neutral image for every utterance.
	neutral := dataset.NeutralImage(cfg.Data.ImageSize)

	scalerSpeech := stats.NewScaler(modelCfg.Generator.CodeDim)
	scalerRIR := stats.NewScaler(modelCfg.Generator.CodeDim)

	progress := cli.NewProgress(os.Stdout, "[statistic]", len(utts))
	for _, utt := range utts {
		audio, err := dataset.ReadWAV(utt.Path)
		if err != nil {
			return err
		}
		audio, err = resampleTo(audio, rate)
		if err != nil {
			return fmt.Errorf("resample %s: %w", utt.ID, err)
		}
		x := tensor.FromChannels(audio.Channels)

		zqSpeech, zqRIR := analyzer.Analyze(x, neutral, neutral)
		if err := scalerSpeech.PartialFit(zqSpeech.TimeMajor()); err != nil {
			return fmt.Errorf("accumulate %s: %w", utt.ID, err)
		}
		if err := scalerRIR.PartialFit(zqRIR.TimeMajor()); err != nil {
			return fmt.Errorf("accumulate %s: %w", utt.ID, err)
		}
		progress.Add(1)
	}
	progress.Done()

	stSpeech, err := scalerSpeech.Finalize()
	if err != nil {
		return err
	}
	stRIR, err := scalerRIR.Finalize()
	if err != nil {
		return err
	}
	if err := writeStats(cfg.StatsSpeech, stSpeech); err != nil {
		return err
	}
	if err := writeStats(cfg.StatsRIR, stRIR); err != nil {
		return err
	}
	if verbose {
		err := cli.Dump(os.Stdout, map[string]any{
			"channels":     stSpeech.Channels(),
			"utterances":   len(utts),
			"stats_speech": cfg.StatsSpeech,
			"stats_rir":    cfg.StatsRIR,
		})
		if err != nil {
			return err
		}
	}

	logger.Info(fmt.Sprintf("Finished statistical calculation of %d utterances.", len(utts)))
	return nil
}

func writeStats(path string, st *stats.Stats) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create statistics directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := st.Save(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
