package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Utkarsh4430/ARER/pkg/stats"
)

// writeStatsRunConfig writes a run config pointing the analyzer at ckpt
// and the statistics outputs under dir.
func writeStatsRunConfig(t *testing.T, dir, ckpt, reverbPath, subset, subsetDir string) (cfgPath, speechPath, rirPath string) {
	t.Helper()
	speechPath = filepath.Join(dir, "stats", "speech.bin")
	rirPath = filepath.Join(dir, "stats", "rir.bin")
	cfgPath = filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`analyzer: %s
stats_speech: %s
stats_rir: %s
sample_rate: 16000
data:
  reverb_path: %s
  image_size: 32
  subset:
    %s: %s
`, ckpt, speechPath, rirPath, reverbPath, subset, subsetDir)
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfgPath, speechPath, rirPath
}

func TestStatsRequiresConfig(t *testing.T) {
	_, stderr, code := runCmd(t, "stats")
	if code == 0 {
		t.Fatal("expected error when --config not provided")
	}
	if !strings.Contains(stderr, "--config") {
		t.Fatalf("expected --config error, got: %s", stderr)
	}
}

func TestStatsMissingRunConfig(t *testing.T) {
	_, stderr, code := runCmd(t, "stats", "-c", filepath.Join(t.TempDir(), "absent.yaml"))
	if code == 0 {
		t.Fatal("expected error for missing run config")
	}
	if !strings.Contains(stderr, "read run config") {
		t.Fatalf("expected read error, got: %s", stderr)
	}
}

func TestStatsRejectsUnknownModelType(t *testing.T) {
	dir := t.TempDir()
	ckptDir := filepath.Join(dir, "analyzer")
	if err := os.MkdirAll(ckptDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(ckptDir, "config.yml"), []byte("model_type: HiFiGAN\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ckpt := filepath.Join(ckptDir, "checkpoint-1000steps.pkl")
	cfgPath, _, _ := writeStatsRunConfig(t, dir, ckpt, filepath.Join(dir, "reverb"), "train", "train_set")

	_, stderr, code := runCmd(t, "stats", "-c", cfgPath)
	if code == 0 {
		t.Fatal("expected error for unknown model type")
	}
	if !strings.Contains(stderr, "not supported") {
		t.Fatalf("expected model type error, got: %s", stderr)
	}
}

func TestStatsUnknownSubset(t *testing.T) {
	dir := t.TempDir()
	data := fixtureDataset(t, dir, "train", "train_set", 0)
	ckptDir := filepath.Join(dir, "analyzer")
	if err := os.MkdirAll(ckptDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(ckptDir, "config.yml"), []byte("model_type: symAudioDec\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ckpt := filepath.Join(ckptDir, "checkpoint-1000steps.pkl")
	cfgPath, _, _ := writeStatsRunConfig(t, dir, ckpt, data.ReverbPath, "train", "train_set")

	_, stderr, code := runCmd(t, "stats", "-c", cfgPath, "--subset", "valid")
	if code == 0 {
		t.Fatal("expected error for unconfigured subset")
	}
	if !strings.Contains(stderr, "valid") {
		t.Fatalf("expected subset error, got: %s", stderr)
	}
}

func TestStatsEmptyDatasetFails(t *testing.T) {
	dir := t.TempDir()
	data := fixtureDataset(t, dir, "train", "train_set", 0)
	ckptDir := filepath.Join(dir, "analyzer")
	if err := os.MkdirAll(ckptDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(ckptDir, "config.yml"), []byte("model_type: symAudioDec\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ckpt := filepath.Join(ckptDir, "checkpoint-1000steps.pkl")
	cfgPath, speechPath, rirPath := writeStatsRunConfig(t, dir, ckpt, data.ReverbPath, "train", "train_set")

	_, stderr, code := runCmd(t, "stats", "-c", cfgPath)
	if code == 0 {
		t.Fatal("expected error for empty dataset")
	}
	if !strings.Contains(stderr, "no utterances") {
		t.Fatalf("expected empty dataset error, got: %s", stderr)
	}
	for _, path := range []string{speechPath, rirPath} {
		if _, err := os.Stat(path); err == nil {
			t.Errorf("statistics file %s written despite empty dataset", path)
		}
	}
}

func loadStats(t *testing.T, path string) *stats.Stats {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	st, err := stats.Load(f)
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func TestStatsEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping checkpoint fixture run in short mode")
	}
	dir := t.TempDir()
	data := fixtureDataset(t, dir, "train", "train_set", 2)
	ckpt := writeCheckpoint(t, filepath.Join(dir, "analyzer"), fixtureModelConfig(nil), "200000")
	cfgPath, speechPath, rirPath := writeStatsRunConfig(t, dir, ckpt, data.ReverbPath, "train", "train_set")

	stdout, stderr, code := runCmd(t, "stats", "-c", cfgPath)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	for _, want := range []string{
		"The number of train audio files = 2.",
		"Loaded Analyzer from",
		"[statistic]",
		"Finished statistical calculation of 2 utterances.",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}

	// A zero-weight analyzer emits all-zero codes: mean 0 and the
	// degenerate-variance scale of 1, at the code width of the fixture.
	for _, path := range []string{speechPath, rirPath} {
		st := loadStats(t, path)
		if st.Channels() != 8 {
			t.Fatalf("%s: %d channels, want 8", path, st.Channels())
		}
		for i := 0; i < st.Channels(); i++ {
			if st.Mean[i] != 0 {
				t.Errorf("%s: mean[%d] = %v, want 0", path, i, st.Mean[i])
			}
			if st.Scale[i] != 1 {
				t.Errorf("%s: scale[%d] = %v, want 1", path, i, st.Scale[i])
			}
		}
	}

	// Same fixture, truncated dataset, verbose summary.
	stdout, stderr, code = runCmd(t, "stats", "-v", "-c", cfgPath, "--subset_num", "1")
	if code != 0 {
		t.Fatalf("subset_num run: exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "The number of train audio files = 1.") {
		t.Errorf("subset_num not honored:\n%s", stdout)
	}
	for _, want := range []string{"utterances: 1", "stats_speech:", "stats_rir:"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("verbose summary missing %q:\n%s", want, stdout)
		}
	}
}
