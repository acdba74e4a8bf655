// Package dataset locates and loads the files the batch tools iterate:
// WAV utterances per subset directory, their paired conditioning images,
// 16-bit WAV output, and sample-rate conversion.
package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Utterance is one audio file of a subset.
type Utterance struct {
	// ID is the file name without its extension; output files and paired
	// images derive their names from it.
	ID   string
	Path string
}

// Discover lists the *.wav files directly under dir, sorted by file name.
// A positive limit truncates the listing; zero or negative means all.
func Discover(dir string, limit int) ([]Utterance, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("dataset: list %s: %w", dir, err)
	}
	var utts []Utterance
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".wav") {
			continue
		}
		utts = append(utts, Utterance{
			ID:   strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			Path: filepath.Join(dir, e.Name()),
		})
	}
	if limit > 0 && len(utts) > limit {
		utts = utts[:limit]
	}
	return utts, nil
}

// imageExts lists the pairing extensions in lookup order.
var imageExts = []string{".png", ".jpg", ".jpeg"}

// FindImage returns the path of the utterance's paired image under dir,
// or "" when the utterance has none.
func FindImage(dir, uttID string) (string, error) {
	for _, ext := range imageExts {
		path := filepath.Join(dir, uttID+ext)
		_, err := os.Stat(path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("dataset: stat %s: %w", path, err)
		}
	}
	return "", nil
}
