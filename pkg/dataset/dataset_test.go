package dataset

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.wav"))
	touch(t, filepath.Join(dir, "a.wav"))
	touch(t, filepath.Join(dir, "c.txt"))
	touch(t, filepath.Join(dir, "d.WAV"))
	if err := os.Mkdir(filepath.Join(dir, "nested.wav"), 0o755); err != nil {
		t.Fatal(err)
	}

	utts, err := Discover(dir, -1)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	var ids []string
	for _, u := range utts {
		ids = append(ids, u.ID)
	}
	want := []string{"a", "b", "d"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
	if utts[0].Path != filepath.Join(dir, "a.wav") {
		t.Errorf("path = %s, want %s", utts[0].Path, filepath.Join(dir, "a.wav"))
	}
}

func TestDiscoverLimit(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.wav", "b.wav", "c.wav"} {
		touch(t, filepath.Join(dir, name))
	}
	utts, err := Discover(dir, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(utts) != 2 || utts[1].ID != "b" {
		t.Errorf("limited listing = %v", utts)
	}

	// Zero and negative limits keep everything.
	utts, err = Discover(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(utts) != 3 {
		t.Errorf("unlimited listing has %d entries, want 3", len(utts))
	}
}

func TestDiscoverMissingDir(t *testing.T) {
	if _, err := Discover(filepath.Join(t.TempDir(), "nope"), -1); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}

func TestDiscoverEmptyDir(t *testing.T) {
	utts, err := Discover(t.TempDir(), -1)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(utts) != 0 {
		t.Errorf("entries = %v, want none", utts)
	}
}

func TestFindImage(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "u1.png"))
	touch(t, filepath.Join(dir, "u2.jpg"))
	touch(t, filepath.Join(dir, "u4.png"))
	touch(t, filepath.Join(dir, "u4.jpg"))

	got, err := FindImage(dir, "u1")
	if err != nil || got != filepath.Join(dir, "u1.png") {
		t.Errorf("u1 = %q, %v", got, err)
	}
	got, err = FindImage(dir, "u2")
	if err != nil || got != filepath.Join(dir, "u2.jpg") {
		t.Errorf("u2 = %q, %v", got, err)
	}
	got, err = FindImage(dir, "u3")
	if err != nil || got != "" {
		t.Errorf("u3 = %q, %v, want no match", got, err)
	}
	// png outranks jpg when both exist.
	got, err = FindImage(dir, "u4")
	if err != nil || got != filepath.Join(dir, "u4.png") {
		t.Errorf("u4 = %q, %v", got, err)
	}
}
