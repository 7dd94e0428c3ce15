package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOutputPathPrefersPlainName(t *testing.T) {
	dir := t.TempDir()
	got := outputPath(dir, "photo.jpg")
	want := filepath.Join(dir, "photo.jpg")
	if got != want {
		t.Fatalf("outputPath() = %q, want %q", got, want)
	}
}

func TestOutputPathFallsBackThroughDecodedVariants(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "photo.jpg"))
	got := outputPath(dir, "photo.jpg")
	want := filepath.Join(dir, "decoded_photo.jpg")
	if got != want {
		t.Fatalf("outputPath() = %q, want %q", got, want)
	}

	touch(t, want)
	got = outputPath(dir, "photo.jpg")
	want = filepath.Join(dir, "decoded(01)_photo.jpg")
	if got != want {
		t.Fatalf("outputPath() = %q, want %q", got, want)
	}

	touch(t, want)
	got = outputPath(dir, "photo.jpg")
	want = filepath.Join(dir, "decoded(02)_photo.jpg")
	if got != want {
		t.Fatalf("outputPath() = %q, want %q", got, want)
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("touch(%q): %v", path, err)
	}
}
