package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "song.m4a")
	if err := os.WriteFile(target, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := WriteFileAtomic(target, []byte("new content"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "new content" {
		t.Fatalf("content = %q", data)
	}
	info, _ := os.Stat(target)
	if info.Mode().Perm() != 0o644 {
		t.Fatalf("mode = %v", info.Mode().Perm())
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected temp file cleaned up, found %d entries", len(entries))
	}
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "missing", "song.m4a")
	if err := WriteFileAtomic(target, []byte("x"), 0o644); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	got, err := UniquePath(dir, "song.m4a")
	if err != nil || got != filepath.Join(dir, "song.m4a") {
		t.Fatalf("free name: %q %v", got, err)
	}

	for _, name := range []string{"song.m4a", "song (1).m4a"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	got, err = UniquePath(dir, "song.m4a")
	if err != nil {
		t.Fatalf("UniquePath: %v", err)
	}
	if want := filepath.Join(dir, "song (2).m4a"); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
