package safeio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestRoot_ReadsRelativeAndAbsolute(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.py")
	writeFile(t, p, "x = 1")

	root, err := NewRoot(dir)
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	for _, name := range []string{"a.py", p, "./sub/../a.py"} {
		b, err := root.ReadFile(name, 0)
		if err != nil {
			t.Fatalf("ReadFile(%q): %v", name, err)
		}
		if string(b) != "x = 1" {
			t.Fatalf("ReadFile(%q) = %q", name, b)
		}
	}
}

func TestRoot_RejectsEscapes(t *testing.T) {
	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "secret"), "s")
	dir := t.TempDir()
	root, err := NewRoot(dir)
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}

	if _, err := root.ReadFile("../secret", 0); !errors.Is(err, ErrOutsideRoot) {
		t.Fatalf("relative escape: %v", err)
	}
	if _, err := root.ReadFile(filepath.Join(outside, "secret"), 0); !errors.Is(err, ErrOutsideRoot) {
		t.Fatalf("absolute escape: %v", err)
	}
	if err := os.Symlink(filepath.Join(outside, "secret"), filepath.Join(dir, "link")); err == nil {
		if _, err := root.ReadFile("link", 0); !errors.Is(err, ErrOutsideRoot) {
			t.Fatalf("symlink escape: %v", err)
		}
	}
}

func TestRoot_SizeLimit(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "big"), "0123456789")
	root, err := NewRoot(dir)
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	if _, err := root.ReadFile("big", 5); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if b, err := root.ReadFile("big", 10); err != nil || len(b) != 10 {
		t.Fatalf("exact limit: %q %v", b, err)
	}
}

func TestRoot_Directory(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "d"), 0o755); err != nil {
		t.Fatal(err)
	}
	root, err := NewRoot(dir)
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	if _, err := root.ReadFile("d", 0); err == nil {
		t.Fatalf("reading a directory should fail")
	}
	if _, err := NewRoot(filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("missing root should fail")
	}
}
