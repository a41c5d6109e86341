package safeio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

var (
	ErrOutsideRoot = errors.New("safeio: path escapes root")
	ErrTooLarge    = errors.New("safeio: file exceeds size limit")
)

// Root confines source reads to one directory tree. Symlinks are resolved
// before the containment check.
type Root struct {
	dir string
}

func NewRoot(dir string) (*Root, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("safeio: empty root")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if abs, err = filepath.EvalSymlinks(abs); err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("safeio: %s is not a directory", abs)
	}
	return &Root{dir: abs}, nil
}

func (r *Root) Dir() string {
	if r == nil {
		return ""
	}
	return r.dir
}

// ReadFile reads name (relative to the root, or absolute inside it). A
// positive limit rejects larger files with ErrTooLarge.
func (r *Root) ReadFile(name string, limit int64) ([]byte, error) {
	p, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("safeio: %s is a directory", name)
	}
	if limit <= 0 {
		return io.ReadAll(f)
	}
	b, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrTooLarge, name, limit)
	}
	return b, nil
}

// Resolve returns the symlink-free absolute path for name.
func (r *Root) Resolve(name string) (string, error) {
	if r == nil {
		return "", errors.New("safeio: root not configured")
	}
	if name == "" {
		return "", errors.New("safeio: empty path")
	}
	clean := filepath.Clean(name)
	abs := filepath.IsAbs(clean) || (runtime.GOOS == "windows" && filepath.VolumeName(clean) != "")
	if !abs {
		if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("%w: %s", ErrOutsideRoot, name)
		}
		clean = filepath.Join(r.dir, clean)
	}
	resolved, err := filepath.EvalSymlinks(clean)
	if err != nil {
		return "", err
	}
	if !within(resolved, r.dir) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, name)
	}
	return resolved, nil
}

func within(path, root string) bool {
	path, root = filepath.Clean(path), filepath.Clean(root)
	if runtime.GOOS == "windows" {
		path, root = strings.ToLower(path), strings.ToLower(root)
	}
	if path == root {
		return true
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
