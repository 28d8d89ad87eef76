// Package local implements a filesystem blob store rooted at one directory.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	dirPerm  = 0o750
	filePerm = 0o600
	// tempPrefix marks in-flight writes so Exists never reports them.
	tempPrefix = ".partial-"
)

// ErrOutsideRoot is returned for paths that escape the store root.
var ErrOutsideRoot = errors.New("path escapes store root")

// Config captures the parameters for the local filesystem blob store.
type Config struct {
	// BaseDir is the root directory where blobs will be stored.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// BlobStore writes artifacts below a base directory.
type BlobStore struct {
	root string
}

// New prepares cfg.BaseDir and verifies it can be written to.
func New(cfg Config) (*BlobStore, error) {
	root := strings.TrimSpace(cfg.BaseDir)
	if root == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	switch info, err := os.Stat(root); {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(root, dirPerm); err != nil {
			return nil, fmt.Errorf("create base directory %s: %w", root, err)
		}
	case err != nil:
		return nil, fmt.Errorf("stat base directory %s: %w", root, err)
	case !info.IsDir():
		return nil, fmt.Errorf("base directory %s is not a directory", root)
	}

	probe, err := os.CreateTemp(root, tempPrefix)
	if err != nil {
		return nil, fmt.Errorf("base directory %s is not writable: %w", root, err)
	}
	_ = probe.Close()
	if err := os.Remove(probe.Name()); err != nil {
		return nil, fmt.Errorf("remove write probe: %w", err)
	}

	return &BlobStore{root: root}, nil
}

// BaseDir returns the store root.
func (s *BlobStore) BaseDir() string {
	return s.root
}

// PutObject streams data into path and returns the written file path. The
// content lands in a temp file first and is renamed into place, so an
// interrupted download never looks like a cached photo.
func (s *BlobStore) PutObject(_ context.Context, path string, _ string, data io.Reader) (string, error) {
	target, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("create parent directories: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+filepath.Base(target)+"-")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, data); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), filePerm); err != nil {
		cleanup()
		return "", fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		cleanup()
		return "", fmt.Errorf("commit %s: %w", path, err)
	}
	return target, nil
}

// Exists reports whether an object is already present at path.
func (s *BlobStore) Exists(_ context.Context, path string) (bool, error) {
	target, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(target)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat %s: %w", target, err)
	}
	return info.Mode().IsRegular(), nil
}

func (s *BlobStore) resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path is required")
	}
	root := filepath.Clean(s.root)
	target := filepath.Join(root, path)
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return target, nil
}
