// Package staging copies inbound upload streams to private temporary files
// so they can be forwarded to object storage with a known size.
package staging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// File is a staged upload on local disk. Callers must Release it.
type File struct {
	Path string
	Size int64
}

// Stage writes src to a new temporary file in dir (the OS temp dir when empty).
// The file name keeps the extension of originalName so content detection on
// the storage side still works. On failure nothing is left on disk.
func Stage(dir string, src io.Reader, originalName string) (*File, error) {
	f, err := os.CreateTemp(dir, "upload-*"+extension(originalName))
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()

	n, err := io.Copy(f, src)
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	return &File{Path: path, Size: n}, nil
}

// Open opens the staged file for reading.
func (f *File) Open() (*os.File, error) {
	return os.Open(f.Path)
}

// Release removes the staged file. Safe to call more than once.
func (f *File) Release() error {
	if f == nil || f.Path == "" {
		return nil
	}
	err := os.Remove(f.Path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove temp file: %w", err)
	}
	return nil
}

// extension returns the lower-cased extension of name, dropping anything that
// could escape the temp file pattern.
func extension(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if strings.ContainsAny(ext, `/\*`) || len(ext) > 16 {
		return ""
	}
	return ext
}
