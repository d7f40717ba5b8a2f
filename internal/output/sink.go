// Package output owns the destination file and formats run summaries.
package output

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/agleyzer/hlsfetch/internal/apperror"
)

// Create creates or truncates the file at path, creating its directory if needed.
func Create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, apperror.IO("failed to create output directory", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, apperror.IO("failed to create output file", err)
	}
	return f, nil
}

// WithFile creates the file at path, passes it to fn and closes it on every
// exit path. Bytes written before a failure stay on disk.
func WithFile(path string, fn func(w io.Writer) error) (err error) {
	f, err := Create(path)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, apperror.IO("failed to close output file", cerr))
		}
	}()

	return fn(f)
}
