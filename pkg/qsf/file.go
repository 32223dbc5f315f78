package qsf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ruslano69/dataselector/pkg/query"
)

// Extension is the query file extension.
const Extension = ".qsf"

// ErrIncorrectExtension is returned when a destination has an extension other than .qsf.
var ErrIncorrectExtension = errors.New("incorrect extension")

// ResolvePath appends .qsf when path has no extension and rejects any other
// extension. The comparison is case-insensitive.
func ResolvePath(path string) (string, error) {
	ext := filepath.Ext(path)
	switch {
	case ext == "":
		return path + Extension, nil
	case strings.EqualFold(ext, Extension):
		return path, nil
	default:
		return "", fmt.Errorf("%w: %q (expected %s)", ErrIncorrectExtension, ext, Extension)
	}
}

// DisplayName returns the base name of path without its extension.
func DisplayName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SaveFile writes spec to path after resolving its extension. Nothing is
// written when the extension is rejected. It returns the final path.
func SaveFile(path string, spec query.Spec) (string, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := Save(&buf, spec); err != nil {
		return "", err
	}

	if dir := filepath.Dir(resolved); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(resolved, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write query file: %w", err)
	}

	return resolved, nil
}

// LoadFile reads path into spec, keeping fields the file leaves out, and sets
// spec.DisplayName from the file name.
func LoadFile(path string, spec *query.Spec, opts Options) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open query file: %w", err)
	}
	defer f.Close()

	if err := DecodeInto(f, spec, opts); err != nil {
		return err
	}

	spec.DisplayName = DisplayName(path)
	return nil
}
