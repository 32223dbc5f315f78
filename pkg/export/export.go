// Package export writes tabular query results to CSV, TXT, SHP and XLSX files.
//
// Example:
//
//	res, err := export.New(export.Options{}).Export(query.FormatCSV, headers, rows, "out/parcels")
//	// res.Path == "out/parcels.csv"
package export

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ruslano69/dataselector/pkg/query"
)

// ErrUnsupportedFormat is returned for FormatUnset and unknown formats.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Options tunes an Exporter.
type Options struct {
	// Compress wraps CSV and TXT output in zstd and appends ".zst" to the file name.
	Compress bool

	// CompressionLevel is the zstd level (1-22). Zero means 3.
	CompressionLevel int

	// SheetName names the XLSX worksheet. Defaults to the file base name.
	SheetName string

	// Logf receives per-row problems that do not abort the export,
	// such as unparsable WKT. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

// Result describes the files an export produced.
type Result struct {
	Format query.Format
	// Path is the main output file.
	Path string
	// Files lists every file written, Path first.
	Files []string
	// Rows is the number of data rows written.
	Rows int
	// NullGeometries counts SHP rows written without geometry.
	NullGeometries int
	// Checksum is the hex xxh3 hash of Path.
	Checksum string
}

// Exporter dispatches a result set to the writer of the requested format.
type Exporter struct {
	opts Options
}

// New creates an Exporter.
func New(opts Options) *Exporter {
	if opts.Logf == nil {
		opts.Logf = log.Printf
	}
	if opts.CompressionLevel == 0 {
		opts.CompressionLevel = 3
	}
	return &Exporter{opts: opts}
}

// Export writes headers and rows to dest in the given format.
// A dest without extension gets the format's extension.
// Every row must have exactly len(headers) values.
func Export(format query.Format, headers []string, rows [][]any, dest string) (*Result, error) {
	return New(Options{}).Export(format, headers, rows, dest)
}

// Export writes headers and rows to dest in the given format.
func (e *Exporter) Export(format query.Format, headers []string, rows [][]any, dest string) (*Result, error) {
	if !format.IsValid() {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	if err := checkShape(headers, rows); err != nil {
		return nil, err
	}
	if strings.TrimSpace(dest) == "" {
		return nil, errors.New("destination path is empty")
	}

	path := resolvePath(dest, format)
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	res := &Result{Format: format, Rows: len(rows)}
	var err error

	switch format {
	case query.FormatCSV:
		res.Path, err = e.writeDelimited(path, ',', headers, rows)
	case query.FormatTXT:
		res.Path, err = e.writeDelimited(path, '\t', headers, rows)
	case query.FormatSHP:
		err = e.writeShapefile(path, headers, rows, res)
	case query.FormatXLSX:
		res.Path, err = e.writeXLSX(path, headers, rows)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%s export to %s failed: %w", format.Label(), path, err)
	}

	if len(res.Files) == 0 {
		res.Files = []string{res.Path}
	}

	res.Checksum, err = FileChecksum(res.Path)
	if err != nil {
		return nil, err
	}

	return res, nil
}

// resolvePath appends the format extension when dest has none.
func resolvePath(dest string, format query.Format) string {
	if filepath.Ext(dest) == "" {
		return dest + format.Extension()
	}
	return dest
}

func checkShape(headers []string, rows [][]any) error {
	if len(headers) == 0 {
		return errors.New("result has no columns")
	}
	for i, row := range rows {
		if len(row) != len(headers) {
			return fmt.Errorf("row %d has %d values, expected %d", i+1, len(row), len(headers))
		}
	}
	return nil
}
