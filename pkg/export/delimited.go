package export

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// CompressedExtension is appended to compressed delimited output.
const CompressedExtension = ".zst"

// writeDelimited writes a header line and one record per row.
// Records end with \r\n; fields are quoted only when needed.
func (e *Exporter) writeDelimited(path string, comma rune, headers []string, rows [][]any) (string, error) {
	if e.opts.Compress {
		path += CompressedExtension
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	var out io.Writer = f
	var enc *zstd.Encoder
	if e.opts.Compress {
		enc, err = zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(e.opts.CompressionLevel)))
		if err != nil {
			return "", fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		defer enc.Close()
		out = enc
	}

	if err := writeRecords(out, comma, headers, rows); err != nil {
		return "", err
	}

	if enc != nil {
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("failed to finish compression: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	return path, nil
}

// writeRecords ends each record with \r\n and keeps line breaks inside quoted
// fields byte for byte. csv.Writer with UseCRLF drops a lone \r inside a
// field, so records are built with \n and only the terminator is rewritten.
func writeRecords(dst io.Writer, comma rune, headers []string, rows [][]any) error {
	w := bufio.NewWriter(dst)
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Comma = comma

	writeRecord := func(record []string) error {
		buf.Reset()
		if err := cw.Write(record); err != nil {
			return err
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
		line := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
		if _, err := w.Write(line); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\r\n")
		return err
	}

	if err := writeRecord(headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		if err := writeRecord(formatRow(row)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}
