// Package loader reads uploaded spreadsheets into header and data rows.
package loader

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file type")
	ErrEmptySheet        = errors.New("empty sheet")
	ErrTooLarge          = errors.New("file too large")
	ErrTooManyRows       = errors.New("too many rows")
)

// Sheet is the raw content of one uploaded sheet.
type Sheet struct {
	Headers     []string
	Rows        [][]string
	Compression Compression
}

// Options control how uploads are decoded.
type Options struct {
	// Encoding is the source encoding of CSV files.
	Encoding string
	// MaxBytes caps the decompressed size of an upload. Zero means no cap.
	MaxBytes int64
	// MaxRows caps the data rows read from a sheet. Zero means no cap.
	MaxRows int
}

// Loader parses uploads by file name.
type Loader struct {
	opts   Options
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Loader {
	return &Loader{opts: opts, logger: logger}
}

// Supported reports whether a file name has an extension the loader reads,
// ignoring any compression suffix.
func Supported(name string) bool {
	switch format(name) {
	case ".csv", ".xlsx", ".xlsm":
		return true
	}
	return false
}

func format(name string) string {
	name = strings.ToLower(name)
	for _, suffix := range compressionSuffixes {
		name = strings.TrimSuffix(name, suffix)
	}
	return path.Ext(name)
}

// Load reads the first sheet of an upload.
func (ld *Loader) Load(name string, r io.Reader) (*Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", name)
	}

	comp := detectCompression(data)
	if comp != CompressionNone {
		data, err = decompress(data, comp, ld.opts.MaxBytes)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decompress %s", name)
		}
		ld.logger.Debug("decompressed upload", "file", name, "compression", comp.String(), "bytes", len(data))
	}

	var sheet *Sheet
	switch ext := format(name); ext {
	case ".csv":
		sheet, err = processCSV(bytes.NewReader(data), ld.opts)
	case ".xlsx", ".xlsm":
		sheet, err = processExcel(bytes.NewReader(data), ld.opts)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", name)
	}

	sheet.Compression = comp
	return sheet, nil
}

// split turns raw records into normalized headers and data rows.
func split(records [][]string) (*Sheet, error) {
	if len(records) == 0 {
		return nil, ErrEmptySheet
	}
	return &Sheet{
		Headers: NormalizeHeaders(records[0]),
		Rows:    records[1:],
	}, nil
}

// NormalizeHeaders trims header names, names blank ones Column_N and
// suffixes repeats with .1, .2 and so on.
func NormalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column_%d", i+1)
		}
		if n, dup := seen[h]; dup {
			seen[h] = n + 1
			h = fmt.Sprintf("%s.%d", h, n+1)
		} else {
			seen[h] = 0
		}
		headers[i] = h
	}
	return headers
}
