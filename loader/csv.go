package loader

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// encodings maps config names to decoders for non UTF-8 CSV files.
var encodings = map[string]encoding.Encoding{
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
}

// KnownEncoding reports whether name is an accepted CSV encoding.
func KnownEncoding(name string) bool {
	name = strings.ToLower(name)
	if name == "" || name == "utf-8" || name == "utf8" {
		return true
	}
	_, ok := encodings[name]
	return ok
}

// processCSV reads records until EOF, stopping early once opts.MaxRows data rows are exceeded.
func processCSV(file io.Reader, opts Options) (*Sheet, error) {
	if e, ok := encodings[strings.ToLower(opts.Encoding)]; ok {
		file = e.NewDecoder().Reader(file)
	}

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read csv")
		}
		records = append(records, record)
		if opts.MaxRows > 0 && len(records)-1 > opts.MaxRows {
			return nil, errors.Wrapf(ErrTooManyRows, "more than %d", opts.MaxRows)
		}
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return split(records)
}
