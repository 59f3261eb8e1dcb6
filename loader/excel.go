package loader

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// xmlSizeLimit is excelize's default in-memory limit for one worksheet part.
const xmlSizeLimit = 16 << 20

// processExcel reads the first sheet of a workbook.
// Numbers come back unformatted and cells with a date number format come back as ISO dates.
func processExcel(file io.Reader, opts Options) (*Sheet, error) {
	var open []excelize.Options
	if opts.MaxBytes > 0 {
		open = append(open, excelize.Options{
			UnzipSizeLimit:    opts.MaxBytes,
			UnzipXMLSizeLimit: min(opts.MaxBytes, xmlSizeLimit),
		})
	}
	f, err := excelize.OpenReader(file, open...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("no sheets")
	}
	name := sheets[0]

	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %q", name)
	}
	shown, err := f.GetRows(name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %q", name)
	}

	rows := dropBlankRows(raw)
	if opts.MaxRows > 0 && len(rows)-1 > opts.MaxRows {
		return nil, errors.Wrapf(ErrTooManyRows, "more than %d", opts.MaxRows)
	}

	cr := newCellReader(f, name)
	for r, row := range raw {
		for c, v := range row {
			display := ""
			if r < len(shown) && c < len(shown[r]) {
				display = shown[r][c]
			}
			row[c] = cr.value(c+1, r+1, v, display)
		}
	}
	return split(rows)
}

type numberFormat int

const (
	formatNumber numberFormat = iota
	formatDate
	formatTime
)

// cellReader picks between the raw and displayed text of a cell.
type cellReader struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	formats  map[int]numberFormat
}

func newCellReader(f *excelize.File, sheet string) *cellReader {
	cr := &cellReader{f: f, sheet: sheet, formats: make(map[int]numberFormat)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		cr.date1904 = *props.Date1904
	}
	return cr
}

// value returns the raw number for numeric cells, an ISO date for
// date-formatted serials and the displayed text for everything else.
func (cr *cellReader) value(col, row int, raw, display string) string {
	if raw == display {
		return raw
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return display
	}
	if typ, err := cr.f.GetCellType(cr.sheet, cell); err == nil && typ == excelize.CellTypeBool {
		return display
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return display
	}
	switch cr.format(cell) {
	case formatNumber:
		return raw
	case formatTime:
		return display
	}

	t, err := excelize.ExcelDateToTime(serial, cr.date1904)
	if err != nil {
		return display
	}
	t = t.Round(time.Second)
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

func (cr *cellReader) format(cell string) numberFormat {
	id, err := cr.f.GetCellStyle(cr.sheet, cell)
	if err != nil {
		return formatNumber
	}
	if nf, seen := cr.formats[id]; seen {
		return nf
	}
	nf := formatNumber
	if style, err := cr.f.GetStyle(id); err == nil {
		nf = classifyFormat(style.NumFmt, style.CustomNumFmt)
	}
	cr.formats[id] = nf
	return nf
}

// classifyFormat sorts a cell number format into plain numbers, calendar dates and times of day.
func classifyFormat(id int, custom *string) numberFormat {
	switch {
	case id >= 14 && id <= 17, id == 22, id >= 27 && id <= 31, id >= 34 && id <= 36, id >= 50 && id <= 58:
		return formatDate
	case id >= 18 && id <= 21, id == 32, id == 33, id >= 45 && id <= 47:
		return formatTime
	}
	if custom == nil {
		return formatNumber
	}
	tokens := strings.ToLower(formatTokens(*custom))
	switch {
	case strings.ContainsAny(tokens, "yd"):
		return formatDate
	case strings.ContainsAny(tokens, "hs"):
		return formatTime
	}
	return formatNumber
}

// formatTokens strips quoted literals, bracketed sections and escapes from a format code.
func formatTokens(code string) string {
	var b strings.Builder
	quoted, bracket := false, false
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case quoted:
			quoted = ch != '"'
		case bracket:
			bracket = ch != ']'
		case ch == '"':
			quoted = true
		case ch == '[':
			bracket = true
		case ch == '\\':
			i++
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// dropBlankRows removes leading rows with no cells, so the header is the first non-empty row.
func dropBlankRows(rows [][]string) [][]string {
	for len(rows) > 0 && len(rows[0]) == 0 {
		rows = rows[1:]
	}
	return rows
}
