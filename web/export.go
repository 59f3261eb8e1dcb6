package web

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"sheetsearch/table"
)

const (
	exportSheet = "Filtered"
	xlsxType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// exportHandler narrows the snapshot with the submitted form and sends it as a workbook.
func (srv *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	snap, ok := srv.snapshot(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	view, _, err := srv.narrow(r, snap.Base)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f, err := buildWorkbook(view)
	if err != nil {
		srv.logger.Error("export failed", "id", snap.ID, "error", err)
		http.Error(w, "Failed to build workbook", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(snap.FileName)))
	if err := f.Write(w); err != nil {
		srv.logger.Error("export write failed", "id", snap.ID, "error", err)
	}
}

// buildWorkbook writes the view to a single sheet. Numeric cells stay numbers.
func buildWorkbook(view *table.Table) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "failed to name sheet")
	}

	headers := view.Headers()
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "failed to write header")
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "failed to create header style")
	}
	if err := f.SetRowStyle(exportSheet, 1, 1, bold); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "failed to style header")
	}

	cols := view.Columns()
	for i := 0; i < view.Len(); i++ {
		row := view.RowIndex(i)
		cells := make([]any, len(cols))
		for c, col := range cols {
			cells[c] = col.String(row)
			if nc, ok := col.(table.NumericColumn); ok {
				if v, present := nc.Number(row); present {
					cells[c] = v
				}
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, errors.Wrap(err, "failed to address row")
		}
		if err := f.SetSheetRow(exportSheet, cell, &cells); err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "failed to write row %d", i+1)
		}
	}
	return f, nil
}

func exportName(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	for {
		ext := path.Ext(base)
		if ext == "" {
			break
		}
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == "/" {
		base = "sheet"
	}
	return base + "-filtered.xlsx"
}
