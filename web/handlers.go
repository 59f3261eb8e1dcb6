package web

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"sheetsearch/config"
	"sheetsearch/loader"
	"sheetsearch/session"
	"sheetsearch/stats"
	"sheetsearch/table"
)

func (srv *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	srv.render(w, "upload.html", map[string]any{
		"DateColumns": strings.Join(srv.cfg.DateColumns, ", "),
		"MaxUploadMB": srv.cfg.MaxUploadMB,
	})
}

// displayHandler takes an upload, stores it as a snapshot and redirects to it.
func (srv *Server) displayHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, srv.cfg.MaxUploadBytes())
	if err := r.ParseMultipartForm(srv.cfg.MaxUploadBytes()); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		http.Error(w, "File too large", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		// nothing uploaded, so there is nothing to search
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	defer file.Close()

	if !loader.Supported(header.Filename) {
		http.Error(w, "Invalid file type", http.StatusBadRequest)
		return
	}

	sheet, err := srv.loader.Load(header.Filename, file)
	if err != nil {
		srv.logger.Warn("upload rejected", "file", header.Filename, "error", err)
		switch errors.Cause(err) {
		case loader.ErrTooLarge:
			http.Error(w, fmt.Sprintf("File too large once decompressed (> %d MB)", srv.cfg.MaxExpandedMB), http.StatusBadRequest)
		case loader.ErrTooManyRows:
			http.Error(w, fmt.Sprintf("Too many rows (> %d)", srv.cfg.MaxRows), http.StatusBadRequest)
		default:
			http.Error(w, fmt.Sprintf("Failed to read spreadsheet: %v", err), http.StatusBadRequest)
		}
		return
	}

	if len(sheet.Rows) > srv.cfg.MaxRows {
		http.Error(w, fmt.Sprintf("Too many rows (> %d)", srv.cfg.MaxRows), http.StatusBadRequest)
		return
	}

	extra := splitList(r.FormValue("date_columns"))
	base := table.New(sheet.Headers, sheet.Rows, table.Options{
		IsDateColumn: func(name string) bool {
			return srv.cfg.IsDateColumn(name) || config.MatchAny(extra, name)
		},
		AutoDates: srv.cfg.AutoDates,
	})

	snap := srv.store.Put(header.Filename, header.Size, base)
	srv.logger.Info("snapshot stored",
		"id", snap.ID,
		"file", snap.FileName,
		"rows", base.Len(),
		"columns", len(base.Columns()),
		"compression", sheet.Compression.String(),
	)

	http.Redirect(w, r, "/sheets/"+snap.ID, http.StatusSeeOther)
}

// sheetHandler shows the uploaded table and the search form.
func (srv *Server) sheetHandler(w http.ResponseWriter, r *http.Request) {
	snap, ok := srv.snapshot(w, r)
	if !ok {
		return
	}
	srv.render(w, "display.html", srv.displayData(snap, snap.Base, nil))
}

// filterHandler runs search then filters against the snapshot's base table.
func (srv *Server) filterHandler(w http.ResponseWriter, r *http.Request) {
	snap, ok := srv.snapshot(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	view, op, err := srv.narrow(r, snap.Base)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	page := ResultPage{
		DisplayData: srv.displayData(snap, view, r),
		Timestamp:   time.Now().Format("January 2, 2006 at 3:04 PM"),
	}
	if op != "" {
		page.Results, err = stats.Summarize(view, op)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	srv.render(w, "results.html", page)
}

// narrow applies the submitted form to base.
func (srv *Server) narrow(r *http.Request, base *table.Table) (*table.Table, string, error) {
	q, err := parseQuery(r, base)
	if err != nil {
		return nil, "", err
	}
	op, err := parseOperation(r)
	if err != nil {
		return nil, "", err
	}
	view, err := base.Apply(q)
	if err != nil {
		return nil, "", err
	}
	srv.logger.Debug("query applied",
		"search", q.Search,
		"filters", len(q.Filters),
		"rows", view.Len(),
		"total", base.Len(),
	)
	return view, op, nil
}

// snapshot resolves the path id; a missing snapshot sends the user back to upload.
func (srv *Server) snapshot(w http.ResponseWriter, r *http.Request) (*session.Snapshot, bool) {
	snap, err := srv.store.Get(r.PathValue("id"))
	if err != nil {
		if errors.Cause(err) == session.ErrNotFound {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return nil, false
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil, false
	}
	return snap, true
}

func (srv *Server) displayData(snap *session.Snapshot, view *table.Table, r *http.Request) DisplayData {
	rows := view.Rows()
	truncated := false
	if srv.cfg.MaxDisplay > 0 && len(rows) > srv.cfg.MaxDisplay {
		rows = rows[:srv.cfg.MaxDisplay]
		truncated = true
	}

	var numeric []int
	for i, col := range view.Columns() {
		if col.Kind() == table.KindNumeric {
			numeric = append(numeric, i)
		}
	}

	data := DisplayData{
		ID:          snap.ID,
		FileName:    snap.FileName,
		FileSize:    snap.FileSize,
		Headers:     view.Headers(),
		Rows:        rows,
		NumericCols: numeric,
		RowCount:    view.Len(),
		TotalRows:   snap.Base.Len(),
		Truncated:   truncated,
		Controls:    controls(snap.Base, r),
		Ops:         opStrings(),
		Operations:  stats.Operations,
	}
	if r != nil {
		data.Search = r.FormValue("search")
		data.Operation = r.FormValue("operation")
	}
	return data
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
