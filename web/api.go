package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"sheetsearch/session"
	"sheetsearch/stats"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// queryHandler is the JSON form of filterHandler.
func (srv *Server) queryHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := srv.store.Get(r.PathValue("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Cause(err) == session.ErrNotFound {
			status = http.StatusNotFound
		}
		writeJSON(w, status, APIResponse{Success: false, Error: err.Error()})
		return
	}

	var in APIQuery
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: "invalid JSON body"})
		return
	}

	q, err := apiQuery(in, snap.Base)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: err.Error()})
		return
	}
	view, err := snap.Base.Apply(q)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: err.Error()})
		return
	}

	result := APIResult{
		Headers: view.Headers(),
		Rows:    view.Rows(),
		Count:   view.Len(),
		Total:   snap.Base.Len(),
	}
	for _, col := range view.Columns() {
		result.Kinds = append(result.Kinds, col.Kind().String())
	}
	if in.Summary != "" {
		result.Summary, err = stats.Summarize(view, in.Summary)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: err.Error()})
			return
		}
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: result})
}

func (srv *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   Version,
		"snapshots": srv.store.Len(),
	})
}
