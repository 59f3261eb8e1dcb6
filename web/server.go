// Package web serves the upload, search and filter pages.
package web

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"sheetsearch/config"
	"sheetsearch/loader"
	"sheetsearch/session"
)

// Version is reported by the health endpoint.
var Version = "dev"

type Server struct {
	cfg       config.Config
	store     *session.Store
	loader    *loader.Loader
	logger    *slog.Logger
	templates *template.Template
}

func New(cfg config.Config, store *session.Store, ld *loader.Loader, logger *slog.Logger) *Server {
	return &Server{
		cfg:       cfg,
		store:     store,
		loader:    ld,
		logger:    logger,
		templates: templates,
	}
}

// Handler routes every endpoint through the request logger.
func (srv *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", srv.uploadHandler)
	mux.HandleFunc("POST /upload", srv.displayHandler)
	mux.HandleFunc("GET /sheets/{id}", srv.sheetHandler)
	mux.HandleFunc("POST /sheets/{id}/filter", srv.filterHandler)
	mux.HandleFunc("POST /sheets/{id}/export", srv.exportHandler)
	mux.HandleFunc("POST /api/sheets/{id}/query", srv.queryHandler)
	mux.HandleFunc("GET /health", srv.healthHandler)
	return srv.logRequests(mux)
}

// render executes a template into a buffer so failures never send half a page.
func (srv *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := srv.templates.ExecuteTemplate(&buf, name, data); err != nil {
		srv.logger.Error("template error", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	buf.WriteTo(w)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (srv *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		srv.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
