package web

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/opendomesday/domesday/internal/logging"
	"github.com/opendomesday/domesday/internal/store"
)

// handleHealth reports liveness and the current record count.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, map[string]any{"status": "ok", "records": count})
}

// handleListRecords returns records, optionally filtered by gender and
// sorted by any canonical column.
//
// Query parameters: gender, sort, dir (asc|desc), limit, offset.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := store.ListOptions{
		Gender:  q.Get("gender"),
		OrderBy: q.Get("sort"),
		Desc:    q.Get("dir") == "desc",
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		opts.Offset = n
	}

	records, err := s.store.List(r.Context(), opts)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, map[string]any{"count": len(records), "records": toRecordJSON(records)})
}

// handleGetRecord returns a single record by pase_name. Identifiers contain
// spaces, so the path segment arrives percent-encoded.
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "paseName")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	lh, err := s.store.Get(r.Context(), name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, recordJSON(lh))
}

// handleSearch runs a full-text query over name, pase_name, and description.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, r, http.StatusBadRequest, "missing query parameter q")
		return
	}

	hits, err := s.store.Search(r.Context(), query)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, map[string]any{"count": len(hits), "hits": hits})
}

// handleStats returns exact decimal aggregates over the hide columns.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	frame, err := s.store.Export(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if g := r.URL.Query().Get("gender"); g != "" {
		frame = frame.FilterGender(g)
	}
	writeJSON(w, r, map[string]any{"rows": frame.Len(), "aggregates": frame.Aggregates()})
}

// handleExportCSV streams the full table as CSV.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	frame, err := s.store.Export(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="landholders.csv"`)
	if err := frame.WriteCSV(w); err != nil {
		logging.FromContext(r.Context()).Error("csv export failed", "error", err)
	}
}

// handleImports returns the import audit log, most recent first.
func (s *Server) handleImports(w http.ResponseWriter, r *http.Request) {
	imports, err := s.store.Imports(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, map[string]any{"count": len(imports), "imports": imports})
}

// handleImport accepts a multipart CSV upload and runs it through the loader.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	res, err := s.loader.LoadReader(r.Context(), header.Filename, file)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, res)
}
