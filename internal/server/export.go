package server

import (
	"io"
	"net/http"

	"github.com/lazypower/mindgraph/internal/engine"
)

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="mindgraph.yaml"`)
	if err := engine.WriteDocument(w, s.engine.Export()); err != nil {
		s.writeError(w, r, err)
	}
}

// handleImport accepts a YAML or JSON document.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	doc, err := engine.ReadDocument(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stats, err := s.engine.Import(r.Context(), doc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}
