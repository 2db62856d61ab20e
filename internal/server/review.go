package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quality *int `json:"quality" validate:"required,min=0,max=5"`
	}
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	card, err := s.engine.Review(r.Context(), chi.URLParam(r, "id"), *req.Quality)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, card)
}

// handleDueReviews lists due reviews. An optional "at" query parameter
// (RFC 3339) evaluates the queue at another moment.
func (s *Server) handleDueReviews(w http.ResponseWriter, r *http.Request) {
	at := s.now()
	if v := r.URL.Query().Get("at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.writeErrorMessage(w, http.StatusBadRequest, "at must be RFC 3339")
			return
		}
		at = t
	}
	due, err := s.engine.DueReviews(r.Context(), at)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"due": due})
}
