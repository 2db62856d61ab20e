package server

import (
	"net/http"
)

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ticks int `json:"ticks" validate:"omitempty,min=1,max=10000"`
	}
	if err := decode(r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Ticks == 0 {
		req.Ticks = 1
	}
	energy := s.engine.Step(req.Ticks)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ticks":   req.Ticks,
		"energy":  energy,
		"settled": s.engine.Settled(),
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FPS int `json:"fps" validate:"omitempty,min=1,max=1000"`
	}
	if err := decode(r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.engine.Start(req.FPS); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"running": true})
}

// handleStop halts the loop and saves the layout.
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.engine.Stop()
	if err := s.engine.PersistPositions(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"running": false})
}
