package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lazypower/mindgraph/internal/engine"
	"github.com/lazypower/mindgraph/internal/graph"
)

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleLinks(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"links": s.engine.Links()})
}

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	from := strings.TrimSpace(r.URL.Query().Get("from"))
	to := strings.TrimSpace(r.URL.Query().Get("to"))
	if from == "" || to == "" {
		s.writeErrorMessage(w, http.StatusBadRequest, "from and to are required")
		return
	}
	path := s.engine.Trace(from, to)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"path":  path,
		"found": len(path) > 0,
	})
}

type viewportInput struct {
	Width   float64 `json:"width" validate:"gt=0,lte=16384"`
	Height  float64 `json:"height" validate:"gt=0,lte=16384"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
	Zoom    float64 `json:"zoom"`
}

// handleView projects the session through the posted viewport. When the
// focus carries no path but trace_from and trace_to are set, the path is
// traced here.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Viewport  viewportInput `json:"viewport"`
		Focus     graph.Focus   `json:"focus"`
		TraceFrom string        `json:"trace_from"`
		TraceTo   string        `json:"trace_to"`
	}
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	v := graph.Viewport{
		Width:   req.Viewport.Width,
		Height:  req.Viewport.Height,
		OffsetX: req.Viewport.OffsetX,
		OffsetY: req.Viewport.OffsetY,
		Zoom:    req.Viewport.Zoom,
	}.Normalized()
	if len(req.Focus.Path) == 0 && req.TraceFrom != "" && req.TraceTo != "" {
		req.Focus.Path = s.engine.Trace(req.TraceFrom, req.TraceTo)
	}
	s.writeJSON(w, http.StatusOK, s.engine.View(v, req.Focus))
}

func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"nodes": s.engine.Nodes()})
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var in engine.NodeInput
	if err := decode(r, &in, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.engine.AddNode(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, n)
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	n, err := s.engine.Node(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, n)
}

// handleUpdateNode applies a partial update: omitted fields keep their
// current value.
func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Title *string     `json:"title"`
		Tags  *[]string   `json:"tags"`
		Kind  *graph.Kind `json:"kind"`
	}
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}

	cur, err := s.engine.Node(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in := engine.NodeInput{Title: cur.Title, Tags: cur.Tags, Kind: cur.Kind}
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Tags != nil {
		in.Tags = *req.Tags
	}
	if req.Kind != nil {
		in.Kind = *req.Kind
	}

	n, err := s.engine.UpdateNode(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteNode(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTouchNode(w http.ResponseWriter, r *http.Request) {
	n, err := s.engine.TouchNode(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, n)
}

type dragRequest struct {
	X *float64 `json:"x" validate:"required"`
	Y *float64 `json:"y" validate:"required"`
}

func (s *Server) handleDragStart(w http.ResponseWriter, r *http.Request) {
	var req dragRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.engine.BeginDrag(chi.URLParam(r, "id"), *req.X, *req.Y); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "dragging"})
}

func (s *Server) handleDragMove(w http.ResponseWriter, r *http.Request) {
	var req dragRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.engine.DragTo(chi.URLParam(r, "id"), *req.X, *req.Y); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "dragging"})
}

func (s *Server) handleDragEnd(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.EndDrag(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "released"})
}

func (s *Server) handleListClusters(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"clusters": s.engine.Clusters()})
}

type clusterInput struct {
	ID        string   `json:"id" validate:"required,max=128"`
	ThemeName string   `json:"theme_name" validate:"max=200"`
	NodeIDs   []string `json:"node_ids" validate:"dive,required"`
}

func (s *Server) handleSetClusters(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Clusters []clusterInput `json:"clusters" validate:"dive"`
	}
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	clusters := make([]graph.Cluster, len(req.Clusters))
	for i, c := range req.Clusters {
		clusters[i] = graph.Cluster{ID: c.ID, ThemeName: c.ThemeName, NodeIDs: c.NodeIDs}
	}
	if err := s.engine.SetClusters(r.Context(), clusters); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"clusters": s.engine.Clusters(),
		"anchors":  s.engine.Snapshot().Anchors,
	})
}
