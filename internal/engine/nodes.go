package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lazypower/mindgraph/internal/graph"
)

// AddNode validates and stores a new node, then adds it to the session. The
// node enters the layout on the placement spiral.
func (e *Engine) AddNode(ctx context.Context, in NodeInput) (graph.Node, error) {
	in, err := in.normalize()
	if err != nil {
		return graph.Node{}, err
	}
	n := graph.Node{
		ID:    uuid.NewString(),
		Title: in.Title,
		Tags:  in.Tags,
		Kind:  in.Kind,
	}
	return e.insert(ctx, n)
}

// insert persists n under its own ID and adds it to the session.
func (e *Engine) insert(ctx context.Context, n graph.Node) (graph.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.index[n.ID]; exists {
		return graph.Node{}, fmt.Errorf("%w: duplicate node id %s", ErrInvalidInput, n.ID)
	}
	if n.LastTouchedAt.IsZero() {
		n.LastTouchedAt = e.now()
	}
	if err := e.db.CreateNode(ctx, &n); err != nil {
		return graph.Node{}, fmt.Errorf("add node: %w", err)
	}

	e.nodes = append(e.nodes, n)
	e.reindex()
	e.refreshLinks()

	e.log.Info("node added", zap.String("id", n.ID), zap.String("title", n.Title))
	return e.nodeLocked(n.ID)
}

// UpdateNode replaces the title, tags and kind of a node. Its position is kept.
func (e *Engine) UpdateNode(ctx context.Context, id string, in NodeInput) (graph.Node, error) {
	in, err := in.normalize()
	if err != nil {
		return graph.Node{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	i, ok := e.index[id]
	if !ok {
		return graph.Node{}, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	n := e.nodes[i]
	n.Title, n.Tags, n.Kind = in.Title, in.Tags, in.Kind
	found, err := e.db.UpdateNode(ctx, &n)
	if err != nil {
		return graph.Node{}, err
	}
	if !found {
		return graph.Node{}, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	e.nodes[i] = n
	e.refreshLinks()
	return e.nodeLocked(id)
}

// DeleteNode removes a node from the store and the session. Links touching
// it disappear with the next inference run, which happens immediately.
func (e *Engine) DeleteNode(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i, ok := e.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if _, err := e.db.DeleteNode(ctx, id); err != nil {
		return err
	}

	e.nodes = slices.Delete(e.nodes, i, i+1)
	for ci := range e.clusters {
		e.clusters[ci].NodeIDs = slices.DeleteFunc(e.clusters[ci].NodeIDs, func(m string) bool { return m == id })
	}
	e.reindex()
	e.sim.SetClusters(e.clusters)
	e.refreshLinks()

	e.log.Info("node deleted", zap.String("id", id))
	return nil
}

// TouchNode marks a node as visited now, clearing its stagnant state.
func (e *Engine) TouchNode(ctx context.Context, id string) (graph.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i, ok := e.index[id]
	if !ok {
		return graph.Node{}, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	now := e.now()
	if _, err := e.db.TouchNode(ctx, id, now); err != nil {
		return graph.Node{}, err
	}
	e.nodes[i].LastTouchedAt = now
	return e.nodeLocked(id)
}

// SetClusters replaces the thematic clusters and re-places their anchors.
// Cluster IDs must be non-empty and unique. Members that are not (yet) nodes
// are stored but exert no force.
func (e *Engine) SetClusters(ctx context.Context, clusters []graph.Cluster) error {
	seen := make(map[string]bool, len(clusters))
	for i, c := range clusters {
		if c.ID == "" {
			return fmt.Errorf("%w: cluster %d has no id", ErrInvalidInput, i)
		}
		if seen[c.ID] {
			return fmt.Errorf("%w: duplicate cluster id %s", ErrInvalidInput, c.ID)
		}
		seen[c.ID] = true
	}

	cp := make([]graph.Cluster, len(clusters))
	for i, c := range clusters {
		c.NodeIDs = slices.Clone(c.NodeIDs)
		if c.NodeIDs == nil {
			c.NodeIDs = []string{}
		}
		cp[i] = c
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.db.ReplaceClusters(ctx, cp); err != nil {
		return err
	}
	e.clusters = cp
	e.sim.SetClusters(cp)

	e.log.Info("clusters replaced", zap.Int("clusters", len(cp)))
	return nil
}

// Clusters returns a copy of the current clusters.
func (e *Engine) Clusters() []graph.Cluster {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]graph.Cluster, len(e.clusters))
	for i, c := range e.clusters {
		c.NodeIDs = slices.Clone(c.NodeIDs)
		out[i] = c
	}
	return out
}
