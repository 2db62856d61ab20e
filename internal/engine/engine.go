// Package engine owns one knowledge-graph session: it loads nodes and
// clusters from the store, keeps the inferred links current as nodes change,
// drives the layout simulator and writes positions back.
package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"github.com/lazypower/mindgraph/internal/graph"
	"github.com/lazypower/mindgraph/internal/store"
)

var (
	ErrNodeNotFound = errors.New("node not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotDragging  = errors.New("node is not being dragged")
	ErrRunning      = errors.New("simulation already running")
)

// Options tunes the session.
type Options struct {
	Params          graph.Params
	FPS             int           // ticks per second while running
	PersistInterval time.Duration // how often a running loop saves positions, 0 disables
	SettleEnergy    float64       // kinetic energy below which the layout counts as settled
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Params:          graph.DefaultParams(),
		FPS:             60,
		PersistInterval: 10 * time.Second,
		SettleEnergy:    0.5,
	}
}

// Engine is safe for concurrent use. Every method locks the session, so
// readers always see the state between two whole ticks.
type Engine struct {
	db      *store.DB
	log     *zap.Logger
	metrics *Metrics
	opts    Options
	now     func() time.Time

	mu       sync.Mutex
	nodes    []graph.Node
	index    map[string]int
	clusters []graph.Cluster
	links    []graph.Link
	adj      graph.Adjacency
	linkKey  [32]byte
	sim      *graph.Simulator

	linksValid bool

	// persistMu serialises position saves with imports.
	persistMu sync.Mutex

	runMu  sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates an Engine with an empty session. Call Load to populate it.
// A nil logger or metrics gets a no-op logger or a private registry.
func New(db *store.DB, opts Options, logger *zap.Logger, metrics *Metrics) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics("mindgraph")
	}
	if opts.FPS <= 0 {
		opts.FPS = DefaultOptions().FPS
	}
	e := &Engine{
		db:      db,
		log:     logger,
		metrics: metrics,
		opts:    opts,
		now:     time.Now,
		index:   make(map[string]int),
		sim:     graph.NewSimulator(opts.Params),
	}
	e.adj = graph.NewAdjacency(nil)
	return e
}

// Metrics returns the engine's instruments.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// Load replaces the session with the nodes and clusters in the store. The
// simulator is rebuilt, so velocities reset.
func (e *Engine) Load(ctx context.Context) error {
	nodes, err := e.db.ListNodes(ctx)
	if err != nil {
		return fmt.Errorf("load nodes: %w", err)
	}
	clusters, err := e.db.ListClusters(ctx)
	if err != nil {
		return fmt.Errorf("load clusters: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.nodes = nodes
	e.clusters = clusters
	e.sim = graph.NewSimulator(e.opts.Params)
	e.linksValid = false
	e.reindex()
	e.sim.SetClusters(clusters)
	e.refreshLinks()

	e.log.Info("graph loaded",
		zap.Int("nodes", len(e.nodes)),
		zap.Int("links", len(e.links)),
		zap.Int("clusters", len(e.clusters)))
	return nil
}

// reindex rebuilds the ID index and hands the node set to the simulator.
// Callers hold mu.
func (e *Engine) reindex() {
	e.index = make(map[string]int, len(e.nodes))
	for i, n := range e.nodes {
		e.index[n.ID] = i
	}
	e.sim.SetNodes(e.nodes)
	e.metrics.Nodes.Set(float64(len(e.nodes)))
}

// refreshLinks re-runs link inference when node content changed since the
// last run, then refreshes connection counts. Callers hold mu.
func (e *Engine) refreshLinks() {
	key := contentKey(e.nodes)
	if e.linksValid && key == e.linkKey {
		e.metrics.LinkCacheHits.Inc()
		return
	}

	e.links = graph.InferLinks(e.nodes)
	e.linkKey = key
	e.linksValid = true
	graph.ApplyConnectionCounts(e.nodes, e.links)
	e.adj = graph.NewAdjacency(e.links)
	e.sim.SetLinks(e.links)

	e.metrics.LinkRecomputes.Inc()
	e.metrics.Links.Set(float64(len(e.links)))
	e.log.Debug("links recomputed", zap.Int("links", len(e.links)))
}

// contentKey hashes the link-relevant content of nodes (ID, title, tags)
// in ID order.
func contentKey(nodes []graph.Node) [32]byte {
	order := make([]int, len(nodes))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		switch {
		case nodes[a].ID < nodes[b].ID:
			return -1
		case nodes[a].ID > nodes[b].ID:
			return 1
		}
		return 0
	})

	h := blake3.New()
	for _, i := range order {
		n := nodes[i]
		h.Write([]byte(n.ID))
		h.Write([]byte{0})
		h.Write([]byte(n.Title))
		h.Write([]byte{0})
		for _, t := range n.Tags {
			h.Write([]byte(t))
			h.Write([]byte{1})
		}
		h.Write([]byte{2})
	}
	var key [32]byte
	copy(key[:], h.Sum(nil))
	return key
}

// Snapshot is a copied view of the session.
type Snapshot struct {
	Nodes   []graph.Node   `json:"nodes"`
	Links   []graph.Link   `json:"links"`
	Anchors []graph.Anchor `json:"anchors"`
	Ticks   uint64         `json:"ticks"`
	Energy  float64        `json:"energy"`
	Running bool           `json:"running"`
}

// Snapshot copies the current nodes with their simulated positions, the link
// set and the cluster anchors.
func (e *Engine) Snapshot() Snapshot {
	running := e.Running()

	e.mu.Lock()
	defer e.mu.Unlock()

	return Snapshot{
		Nodes:   e.nodesLocked(),
		Links:   copyLinks(e.links),
		Anchors: e.sim.Anchors(),
		Ticks:   e.sim.Ticks(),
		Energy:  e.sim.KineticEnergy(),
		Running: running,
	}
}

// nodesLocked returns copies of the session nodes with positions and
// velocities taken from the simulator.
func (e *Engine) nodesLocked() []graph.Node {
	out := make([]graph.Node, len(e.nodes))
	for i, b := range e.sim.Snapshot() {
		j, ok := e.index[b.ID]
		if !ok {
			continue
		}
		n := e.nodes[j]
		n.Tags = slices.Clone(n.Tags)
		n.X, n.Y, n.VX, n.VY = b.X, b.Y, b.VX, b.VY
		n.Placed = true
		out[i] = n
	}
	return out
}

func copyLinks(links []graph.Link) []graph.Link {
	out := make([]graph.Link, len(links))
	for i, l := range links {
		l.SharedTerms = slices.Clone(l.SharedTerms)
		out[i] = l
	}
	return out
}

// Nodes returns copies of all session nodes.
func (e *Engine) Nodes() []graph.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nodesLocked()
}

// Node returns a copy of one node.
func (e *Engine) Node(id string) (graph.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nodeLocked(id)
}

func (e *Engine) nodeLocked(id string) (graph.Node, error) {
	i, ok := e.index[id]
	if !ok {
		return graph.Node{}, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	n := e.nodes[i]
	n.Tags = slices.Clone(n.Tags)
	if x, y, ok := e.sim.Position(id); ok {
		n.X, n.Y, n.Placed = x, y, true
	}
	return n, nil
}

// Links returns a copy of the current link set.
func (e *Engine) Links() []graph.Link {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyLinks(e.links)
}

// Trace returns the fewest-hop path between two nodes, or an empty path when
// they are not connected.
func (e *Engine) Trace(from, to string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.adj.Trace(from, to)
}

// View projects the current session through a viewport.
func (e *Engine) View(v graph.Viewport, focus graph.Focus) graph.Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return graph.Project(e.nodesLocked(), e.links, v, focus, e.now())
}

// Close stops the simulation loop and saves positions.
func (e *Engine) Close(ctx context.Context) error {
	e.Stop()
	return e.PersistPositions(ctx)
}
