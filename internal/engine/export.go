package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/lazypower/mindgraph/internal/graph"
)

// DocumentVersion is written into every export.
const DocumentVersion = 1

// Document is the portable form of a graph: nodes with their layout and the
// cluster assignment. Links are derived and not included. JSON is valid
// YAML, so JSON documents import as well.
type Document struct {
	Version    int               `yaml:"version"`
	ExportedAt time.Time         `yaml:"exported_at"`
	Nodes      []DocumentNode    `yaml:"nodes" validate:"dive"`
	Clusters   []DocumentCluster `yaml:"clusters,omitempty" validate:"dive"`
}

// DocumentNode is one node in a Document.
type DocumentNode struct {
	ID            string     `yaml:"id" json:"id" validate:"required,max=128"`
	Title         string     `yaml:"title" json:"title"`
	Tags          []string   `yaml:"tags" json:"tags"`
	Kind          graph.Kind `yaml:"kind,omitempty" json:"kind,omitempty"`
	X             float64    `yaml:"x" json:"x"`
	Y             float64    `yaml:"y" json:"y"`
	Placed        bool       `yaml:"placed" json:"placed"`
	LastTouchedAt time.Time  `yaml:"last_touched_at,omitempty" json:"last_touched_at"`
}

// DocumentCluster is one cluster in a Document.
type DocumentCluster struct {
	ID        string   `yaml:"id" json:"id" validate:"required"`
	ThemeName string   `yaml:"theme_name" json:"theme_name"`
	NodeIDs   []string `yaml:"node_ids" json:"node_ids"`
}

// Export captures the session, with current simulated positions, as a
// Document.
func (e *Engine) Export() Document {
	snap := e.Snapshot()
	doc := Document{
		Version:    DocumentVersion,
		ExportedAt: e.now().UTC(),
		Nodes:      make([]DocumentNode, len(snap.Nodes)),
	}
	for i, n := range snap.Nodes {
		doc.Nodes[i] = DocumentNode{
			ID:            n.ID,
			Title:         n.Title,
			Tags:          n.Tags,
			Kind:          n.Kind,
			X:             n.X,
			Y:             n.Y,
			Placed:        n.Placed,
			LastTouchedAt: n.LastTouchedAt,
		}
	}
	for _, c := range e.Clusters() {
		doc.Clusters = append(doc.Clusters, DocumentCluster{ID: c.ID, ThemeName: c.ThemeName, NodeIDs: c.NodeIDs})
	}
	return doc
}

// WriteDocument encodes doc as YAML.
func WriteDocument(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return enc.Close()
}

// ReadDocument decodes a YAML (or JSON) document and validates it.
func ReadDocument(r io.Reader) (Document, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("%w: decode document: %v", ErrInvalidInput, err)
	}
	if doc.Version > DocumentVersion {
		return Document{}, fmt.Errorf("%w: document version %d is newer than %d", ErrInvalidInput, doc.Version, DocumentVersion)
	}
	if err := Validate(doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// ImportStats reports what Import changed.
type ImportStats struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Import merges doc into the store: unknown IDs are created, known IDs have
// their content and position overwritten. Clusters are replaced when the
// document carries any. Every node is checked before anything is written and
// the writes share one transaction, so a rejected document changes nothing.
// The current layout is saved first and the session is reloaded afterwards.
func (e *Engine) Import(ctx context.Context, doc Document) (ImportStats, error) {
	nodes := make([]graph.Node, len(doc.Nodes))
	for i, dn := range doc.Nodes {
		in, err := NodeInput{Title: dn.Title, Tags: dn.Tags, Kind: dn.Kind}.normalize()
		if err != nil {
			return ImportStats{}, fmt.Errorf("node %s: %w", dn.ID, err)
		}
		if dn.Placed && !graph.InWorld(dn.X, dn.Y) {
			return ImportStats{}, fmt.Errorf("%w: node %s: position (%v, %v) outside the world", ErrInvalidInput, dn.ID, dn.X, dn.Y)
		}
		n := graph.Node{
			ID:            dn.ID,
			Title:         in.Title,
			Tags:          in.Tags,
			Kind:          in.Kind,
			Placed:        dn.Placed,
			LastTouchedAt: dn.LastTouchedAt,
		}
		if n.Placed {
			n.X, n.Y = dn.X, dn.Y
		}
		nodes[i] = n
	}
	var clusters []graph.Cluster
	for _, c := range doc.Clusters {
		clusters = append(clusters, graph.Cluster{ID: c.ID, ThemeName: c.ThemeName, NodeIDs: c.NodeIDs})
	}

	// The running loop must not save stale positions over imported ones
	// before the session is reloaded.
	e.persistMu.Lock()
	defer e.persistMu.Unlock()

	if err := e.persistLocked(ctx); err != nil {
		return ImportStats{}, err
	}
	res, err := e.db.ImportGraph(ctx, nodes, clusters)
	if err != nil {
		return ImportStats{}, fmt.Errorf("import: %w", err)
	}
	stats := ImportStats{Created: res.Created, Updated: res.Updated}

	if err := e.Load(ctx); err != nil {
		return stats, err
	}
	e.log.Info("graph imported", zap.Int("created", stats.Created), zap.Int("updated", stats.Updated))
	return stats, nil
}
