// Package graph is the knowledge graph engine: link inference over tagged
// nodes, a force-directed layout simulator, cluster placement, shortest-hop
// path tracing and viewport projection.
//
// Nothing in this package blocks, locks or returns errors. Callers that share
// a Simulator across goroutines must serialise access themselves.
package graph

import "time"

// Kind distinguishes plain notes from commitments. It affects visual radius
// only; link inference ignores it.
type Kind string

const (
	KindNote       Kind = "note"
	KindCommitment Kind = "commitment"
)

// Valid reports whether k is a known node kind.
func (k Kind) Valid() bool {
	return k == KindNote || k == KindCommitment
}

// Node is a knowledge item as the engine sees it.
type Node struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Tags          []string  `json:"tags"`
	Kind          Kind      `json:"kind"`
	X             float64   `json:"x"`
	Y             float64   `json:"y"`
	VX            float64   `json:"vx"`
	VY            float64   `json:"vy"`
	Placed        bool      `json:"placed"` // false until the node has a layout position
	Connections   int       `json:"connections"`
	LastTouchedAt time.Time `json:"last_touched_at"`
}

// Link is an inferred undirected relationship. Source is always the
// lexically lower node ID.
type Link struct {
	Source      string   `json:"source"`
	Target      string   `json:"target"`
	Weight      int      `json:"weight"`
	SharedTerms []string `json:"shared_terms"`
}

// Other returns the endpoint of l that is not id.
func (l Link) Other(id string) string {
	if l.Source == id {
		return l.Target
	}
	return l.Source
}

// Cluster is an externally supplied thematic grouping of node IDs.
type Cluster struct {
	ID        string   `json:"id"`
	ThemeName string   `json:"theme_name"`
	NodeIDs   []string `json:"node_ids"`
}

// tagSet returns the distinct tags of n. Empty tags are ignored.
func tagSet(n Node) map[string]struct{} {
	set := make(map[string]struct{}, len(n.Tags))
	for _, t := range n.Tags {
		if t == "" {
			continue
		}
		set[t] = struct{}{}
	}
	return set
}
