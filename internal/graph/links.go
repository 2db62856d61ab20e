package graph

import (
	"sort"
)

const (
	minWeight        = 1
	maxWeight        = 5
	maxSharedTerms   = 3
	tagBoostMinimum  = 3 // distinct shared tags needed for the +1 boost
	termWeightCapped = maxWeight - minWeight
)

// InferLinks derives the full link set for a node collection. Two nodes are
// linked iff they share at least one tag; shared title/tag terms raise the
// weight. The result is sorted by (Source, Target) and does not depend on
// input order. Nodes with duplicate IDs after the first are ignored.
//
// The comparison is pairwise, so cost grows with the square of the node
// count. That is acceptable for graphs of a few hundred nodes; beyond that
// this is the first thing to replace.
func InferLinks(nodes []Node) []Link {
	ordered := canonicalNodes(nodes)

	tags := make([]map[string]struct{}, len(ordered))
	terms := make([][]string, len(ordered))
	for i, n := range ordered {
		tags[i] = tagSet(n)
		terms[i] = Terms(n)
	}

	links := make([]Link, 0)
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			common := countShared(tags[i], tags[j])
			if common == 0 {
				continue
			}

			shared := sharedTerms(terms[i], terms[j])
			weight := minWeight + min(termWeightCapped, len(shared))
			if common >= tagBoostMinimum {
				weight = min(maxWeight, weight+1)
			}
			if len(shared) > maxSharedTerms {
				shared = shared[:maxSharedTerms]
			}
			if shared == nil {
				shared = []string{}
			}

			links = append(links, Link{
				Source:      ordered[i].ID,
				Target:      ordered[j].ID,
				Weight:      weight,
				SharedTerms: shared,
			})
		}
	}
	return links
}

// ConnectionCounts returns the number of links incident to each node ID.
func ConnectionCounts(links []Link) map[string]int {
	counts := make(map[string]int)
	for _, l := range links {
		counts[l.Source]++
		counts[l.Target]++
	}
	return counts
}

// ApplyConnectionCounts overwrites Connections on every node from links.
// Nodes without links get zero.
func ApplyConnectionCounts(nodes []Node, links []Link) {
	counts := ConnectionCounts(links)
	for i := range nodes {
		nodes[i].Connections = counts[nodes[i].ID]
	}
}

// canonicalNodes returns a copy of nodes sorted by ID with duplicates and
// empty IDs removed.
func canonicalNodes(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if n.ID == "" || seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func countShared(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for t := range a {
		if _, ok := b[t]; ok {
			n++
		}
	}
	return n
}
