package graph

// Adjacency is an undirected neighbour list built from a link set. Neighbour
// order follows link order.
type Adjacency map[string][]string

// NewAdjacency indexes links for traversal.
func NewAdjacency(links []Link) Adjacency {
	adj := make(Adjacency)
	for _, l := range links {
		if l.Source == l.Target {
			continue
		}
		adj[l.Source] = append(adj[l.Source], l.Target)
		adj[l.Target] = append(adj[l.Target], l.Source)
	}
	return adj
}

// Neighbors returns the nodes directly linked to id.
func (a Adjacency) Neighbors(id string) []string {
	return a[id]
}

// Trace returns the fewest-hop path from start to target, both inclusive.
// Link weights are ignored. A path to oneself is [start]; an unreachable
// target yields an empty, non-nil slice.
func (a Adjacency) Trace(start, target string) []string {
	if start == target {
		return []string{start}
	}

	parent := map[string]string{start: ""}
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range a[current] {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = current
			if next == target {
				return unwind(parent, start, target)
			}
			queue = append(queue, next)
		}
	}
	return []string{}
}

func unwind(parent map[string]string, start, target string) []string {
	var rev []string
	for id := target; id != start; id = parent[id] {
		rev = append(rev, id)
	}
	rev = append(rev, start)

	path := make([]string, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = id
	}
	return path
}

// Trace is a convenience wrapper that builds the adjacency on the fly.
func Trace(links []Link, start, target string) []string {
	return NewAdjacency(links).Trace(start, target)
}
