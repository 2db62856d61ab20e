package graph

import (
	"fmt"
	"math"
)

// DefaultClusterRadius is the distance of every cluster anchor from the origin.
const DefaultClusterRadius = 400

// Anchor is the layout target and display colour of one cluster.
type Anchor struct {
	ClusterID string  `json:"cluster_id"`
	ThemeName string  `json:"theme_name"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Hue       float64 `json:"hue"`
	Color     string  `json:"color"`
}

// PlaceClusters spreads clusters evenly on a circle of the given radius.
// The i-th of N clusters sits at angle 2π·i/N with hue 360·i/N. The result
// depends only on index and count, so it only needs recomputing when the
// cluster list changes.
func PlaceClusters(clusters []Cluster, radius float64) []Anchor {
	if len(clusters) == 0 {
		return nil
	}
	if radius <= 0 {
		radius = DefaultClusterRadius
	}

	n := float64(len(clusters))
	anchors := make([]Anchor, len(clusters))
	for i, c := range clusters {
		frac := float64(i) / n
		angle := frac * 2 * math.Pi
		hue := frac * 360
		anchors[i] = Anchor{
			ClusterID: c.ID,
			ThemeName: c.ThemeName,
			X:         math.Cos(angle) * radius,
			Y:         math.Sin(angle) * radius,
			Hue:       hue,
			Color:     fmt.Sprintf("hsl(%g, 70%%, 50%%)", math.Round(hue*100)/100),
		}
	}
	return anchors
}

// Membership builds the node-ID to cluster-ID lookup. When a node is listed
// by several clusters the first one wins.
func Membership(clusters []Cluster) map[string]string {
	m := make(map[string]string)
	for _, c := range clusters {
		for _, id := range c.NodeIDs {
			if _, ok := m[id]; !ok {
				m[id] = c.ID
			}
		}
	}
	return m
}
