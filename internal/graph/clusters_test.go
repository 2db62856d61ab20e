package graph

import (
	"math"
	"testing"
)

func TestPlaceClusters(t *testing.T) {
	clusters := []Cluster{
		{ID: "c0", ThemeName: "Work"},
		{ID: "c1", ThemeName: "Health"},
		{ID: "c2", ThemeName: "Cooking"},
		{ID: "c3", ThemeName: "Reading"},
	}
	anchors := PlaceClusters(clusters, 0)
	if len(anchors) != 4 {
		t.Fatalf("len = %d, want 4", len(anchors))
	}

	want := []struct {
		x, y  float64
		color string
	}{
		{400, 0, "hsl(0, 70%, 50%)"},
		{0, 400, "hsl(90, 70%, 50%)"},
		{-400, 0, "hsl(180, 70%, 50%)"},
		{0, -400, "hsl(270, 70%, 50%)"},
	}
	for i, a := range anchors {
		if math.Abs(a.X-want[i].x) > 1e-9 || math.Abs(a.Y-want[i].y) > 1e-9 {
			t.Errorf("anchor %d = (%.3f, %.3f), want (%v, %v)", i, a.X, a.Y, want[i].x, want[i].y)
		}
		if a.Color != want[i].color {
			t.Errorf("anchor %d color = %q, want %q", i, a.Color, want[i].color)
		}
		if a.ClusterID != clusters[i].ID || a.ThemeName != clusters[i].ThemeName {
			t.Errorf("anchor %d = %s/%s, want %s/%s", i, a.ClusterID, a.ThemeName, clusters[i].ID, clusters[i].ThemeName)
		}
	}
}

func TestPlaceClustersFractionalHue(t *testing.T) {
	anchors := PlaceClusters([]Cluster{{ID: "a"}, {ID: "b"}, {ID: "c"}}, 100)
	if got, want := anchors[1].Color, "hsl(120, 70%, 50%)"; got != want {
		t.Errorf("color = %q, want %q", got, want)
	}
	seven := PlaceClusters(make([]Cluster, 7), 100)
	if got, want := seven[1].Color, "hsl(51.43, 70%, 50%)"; got != want {
		t.Errorf("color = %q, want %q", got, want)
	}
	if r := math.Hypot(anchors[2].X, anchors[2].Y); math.Abs(r-100) > 1e-9 {
		t.Errorf("radius = %v, want 100", r)
	}
}

func TestPlaceClustersEmpty(t *testing.T) {
	if anchors := PlaceClusters(nil, 400); anchors != nil {
		t.Errorf("expected nil anchors, got %v", anchors)
	}
}

func TestMembershipFirstWins(t *testing.T) {
	m := Membership([]Cluster{
		{ID: "c1", NodeIDs: []string{"a", "b"}},
		{ID: "c2", NodeIDs: []string{"b", "c"}},
	})
	want := map[string]string{"a": "c1", "b": "c1", "c": "c2"}
	for id, cid := range want {
		if m[id] != cid {
			t.Errorf("membership[%s] = %q, want %q", id, m[id], cid)
		}
	}
	if _, ok := m["d"]; ok {
		t.Error("unlisted node has a cluster")
	}
}
