package graph

import (
	"math"
	"testing"
	"time"
)

func TestViewportRoundTrip(t *testing.T) {
	v := Viewport{Width: 800, Height: 600, OffsetX: 35, OffsetY: -12, Zoom: 1.7}
	for _, p := range [][2]float64{{0, 0}, {100, -250}, {-3.5, 1e4}} {
		sx, sy := v.ToScreen(p[0], p[1])
		x, y := v.ToWorld(sx, sy)
		if math.Abs(x-p[0]) > 1e-9 || math.Abs(y-p[1]) > 1e-9 {
			t.Errorf("round trip %v -> (%v, %v)", p, x, y)
		}
	}

	sx, sy := NewViewport(800, 600).ToScreen(0, 0)
	if sx != 400 || sy != 300 {
		t.Errorf("origin maps to (%v, %v), want centre", sx, sy)
	}
}

func TestViewportZoomClamped(t *testing.T) {
	v := NewViewport(100, 100)
	if v.Zoom != DefaultZoom {
		t.Errorf("default zoom = %v, want %v", v.Zoom, DefaultZoom)
	}
	for i := 0; i < 50; i++ {
		v = v.ZoomIn()
	}
	if v.Zoom != MaxZoom {
		t.Errorf("zoom after many ZoomIn = %v, want %v", v.Zoom, MaxZoom)
	}
	for i := 0; i < 50; i++ {
		v = v.ZoomOut()
	}
	if v.Zoom != MinZoom {
		t.Errorf("zoom after many ZoomOut = %v, want %v", v.Zoom, MinZoom)
	}
	if got := v.Wheel(-1e6).Zoom; got != MaxZoom {
		t.Errorf("wheel zoom = %v, want %v", got, MaxZoom)
	}
	if got := (Viewport{Zoom: 99}).Normalized().Zoom; got != MaxZoom {
		t.Errorf("Normalized zoom = %v, want %v", got, MaxZoom)
	}
	if got := (Viewport{Zoom: math.NaN()}).Normalized().Zoom; got != DefaultZoom {
		t.Errorf("Normalized NaN zoom = %v, want %v", got, DefaultZoom)
	}
	r := v.Pan(10, 20).Reset()
	if r.OffsetX != 0 || r.OffsetY != 0 || r.Zoom != 1 {
		t.Errorf("Reset = %+v", r)
	}
}

func TestBaseRadius(t *testing.T) {
	tests := []struct {
		kind        Kind
		connections int
		want        float64
	}{
		{KindNote, 0, 6},
		{KindNote, 4, 8},
		{KindNote, 40, 11},
		{KindCommitment, 0, 12},
		{KindCommitment, 10, 17},
		{"", -3, 6},
	}
	for _, tt := range tests {
		if got := BaseRadius(tt.kind, tt.connections); got != tt.want {
			t.Errorf("BaseRadius(%q, %d) = %v, want %v", tt.kind, tt.connections, got, tt.want)
		}
	}
}

func TestStagnant(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	if Stagnant(time.Time{}, now) {
		t.Error("zero timestamp reported stagnant")
	}
	if Stagnant(now.Add(-72*time.Hour), now) {
		t.Error("exactly three days reported stagnant")
	}
	if !Stagnant(now.Add(-73*time.Hour), now) {
		t.Error("73 hours not reported stagnant")
	}
}

func projectFixture() ([]Node, []Link) {
	nodes := []Node{
		{ID: "A", Title: "a", X: 0, Y: 0},
		{ID: "B", Title: "b", X: 100, Y: 0, Kind: KindCommitment},
		{ID: "C", Title: "c", X: 200, Y: 0},
		{ID: "D", Title: "d", X: 0, Y: 300},
	}
	links := []Link{
		{Source: "A", Target: "B", Weight: 1},
		{Source: "B", Target: "C", Weight: 2},
		{Source: "A", Target: "D", Weight: 1},
		{Source: "C", Target: "ghost", Weight: 1},
	}
	return nodes, links
}

func TestProjectPathHighlight(t *testing.T) {
	nodes, links := projectFixture()
	v := Viewport{Width: 1000, Height: 1000, Zoom: 1}
	frame := Project(nodes, links, v, Focus{Path: []string{"A", "B", "C"}}, time.Now())

	if len(frame.Links) != 3 {
		t.Fatalf("links = %d, want 3 (dangling link dropped)", len(frame.Links))
	}
	for _, l := range frame.Links {
		onPath := l.Source != "D" && l.Target != "D"
		if l.InPath != onPath || l.Dimmed == onPath {
			t.Errorf("link %s-%s InPath=%v Dimmed=%v", l.Source, l.Target, l.InPath, l.Dimmed)
		}
	}
	for _, n := range frame.Nodes {
		onPath := n.ID != "D"
		if n.InPath != onPath || n.Dimmed == onPath {
			t.Errorf("node %s InPath=%v Dimmed=%v", n.ID, n.InPath, n.Dimmed)
		}
	}

	b := frame.Nodes[1]
	if want := 12 * emphasisScale; math.Abs(b.Radius-want) > 1e-9 {
		t.Errorf("B radius = %v, want %v", b.Radius, want)
	}
	if b.X != 600 || b.Y != 500 {
		t.Errorf("B at (%v, %v), want (600, 500)", b.X, b.Y)
	}
}

func TestProjectHoverFocus(t *testing.T) {
	nodes, links := projectFixture()
	v := Viewport{Width: 1000, Height: 1000, Zoom: 0.5}
	frame := Project(nodes, links, v, Focus{Hovered: "A"}, time.Now())

	dimmed := map[string]bool{}
	for _, n := range frame.Nodes {
		dimmed[n.ID] = n.Dimmed
		if n.ShowLabel != (n.ID == "A") {
			t.Errorf("node %s ShowLabel = %v at low zoom", n.ID, n.ShowLabel)
		}
	}
	if dimmed["A"] || dimmed["B"] || dimmed["D"] || !dimmed["C"] {
		t.Errorf("dimmed = %v, want only C dimmed", dimmed)
	}
	for _, l := range frame.Links {
		focused := l.Source == "A" || l.Target == "A"
		if l.Focused != focused {
			t.Errorf("link %s-%s Focused = %v", l.Source, l.Target, l.Focused)
		}
	}
}

func TestProjectNoFocus(t *testing.T) {
	nodes, links := projectFixture()
	nodes[3].LastTouchedAt = time.Now().Add(-10 * 24 * time.Hour)
	frame := Project(nodes, links, NewViewport(800, 600), Focus{}, time.Now())
	for _, n := range frame.Nodes {
		if n.Dimmed || n.InPath {
			t.Errorf("node %s highlighted without focus", n.ID)
		}
		if !n.ShowLabel {
			t.Errorf("node %s hides label at default zoom", n.ID)
		}
		if n.Stagnant != (n.ID == "D") {
			t.Errorf("node %s Stagnant = %v", n.ID, n.Stagnant)
		}
	}
}

func TestNodeAt(t *testing.T) {
	nodes, _ := projectFixture()
	if id, ok := NodeAt(nodes, 95, 10); !ok || id != "B" {
		t.Errorf("NodeAt = %q, %v, want B", id, ok)
	}
	if _, ok := NodeAt(nodes, 50, 150); ok {
		t.Error("NodeAt hit empty space")
	}
}

func TestLinkAt(t *testing.T) {
	nodes, links := projectFixture()
	l, ok := LinkAt(nodes, links, 150, 5)
	if !ok || l.Source != "B" || l.Target != "C" {
		t.Errorf("LinkAt = %+v, %v, want B-C", l, ok)
	}
	if _, ok := LinkAt(nodes, links, 150, 20); ok {
		t.Error("LinkAt hit 20 units off the segment")
	}
	if _, ok := LinkAt(nodes, links, 250, 0); ok {
		t.Error("LinkAt hit beyond the segment end")
	}
}
