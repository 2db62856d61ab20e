package graph

import (
	"math"
	"time"
)

// Viewport limits and steps.
const (
	MinZoom          = 0.1
	MaxZoom          = 5
	DefaultZoom      = 0.8
	zoomInFactor     = 1.2
	zoomOutFactor    = 0.8
	wheelSensitivity = 0.001

	StagnationThreshold = 3 * 24 * time.Hour

	hitRadius         = 25
	linkHitDistanceSq = 100
	labelZoom         = 0.6
	emphasisScale     = 1.3
	maxRadiusBonus    = 10
)

// Viewport maps world coordinates onto a screen of Width×Height pixels whose
// origin is the top-left corner. The world origin sits at the screen centre
// shifted by the pan offset.
type Viewport struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
	Zoom    float64 `json:"zoom"`
}

// NewViewport returns a centred viewport at the default zoom.
func NewViewport(width, height float64) Viewport {
	return Viewport{Width: width, Height: height, Zoom: DefaultZoom}
}

func clampZoom(z float64) float64 {
	if math.IsNaN(z) || z <= 0 {
		return DefaultZoom
	}
	return math.Min(math.Max(z, MinZoom), MaxZoom)
}

// Normalized returns v with its zoom clamped into range.
func (v Viewport) Normalized() Viewport {
	v.Zoom = clampZoom(v.Zoom)
	return v
}

// ToScreen converts a world point to screen pixels.
func (v Viewport) ToScreen(x, y float64) (sx, sy float64) {
	z := clampZoom(v.Zoom)
	return v.Width/2 + v.OffsetX + x*z, v.Height/2 + v.OffsetY + y*z
}

// ToWorld converts screen pixels back to a world point.
func (v Viewport) ToWorld(sx, sy float64) (x, y float64) {
	z := clampZoom(v.Zoom)
	return (sx - v.Width/2 - v.OffsetX) / z, (sy - v.Height/2 - v.OffsetY) / z
}

// Pan shifts the view by a screen-space delta.
func (v Viewport) Pan(dx, dy float64) Viewport {
	v.OffsetX += dx
	v.OffsetY += dy
	return v
}

// ZoomIn, ZoomOut and Wheel adjust zoom within [MinZoom, MaxZoom].
func (v Viewport) ZoomIn() Viewport  { v.Zoom = clampZoom(v.Zoom * zoomInFactor); return v }
func (v Viewport) ZoomOut() Viewport { v.Zoom = clampZoom(v.Zoom * zoomOutFactor); return v }
func (v Viewport) Wheel(delta float64) Viewport {
	v.Zoom = clampZoom(clampZoom(v.Zoom) - delta*wheelSensitivity)
	return v
}

// Reset recentres the view at zoom 1.
func (v Viewport) Reset() Viewport {
	v.OffsetX, v.OffsetY, v.Zoom = 0, 0, 1
	return v
}

// Focus describes what the user is currently highlighting.
type Focus struct {
	Selected string   `json:"selected,omitempty"`
	Hovered  string   `json:"hovered,omitempty"`
	Path     []string `json:"path,omitempty"`
}

// ScreenNode is one node ready for drawing.
type ScreenNode struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Radius    float64 `json:"radius"`
	InPath    bool    `json:"in_path"`
	Dimmed    bool    `json:"dimmed"`
	Stagnant  bool    `json:"stagnant"`
	ShowLabel bool    `json:"show_label"`
}

// ScreenLink is one link ready for drawing.
type ScreenLink struct {
	Source  string  `json:"source"`
	Target  string  `json:"target"`
	X1      float64 `json:"x1"`
	Y1      float64 `json:"y1"`
	X2      float64 `json:"x2"`
	Y2      float64 `json:"y2"`
	Weight  int     `json:"weight"`
	InPath  bool    `json:"in_path"`
	Focused bool    `json:"focused"`
	Dimmed  bool    `json:"dimmed"`
}

// Frame is a projected scene.
type Frame struct {
	Viewport Viewport     `json:"viewport"`
	Nodes    []ScreenNode `json:"nodes"`
	Links    []ScreenLink `json:"links"`
}

// BaseRadius is the world-space radius of a node before emphasis.
func BaseRadius(kind Kind, connections int) float64 {
	r := 6.0
	if kind == KindCommitment {
		r = 12
	}
	return r + float64(min(max(connections, 0), maxRadiusBonus))*0.5
}

// Stagnant reports whether a node has gone untouched for longer than the
// stagnation threshold. A zero timestamp is never stagnant.
func Stagnant(lastTouched, now time.Time) bool {
	if lastTouched.IsZero() {
		return false
	}
	return now.Sub(lastTouched) > StagnationThreshold
}

// Project maps nodes (with positions already filled in) and links through v.
// Links referencing unknown nodes are skipped.
func Project(nodes []Node, links []Link, v Viewport, focus Focus, now time.Time) Frame {
	v = v.Normalized()

	pos := make(map[string]int, len(nodes))
	for i, n := range nodes {
		pos[n.ID] = i
	}

	pathIdx := make(map[string]int, len(focus.Path))
	for i, id := range focus.Path {
		pathIdx[id] = i
	}
	active := focus.Hovered
	if active == "" {
		active = focus.Selected
	}
	neighbours := make(map[string]bool)
	if active != "" {
		for _, l := range links {
			if l.Source == active || l.Target == active {
				neighbours[l.Other(active)] = true
			}
		}
	}

	frame := Frame{Viewport: v, Nodes: make([]ScreenNode, 0, len(nodes)), Links: make([]ScreenLink, 0, len(links))}

	for _, l := range links {
		i, okA := pos[l.Source]
		j, okB := pos[l.Target]
		if !okA || !okB {
			continue
		}
		sl := ScreenLink{Source: l.Source, Target: l.Target, Weight: l.Weight}
		sl.X1, sl.Y1 = v.ToScreen(nodes[i].X, nodes[i].Y)
		sl.X2, sl.Y2 = v.ToScreen(nodes[j].X, nodes[j].Y)

		pa, inA := pathIdx[l.Source]
		pb, inB := pathIdx[l.Target]
		switch {
		case len(focus.Path) > 0:
			sl.InPath = len(focus.Path) > 1 && inA && inB && (pa-pb == 1 || pb-pa == 1)
			sl.Dimmed = !sl.InPath
		case active != "":
			sl.Focused = l.Source == active || l.Target == active
			sl.Dimmed = !sl.Focused
		}
		frame.Links = append(frame.Links, sl)
	}

	for _, n := range nodes {
		_, inPath := pathIdx[n.ID]
		emphasised := inPath || n.ID == focus.Selected || n.ID == focus.Hovered

		sn := ScreenNode{ID: n.ID, Title: n.Title, InPath: inPath}
		sn.X, sn.Y = v.ToScreen(n.X, n.Y)
		r := BaseRadius(n.Kind, n.Connections)
		if emphasised {
			r *= emphasisScale
		}
		sn.Radius = r * v.Zoom
		switch {
		case len(focus.Path) > 0:
			sn.Dimmed = !inPath
		case active != "":
			sn.Dimmed = n.ID != active && !neighbours[n.ID]
		}
		sn.Stagnant = Stagnant(n.LastTouchedAt, now)
		sn.ShowLabel = v.Zoom > labelZoom || emphasised
		frame.Nodes = append(frame.Nodes, sn)
	}
	return frame
}

// NodeAt returns the first node within hit range of the world point (x, y).
func NodeAt(nodes []Node, x, y float64) (string, bool) {
	for _, n := range nodes {
		if math.Hypot(n.X-x, n.Y-y) < hitRadius {
			return n.ID, true
		}
	}
	return "", false
}

// LinkAt returns the first link whose segment passes within hit range of the
// world point (x, y).
func LinkAt(nodes []Node, links []Link, x, y float64) (Link, bool) {
	pos := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		pos[n.ID] = n
	}
	for _, l := range links {
		a, okA := pos[l.Source]
		b, okB := pos[l.Target]
		if !okA || !okB {
			continue
		}
		if segmentDistanceSq(x, y, a.X, a.Y, b.X, b.Y) < linkHitDistanceSq {
			return l, true
		}
	}
	return Link{}, false
}

func segmentDistanceSq(px, py, ax, ay, bx, by float64) float64 {
	cx, cy := bx-ax, by-ay
	lenSq := cx*cx + cy*cy
	t := -1.0
	if lenSq != 0 {
		t = ((px-ax)*cx + (py-ay)*cy) / lenSq
	}
	var qx, qy float64
	switch {
	case t < 0:
		qx, qy = ax, ay
	case t > 1:
		qx, qy = bx, by
	default:
		qx, qy = ax+t*cx, ay+t*cy
	}
	dx, dy := px-qx, py-qy
	return dx*dx + dy*dy
}
