package graph

import (
	"math"
	"math/rand/v2"
)

// Params holds the force constants of the layout simulation.
type Params struct {
	Repulsion       float64 // inverse-square repulsion scale
	MinDistanceSq   float64 // floor on squared distance for repulsion
	CollisionRadius float64 // nodes closer than twice this are pushed apart
	CollisionPush   float64 // overlap impulse multiplier
	ClusterStrength float64 // pull toward the node's cluster anchor
	CenterGravity   float64 // pull toward the origin
	Damping         float64 // per-tick velocity scale, must be < 1
	SpringLength    float64 // rest length is SpringLength / weight
	SpringStrength  float64 // stiffness is SpringStrength * weight
	ClusterRadius   float64 // anchor circle radius
	Seed            uint64  // initial placement jitter
}

// DefaultParams returns the tuned constants the layout was designed around.
func DefaultParams() Params {
	return Params{
		Repulsion:       5000,
		MinDistanceSq:   100,
		CollisionRadius: 25,
		CollisionPush:   1.5,
		ClusterStrength: 0.002,
		CenterGravity:   0.0001,
		Damping:         0.90,
		SpringLength:    250,
		SpringStrength:  0.005,
		ClusterRadius:   DefaultClusterRadius,
		Seed:            1,
	}
}

const (
	// jiggleDistance separates exactly coincident bodies along x.
	jiggleDistance = 0.01
	// minSpringDistance below which a spring has no usable direction.
	minSpringDistance = 1e-9
	placementJitter   = 50
)

// WorldLimit bounds the coordinates a caller may place a node at.
const WorldLimit = 1e7

// InWorld reports whether (x, y) is finite and within WorldLimit on both axes.
func InWorld(x, y float64) bool {
	return finite(x, y) && math.Abs(x) <= WorldLimit && math.Abs(y) <= WorldLimit
}

// BodyState is a copied view of one simulated node.
type BodyState struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	VX      float64 `json:"vx"`
	VY      float64 `json:"vy"`
	Dragged bool    `json:"dragged"`
}

type body struct {
	id           string
	x, y, vx, vy float64
	dragged      bool
	dragX, dragY float64
	anchor       int // index into Simulator.anchors, -1 when unclustered
}

type spring struct {
	a, b     int
	length   float64
	strength float64
}

// Simulator owns node positions and velocities and advances them one tick at
// a time. It is not safe for concurrent use.
type Simulator struct {
	params     Params
	bodies     []body
	index      map[string]int
	links      []Link
	springs    []spring
	anchors    []Anchor
	membership map[string]string
	rng        *rand.Rand
	ticks      uint64
}

// NewSimulator creates an empty simulator. Zero-valued params fields fall back
// to DefaultParams.
func NewSimulator(p Params) *Simulator {
	p = p.withDefaults()
	return &Simulator{
		params: p,
		index:  make(map[string]int),
		rng:    rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15)),
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.Repulsion == 0 {
		p.Repulsion = d.Repulsion
	}
	if p.MinDistanceSq <= 0 {
		p.MinDistanceSq = d.MinDistanceSq
	}
	if p.CollisionRadius == 0 {
		p.CollisionRadius = d.CollisionRadius
	}
	if p.CollisionPush == 0 {
		p.CollisionPush = d.CollisionPush
	}
	if p.ClusterStrength == 0 {
		p.ClusterStrength = d.ClusterStrength
	}
	if p.CenterGravity == 0 {
		p.CenterGravity = d.CenterGravity
	}
	if p.Damping <= 0 || p.Damping >= 1 {
		p.Damping = d.Damping
	}
	if p.SpringLength == 0 {
		p.SpringLength = d.SpringLength
	}
	if p.SpringStrength == 0 {
		p.SpringStrength = d.SpringStrength
	}
	if p.ClusterRadius <= 0 {
		p.ClusterRadius = d.ClusterRadius
	}
	if p.Seed == 0 {
		p.Seed = d.Seed
	}
	return p
}

// Params returns the effective constants.
func (s *Simulator) Params() Params { return s.params }

// Ticks returns the number of steps taken so far.
func (s *Simulator) Ticks() uint64 { return s.ticks }

// Len returns the number of simulated bodies.
func (s *Simulator) Len() int { return len(s.bodies) }

// SetNodes replaces the body set. Bodies whose IDs are already simulated keep
// their current state (including an active drag). New nodes start at their
// stored position when Placed, otherwise on a jittered spiral around the
// origin.
func (s *Simulator) SetNodes(nodes []Node) {
	bodies := make([]body, 0, len(nodes))
	index := make(map[string]int, len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			continue
		}
		if _, dup := index[n.ID]; dup {
			continue
		}
		i := len(bodies)
		var b body
		if old, ok := s.index[n.ID]; ok {
			b = s.bodies[old]
		} else if n.Placed && finite(n.X, n.Y, n.VX, n.VY) {
			b = body{id: n.ID, x: n.X, y: n.Y, vx: n.VX, vy: n.VY}
		} else {
			b = s.spiral(n.ID, i)
		}
		b.anchor = -1
		index[n.ID] = i
		bodies = append(bodies, b)
	}
	s.bodies = bodies
	s.index = index
	s.bindAnchors()
	s.bindSprings()
}

func (s *Simulator) spiral(id string, i int) body {
	angle := float64(i) * 0.5
	radius := 50 + float64(i)*5
	return body{
		id: id,
		x:  math.Cos(angle)*radius + (s.rng.Float64()-0.5)*placementJitter,
		y:  math.Sin(angle)*radius + (s.rng.Float64()-0.5)*placementJitter,
	}
}

// SetLinks replaces the spring set. Links naming unknown nodes are kept but
// contribute no force until both endpoints exist.
func (s *Simulator) SetLinks(links []Link) {
	s.links = append(s.links[:0:0], links...)
	s.bindSprings()
}

// SetClusters replaces the cluster anchors and membership lookup.
func (s *Simulator) SetClusters(clusters []Cluster) {
	s.anchors = PlaceClusters(clusters, s.params.ClusterRadius)
	s.membership = Membership(clusters)
	s.bindAnchors()
}

// Anchors returns the current cluster anchors.
func (s *Simulator) Anchors() []Anchor {
	return append([]Anchor(nil), s.anchors...)
}

func (s *Simulator) bindSprings() {
	s.springs = s.springs[:0]
	for _, l := range s.links {
		a, okA := s.index[l.Source]
		b, okB := s.index[l.Target]
		if !okA || !okB || a == b || l.Weight <= 0 {
			continue
		}
		w := float64(l.Weight)
		s.springs = append(s.springs, spring{
			a:        a,
			b:        b,
			length:   s.params.SpringLength / w,
			strength: s.params.SpringStrength * w,
		})
	}
}

func (s *Simulator) bindAnchors() {
	byCluster := make(map[string]int, len(s.anchors))
	for i, a := range s.anchors {
		byCluster[a.ClusterID] = i
	}
	for i := range s.bodies {
		s.bodies[i].anchor = -1
		if cid, ok := s.membership[s.bodies[i].id]; ok {
			if ai, ok := byCluster[cid]; ok {
				s.bodies[i].anchor = ai
			}
		}
	}
}

// Step advances every body by one tick. Per-node forces are integrated in
// index order, then link springs adjust velocities for the next tick.
func (s *Simulator) Step() {
	p := s.params
	minDist := 2 * p.CollisionRadius

	for i := range s.bodies {
		b := &s.bodies[i]
		if b.dragged {
			b.x, b.y = b.dragX, b.dragY
			b.vx, b.vy = 0, 0
			continue
		}

		var fx, fy float64
		for j := range s.bodies {
			if i == j {
				continue
			}
			o := &s.bodies[j]
			dx := b.x - o.x
			dy := b.y - o.y
			if dx == 0 && dy == 0 {
				dx = jiggle(i, j)
			}

			distSq := dx*dx + dy*dy
			if distSq < p.MinDistanceSq {
				distSq = p.MinDistanceSq
			}
			dist := math.Sqrt(distSq)
			force := p.Repulsion / distSq
			fx += dx / dist * force
			fy += dy / dist * force

			if dist < minDist {
				push := (minDist - dist) / dist * p.CollisionPush
				fx += dx * push
				fy += dy * push
			}
		}

		if b.anchor >= 0 {
			a := s.anchors[b.anchor]
			fx += (a.X - b.x) * p.ClusterStrength
			fy += (a.Y - b.y) * p.ClusterStrength
		}

		fx -= b.x * p.CenterGravity
		fy -= b.y * p.CenterGravity

		vx := (b.vx + fx) * p.Damping
		vy := (b.vy + fy) * p.Damping
		x, y := b.x+vx, b.y+vy
		if !finite(x, y, vx, vy) {
			b.vx, b.vy = 0, 0
			continue
		}
		b.x, b.y, b.vx, b.vy = x, y, vx, vy
	}

	for _, sp := range s.springs {
		a := &s.bodies[sp.a]
		b := &s.bodies[sp.b]
		dx := a.x - b.x
		dy := a.y - b.y
		dist := math.Hypot(dx, dy)
		if dist < minSpringDistance {
			continue
		}
		force := (dist - sp.length) * sp.strength
		fx := dx / dist * force
		fy := dy / dist * force
		if !finite(dist, fx, fy) {
			continue
		}
		if !a.dragged {
			if vx, vy := a.vx-fx, a.vy-fy; finite(vx, vy) {
				a.vx, a.vy = vx, vy
			}
		}
		if !b.dragged {
			if vx, vy := b.vx+fx, b.vy+fy; finite(vx, vy) {
				b.vx, b.vy = vx, vy
			}
		}
	}

	s.ticks++
}

// jiggle gives a deterministic, antisymmetric x offset for coincident bodies.
func jiggle(i, j int) float64 {
	if i < j {
		return -jiggleDistance
	}
	return jiggleDistance
}

// BeginDrag hands the body's position over to the caller. It reports false
// for unknown IDs or coordinates outside the world.
func (s *Simulator) BeginDrag(id string, x, y float64) bool {
	i, ok := s.index[id]
	if !ok || !InWorld(x, y) {
		return false
	}
	b := &s.bodies[i]
	b.dragged = true
	b.dragX, b.dragY = x, y
	b.x, b.y = x, y
	b.vx, b.vy = 0, 0
	return true
}

// DragTo moves a dragged body. Bodies that are not being dragged are left
// alone.
func (s *Simulator) DragTo(id string, x, y float64) bool {
	i, ok := s.index[id]
	if !ok || !s.bodies[i].dragged || !InWorld(x, y) {
		return false
	}
	b := &s.bodies[i]
	b.dragX, b.dragY = x, y
	b.x, b.y = x, y
	b.vx, b.vy = 0, 0
	return true
}

// EndDrag returns the body to the simulation with zero velocity.
func (s *Simulator) EndDrag(id string) bool {
	i, ok := s.index[id]
	if !ok || !s.bodies[i].dragged {
		return false
	}
	b := &s.bodies[i]
	b.dragged = false
	b.vx, b.vy = 0, 0
	return true
}

// Dragging reports whether id is currently pinned by a drag.
func (s *Simulator) Dragging(id string) bool {
	i, ok := s.index[id]
	return ok && s.bodies[i].dragged
}

// Position returns the current position of id.
func (s *Simulator) Position(id string) (x, y float64, ok bool) {
	i, ok := s.index[id]
	if !ok {
		return 0, 0, false
	}
	return s.bodies[i].x, s.bodies[i].y, true
}

// Snapshot copies the state of every body in simulation order.
func (s *Simulator) Snapshot() []BodyState {
	out := make([]BodyState, len(s.bodies))
	for i, b := range s.bodies {
		out[i] = BodyState{ID: b.id, X: b.x, Y: b.y, VX: b.vx, VY: b.vy, Dragged: b.dragged}
	}
	return out
}

// KineticEnergy is ½·Σ|v|² over all bodies, a cheap settling indicator.
func (s *Simulator) KineticEnergy() float64 {
	var e float64
	for _, b := range s.bodies {
		e += b.vx*b.vx + b.vy*b.vy
	}
	return e / 2
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
