package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Step advances the layout by n ticks and returns the kinetic energy
// afterwards.
func (e *Engine) Step(n int) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := 0; i < n; i++ {
		e.stepLocked()
	}
	return e.sim.KineticEnergy()
}

func (e *Engine) stepLocked() {
	start := time.Now()
	e.sim.Step()
	e.metrics.TickDuration.Observe(time.Since(start).Seconds())
	e.metrics.Ticks.Inc()
	e.metrics.KineticEnergy.Set(e.sim.KineticEnergy())
}

// Settled reports whether the layout's kinetic energy has dropped below the
// configured threshold. Settling is not guaranteed; dense graphs may keep
// oscillating at low amplitude.
func (e *Engine) Settled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sim.KineticEnergy() < e.opts.SettleEnergy
}

// Start runs the simulation in the background at fps ticks per second
// (the configured rate when fps <= 0). A running loop also saves positions
// every PersistInterval.
func (e *Engine) Start(fps int) error {
	if fps <= 0 {
		fps = e.opts.FPS
	}

	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.stopCh != nil {
		return ErrRunning
	}
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})

	go e.run(fps, e.stopCh, e.doneCh)
	e.log.Info("simulation started", zap.Int("fps", fps))
	return nil
}

func (e *Engine) run(fps int, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	var persist <-chan time.Time
	if e.opts.PersistInterval > 0 {
		pt := time.NewTicker(e.opts.PersistInterval)
		defer pt.Stop()
		persist = pt.C
	}

	for {
		select {
		case <-ticker.C:
			e.mu.Lock()
			e.stepLocked()
			e.mu.Unlock()
		case <-persist:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := e.PersistPositions(ctx); err != nil {
				e.log.Warn("persist positions", zap.Error(err))
			}
			cancel()
		case <-stop:
			return
		}
	}
}

// Stop halts a running simulation and waits for the loop to exit. It is a
// no-op when nothing is running.
func (e *Engine) Stop() {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.stopCh == nil {
		return
	}
	close(e.stopCh)
	<-e.doneCh
	e.stopCh, e.doneCh = nil, nil
	e.log.Info("simulation stopped")
}

// Running reports whether the background loop is active.
func (e *Engine) Running() bool {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.stopCh != nil
}

// BeginDrag pins a node at (x, y). Until EndDrag the simulator leaves its
// position alone and its neighbours still feel its springs.
func (e *Engine) BeginDrag(id string, x, y float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.index[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if !e.sim.BeginDrag(id, x, y) {
		return fmt.Errorf("%w: drag position (%v, %v) outside the world", ErrInvalidInput, x, y)
	}
	return nil
}

// DragTo moves a node that is being dragged.
func (e *Engine) DragTo(id string, x, y float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.index[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if !e.sim.Dragging(id) {
		return fmt.Errorf("%w: %s", ErrNotDragging, id)
	}
	if !e.sim.DragTo(id, x, y) {
		return fmt.Errorf("%w: drag position (%v, %v) outside the world", ErrInvalidInput, x, y)
	}
	return nil
}

// EndDrag releases a node back to the simulation at rest.
func (e *Engine) EndDrag(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.index[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if !e.sim.EndDrag(id) {
		return fmt.Errorf("%w: %s", ErrNotDragging, id)
	}
	return nil
}

// PersistPositions writes the current layout to the store. The session is
// only locked while copying positions.
func (e *Engine) PersistPositions(ctx context.Context) error {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()
	return e.persistLocked(ctx)
}

// persistLocked saves positions. Callers hold persistMu.
func (e *Engine) persistLocked(ctx context.Context) error {
	e.mu.Lock()
	bodies := e.sim.Snapshot()
	for _, b := range bodies {
		if i, ok := e.index[b.ID]; ok {
			e.nodes[i].X, e.nodes[i].Y, e.nodes[i].Placed = b.X, b.Y, true
		}
	}
	e.mu.Unlock()

	if err := e.db.SavePositions(ctx, bodies); err != nil {
		return fmt.Errorf("persist positions: %w", err)
	}
	e.log.Debug("positions saved", zap.Int("nodes", len(bodies)))
	return nil
}
