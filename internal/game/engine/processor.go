// Package engine drives the turn cycle: the phase controller counts the
// decision window down, and the processor resolves the queued intents
// one mutation at a time.
package engine

import (
	"go.uber.org/zap"

	"github.com/mwpeterson/gridfall/internal/game/action"
	"github.com/mwpeterson/gridfall/internal/game/grid"
	"github.com/mwpeterson/gridfall/internal/game/path"
	"github.com/mwpeterson/gridfall/internal/game/unit"
	"github.com/mwpeterson/gridfall/internal/game/world"
)

// Melee attack resolution constants.
const (
	attackDamage = 1
	attackRange  = 1
)

// Processor drains one execution phase's queue as a step iterator. Each
// Advance call performs at most one discrete world mutation and returns
// control, so a real-time host can pace steps on a timer while tests
// step synchronously.
//
// Intents execute in queue order; the world is re-read live before every
// step, so a move re-paths from the unit's current position and attacks
// re-validate range at resolution time.
type Processor struct {
	w      *world.World
	logger *zap.Logger

	pending         []action.Action
	idx             int
	route           []grid.Coord
	step            int
	decisionSeconds float64
	done            bool
}

// NewProcessor snapshots the current queue for execution.
//
// Precondition: w and logger must be non-nil; the world should be in the
// execution phase with the full turn's intents queued.
func NewProcessor(w *world.World, logger *zap.Logger, decisionSeconds float64) *Processor {
	return &Processor{
		w:               w,
		logger:          logger,
		pending:         w.Queue().Actions(),
		decisionSeconds: decisionSeconds,
	}
}

// Done reports whether the queue has fully drained and the world has
// returned to the decision phase.
func (p *Processor) Done() bool { return p.done }

// Advance performs the next discrete mutation and returns true, or
// finalizes the phase and returns false once nothing is left. Intents
// that turn out to be invalid under live state are skipped without
// consuming an Advance.
//
// Postcondition: when Advance returns false, the queue is empty, the
// phase is decision, and the timer is reset.
func (p *Processor) Advance() bool {
	if p.done {
		return false
	}
	for {
		if p.idx >= len(p.pending) {
			p.finalize()
			return false
		}
		cur := &p.pending[p.idx]
		cur.Status = action.StatusExecuting

		var mutated bool
		switch cur.Kind {
		case action.KindMove:
			mutated = p.advanceMove(cur)
		case action.KindAttack:
			mutated = p.resolveAttack(cur)
		case action.KindClimb:
			mutated = p.resolveClimb(cur)
		case action.KindWait:
			p.completeCurrent()
		default:
			p.completeCurrent()
		}
		if mutated {
			return true
		}
	}
}

// Run drains the processor synchronously. Hosts that animate call
// Advance themselves instead.
func (p *Processor) Run() {
	for p.Advance() {
	}
}

// completeCurrent marks the current intent finished and moves on.
func (p *Processor) completeCurrent() {
	p.pending[p.idx].Status = action.StatusCompleted
	p.idx++
	p.route = nil
	p.step = 0
}

// advanceMove commits at most one waypoint of the current move intent.
// Returns false when the intent ended without mutating in this call (no
// path, or the next waypoint is blocked).
func (p *Processor) advanceMove(a *action.Action) bool {
	u, ok := p.w.Unit(a.UnitID)
	if !ok || a.Target == nil {
		p.completeCurrent()
		return false
	}

	if p.route == nil {
		p.route = path.FindPath(u.Position, *a.Target, p.w.Map(), p.w.Units(), u.ID)
		if len(p.route) < 2 {
			p.logger.Debug("move aborted: no path",
				zap.String("unit", a.UnitID),
				zap.String("target", a.Target.Key()),
			)
			p.completeCurrent()
			return false
		}
		p.step = 1
	}

	wp := p.route[p.step]
	final := p.step == len(p.route)-1

	if blocker := p.occupier(wp, u.ID); blocker != nil {
		passThrough := !final && u.Kind == unit.KindPlayer && blocker.Kind == unit.KindEnemy
		if !passThrough {
			p.logger.Debug("move stopped: tile occupied",
				zap.String("unit", a.UnitID),
				zap.String("tile", wp.Key()),
				zap.Bool("at_destination", final),
			)
			p.completeCurrent()
			return false
		}
	}

	p.w.UpdateUnitPosition(u.ID, wp)
	p.step++
	if p.step >= len(p.route) {
		p.completeCurrent()
	}
	return true
}

// occupier returns the unit other than selfID standing on c, if any.
func (p *Processor) occupier(c grid.Coord, selfID string) *unit.Unit {
	for _, u := range p.w.Units() {
		if u.ID != selfID && u.Position == c {
			return u
		}
	}
	return nil
}

// resolveAttack applies melee damage when attacker and target are both
// alive, on the same floor, and within range under live state.
func (p *Processor) resolveAttack(a *action.Action) bool {
	defer p.completeCurrent()

	attacker, ok := p.w.Unit(a.UnitID)
	if !ok || !attacker.Alive() {
		return false
	}
	target, ok := p.w.Unit(a.TargetUnitID)
	if !ok || !target.Alive() {
		return false
	}
	if attacker.Position.Floor != target.Position.Floor ||
		attacker.Position.Manhattan(target.Position) > attackRange {
		p.logger.Debug("attack skipped: out of range",
			zap.String("attacker", a.UnitID),
			zap.String("target", a.TargetUnitID),
		)
		return false
	}

	p.w.ApplyDamage(target.ID, attackDamage)
	return true
}

// resolveClimb moves the unit to the adjacent floor when it stands on a
// stair tile.
func (p *Processor) resolveClimb(a *action.Action) bool {
	defer p.completeCurrent()

	u, ok := p.w.Unit(a.UnitID)
	if !ok {
		return false
	}
	tile, ok := p.w.Map().At(u.Position)
	if !ok {
		return false
	}

	var delta int
	switch tile.Type {
	case grid.TileStairsUp:
		delta = 1
	case grid.TileStairsDown:
		delta = -1
	default:
		p.logger.Debug("climb skipped: not on stairs",
			zap.String("unit", a.UnitID),
			zap.String("tile", u.Position.Key()),
		)
		return false
	}

	dest := grid.Coord{X: u.Position.X, Y: u.Position.Y, Floor: u.Position.Floor + delta}
	if !p.w.Map().InBounds(dest) {
		return false
	}
	p.w.UpdateUnitPosition(u.ID, dest)
	return true
}

// finalize returns the world to the decision phase.
func (p *Processor) finalize() {
	p.w.ClearActionQueue()
	p.w.SetPhase(world.PhaseDecision)
	p.w.ResetTimer(p.decisionSeconds)
	p.done = true
	p.logger.Debug("execution complete")
}
