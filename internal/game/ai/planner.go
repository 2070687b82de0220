// Package ai implements enemy perception, the behavior state machine,
// and turn planning. The planner runs once at the start of each
// execution phase and emits the intents the enemies will attempt.
package ai

import (
	"go.uber.org/zap"

	"github.com/mwpeterson/gridfall/internal/game/action"
	"github.com/mwpeterson/gridfall/internal/game/fov"
	"github.com/mwpeterson/gridfall/internal/game/grid"
	"github.com/mwpeterson/gridfall/internal/game/path"
	"github.com/mwpeterson/gridfall/internal/game/unit"
	"github.com/mwpeterson/gridfall/internal/game/world"
)

// State is an enemy's behavior mode.
type State int

const (
	StateSleep State = iota
	StateWander
	StateChase
	StateSearch
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateSleep:
		return "sleep"
	case StateWander:
		return "wander"
	case StateChase:
		return "chase"
	case StateSearch:
		return "search"
	default:
		return "unknown"
	}
}

// Memory is the per-enemy planning record. It lives in the planner, not
// on the unit, so player units never carry enemy-only fields.
type Memory struct {
	State State
	// LastKnownTargetPos is where the enemy last placed its target;
	// cleared when a search arrives there empty-handed.
	LastKnownTargetPos *grid.Coord
}

// Config tunes the planner.
type Config struct {
	// ConeVision restricts enemy sight to a facing cone when true.
	ConeVision bool
	// ConeDotThreshold is the minimum facing-to-target dot product
	// inside the cone.
	ConeDotThreshold float64
	// WanderAttempts is how many random deltas a wandering enemy tries.
	WanderAttempts int
	// DefaultNoiseLevel is the audible radius for units without an
	// explicit noise level.
	DefaultNoiseLevel int
	// AttackCost and AttackRange gate melee attacks.
	AttackCost  float64
	AttackRange int
	// ReservationRadius bounds the spiral fallback around a contested
	// destination.
	ReservationRadius int
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		ConeVision:        false,
		ConeDotThreshold:  0.3,
		WanderAttempts:    3,
		DefaultNoiseLevel: 3,
		AttackCost:        3,
		AttackRange:       1,
		ReservationRadius: 2,
	}
}

// Planner owns enemy memories and produces intents for one execution
// phase at a time.
type Planner struct {
	cfg    Config
	logger *zap.Logger
	mem    map[string]*Memory
}

// NewPlanner constructs a Planner.
//
// Precondition: logger must be non-nil.
func NewPlanner(cfg Config, logger *zap.Logger) *Planner {
	if logger == nil {
		panic("ai.NewPlanner: logger must not be nil")
	}
	return &Planner{cfg: cfg, logger: logger, mem: map[string]*Memory{}}
}

// Memory returns the planning record for an enemy, creating a sleeping
// one on first sight.
func (p *Planner) Memory(id string) *Memory {
	m, ok := p.mem[id]
	if !ok {
		m = &Memory{State: StateSleep}
		p.mem[id] = m
	}
	return m
}

// Plan runs perception and planning for every living enemy, in spawn
// order, and returns the intents to queue. The planner never mutates
// unit action points; budgeting is against current AP and the debit
// happens at enqueue time.
//
// Precondition: w must not be nil.
// Postcondition: returns a non-nil slice (possibly empty).
func (p *Planner) Plan(w *world.World) []action.Action {
	plans := []action.Action{}

	// Seed reservations with every player position so no enemy plans to
	// end its move on a player tile.
	reserved := map[string]struct{}{}
	for _, u := range w.Units() {
		if u.Kind == unit.KindPlayer {
			reserved[u.Position.Key()] = struct{}{}
		}
	}

	for _, enemy := range w.Units() {
		if enemy.Kind != unit.KindEnemy || !enemy.Alive() {
			continue
		}
		if a, ok := p.planOne(w, enemy, reserved); ok {
			plans = append(plans, a...)
		}
	}
	return plans
}

// planOne runs perception, state transitions, and intent emission for a
// single enemy. reserved is shared scratch across the planning pass.
func (p *Planner) planOne(w *world.World, enemy *unit.Unit, reserved map[string]struct{}) ([]action.Action, bool) {
	target := p.closestPlayer(w, enemy)
	if target == nil {
		return nil, false
	}

	predicted := p.predictTarget(w, target)
	mem := p.Memory(enemy.ID)

	// A sleeping enemy wakes once wounded.
	if mem.State == StateSleep && enemy.Status.HP < enemy.Status.MaxHP {
		mem.State = StateWander
	}

	currentDist := enemy.Position.Manhattan(target.Position)
	detected := p.senses(enemy, target, mem, currentDist)

	switch {
	case detected:
		lk := predicted
		mem.LastKnownTargetPos = &lk
		mem.State = StateChase
	case mem.State == StateChase:
		mem.State = StateSearch
	case mem.State == StateSearch &&
		mem.LastKnownTargetPos != nil &&
		enemy.Position.SamePlane(*mem.LastKnownTargetPos):
		mem.LastKnownTargetPos = nil
		mem.State = StateWander
	}

	distToPredicted := enemy.Position.Manhattan(predicted)

	// In striking range now and after the target's move: attack without
	// repositioning.
	if currentDist == p.cfg.AttackRange &&
		enemy.Status.AP >= p.cfg.AttackCost &&
		distToPredicted <= p.cfg.AttackRange {
		p.logger.Debug("enemy attacks in place",
			zap.String("enemy", enemy.ID),
			zap.String("target", target.ID),
		)
		return []action.Action{action.NewAttack(enemy.ID, target.ID, p.cfg.AttackCost)}, true
	}

	dest, ok := p.chooseDestination(w, enemy, mem)
	if !ok {
		return nil, false
	}

	validDest, ok := p.reserve(w, dest, reserved)
	if !ok {
		return nil, false
	}

	pts := path.FindPath(enemy.Position, validDest, w.Map(), w.Units(), enemy.ID)
	if pts == nil {
		return nil, false
	}

	costAcc, reachIdx := budgetSteps(pts, target.Position, enemy.Status.AP)
	actualDest := pts[reachIdx]

	var out []action.Action
	if reachIdx > 0 && actualDest != enemy.Position {
		out = append(out, action.NewMove(enemy.ID, actualDest, costAcc))
	}
	// Move-and-strike combo: the move ends in range of the predicted
	// position and the attack is still affordable.
	if enemy.Status.AP-costAcc >= p.cfg.AttackCost &&
		actualDest.Manhattan(predicted) <= p.cfg.AttackRange {
		out = append(out, action.NewAttack(enemy.ID, target.ID, p.cfg.AttackCost))
	}
	if len(out) == 0 {
		return nil, false
	}
	p.logger.Debug("enemy plan",
		zap.String("enemy", enemy.ID),
		zap.String("state", mem.State.String()),
		zap.Int("intents", len(out)),
	)
	return out, true
}

// closestPlayer picks the minimum-Manhattan player on the enemy's floor;
// ties go to spawn order.
func (p *Planner) closestPlayer(w *world.World, enemy *unit.Unit) *unit.Unit {
	var best *unit.Unit
	bestDist := 0
	for _, u := range w.Units() {
		if u.Kind != unit.KindPlayer || u.Position.Floor != enemy.Position.Floor {
			continue
		}
		d := enemy.Position.Manhattan(u.Position)
		if best == nil || d < bestDist {
			best = u
			bestDist = d
		}
	}
	return best
}

// predictTarget returns where the target will stand after its queued
// move, falling back to the current position when the queued tile is
// contested by another unit.
func (p *Planner) predictTarget(w *world.World, target *unit.Unit) grid.Coord {
	t, ok := w.Queue().MoveTargetFor(target.ID)
	if !ok {
		return target.Position
	}
	for _, u := range w.Units() {
		if u.ID != target.ID && u.Position == t {
			return target.Position
		}
	}
	return t
}

// senses evaluates visibility and audibility for one enemy.
func (p *Planner) senses(enemy, target *unit.Unit, mem *Memory, currentDist int) bool {
	visible := currentDist <= enemy.Status.SightRange && mem.State != StateSleep
	if visible && p.cfg.ConeVision {
		fx, fy := enemy.Facing.Vector()
		visible = fov.InCone(fx, fy, enemy.Position, target.Position, p.cfg.ConeDotThreshold)
	}

	noise := p.cfg.DefaultNoiseLevel
	if target.Status.NoiseLevel != nil {
		noise = *target.Status.NoiseLevel
	}
	audible := currentDist <= noise

	return visible || audible
}

// chooseDestination returns where the enemy wants to go this turn.
// Wander deltas draw from the world's seeded source so runs replay
// identically.
func (p *Planner) chooseDestination(w *world.World, enemy *unit.Unit, mem *Memory) (grid.Coord, bool) {
	switch mem.State {
	case StateChase, StateSearch:
		if mem.LastKnownTargetPos == nil {
			return grid.Coord{}, false
		}
		return *mem.LastKnownTargetPos, true
	case StateWander:
		for i := 0; i < p.cfg.WanderAttempts; i++ {
			dx := w.Rand().Range(-1, 1)
			dy := w.Rand().Range(-1, 1)
			if dx == 0 && dy == 0 {
				continue
			}
			c := grid.Coord{X: enemy.Position.X + dx, Y: enemy.Position.Y + dy, Floor: enemy.Position.Floor}
			if w.Map().Walkable(c) {
				return c, true
			}
		}
		return grid.Coord{}, false
	default:
		return grid.Coord{}, false
	}
}

// reserve finds the first unreserved walkable tile in growing rings
// around dest, claims it, and returns it. Rings are scanned row by row,
// top to bottom.
func (p *Planner) reserve(w *world.World, dest grid.Coord, reserved map[string]struct{}) (grid.Coord, bool) {
	for r := 0; r <= p.cfg.ReservationRadius; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if maxAbs(dx, dy) != r {
					continue
				}
				c := grid.Coord{X: dest.X + dx, Y: dest.Y + dy, Floor: dest.Floor}
				if !w.Map().Walkable(c) {
					continue
				}
				if _, taken := reserved[c.Key()]; taken {
					continue
				}
				reserved[c.Key()] = struct{}{}
				return c, true
			}
		}
	}
	return grid.Coord{}, false
}

// budgetSteps walks waypoints accumulating local step costs, stopping
// before crossing the target's current tile or exceeding the AP budget.
//
// Postcondition: returns the accumulated cost and the index of the last
// affordable waypoint (0 when no step is taken).
func budgetSteps(pts []grid.Coord, targetPos grid.Coord, ap float64) (float64, int) {
	costAcc := 0.0
	reachIdx := 0
	for i := 1; i < len(pts); i++ {
		if pts[i].SamePlane(targetPos) {
			break
		}
		step := path.StepCost(pts[i-1], pts[i])
		if ap < costAcc+step {
			break
		}
		costAcc += step
		reachIdx = i
	}
	return costAcc, reachIdx
}

func maxAbs(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	if a > b {
		return a
	}
	return b
}
