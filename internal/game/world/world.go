// Package world holds the central mutable game state. All mutation goes
// through the closed set of operations in mutators.go; everything else
// observes the world read-only.
package world

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mwpeterson/gridfall/internal/game/action"
	"github.com/mwpeterson/gridfall/internal/game/fov"
	"github.com/mwpeterson/gridfall/internal/game/grid"
	"github.com/mwpeterson/gridfall/internal/game/rng"
	"github.com/mwpeterson/gridfall/internal/game/unit"
)

// Phase is the current state of the game clock.
type Phase int

const (
	PhaseDecision Phase = iota
	PhaseExecution
)

// String returns "decision" or "execution".
func (p Phase) String() string {
	if p == PhaseDecision {
		return "decision"
	}
	return "execution"
}

// DefaultDecisionSeconds is the length of the planning window.
const DefaultDecisionSeconds = 5.0

// DefaultAPRecovery applies to units whose template carries no recovery
// value.
const DefaultAPRecovery = 5.0

// DamageEventTTL is how long a damage event stays relevant to the host.
const DamageEventTTL = 1500 * time.Millisecond

// DamageEvent is a transient notification for host display. Position is
// a snapshot; the wounded unit may move or die afterwards.
type DamageEvent struct {
	ID        string
	Pos       grid.Coord
	Amount    int
	Timestamp time.Time
}

// EventKind tags a change notification.
type EventKind int

const (
	EventUnitMoved EventKind = iota
	EventDamageApplied
	EventUnitDied
	EventPhaseChanged
)

// Event is delivered to the host-supplied observer after a mutation
// commits. The core never blocks on the observer.
type Event struct {
	Kind   EventKind
	UnitID string
	Pos    grid.Coord
	Amount int
	Phase  Phase
}

// InitParams bundles everything InitGame needs to build a fresh world.
type InitParams struct {
	Gen    grid.GenParams
	Player *unit.Template
	Enemy  *unit.Template
}

// World owns the floors, the unit map, and the action queue. Units
// reference each other by ID only.
type World struct {
	logger   *zap.Logger
	observer func(Event)

	tiles *grid.Map
	units map[string]*unit.Unit
	// order preserves spawn order; AI planning and regeneration iterate
	// it so runs are reproducible.
	order []string

	phase Phase
	timer float64
	queue action.Queue

	seed uint32
	rand *rng.LCG

	visible  map[string]struct{}
	explored map[string]struct{}
	debugFOW bool

	damageEvents []DamageEvent
}

// New creates an empty world.
//
// Precondition: logger must be non-nil.
func New(logger *zap.Logger) *World {
	if logger == nil {
		panic("world.New: logger must not be nil")
	}
	return &World{
		logger:   logger,
		units:    map[string]*unit.Unit{},
		visible:  map[string]struct{}{},
		explored: map[string]struct{}{},
	}
}

// SetObserver installs the host's change-notification callback. Pass nil
// to detach.
func (w *World) SetObserver(fn func(Event)) {
	w.observer = fn
}

func (w *World) notify(e Event) {
	if w.observer != nil {
		w.observer(e)
	}
}

// Map returns the floor stack. Consumers must treat it as read-only.
func (w *World) Map() *grid.Map { return w.tiles }

// Seed returns the seed the current world was generated from.
func (w *World) Seed() uint32 { return w.seed }

// Rand returns the world's seeded random source. All simulation
// randomness must draw from it.
func (w *World) Rand() *rng.LCG { return w.rand }

// Phase returns the current phase.
func (w *World) Phase() Phase { return w.phase }

// Timer returns the decision-phase seconds remaining.
func (w *World) Timer() float64 { return w.timer }

// Queue returns the action queue. Consumers must treat it as read-only;
// mutation goes through QueueAction and friends.
func (w *World) Queue() *action.Queue { return &w.queue }

// Unit returns the unit with the given ID.
//
// Postcondition: returns (unit, true) if present, or (nil, false)
// otherwise.
func (w *World) Unit(id string) (*unit.Unit, bool) {
	u, ok := w.units[id]
	return u, ok
}

// Units returns all living units in spawn order.
func (w *World) Units() []*unit.Unit {
	out := make([]*unit.Unit, 0, len(w.order))
	for _, id := range w.order {
		if u, ok := w.units[id]; ok {
			out = append(out, u)
		}
	}
	return out
}

// Player returns the first player-faction unit, if one is alive.
func (w *World) Player() (*unit.Unit, bool) {
	for _, id := range w.order {
		if u, ok := w.units[id]; ok && u.Kind == unit.KindPlayer {
			return u, true
		}
	}
	return nil, false
}

// VisibleTiles returns the player's current FOV key set. Read-only.
func (w *World) VisibleTiles() map[string]struct{} { return w.visible }

// ExploredTiles returns every tile key the player has ever seen.
// Read-only.
func (w *World) ExploredTiles() map[string]struct{} { return w.explored }

// DebugFOW reports whether the fog-of-war debug override is on.
func (w *World) DebugFOW() bool { return w.debugFOW }

// TileVisible is the host read path for fog of war: with the debug
// override on, every tile reads as visible; the true visibility set is
// unaffected.
func (w *World) TileVisible(c grid.Coord) bool {
	if w.debugFOW {
		return true
	}
	_, ok := w.visible[c.Key()]
	return ok
}

// DamageEvents returns the pending damage events, oldest first.
func (w *World) DamageEvents() []DamageEvent {
	cp := make([]DamageEvent, len(w.damageEvents))
	copy(cp, w.damageEvents)
	return cp
}

// InitGame resets the world to a freshly generated state.
//
// Precondition: p.Gen must validate; p.Player and p.Enemy must be
// validated templates of the matching kinds.
// Postcondition: phase is decision, the timer is full, the queue is
// empty, and the player's FOV and explored set are computed from the
// spawn position.
func (w *World) InitGame(seed uint32, p InitParams) error {
	if err := p.Gen.Validate(); err != nil {
		return fmt.Errorf("world: init: %w", err)
	}
	if p.Player == nil || p.Enemy == nil {
		return fmt.Errorf("world: init: player and enemy templates are required")
	}
	if err := p.Player.Validate(); err != nil {
		return fmt.Errorf("world: init: %w", err)
	}
	if err := p.Enemy.Validate(); err != nil {
		return fmt.Errorf("world: init: %w", err)
	}

	w.seed = seed
	w.rand = rng.New(seed)
	res := grid.Generate(p.Gen, w.rand)
	w.tiles = res.Map

	w.units = map[string]*unit.Unit{}
	w.order = nil
	player := unit.New("player-1", p.Player, res.PlayerSpawn)
	w.units[player.ID] = player
	w.order = append(w.order, player.ID)
	for i, spawn := range res.EnemySpawns {
		e := unit.New(fmt.Sprintf("enemy-%d", i+1), p.Enemy, spawn)
		w.units[e.ID] = e
		w.order = append(w.order, e.ID)
	}

	w.phase = PhaseDecision
	w.timer = DefaultDecisionSeconds
	w.queue.Clear()
	w.damageEvents = nil
	w.debugFOW = false
	w.visible = map[string]struct{}{}
	w.explored = map[string]struct{}{}
	w.refreshPlayerFOV(player)

	w.logger.Info("game initialized",
		zap.Uint32("seed", seed),
		zap.Int("enemies", len(res.EnemySpawns)),
		zap.String("player_spawn", res.PlayerSpawn.Key()),
	)
	return nil
}

// refreshPlayerFOV recomputes the visible set from u's position and
// folds it into the explored set.
//
// Postcondition: explored ⊇ visible; visible contains u's position key.
func (w *World) refreshPlayerFOV(u *unit.Unit) {
	w.visible = fov.Compute(u.Position, u.Status.SightRange, w.tiles)
	for key := range w.visible {
		w.explored[key] = struct{}{}
	}
}
