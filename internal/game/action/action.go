// Package action defines queued intents and the intent queue the world
// drains each execution phase.
package action

import (
	"github.com/google/uuid"

	"github.com/mwpeterson/gridfall/internal/game/grid"
)

// Kind identifies what a unit intends to do.
type Kind int

const (
	KindMove Kind = iota
	KindAttack
	KindClimb
	KindWait
)

// String returns the human-readable name of the Kind.
func (k Kind) String() string {
	switch k {
	case KindMove:
		return "move"
	case KindAttack:
		return "attack"
	case KindClimb:
		return "climb"
	case KindWait:
		return "wait"
	default:
		return "unknown"
	}
}

// Status tracks an action through its lifecycle.
type Status int

const (
	StatusQueued Status = iota
	StatusExecuting
	StatusCompleted
)

// Action is one queued intent. Units and tiles are referenced by ID and
// value; an Action never holds a pointer into the world.
type Action struct {
	ID     string
	Kind   Kind
	UnitID string
	// Target is the destination tile for move intents; nil otherwise
	// (a climb acts on the unit's current stair tile).
	Target *grid.Coord
	// TargetUnitID names the unit an attack is aimed at; empty otherwise.
	TargetUnitID string
	// Cost is the action-point price debited at enqueue time.
	Cost   float64
	Status Status
}

// NewMove builds a move intent for the given unit toward target.
func NewMove(unitID string, target grid.Coord, cost float64) Action {
	t := target
	return Action{ID: uuid.NewString(), Kind: KindMove, UnitID: unitID, Target: &t, Cost: cost}
}

// NewAttack builds an attack intent aimed at targetUnitID.
func NewAttack(unitID, targetUnitID string, cost float64) Action {
	return Action{ID: uuid.NewString(), Kind: KindAttack, UnitID: unitID, TargetUnitID: targetUnitID, Cost: cost}
}

// NewClimb builds a climb intent for the unit's current stair tile.
func NewClimb(unitID string, cost float64) Action {
	return Action{ID: uuid.NewString(), Kind: KindClimb, UnitID: unitID, Cost: cost}
}

// NewWait builds a zero-cost wait intent.
func NewWait(unitID string) Action {
	return Action{ID: uuid.NewString(), Kind: KindWait, UnitID: unitID}
}

// Queue is the ordered list of intents for the current turn. The world
// owns the queue; AP accounting happens in the world's mutators.
type Queue struct {
	actions []Action
}

// Len returns the number of queued actions.
func (q *Queue) Len() int { return len(q.actions) }

// Actions returns a copy of the queued actions in insertion order.
func (q *Queue) Actions() []Action {
	cp := make([]Action, len(q.actions))
	copy(cp, q.actions)
	return cp
}

// Append adds a to the back of the queue.
func (q *Queue) Append(a Action) {
	q.actions = append(q.actions, a)
}

// PopLast removes and returns the most recently queued action.
//
// Postcondition: returns (action, true) and shrinks the queue by one, or
// (zero, false) when the queue is empty.
func (q *Queue) PopLast() (Action, bool) {
	if len(q.actions) == 0 {
		return Action{}, false
	}
	last := q.actions[len(q.actions)-1]
	q.actions = q.actions[:len(q.actions)-1]
	return last, true
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.actions = q.actions[:0]
}

// MoveTargetFor returns the target of the first queued move intent by
// unitID, if any. The AI uses this to predict where a player will be
// after their queued move resolves.
func (q *Queue) MoveTargetFor(unitID string) (grid.Coord, bool) {
	for _, a := range q.actions {
		if a.Kind == KindMove && a.UnitID == unitID && a.Target != nil {
			return *a.Target, true
		}
	}
	return grid.Coord{}, false
}
