// Package unit provides the unit model and the YAML archetype templates
// units are spawned from.
package unit

import (
	"fmt"

	"github.com/mwpeterson/gridfall/internal/game/grid"
)

// Kind distinguishes the player faction from AI-controlled enemies.
type Kind int

const (
	KindPlayer Kind = iota
	KindEnemy
)

// String returns "player" or "enemy".
func (k Kind) String() string {
	if k == KindPlayer {
		return "player"
	}
	return "enemy"
}

// Facing is the direction a unit last moved in.
type Facing int

const (
	FacingUp Facing = iota
	FacingDown
	FacingLeft
	FacingRight
)

// Vector returns the unit-length (dx, dy) for the facing, with +y down.
func (f Facing) Vector() (int, int) {
	switch f {
	case FacingUp:
		return 0, -1
	case FacingDown:
		return 0, 1
	case FacingLeft:
		return -1, 0
	default:
		return 1, 0
	}
}

// MovementMode selects between loud and quiet movement.
type MovementMode int

const (
	ModeRun MovementMode = iota
	ModeSneak
)

// Status holds a unit's mutable combat-relevant numbers.
//
// Invariant: 0 <= HP <= MaxHP; 0 <= AP <= MaxAP.
// Invariant: Injured iff HP < MaxHP/2.
type Status struct {
	HP         int
	MaxHP      int
	AP         float64
	MaxAP      float64
	APRecovery float64
	SightRange int
	Injured    bool
	// NoiseLevel is the audible radius of this unit's movement; nil means
	// the planner's DefaultNoiseLevel applies.
	NoiseLevel   *int
	MovementMode MovementMode
}

// Unit is a single actor on the map. Units reference each other only by
// ID; the world's unit map is the sole owning container.
type Unit struct {
	ID       string
	Kind     Kind
	Faction  Kind
	Name     string
	Position grid.Coord
	Status   Status
	Facing   Facing
}

// Alive reports whether the unit has hit points remaining.
func (u *Unit) Alive() bool {
	return u.Status.HP > 0
}

// RecomputeInjured refreshes the Injured flag from current hit points.
//
// Postcondition: Status.Injured iff HP < MaxHP/2.
func (u *Unit) RecomputeInjured() {
	u.Status.Injured = 2*u.Status.HP < u.Status.MaxHP
}

// FaceToward updates the facing from a movement delta. The dominant axis
// wins; on a tie the horizontal component wins. A zero delta is a no-op.
func (u *Unit) FaceToward(from, to grid.Coord) {
	dx := to.X - from.X
	dy := to.Y - from.Y
	switch {
	case dx == 0 && dy == 0:
	case abs(dx) >= abs(dy) && dx > 0:
		u.Facing = FacingRight
	case abs(dx) >= abs(dy) && dx < 0:
		u.Facing = FacingLeft
	case dy > 0:
		u.Facing = FacingDown
	default:
		u.Facing = FacingUp
	}
}

// HealthDescription returns a visible wound-state string for logs and
// host display.
//
// Postcondition: returns a non-empty string.
func (u *Unit) HealthDescription() string {
	if u.Status.HP <= 0 {
		return "dead"
	}
	pct := float64(u.Status.HP) / float64(u.Status.MaxHP)
	switch {
	case pct >= 1.0:
		return "unharmed"
	case pct >= 0.75:
		return "lightly wounded"
	case pct >= 0.5:
		return "wounded"
	case pct >= 0.25:
		return "badly wounded"
	default:
		return "near death"
	}
}

// New creates a unit from a template at the given position.
//
// Precondition: id must be non-empty; tmpl must be non-nil.
// Postcondition: HP == tmpl.MaxHP; AP == tmpl.AP; Faction mirrors Kind.
func New(id string, tmpl *Template, pos grid.Coord) *Unit {
	if id == "" {
		panic("unit.New: id must not be empty")
	}
	if tmpl == nil {
		panic("unit.New: tmpl must not be nil")
	}
	var noise *int
	if tmpl.NoiseLevel != nil {
		n := *tmpl.NoiseLevel
		noise = &n
	}
	kind := tmpl.UnitKind()
	return &Unit{
		ID:       id,
		Kind:     kind,
		Faction:  kind,
		Name:     tmpl.Name,
		Position: pos,
		Facing:   FacingDown,
		Status: Status{
			HP:         tmpl.MaxHP,
			MaxHP:      tmpl.MaxHP,
			AP:         tmpl.AP,
			MaxAP:      tmpl.AP,
			APRecovery: tmpl.APRecovery,
			SightRange: tmpl.SightRange,
			NoiseLevel: noise,
		},
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// String implements fmt.Stringer for log lines.
func (u *Unit) String() string {
	return fmt.Sprintf("%s(%s)@%s", u.Name, u.ID, u.Position.Key())
}
