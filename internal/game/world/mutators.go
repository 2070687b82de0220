package world

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mwpeterson/gridfall/internal/game/action"
	"github.com/mwpeterson/gridfall/internal/game/grid"
	"github.com/mwpeterson/gridfall/internal/game/unit"
)

// SetPhase transitions the game clock. Entering decision regenerates
// every unit's action points, clamped to the unit's maximum; units with
// no recovery value use DefaultAPRecovery.
//
// Postcondition: after SetPhase(PhaseDecision), every unit's AP <= MaxAP.
func (w *World) SetPhase(p Phase) {
	w.phase = p
	if p == PhaseDecision {
		for _, id := range w.order {
			u, ok := w.units[id]
			if !ok {
				continue
			}
			rec := u.Status.APRecovery
			if rec == 0 {
				rec = DefaultAPRecovery
			}
			u.Status.AP = min(u.Status.MaxAP, u.Status.AP+rec)
		}
	}
	w.logger.Debug("phase change", zap.String("phase", p.String()))
	w.notify(Event{Kind: EventPhaseChanged, Phase: p})
}

// UpdateTimer counts the decision window down by dt seconds. No-op
// outside the decision phase.
//
// Postcondition: the timer never goes below zero.
func (w *World) UpdateTimer(dt float64) {
	if w.phase != PhaseDecision {
		return
	}
	w.timer -= dt
	if w.timer < 0 {
		w.timer = 0
	}
}

// ResetTimer restarts the decision window.
func (w *World) ResetTimer(seconds float64) {
	w.timer = seconds
}

// QueueAction pre-debits the acting unit's action points and appends a.
// An action with a positive cost is silently rejected when the unit is
// missing or cannot afford the cost; a zero-cost action is appended
// without looking the unit up. Affordability is the host's responsibility
// to check first.
func (w *World) QueueAction(a action.Action) {
	if a.Cost > 0 {
		u, ok := w.units[a.UnitID]
		if !ok {
			return
		}
		if u.Status.AP < a.Cost {
			w.logger.Debug("action rejected: insufficient ap",
				zap.String("unit", a.UnitID),
				zap.String("kind", a.Kind.String()),
				zap.Float64("cost", a.Cost),
				zap.Float64("ap", u.Status.AP),
			)
			return
		}
		u.Status.AP -= a.Cost
	}
	w.queue.Append(a)
}

// CancelAction pops the most recently queued action and refunds its cost
// to the acting unit. No-op on an empty queue.
//
// Postcondition: QueueAction followed by CancelAction leaves the unit's
// AP and the queue unchanged.
func (w *World) CancelAction() {
	a, ok := w.queue.PopLast()
	if !ok {
		return
	}
	if u, exists := w.units[a.UnitID]; exists && a.Cost > 0 {
		u.Status.AP = min(u.Status.MaxAP, u.Status.AP+a.Cost)
	}
}

// ClearActionQueue empties the queue without refunds. Used only at the
// end of an execution phase.
func (w *World) ClearActionQueue() {
	w.queue.Clear()
}

// UpdateUnitPosition moves a unit, updating its facing from the movement
// delta. A player move recomputes the visible set and folds it into the
// explored set. Missing units are a no-op.
func (w *World) UpdateUnitPosition(id string, pos grid.Coord) {
	u, ok := w.units[id]
	if !ok {
		return
	}
	u.FaceToward(u.Position, pos)
	u.Position = pos
	if u.Kind == unit.KindPlayer {
		w.refreshPlayerFOV(u)
	}
	w.notify(Event{Kind: EventUnitMoved, UnitID: id, Pos: pos})
}

// StatusPatch is a partial unit-status update; nil fields are left
// untouched.
type StatusPatch struct {
	HP           *int
	AP           *float64
	SightRange   *int
	NoiseLevel   *int
	MovementMode *unit.MovementMode
}

// UpdateUnitStatus merges patch into the unit's status, re-clamping HP
// and AP into range and refreshing the injured flag. Missing units are a
// no-op.
//
// Postcondition: 0 <= HP <= MaxHP; 0 <= AP <= MaxAP; Injured iff
// HP < MaxHP/2.
func (w *World) UpdateUnitStatus(id string, patch StatusPatch) {
	u, ok := w.units[id]
	if !ok {
		return
	}
	if patch.HP != nil {
		u.Status.HP = clampInt(*patch.HP, 0, u.Status.MaxHP)
	}
	if patch.AP != nil {
		u.Status.AP = clampFloat(*patch.AP, 0, u.Status.MaxAP)
	}
	if patch.SightRange != nil {
		u.Status.SightRange = *patch.SightRange
	}
	if patch.NoiseLevel != nil {
		n := *patch.NoiseLevel
		u.Status.NoiseLevel = &n
	}
	if patch.MovementMode != nil {
		u.Status.MovementMode = *patch.MovementMode
	}
	u.RecomputeInjured()
}

// ApplyDamage subtracts amount from the unit's hit points and records a
// damage event at the unit's position. A unit dropping to zero is
// removed from the world. Missing units are a no-op.
func (w *World) ApplyDamage(id string, amount int) {
	u, ok := w.units[id]
	if !ok {
		return
	}
	pos := u.Position
	u.Status.HP -= amount
	w.damageEvents = append(w.damageEvents, DamageEvent{
		ID:        uuid.NewString(),
		Pos:       pos,
		Amount:    amount,
		Timestamp: time.Now(),
	})
	w.notify(Event{Kind: EventDamageApplied, UnitID: id, Pos: pos, Amount: amount})

	if u.Status.HP <= 0 {
		u.Status.HP = 0
		delete(w.units, id)
		for i, oid := range w.order {
			if oid == id {
				w.order = append(w.order[:i], w.order[i+1:]...)
				break
			}
		}
		w.logger.Info("unit died",
			zap.String("unit", id),
			zap.String("name", u.Name),
			zap.String("pos", pos.Key()),
		)
		w.notify(Event{Kind: EventUnitDied, UnitID: id, Pos: pos})
		return
	}
	u.RecomputeInjured()
}

// RemoveDamageEvent deletes the damage event with the given ID. Unknown
// IDs are a no-op.
func (w *World) RemoveDamageEvent(id string) {
	for i, ev := range w.damageEvents {
		if ev.ID == id {
			w.damageEvents = append(w.damageEvents[:i], w.damageEvents[i+1:]...)
			return
		}
	}
}

// PruneDamageEvents drops every event older than DamageEventTTL at now.
func (w *World) PruneDamageEvents(now time.Time) {
	kept := w.damageEvents[:0]
	for _, ev := range w.damageEvents {
		if now.Sub(ev.Timestamp) < DamageEventTTL {
			kept = append(kept, ev)
		}
	}
	w.damageEvents = kept
}

// ToggleDebugFOW flips the fog-of-war debug override.
func (w *World) ToggleDebugFOW() {
	w.debugFOW = !w.debugFOW
}

// ToggleSneak switches a unit between run and sneak movement. Missing
// units are a no-op.
func (w *World) ToggleSneak(id string) {
	u, ok := w.units[id]
	if !ok {
		return
	}
	if u.Status.MovementMode == unit.ModeRun {
		u.Status.MovementMode = unit.ModeSneak
	} else {
		u.Status.MovementMode = unit.ModeRun
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
