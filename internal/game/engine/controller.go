package engine

import (
	"go.uber.org/zap"

	"github.com/mwpeterson/gridfall/internal/game/ai"
	"github.com/mwpeterson/gridfall/internal/game/world"
)

// Controller owns the decision-window countdown and the transition into
// execution. The host delivers elapsed wall-clock seconds through Tick.
type Controller struct {
	w               *world.World
	planner         *ai.Planner
	logger          *zap.Logger
	decisionSeconds float64
}

// NewController constructs a Controller.
//
// Precondition: w, planner, and logger must be non-nil;
// decisionSeconds must be > 0.
func NewController(w *world.World, planner *ai.Planner, logger *zap.Logger, decisionSeconds float64) *Controller {
	if w == nil || planner == nil || logger == nil {
		panic("engine.NewController: w, planner, and logger must not be nil")
	}
	if decisionSeconds <= 0 {
		panic("engine.NewController: decisionSeconds must be > 0")
	}
	return &Controller{w: w, planner: planner, logger: logger, decisionSeconds: decisionSeconds}
}

// Tick advances the decision timer by dt seconds. When the window
// expires it begins execution and returns the processor the host must
// drain; otherwise it returns nil.
func (c *Controller) Tick(dt float64) *Processor {
	if c.w.Phase() != world.PhaseDecision {
		return nil
	}
	c.w.UpdateTimer(dt)
	if c.w.Timer() > 0 {
		return nil
	}
	return c.BeginExecution()
}

// BeginExecution flips the world into the execution phase, runs the AI
// planner, splices its intents onto the queue after the player's, and
// returns the processor for the drain. Queueing debits each enemy's
// action points exactly as the planner budgeted.
func (c *Controller) BeginExecution() *Processor {
	c.w.SetPhase(world.PhaseExecution)
	plans := c.planner.Plan(c.w)
	for _, a := range plans {
		c.w.QueueAction(a)
	}
	c.logger.Debug("execution begins",
		zap.Int("queued", c.w.Queue().Len()),
		zap.Int("ai_intents", len(plans)),
	)
	return NewProcessor(c.w, c.logger, c.decisionSeconds)
}

// RunTurn expires the remaining decision window and drains the whole
// execution phase synchronously. Animation pacing belongs to hosts that
// call Tick and Advance themselves.
func (c *Controller) RunTurn() {
	if c.w.Phase() == world.PhaseDecision {
		c.w.UpdateTimer(c.w.Timer())
	}
	c.BeginExecution().Run()
}
