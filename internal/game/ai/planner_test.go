package ai_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mwpeterson/gridfall/internal/game/action"
	"github.com/mwpeterson/gridfall/internal/game/ai"
	"github.com/mwpeterson/gridfall/internal/game/grid"
	"github.com/mwpeterson/gridfall/internal/game/unit"
	"github.com/mwpeterson/gridfall/internal/game/world"
)

func intPtr(n int) *int { return &n }

// testWorld builds a wall-free world and parks every enemy except
// enemy-1 in the far corner, asleep and out of earshot.
func testWorld(t *testing.T) *world.World {
	t.Helper()
	w := world.New(zap.NewNop())
	err := w.InitGame(42, world.InitParams{
		Gen: grid.GenParams{
			Width: 20, Height: 20, Floors: 2, WallDensity: 0,
			PlazaSize: 5, StairMinDistance: 5, EnemyMinDistance: 6,
		},
		Player: &unit.Template{
			ID: "player", Name: "Operative", Kind: "player",
			MaxHP: 100, AP: 10, APRecovery: 5, SightRange: 10, NoiseLevel: intPtr(3),
		},
		Enemy: &unit.Template{
			ID: "grunt", Name: "Grunt", Kind: "enemy",
			MaxHP: 3, AP: 8, APRecovery: 4, SightRange: 7,
		},
	})
	require.NoError(t, err)

	park := []grid.Coord{
		{X: 19, Y: 19}, {X: 18, Y: 19}, {X: 19, Y: 18}, {X: 18, Y: 18},
	}
	i := 0
	for _, u := range w.Units() {
		if u.Kind == unit.KindEnemy && u.ID != "enemy-1" {
			require.Less(t, i, len(park))
			w.UpdateUnitPosition(u.ID, park[i])
			i++
		}
	}
	return w
}

func actionsFor(plans []action.Action, unitID string) []action.Action {
	var out []action.Action
	for _, a := range plans {
		if a.UnitID == unitID {
			out = append(out, a)
		}
	}
	return out
}

func TestPlan_AdjacentEnemyAttacksInPlace(t *testing.T) {
	w := testWorld(t)
	w.UpdateUnitPosition("enemy-1", grid.Coord{X: 11, Y: 10})

	p := ai.NewPlanner(ai.DefaultConfig(), zap.NewNop())
	plans := p.Plan(w)

	got := actionsFor(plans, "enemy-1")
	require.Len(t, got, 1)
	assert.Equal(t, action.KindAttack, got[0].Kind)
	assert.Equal(t, "player-1", got[0].TargetUnitID)
	assert.Equal(t, 3.0, got[0].Cost)
	// Hearing the player at range 1 snaps the state machine to chase.
	assert.Equal(t, ai.StateChase, p.Memory("enemy-1").State)
}

func TestPlan_SleepingEnemyIgnoresDistantPlayer(t *testing.T) {
	w := testWorld(t)
	// Inside sight range but beyond earshot; sleep suppresses vision.
	w.UpdateUnitPosition("enemy-1", grid.Coord{X: 10, Y: 15})

	p := ai.NewPlanner(ai.DefaultConfig(), zap.NewNop())
	plans := p.Plan(w)

	assert.Empty(t, actionsFor(plans, "enemy-1"))
	assert.Equal(t, ai.StateSleep, p.Memory("enemy-1").State)
}

func TestPlan_WoundedSleeperWakes(t *testing.T) {
	w := testWorld(t)
	w.UpdateUnitPosition("enemy-1", grid.Coord{X: 10, Y: 15})
	w.ApplyDamage("enemy-1", 1)

	p := ai.NewPlanner(ai.DefaultConfig(), zap.NewNop())
	p.Plan(w)

	// Awake and within sight range: detection promotes straight to chase.
	assert.Equal(t, ai.StateChase, p.Memory("enemy-1").State)
}

func TestPlan_ChaseEmitsMoveTowardPlayer(t *testing.T) {
	w := testWorld(t)
	w.UpdateUnitPosition("enemy-1", grid.Coord{X: 15, Y: 10})

	p := ai.NewPlanner(ai.DefaultConfig(), zap.NewNop())
	p.Memory("enemy-1").State = ai.StateWander

	plans := p.Plan(w)
	got := actionsFor(plans, "enemy-1")
	require.NotEmpty(t, got)
	require.Equal(t, action.KindMove, got[0].Kind)
	require.NotNil(t, got[0].Target)

	start := grid.Coord{X: 15, Y: 10}
	player := grid.Coord{X: 10, Y: 10}
	assert.Less(t, got[0].Target.Manhattan(player), start.Manhattan(player), "move closes distance")
	assert.Equal(t, ai.StateChase, p.Memory("enemy-1").State)
	require.NotNil(t, p.Memory("enemy-1").LastKnownTargetPos)
	assert.Equal(t, player, *p.Memory("enemy-1").LastKnownTargetPos)
}

func TestPlan_ComboMoveThenAttack(t *testing.T) {
	w := testWorld(t)
	w.UpdateUnitPosition("enemy-1", grid.Coord{X: 13, Y: 10})
	// Block the first ring candidate so the reservation lands on a tile
	// adjacent to the player.
	w.Map().SetTile(grid.Coord{X: 9, Y: 9}, grid.TileWall)

	p := ai.NewPlanner(ai.DefaultConfig(), zap.NewNop())
	p.Memory("enemy-1").State = ai.StateWander

	plans := p.Plan(w)
	got := actionsFor(plans, "enemy-1")
	require.Len(t, got, 2)

	require.Equal(t, action.KindMove, got[0].Kind)
	require.NotNil(t, got[0].Target)
	assert.Equal(t, grid.Coord{X: 10, Y: 9}, *got[0].Target)
	assert.Equal(t, 3.5, got[0].Cost)

	assert.Equal(t, action.KindAttack, got[1].Kind)
	assert.Equal(t, "player-1", got[1].TargetUnitID)
	assert.LessOrEqual(t, got[0].Cost+got[1].Cost, 8.0)
}

func TestPlan_ReservationSeparatesDestinations(t *testing.T) {
	w := testWorld(t)
	w.UpdateUnitPosition("enemy-1", grid.Coord{X: 13, Y: 10})
	w.UpdateUnitPosition("enemy-2", grid.Coord{X: 13, Y: 11})

	p := ai.NewPlanner(ai.DefaultConfig(), zap.NewNop())
	p.Memory("enemy-1").State = ai.StateWander
	p.Memory("enemy-2").State = ai.StateWander

	plans := p.Plan(w)
	m1 := actionsFor(plans, "enemy-1")
	m2 := actionsFor(plans, "enemy-2")
	require.NotEmpty(t, m1)
	require.NotEmpty(t, m2)
	require.Equal(t, action.KindMove, m1[0].Kind)
	require.Equal(t, action.KindMove, m2[0].Kind)
	assert.NotEqual(t, *m1[0].Target, *m2[0].Target, "reserved destinations never collide")
}

func TestPlan_PredictionFollowsQueuedPlayerMove(t *testing.T) {
	w := testWorld(t)
	w.UpdateUnitPosition("enemy-1", grid.Coord{X: 11, Y: 10})
	w.QueueAction(action.NewMove("player-1", grid.Coord{X: 15, Y: 10}, 1))

	p := ai.NewPlanner(ai.DefaultConfig(), zap.NewNop())
	plans := p.Plan(w)

	got := actionsFor(plans, "enemy-1")
	require.NotEmpty(t, got)
	// The player is fleeing: no attack in place, chase the predicted tile.
	assert.Equal(t, action.KindMove, got[0].Kind)
	require.NotNil(t, p.Memory("enemy-1").LastKnownTargetPos)
	assert.Equal(t, grid.Coord{X: 15, Y: 10}, *p.Memory("enemy-1").LastKnownTargetPos)
}

func TestPlan_ContestedPredictionFallsBack(t *testing.T) {
	w := testWorld(t)
	w.UpdateUnitPosition("enemy-1", grid.Coord{X: 11, Y: 10})
	w.UpdateUnitPosition("enemy-2", grid.Coord{X: 15, Y: 10})
	w.QueueAction(action.NewMove("player-1", grid.Coord{X: 15, Y: 10}, 1))

	p := ai.NewPlanner(ai.DefaultConfig(), zap.NewNop())
	plans := p.Plan(w)

	got := actionsFor(plans, "enemy-1")
	require.NotEmpty(t, got)
	// The queued tile is occupied, so the prediction collapses to the
	// player's current position and the adjacent attack fires.
	assert.Equal(t, action.KindAttack, got[0].Kind)
}

func TestPlan_SearchArrivalForgetsTarget(t *testing.T) {
	w := testWorld(t)
	pos := grid.Coord{X: 2, Y: 2}
	w.UpdateUnitPosition("enemy-1", pos)

	p := ai.NewPlanner(ai.DefaultConfig(), zap.NewNop())
	mem := p.Memory("enemy-1")
	mem.State = ai.StateSearch
	lk := pos
	mem.LastKnownTargetPos = &lk

	p.Plan(w)
	assert.Equal(t, ai.StateWander, mem.State)
	assert.Nil(t, mem.LastKnownTargetPos)
}

func TestPlan_ChaseDecaysToSearchWhenUndetected(t *testing.T) {
	w := testWorld(t)
	w.UpdateUnitPosition("enemy-1", grid.Coord{X: 2, Y: 2})

	p := ai.NewPlanner(ai.DefaultConfig(), zap.NewNop())
	mem := p.Memory("enemy-1")
	mem.State = ai.StateChase
	lk := grid.Coord{X: 5, Y: 5}
	mem.LastKnownTargetPos = &lk

	p.Plan(w)
	assert.Equal(t, ai.StateSearch, mem.State)
	require.NotNil(t, mem.LastKnownTargetPos)
	assert.Equal(t, grid.Coord{X: 5, Y: 5}, *mem.LastKnownTargetPos)
}

func TestPlan_NoPlayerOnFloorSkipsEnemy(t *testing.T) {
	w := testWorld(t)
	w.UpdateUnitPosition("enemy-1", grid.Coord{X: 11, Y: 10, Floor: 1})

	p := ai.NewPlanner(ai.DefaultConfig(), zap.NewNop())
	plans := p.Plan(w)
	assert.Empty(t, actionsFor(plans, "enemy-1"))
}

func TestPlan_ConeVisionGatesDetection(t *testing.T) {
	w := testWorld(t)
	// Enemy north of the player, facing away (up); the player is behind it.
	w.UpdateUnitPosition("enemy-1", grid.Coord{X: 10, Y: 5})
	e, _ := w.Unit("enemy-1")
	e.Facing = unit.FacingUp

	cfg := ai.DefaultConfig()
	cfg.ConeVision = true
	p := ai.NewPlanner(cfg, zap.NewNop())
	p.Memory("enemy-1").State = ai.StateWander

	p.Plan(w)
	assert.NotEqual(t, ai.StateChase, p.Memory("enemy-1").State, "player behind the cone stays unseen")

	// Facing the player, detection lands.
	e.Facing = unit.FacingDown
	p.Plan(w)
	assert.Equal(t, ai.StateChase, p.Memory("enemy-1").State)
}
