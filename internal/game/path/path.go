// Package path implements 8-directional A* pathfinding over a single
// floor, honoring walls and unit occupancy.
package path

import (
	"container/heap"
	"fmt"

	"github.com/mwpeterson/gridfall/internal/game/grid"
	"github.com/mwpeterson/gridfall/internal/game/unit"
)

// Step costs. A player may cross an enemy-occupied tile at the elevated
// pass-through cost; every other cross-unit traversal is blocked.
const (
	StraightCost    = 1.0
	DiagonalCost    = 1.5
	PassThroughCost = 3.0
)

// StepCost returns the local cost of moving between two adjacent tiles,
// ignoring occupancy.
//
// Precondition: from and to differ by at most one in each axis.
func StepCost(from, to grid.Coord) float64 {
	if from.X != to.X && from.Y != to.Y {
		return DiagonalCost
	}
	return StraightCost
}

type node struct {
	pos    grid.Coord
	g, h   float64
	parent *node
	seq    int // insertion order; breaks f ties
	index  int // heap index
}

type openList []*node

func (ol openList) Len() int { return len(ol) }
func (ol openList) Less(i, j int) bool {
	fi := ol[i].g + ol[i].h
	fj := ol[j].g + ol[j].h
	if fi != fj {
		return fi < fj
	}
	return ol[i].seq < ol[j].seq
}
func (ol openList) Swap(i, j int) {
	ol[i], ol[j] = ol[j], ol[i]
	ol[i].index = i
	ol[j].index = j
}
func (ol *openList) Push(x any) {
	n := x.(*node)
	n.index = len(*ol)
	*ol = append(*ol, n)
}
func (ol *openList) Pop() any {
	old := *ol
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*ol = old[:len(old)-1]
	return n
}

var dirs = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// octile is the admissible 8-way heuristic: (dx+dy) - 0.5*min(dx,dy).
func octile(a, b grid.Coord) float64 {
	dx := float64(abs(a.X - b.X))
	dy := float64(abs(a.Y - b.Y))
	m := dx
	if dy < m {
		m = dy
	}
	return dx + dy - 0.5*m
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// FindPath returns the ordered waypoints from start to end inclusive, or
// nil when no path exists. All waypoints lie on start's floor;
// cross-floor motion happens only through climb actions.
//
// Occupancy rules: the goal tile must be free of other units; a player
// mover may cross an enemy-occupied intermediate tile at PassThroughCost;
// any other occupied intermediate tile blocks.
//
// Precondition: m must not be nil.
// Postcondition: a non-nil result has first == start and last == end
// (with end's floor normalized to start's), and consecutive waypoints
// differ by a single king-move step.
func FindPath(start, end grid.Coord, m *grid.Map, units []*unit.Unit, moverID string) []grid.Coord {
	goal := grid.Coord{X: end.X, Y: end.Y, Floor: start.Floor}
	if !m.InBounds(goal) || !m.Walkable(goal) {
		return nil
	}
	if start.X == goal.X && start.Y == goal.Y {
		return []grid.Coord{start}
	}

	var moverKind unit.Kind
	moverKnown := false
	for _, u := range units {
		if u.ID == moverID {
			moverKind = u.Kind
			moverKnown = true
			break
		}
	}

	occupier := func(c grid.Coord) *unit.Unit {
		for _, u := range units {
			if u.ID != moverID && u.Position == c {
				return u
			}
		}
		return nil
	}

	planeKey := func(c grid.Coord) string { return fmt.Sprintf("%d,%d", c.X, c.Y) }

	seq := 0
	startNode := &node{pos: start, h: octile(start, goal)}
	ol := &openList{startNode}
	heap.Init(ol)
	best := map[string]*node{planeKey(start): startNode}
	closed := map[string]bool{}

	for ol.Len() > 0 {
		cur := heap.Pop(ol).(*node)
		k := planeKey(cur.pos)
		if closed[k] {
			continue
		}
		if cur.pos.SamePlane(goal) {
			return reconstruct(cur)
		}
		closed[k] = true

		for _, d := range dirs {
			next := grid.Coord{X: cur.pos.X + d[0], Y: cur.pos.Y + d[1], Floor: start.Floor}
			nk := planeKey(next)
			if closed[nk] || !m.Walkable(next) {
				continue
			}

			stepCost := StepCost(cur.pos, next)
			if blocker := occupier(next); blocker != nil {
				if next.SamePlane(goal) {
					// Cannot terminate on a unit.
					continue
				}
				if moverKnown && moverKind == unit.KindPlayer && blocker.Kind == unit.KindEnemy {
					stepCost = PassThroughCost
				} else {
					continue
				}
			}

			g := cur.g + stepCost
			if prev, ok := best[nk]; ok && prev.g <= g {
				continue
			}
			seq++
			n := &node{pos: next, g: g, h: octile(next, goal), parent: cur, seq: seq}
			best[nk] = n
			heap.Push(ol, n)
		}
	}
	return nil
}

func reconstruct(end *node) []grid.Coord {
	var rev []grid.Coord
	for n := end; n != nil; n = n.parent {
		rev = append(rev, n.pos)
	}
	out := make([]grid.Coord, len(rev))
	for i := range rev {
		out[i] = rev[len(rev)-1-i]
	}
	return out
}

// Cost sums the local step costs along a path, ignoring occupancy
// surcharges: the same StepCost values the AI planner accumulates step by
// step when it budgets action points.
//
// Postcondition: returns 0 for paths shorter than two waypoints.
func Cost(waypoints []grid.Coord) float64 {
	total := 0.0
	for i := 1; i < len(waypoints); i++ {
		total += StepCost(waypoints[i-1], waypoints[i])
	}
	return total
}
