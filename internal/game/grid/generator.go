package grid

import (
	"fmt"

	"github.com/mwpeterson/gridfall/internal/game/rng"
)

// GenParams controls map generation.
type GenParams struct {
	// Width and Height are the shared dimensions of every floor.
	Width  int
	Height int
	// Floors is the number of stacked layers.
	Floors int
	// WallDensity is the probability a generated tile is a wall.
	WallDensity float64
	// PlazaSize is the side length of the safe spawn plaza on floor 0.
	PlazaSize int
	// StairMinDistance is the minimum Chebyshev distance between the
	// stairwell and the plaza center.
	StairMinDistance int
	// EnemyMinDistance is the minimum Manhattan distance between an enemy
	// spawn and the plaza center.
	EnemyMinDistance int
}

// Validate checks the generation parameter invariants.
//
// Postcondition: returns nil iff dimensions, floor count, and plaza size
// are positive and WallDensity is in [0, 1).
func (p GenParams) Validate() error {
	if p.Width < 1 || p.Height < 1 {
		return fmt.Errorf("grid: map dimensions must be positive, got %dx%d", p.Width, p.Height)
	}
	if p.Floors < 1 {
		return fmt.Errorf("grid: floor count must be >= 1, got %d", p.Floors)
	}
	if p.WallDensity < 0 || p.WallDensity >= 1 {
		return fmt.Errorf("grid: wall density must be in [0,1), got %g", p.WallDensity)
	}
	if p.PlazaSize < 1 {
		return fmt.Errorf("grid: plaza size must be >= 1, got %d", p.PlazaSize)
	}
	return nil
}

// Result is the output of a generation run: the map plus the spawn
// coordinates chosen for the player and each enemy.
type Result struct {
	Map         *Map
	PlayerSpawn Coord
	EnemySpawns []Coord
	// Stairs is the shared (x, y) of the stairwell connecting floor 0
	// and floor 1; zero value when Floors < 2.
	Stairs Coord
}

// Per-enemy and stair placement rejection-sampling limits. Sampling never
// hangs on crowded maps; an enemy slot that cannot be placed is skipped.
const (
	enemyPlaceAttempts = 100
	stairPlaceAttempts = 1000
)

// Enemy count is 3..5, drawn from the seeded source.
const (
	enemyBaseCount = 3
	enemySpread    = 3
)

// Generate builds the full floor stack from the seeded source and picks
// spawn positions.
//
// Precondition: p must validate; src must not be nil.
// Postcondition: every floor is Width×Height; floor 0 carries a walkable
// plaza centered at (Width/2, Height/2); with Floors >= 2, floor 0 has a
// stairs-up tile and floor 1 a stairs-down tile at the same (x, y).
func Generate(p GenParams, src *rng.LCG) Result {
	m := &Map{Width: p.Width, Height: p.Height}
	for f := 0; f < p.Floors; f++ {
		floor := &Floor{Index: f, Tiles: make([][]Tile, p.Width)}
		for x := 0; x < p.Width; x++ {
			floor.Tiles[x] = make([]Tile, p.Height)
			for y := 0; y < p.Height; y++ {
				tt := TileConcrete
				if src.Next() < p.WallDensity {
					tt = TileWall
				}
				pos := Coord{X: x, Y: y, Floor: f}
				floor.Tiles[x][y] = Tile{Pos: pos, Type: tt, Meta: metadataFor(tt)}
			}
		}
		m.Floors = append(m.Floors, floor)
	}

	center := Coord{X: p.Width / 2, Y: p.Height / 2, Floor: 0}
	carvePlaza(m, center, p.PlazaSize)

	res := Result{Map: m, PlayerSpawn: center}

	if p.Floors >= 2 {
		res.Stairs = placeStairs(m, center, p.StairMinDistance, src)
	}

	count := enemyBaseCount + int(src.Next()*float64(enemySpread))
	occupied := map[string]bool{center.Key(): true}
	for i := 0; i < count; i++ {
		spawn, ok := sampleEnemySpawn(m, center, p.EnemyMinDistance, occupied, src)
		if !ok {
			continue
		}
		occupied[spawn.Key()] = true
		res.EnemySpawns = append(res.EnemySpawns, spawn)
	}
	return res
}

// carvePlaza forces a size×size square centered on c to concrete.
func carvePlaza(m *Map, c Coord, size int) {
	half := size / 2
	for x := c.X - half; x <= c.X+half; x++ {
		for y := c.Y - half; y <= c.Y+half; y++ {
			m.SetTile(Coord{X: x, Y: y, Floor: c.Floor}, TileConcrete)
		}
	}
}

// placeStairs rejection-samples a stairwell position within the inner
// bounds, at least minDist Chebyshev from the plaza center. The last
// sampled coordinate is used if no sample satisfies the distance rule
// within the attempt budget (only reachable on very small maps).
func placeStairs(m *Map, center Coord, minDist int, src *rng.LCG) Coord {
	var sx, sy int
	for i := 0; i < stairPlaceAttempts; i++ {
		sx = src.Range(1, m.Width-2)
		sy = src.Range(1, m.Height-2)
		if (Coord{X: sx, Y: sy}).Chebyshev(Coord{X: center.X, Y: center.Y}) >= minDist {
			break
		}
	}
	m.SetTile(Coord{X: sx, Y: sy, Floor: 0}, TileStairsUp)
	m.SetTile(Coord{X: sx, Y: sy, Floor: 1}, TileStairsDown)
	return Coord{X: sx, Y: sy, Floor: 0}
}

// sampleEnemySpawn picks a walkable floor-0 tile far enough from the
// plaza and not already claimed. Gives up after enemyPlaceAttempts.
func sampleEnemySpawn(m *Map, center Coord, minDist int, occupied map[string]bool, src *rng.LCG) (Coord, bool) {
	for i := 0; i < enemyPlaceAttempts; i++ {
		c := Coord{X: src.Range(0, m.Width-1), Y: src.Range(0, m.Height-1), Floor: 0}
		if !m.Walkable(c) {
			continue
		}
		if c.Manhattan(center) <= minDist {
			continue
		}
		if occupied[c.Key()] {
			continue
		}
		return c, true
	}
	return Coord{}, false
}
