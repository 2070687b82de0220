package grid

// TileType identifies the terrain occupying a tile.
type TileType int

const (
	TileEmpty TileType = iota
	TileConcrete
	TileMud
	TileStairsUp
	TileStairsDown
	TileWall
)

// String returns the human-readable name of the TileType.
func (t TileType) String() string {
	switch t {
	case TileEmpty:
		return "empty"
	case TileConcrete:
		return "concrete"
	case TileMud:
		return "mud"
	case TileStairsUp:
		return "stairs_up"
	case TileStairsDown:
		return "stairs_down"
	case TileWall:
		return "wall"
	default:
		return "unknown"
	}
}

// Metadata carries the per-tile coefficients the simulation reads.
type Metadata struct {
	// NoiseCoefficient scales movement sound produced on this tile.
	NoiseCoefficient float64
	// SpawnWeight biases random spawn selection toward this tile.
	SpawnWeight float64
	// Interactable marks tiles the host may offer an interaction on.
	Interactable bool
	// Opacity in [0,1]; values >= 1 block vision.
	Opacity float64
	// Walkable reports whether units may occupy this tile.
	Walkable bool
}

// Tile is one cell of a floor.
//
// Invariant: Type == TileWall implies Opacity == 1 and !Walkable.
// Invariant: stair tiles are walkable and transparent.
type Tile struct {
	Pos  Coord
	Type TileType
	Meta Metadata
}

// metadataFor derives the standard Metadata for a tile type.
func metadataFor(t TileType) Metadata {
	switch t {
	case TileWall:
		return Metadata{NoiseCoefficient: 0, SpawnWeight: 0, Opacity: 1, Walkable: false}
	case TileMud:
		return Metadata{NoiseCoefficient: 0.5, SpawnWeight: 1, Opacity: 0, Walkable: true}
	case TileStairsUp, TileStairsDown:
		return Metadata{NoiseCoefficient: 1, SpawnWeight: 0, Interactable: true, Opacity: 0, Walkable: true}
	default:
		return Metadata{NoiseCoefficient: 1, SpawnWeight: 1, Opacity: 0, Walkable: true}
	}
}
