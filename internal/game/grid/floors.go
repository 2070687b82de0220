package grid

// Floor is one W×H layer of tiles, indexed [x][y].
type Floor struct {
	Index int
	Tiles [][]Tile
}

// Map is the full stack of floors. All floors share Width and Height;
// bounds are fixed at creation.
type Map struct {
	Width  int
	Height int
	Floors []*Floor
}

// InBounds reports whether c addresses a tile on an existing floor.
func (m *Map) InBounds(c Coord) bool {
	return c.Floor >= 0 && c.Floor < len(m.Floors) &&
		c.X >= 0 && c.X < m.Width &&
		c.Y >= 0 && c.Y < m.Height
}

// At returns the tile at c.
//
// Postcondition: returns (tile, true) when c is in bounds, or (nil, false)
// otherwise.
func (m *Map) At(c Coord) (*Tile, bool) {
	if !m.InBounds(c) {
		return nil, false
	}
	return &m.Floors[c.Floor].Tiles[c.X][c.Y], true
}

// Walkable reports whether c is in bounds and statically walkable.
// Dynamic occupancy by units is not considered.
func (m *Map) Walkable(c Coord) bool {
	t, ok := m.At(c)
	return ok && t.Meta.Walkable
}

// Opaque reports whether the tile at c blocks vision. Out-of-bounds
// coordinates are treated as opaque.
func (m *Map) Opaque(c Coord) bool {
	t, ok := m.At(c)
	if !ok {
		return true
	}
	return t.Meta.Opacity >= 1
}

// SetTile replaces the tile at c with the given type and its derived
// metadata. No-op when c is out of bounds.
func (m *Map) SetTile(c Coord, tt TileType) {
	if !m.InBounds(c) {
		return
	}
	m.Floors[c.Floor].Tiles[c.X][c.Y] = Tile{Pos: c, Type: tt, Meta: metadataFor(tt)}
}
