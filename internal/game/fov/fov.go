// Package fov computes tile visibility by 360° ray-casting.
package fov

import (
	"math"

	"github.com/mwpeterson/gridfall/internal/game/grid"
)

const (
	// angleStepDeg is the angular resolution of the sweep.
	angleStepDeg = 2
	// rayStep is the distance advanced along a ray per sample.
	rayStep = 0.5
)

// Compute returns the set of tile keys visible from origin within
// sightRange tiles, on origin's floor only.
//
// The origin tile is always revealed. Each ray reveals every tile it
// passes through; an opaque tile is itself revealed but terminates the
// ray, so nothing behind it is visible.
//
// Precondition: m must not be nil; sightRange must be >= 0.
// Postcondition: the returned set contains origin.Key().
func Compute(origin grid.Coord, sightRange int, m *grid.Map) map[string]struct{} {
	visible := map[string]struct{}{origin.Key(): {}}
	if sightRange <= 0 {
		return visible
	}

	steps := int(float64(sightRange) / rayStep)
	ox := float64(origin.X) + 0.5
	oy := float64(origin.Y) + 0.5

	for deg := 0; deg < 360; deg += angleStepDeg {
		rad := float64(deg) * math.Pi / 180
		dx := math.Cos(rad) * rayStep
		dy := math.Sin(rad) * rayStep

		px, py := ox, oy
		for i := 0; i < steps; i++ {
			px += dx
			py += dy
			c := grid.Coord{X: int(math.Floor(px)), Y: int(math.Floor(py)), Floor: origin.Floor}
			if !m.InBounds(c) {
				break
			}
			visible[c.Key()] = struct{}{}
			if m.Opaque(c) {
				break
			}
		}
	}
	return visible
}

// InCone reports whether target lies inside a viewing cone at from,
// looking along the (facingX, facingY) unit direction. threshold is the
// minimum dot product between the facing direction and the normalized
// direction to the target (0.3 admits targets up to about 72.5° off the
// facing axis, a cone about 145° wide). The observer's own tile
// is always inside the cone.
func InCone(facingX, facingY int, from, target grid.Coord, threshold float64) bool {
	dx := float64(target.X - from.X)
	dy := float64(target.Y - from.Y)
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return true
	}
	dot := (float64(facingX)*dx + float64(facingY)*dy) / dist
	return dot >= threshold
}
