package canvas

import "math"

// CellSize is the unzoomed edge length of one cell in screen pixels.
const CellSize = 50.0

// ScreenToGrid maps a screen point to the discrete cell under it, given the
// viewport offset and zoom. Screen Y grows downward while grid Y grows
// upward; the -1 corrects the inversion so that cell row 0 occupies screen
// rows [oy - CellSize*zoom, oy).
func ScreenToGrid(sx, sy, ox, oy, zoom float64) Coord {
	scaled := CellSize * zoom
	gx := int64(math.Floor((sx - ox) / scaled))
	gy := -int64(math.Floor((sy-oy)/scaled)) - 1
	return Coord{X: gx, Y: gy}
}

// GridToScreen returns the screen-space top-left corner and edge length of a
// cell's rectangle. It is the exact algebraic inverse of ScreenToGrid:
// any point strictly inside the returned rect maps back to the same cell,
// so rendering and hit-testing can never disagree.
func GridToScreen(c Coord, ox, oy, zoom float64) (left, top, size float64) {
	scaled := CellSize * zoom
	left = float64(c.X)*scaled + ox
	top = float64(-c.Y)*scaled - scaled + oy
	return left, top, scaled
}
