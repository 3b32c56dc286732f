// Package canvas implements the client-side state of the collective pixel
// artwork: the infinite grid coordinate model, the screen/grid coordinate
// transform, the authoritative-snapshot/working-copy store, and the pan/zoom
// gesture controller.
package canvas

import (
	"fmt"
	"strconv"

	"github.com/w3hc/xszc/errors"
)

// Coord identifies one cell on the grid. Using a struct key keeps the
// identity reversible for negative coordinates; the string form exists for
// logs and wire payloads only.
type Coord struct {
	X int64
	Y int64
}

// String renders the cell key as "x-y", e.g. "0-0" or "-3--7".
func (c Coord) String() string {
	return fmt.Sprintf("%d-%d", c.X, c.Y)
}

// ParseCoord parses the "x-y" key form produced by Coord.String. The
// separator is the dash preceded by a digit, which disambiguates it from
// the sign of a negative coordinate.
func ParseCoord(s string) (Coord, error) {
	for i := 1; i < len(s); i++ {
		if s[i] != '-' || s[i-1] < '0' || s[i-1] > '9' {
			continue
		}
		x, err := strconv.ParseInt(s[:i], 10, 64)
		if err != nil {
			return Coord{}, errors.Newf("invalid cell key %q: %v", s, err)
		}
		y, err := strconv.ParseInt(s[i+1:], 10, 64)
		if err != nil {
			return Coord{}, errors.Newf("invalid cell key %q: %v", s, err)
		}
		return Coord{X: x, Y: y}, nil
	}
	return Coord{}, errors.Newf("invalid cell key %q: no separator", s)
}

// Color is one of the four contract-enumerated cell colors. Cells absent
// from a sparse store are implicitly Empty; the store never holds an
// explicit Empty entry.
type Color uint8

const (
	Empty  Color = 0 // #000000, the canvas background
	Purple Color = 1 // #8c1c84
	Blue   Color = 2 // #45a2f8
	White  Color = 3 // #FFFFFF
)

// Next advances the fixed placement cycle Empty → Purple → Blue → White → Empty.
func (c Color) Next() Color {
	return Color((uint8(c) + 1) % 4)
}

// Valid reports whether c is one of the four contract colors.
func (c Color) Valid() bool {
	return c <= White
}

// Hex returns the display color for rendering.
func (c Color) Hex() string {
	switch c {
	case Purple:
		return "#8c1c84"
	case Blue:
		return "#45a2f8"
	case White:
		return "#FFFFFF"
	default:
		return "#000000"
	}
}

func (c Color) String() string {
	switch c {
	case Empty:
		return "black"
	case Purple:
		return "purple"
	case Blue:
		return "blue"
	case White:
		return "white"
	default:
		return fmt.Sprintf("color(%d)", uint8(c))
	}
}
