// pkg/board/board.go
package board

import (
	"errors"
	"fmt"
)

// ErrOutOfMap is returned when a position or footprint would leave the board.
var ErrOutOfMap = errors.New("position is outside the map")

// Coordinate identifies a single tile on the board.
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// MarshalText encodes the coordinate as "x,y" so it can key JSON maps.
func (c Coordinate) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%d,%d", c.X, c.Y)), nil
}

// UnmarshalText decodes a coordinate from its "x,y" form.
func (c *Coordinate) UnmarshalText(text []byte) error {
	_, err := fmt.Sscanf(string(text), "%d,%d", &c.X, &c.Y)
	return err
}

// Chebyshev returns the Chebyshev distance between two tiles:
// max(|dx|, |dy|). All range and radius checks use this metric, which
// makes circular abilities cover square areas.
func Chebyshev(a, b Coordinate) int {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// Orientation is one of the four cardinal facings of a ship.
type Orientation int

const (
	North Orientation = iota
	East
	South
	West
)

// String returns the orientation name.
func (o Orientation) String() string {
	switch o {
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	case West:
		return "West"
	}
	return "Unknown"
}

// Valid reports whether o is one of the four cardinal orientations.
func (o Orientation) Valid() bool {
	return o >= North && o <= West
}

// Delta returns the unit step along the orientation. North is +y, East is +x.
func (o Orientation) Delta() (dx, dy int) {
	switch o {
	case North:
		return 0, 1
	case East:
		return 1, 0
	case South:
		return 0, -1
	default:
		return -1, 0
	}
}

// Clockwise returns the orientation rotated 90° clockwise.
func (o Orientation) Clockwise() Orientation {
	return (o + 1) % 4
}

// CounterClockwise returns the orientation rotated 90° counter-clockwise.
func (o Orientation) CounterClockwise() Orientation {
	return (o + 3) % 4
}

// Opposite returns the reverse orientation.
func (o Orientation) Opposite() Orientation {
	return (o + 2) % 4
}

// MoveDirection selects movement along or against the current facing.
type MoveDirection int

const (
	Forward MoveDirection = iota
	Backward
)

// RotateDirection selects the sense of a 90° rotation about the stern.
type RotateDirection int

const (
	Clockwise RotateDirection = iota
	CounterClockwise
)

// Box is an axis-aligned, inclusive rectangle of tiles.
type Box struct {
	Min Coordinate `json:"min"`
	Max Coordinate `json:"max"`
}

// NewBox builds a Box from two opposite corners in any order.
func NewBox(a, b Coordinate) Box {
	if a.X > b.X {
		a.X, b.X = b.X, a.X
	}
	if a.Y > b.Y {
		a.Y, b.Y = b.Y, a.Y
	}
	return Box{Min: a, Max: b}
}

// PointBox returns the single-tile Box at c.
func PointBox(c Coordinate) Box {
	return Box{Min: c, Max: c}
}

// Bounds returns the Box covering a square board of the given size.
func Bounds(size int) Box {
	return Box{Min: Coordinate{0, 0}, Max: Coordinate{size - 1, size - 1}}
}

// ContainsPoint reports whether c lies inside the box.
func (b Box) ContainsPoint(c Coordinate) bool {
	return c.X >= b.Min.X && c.X <= b.Max.X && c.Y >= b.Min.Y && c.Y <= b.Max.Y
}

// ContainsBox reports whether o lies entirely inside the box.
func (b Box) ContainsBox(o Box) bool {
	return b.ContainsPoint(o.Min) && b.ContainsPoint(o.Max)
}

// Intersects reports whether the two boxes share at least one tile.
func (b Box) Intersects(o Box) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y
}

// Extend grows the box by n tiles in every direction.
func (b Box) Extend(n int) Box {
	return Box{
		Min: Coordinate{b.Min.X - n, b.Min.Y - n},
		Max: Coordinate{b.Max.X + n, b.Max.Y + n},
	}
}

// Intersection returns the overlap of the two boxes. The second return
// value is false when they do not intersect.
func (b Box) Intersection(o Box) (Box, bool) {
	if !b.Intersects(o) {
		return Box{}, false
	}
	return Box{
		Min: Coordinate{max(b.Min.X, o.Min.X), max(b.Min.Y, o.Min.Y)},
		Max: Coordinate{min(b.Max.X, o.Max.X), min(b.Max.Y, o.Max.Y)},
	}, true
}

// Tiles enumerates every tile inside the box in row-major order.
func (b Box) Tiles() []Coordinate {
	tiles := make([]Coordinate, 0, (b.Max.X-b.Min.X+1)*(b.Max.Y-b.Min.Y+1))
	for y := b.Min.Y; y <= b.Max.Y; y++ {
		for x := b.Min.X; x <= b.Max.X; x++ {
			tiles = append(tiles, Coordinate{x, y})
		}
	}
	return tiles
}

// Distance returns the Chebyshev distance from c to the nearest tile of
// the box. Tiles inside the box are at distance zero.
func (b Box) Distance(c Coordinate) int {
	nearest := Coordinate{
		X: clamp(c.X, b.Min.X, b.Max.X),
		Y: clamp(c.Y, b.Min.Y, b.Max.Y),
	}
	return Chebyshev(c, nearest)
}

// QuadrantCorners deterministically assigns each of playerCount players a
// non-overlapping square placement region on a square board. Quadrants are
// laid out row-major on a grid of ceil(sqrt(playerCount)) rows and columns;
// the corner at index i belongs to the i-th player in join order. The same
// inputs always produce the same corners.
func QuadrantCorners(boardSize, playerCount int) []Coordinate {
	if playerCount <= 0 {
		return nil
	}
	grid := 1
	for grid*grid < playerCount {
		grid++
	}
	side := boardSize / grid
	corners := make([]Coordinate, 0, playerCount)
	for i := 0; i < playerCount; i++ {
		corners = append(corners, Coordinate{
			X: (i % grid) * side,
			Y: (i / grid) * side,
		})
	}
	return corners
}

// QuadrantSize returns the side length of the quadrants produced by
// QuadrantCorners for the same inputs.
func QuadrantSize(boardSize, playerCount int) int {
	if playerCount <= 0 {
		return 0
	}
	grid := 1
	for grid*grid < playerCount {
		grid++
	}
	return boardSize / grid
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
