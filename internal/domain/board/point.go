package board

import (
	"errors"
	"fmt"
	"strconv"
)

// Color is the content of a single intersection. The numeric values are the
// cell bytes used by the wire codec.
type Color uint8

const (
	Empty Color = iota
	White
	Black
)

func (c Color) Opponent() Color {
	switch c {
	case Black:
		return White
	case White:
		return Black
	}
	return Empty
}

func (c Color) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	}
	return "empty"
}

// PassCoord is the literal used for a pass in move history and on the wire.
const PassCoord = "ps"

var ErrBadCoordinate = errors.New("bad coordinate")

type Point struct {
	Col int
	Row int
}

// String renders the point as column letter + zero-based row, e.g. "d4".
func (p Point) String() string {
	return string(rune('a'+p.Col)) + strconv.Itoa(p.Row)
}

func (p Point) neighbours() [4]Point {
	return [4]Point{
		{p.Col - 1, p.Row},
		{p.Col + 1, p.Row},
		{p.Col, p.Row - 1},
		{p.Col, p.Row + 1},
	}
}

// ParsePoint is the inverse of Point.String. It does not check bounds.
func ParsePoint(s string) (Point, error) {
	if len(s) < 2 || s[0] < 'a' || s[0] > 'z' {
		return Point{}, fmt.Errorf("%w: %q", ErrBadCoordinate, s)
	}
	row, err := strconv.Atoi(s[1:])
	if err != nil || row < 0 || s[1] == '+' {
		return Point{}, fmt.Errorf("%w: %q", ErrBadCoordinate, s)
	}
	return Point{Col: int(s[0] - 'a'), Row: row}, nil
}

type MoveKind uint8

const (
	Place MoveKind = iota
	Pass
)

// Move is immutable once recorded.
type Move struct {
	Kind  MoveKind
	Point Point
}

func PlaceAt(col, row int) Move {
	return Move{Kind: Place, Point: Point{Col: col, Row: row}}
}

func PassMove() Move {
	return Move{Kind: Pass}
}

func (m Move) IsPass() bool {
	return m.Kind == Pass
}

func (m Move) String() string {
	if m.Kind == Pass {
		return PassCoord
	}
	return m.Point.String()
}

func ParseMove(s string) (Move, error) {
	if s == PassCoord {
		return PassMove(), nil
	}
	p, err := ParsePoint(s)
	if err != nil {
		return Move{}, err
	}
	return Move{Kind: Place, Point: p}, nil
}
