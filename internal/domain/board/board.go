package board

import (
	"fmt"
	"sort"
)

const DefaultSize = 19

// Board is a square grid stored row-major: index = row*size + col.
type Board struct {
	size  int
	cells []Color
}

func New(size int) *Board {
	return &Board{size: size, cells: make([]Color, size*size)}
}

// FromCells copies cells into a new board, rejecting values outside {Empty, White, Black}.
func FromCells(size int, cells []Color) (*Board, error) {
	if size <= 0 || len(cells) != size*size {
		return nil, fmt.Errorf("board: %d cells for size %d", len(cells), size)
	}
	b := New(size)
	for i, c := range cells {
		if c > Black {
			return nil, fmt.Errorf("board: bad cell value %d at %d", c, i)
		}
		b.cells[i] = c
	}
	return b, nil
}

func (b *Board) Size() int {
	return b.size
}

func (b *Board) InBounds(p Point) bool {
	return p.Col >= 0 && p.Row >= 0 && p.Col < b.size && p.Row < b.size
}

func (b *Board) At(p Point) Color {
	return b.cells[p.Row*b.size+p.Col]
}

// Set writes a cell without applying any rule. Used for position setup.
func (b *Board) Set(p Point, c Color) {
	b.cells[p.Row*b.size+p.Col] = c
}

func (b *Board) Cells() []Color {
	out := make([]Color, len(b.cells))
	copy(out, b.cells)
	return out
}

func (b *Board) Clone() *Board {
	return &Board{size: b.size, cells: b.Cells()}
}

func (b *Board) Equal(o *Board) bool {
	if o == nil || b.size != o.size {
		return false
	}
	for i := range b.cells {
		if b.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// Group returns the stones connected to p and the number of distinct empty
// points adjacent to any of them. Empty p yields no stones.
func (b *Board) Group(p Point) ([]Point, int) {
	color := b.At(p)
	if color == Empty {
		return nil, 0
	}
	seen := make(map[Point]bool)
	libs := make(map[Point]bool)
	stack := []Point{p}
	seen[p] = true
	var stones []Point
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stones = append(stones, cur)
		for _, n := range cur.neighbours() {
			if !b.InBounds(n) || seen[n] {
				continue
			}
			switch b.At(n) {
			case Empty:
				libs[n] = true
			case color:
				seen[n] = true
				stack = append(stack, n)
			}
		}
	}
	sortPoints(stones)
	return stones, len(libs)
}

// Change is one cell that differs between two boards.
type Change struct {
	Point Point
	Color Color
}

// Diff lists the cells of next that differ from prev in row-major order.
func Diff(prev, next *Board) []Change {
	var out []Change
	for i, c := range next.cells {
		if prev.cells[i] != c {
			out = append(out, Change{Point: Point{Col: i % next.size, Row: i / next.size}, Color: c})
		}
	}
	return out
}

func sortPoints(ps []Point) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Row != ps[j].Row {
			return ps[i].Row < ps[j].Row
		}
		return ps[i].Col < ps[j].Col
	})
}
