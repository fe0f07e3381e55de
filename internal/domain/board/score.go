package board

// Score holds area totals. White already includes komi.
type Score struct {
	Black float64
	White float64
}

// Winner returns Empty on an exact tie.
func (s Score) Winner() Color {
	switch {
	case s.Black > s.White:
		return Black
	case s.White > s.Black:
		return White
	}
	return Empty
}

// AreaScore counts stones plus empty regions bordered by a single color.
// Dead stones are not detected: every stone on the board is alive.
func AreaScore(b *Board, komi float64) Score {
	var black, white int
	seen := make([]bool, len(b.cells))
	for i, c := range b.cells {
		switch c {
		case Black:
			black++
			continue
		case White:
			white++
			continue
		}
		if seen[i] {
			continue
		}
		size, owner := b.region(Point{Col: i % b.size, Row: i / b.size}, seen)
		switch owner {
		case Black:
			black += size
		case White:
			white += size
		}
	}
	return Score{Black: float64(black), White: float64(white) + komi}
}

// region flood-fills the empty area containing start and reports its size and
// the single color bordering it, or Empty when both or neither border it.
func (b *Board) region(start Point, seen []bool) (int, Color) {
	var touchesBlack, touchesWhite bool
	stack := []Point{start}
	seen[start.Row*b.size+start.Col] = true
	size := 0
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		size++
		for _, n := range cur.neighbours() {
			if !b.InBounds(n) {
				continue
			}
			switch b.At(n) {
			case Black:
				touchesBlack = true
			case White:
				touchesWhite = true
			default:
				idx := n.Row*b.size + n.Col
				if !seen[idx] {
					seen[idx] = true
					stack = append(stack, n)
				}
			}
		}
	}
	switch {
	case touchesBlack && !touchesWhite:
		return size, Black
	case touchesWhite && !touchesBlack:
		return size, White
	}
	return size, Empty
}
