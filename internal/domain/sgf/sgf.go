package sgf

// GameTree is one SGF tree: a main line of nodes plus variations.
type GameTree struct {
	Nodes    []Node
	Children []*GameTree
}

// Node holds SGF properties; a property may repeat, e.g. AB[aa][bb].
type Node struct {
	Properties map[string][]string
}

type SGF struct {
	Root *GameTree
}

// AddMove appends a single-property node (B[..] or W[..]) to the main line.
func (t *GameTree) AddMove(color, point string) {
	t.Nodes = append(t.Nodes, Node{Properties: map[string][]string{color: {point}}})
}

// MoveCount counts the move nodes on the main line.
func (t *GameTree) MoveCount() int {
	n := 0
	for _, node := range t.Nodes {
		if _, ok := node.Properties["B"]; ok {
			n++
		} else if _, ok := node.Properties["W"]; ok {
			n++
		}
	}
	return n
}
