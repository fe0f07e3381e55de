package sgf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// header properties come first in this order, the rest sorted by name
var orderedKeys = []string{"FF", "GM", "SZ", "PB", "PW", "DT", "RE", "KM", "RU", "C", "B", "W"}

type Header struct {
	Size      int
	Komi      float64
	Black     string
	White     string
	Result    string
	CreatedAt time.Time
}

// Build produces a single-line game record. Moves use the engine's
// coordinate strings ("d4", "ps") and alternate starting with black.
func Build(h Header, moves []string) (*SGF, error) {
	root := &GameTree{
		Nodes: []Node{{
			Properties: map[string][]string{
				"FF": {"4"},
				"GM": {"1"},
				"SZ": {strconv.Itoa(h.Size)},
				"PB": {escape(h.Black)},
				"PW": {escape(h.White)},
				"DT": {h.CreatedAt.UTC().Format("2006-01-02")},
				"RE": {h.Result},
				"KM": {strconv.FormatFloat(h.Komi, 'f', 1, 64)},
				"RU": {"Chinese"},
			},
		}},
	}
	color := "B"
	for i, m := range moves {
		coord, err := toSgfPoint(m, h.Size)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i, err)
		}
		root.AddMove(color, coord)
		if color == "B" {
			color = "W"
		} else {
			color = "B"
		}
	}
	return &SGF{Root: root}, nil
}

// Result formats RE: "B+3.5", "W+T", "W+R", "0" for a draw, "Void" when cancelled.
func Result(winner string, margin float64, by string) string {
	switch by {
	case "score":
		if winner == "" {
			return "0"
		}
		return winner + "+" + strconv.FormatFloat(margin, 'f', 1, 64)
	case "time":
		return winner + "+T"
	case "abort":
		return winner + "+R"
	}
	return "Void"
}

// toSgfPoint maps "d4" (column letter, zero-based row) to SGF's two letters.
// A pass is the empty value.
func toSgfPoint(m string, size int) (string, error) {
	if m == "ps" {
		return "", nil
	}
	if len(m) < 2 {
		return "", fmt.Errorf("bad coordinate %q", m)
	}
	row, err := strconv.Atoi(m[1:])
	if err != nil || row < 0 || row >= size {
		return "", fmt.Errorf("bad coordinate %q", m)
	}
	col := int(m[0] - 'a')
	if col < 0 || col >= size {
		return "", fmt.Errorf("bad coordinate %q", m)
	}
	return string([]byte{byte('a' + col), byte('a' + row)}), nil
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "]", `\]`)
}

func Serialize(s *SGF) string {
	var builder strings.Builder
	builder.WriteString("(")
	serializeGameTree(&builder, s.Root)
	builder.WriteString(")")
	return builder.String()
}

func serializeGameTree(builder *strings.Builder, tree *GameTree) {
	for _, node := range tree.Nodes {
		builder.WriteString(";")

		used := make(map[string]bool)
		for _, key := range orderedKeys {
			if values, ok := node.Properties[key]; ok {
				used[key] = true
				writeProperty(builder, key, values)
			}
		}

		var rest []string
		for key := range node.Properties {
			if !used[key] {
				rest = append(rest, key)
			}
		}
		sort.Strings(rest)
		for _, key := range rest {
			writeProperty(builder, key, node.Properties[key])
		}
	}

	for _, child := range tree.Children {
		builder.WriteString("(")
		serializeGameTree(builder, child)
		builder.WriteString(")")
	}
}

func writeProperty(builder *strings.Builder, key string, values []string) {
	builder.WriteString(key)
	for _, v := range values {
		builder.WriteString("[")
		builder.WriteString(v)
		builder.WriteString("]")
	}
}
