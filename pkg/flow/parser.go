package flow

import (
	"strconv"
	"strings"
)

// Layout constants for the two-column zig-zag diagram.
const (
	LeftColumnX  = 50
	RightColumnX = 350
	RowSpacing   = 150
)

// PositionFor returns the layout position of the node at index i.
func PositionFor(i int) Position {
	x := LeftColumnX
	if i%2 != 0 {
		x = RightColumnX
	}
	return Position{X: x, Y: i * RowSpacing}
}

// NodeID returns the identifier of the node at index i.
func NodeID(i int) string {
	return "node-" + strconv.Itoa(i)
}

// Parse detects the language of code and splits it into flow nodes.
func Parse(code string) ParseResult {
	return ParseAs(code, Detect(code))
}

// ParseAs splits code into flow nodes using the rules of lang. An
// unregistered lang is parsed with the DefaultLanguage rules, and the result
// reports the language whose rules were applied.
func ParseAs(code string, lang Language) ParseResult {
	rules := rulesOrDefault(lang)
	lang = rules.Language()

	var kept []string
	for _, line := range strings.Split(code, "\n") {
		if rules.Keep(line) {
			kept = append(kept, line)
		}
	}

	nodes := make([]FlowNode, 0, len(kept))
	for i, line := range kept {
		traits := rules.Classify(line)
		category := CategoryStandard
		if traits.IsControlFlow {
			category = CategoryControlFlow
		}
		nodes = append(nodes, FlowNode{
			ID:              NodeID(i),
			Index:           i,
			Content:         trimLine(line),
			Position:        PositionFor(i),
			Type:            category,
			Characteristics: traits,
			Language:        lang,
		})
	}

	connections := make([]Connection, 0, max(len(nodes)-1, 0))
	for i := 0; i+1 < len(nodes); i++ {
		connections = append(connections, Connection{From: nodes[i].ID, To: nodes[i+1].ID})
	}

	return ParseResult{
		Nodes:       nodes,
		Connections: connections,
		Language:    lang,
	}
}
