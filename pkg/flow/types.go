// Package flow turns a pasted code snippet into a linear chain of flow nodes.
// It guesses the snippet's language from a handful of textual signals, drops
// blank, comment and import lines, and classifies what remains line by line.
// Nothing here tokenizes or parses: every decision is a substring or regexp
// check on a single line.
package flow

import "fmt"

// Language identifies one of the supported snippet languages.
type Language string

const (
	Python     Language = "python"
	JavaScript Language = "javascript"
	Java       Language = "java"
	Ruby       Language = "ruby"
	Cpp        Language = "cpp"
)

// DefaultLanguage is returned by Detect when no language scores a vote.
const DefaultLanguage = JavaScript

// detectionOrder is the order languages are scored in. Ties go to the
// earliest entry.
var detectionOrder = []Language{Python, JavaScript, Ruby, Java, Cpp}

// Languages returns the supported languages in detection order.
func Languages() []Language {
	out := make([]Language, len(detectionOrder))
	copy(out, detectionOrder)
	return out
}

// ParseLanguage maps a user-supplied name to a Language.
func ParseLanguage(s string) (Language, error) {
	switch s {
	case "python", "py":
		return Python, nil
	case "javascript", "js":
		return JavaScript, nil
	case "java":
		return Java, nil
	case "ruby", "rb":
		return Ruby, nil
	case "cpp", "c++", "cc":
		return Cpp, nil
	default:
		return "", fmt.Errorf("unsupported language: %q", s)
	}
}

// Category is the coarse node type used for styling.
type Category string

const (
	CategoryControlFlow Category = "control-flow"
	CategoryStandard    Category = "standard"
)

// Characteristics are the independent traits detected on a single line.
// IsControlFlow is a superset trait: it is set whenever the line looks like a
// function, loop, conditional or class header for its language.
type Characteristics struct {
	IsControlFlow bool `json:"is_control_flow"`
	IsFunction    bool `json:"is_function"`
	IsLoop        bool `json:"is_loop"`
	IsConditional bool `json:"is_conditional"`
}

// Position is a node's top-left corner in diagram coordinates.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// FlowNode is one retained source line.
type FlowNode struct {
	ID              string          `json:"id"`
	Index           int             `json:"index"`
	Content         string          `json:"content"`
	Position        Position        `json:"position"`
	Type            Category        `json:"type"`
	Characteristics Characteristics `json:"characteristics"`
	Language        Language        `json:"language"`
}

// Connection links a node to the node that follows it.
type Connection struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ParseResult is the output of Parse.
type ParseResult struct {
	Nodes       []FlowNode   `json:"nodes"`
	Connections []Connection `json:"connections"`
	Language    Language     `json:"language"`
}

// Stats summarizes a ParseResult the way the sidebar of the diagram does.
type Stats struct {
	TotalLines       int `json:"total_lines"`
	ControlFlowLines int `json:"control_flow_lines"`
	FunctionLines    int `json:"function_lines"`
	LoopLines        int `json:"loop_lines"`
	ConditionalLines int `json:"conditional_lines"`
}

// Stats counts nodes per trait.
func (r ParseResult) Stats() Stats {
	s := Stats{TotalLines: len(r.Nodes)}
	for _, n := range r.Nodes {
		c := n.Characteristics
		if c.IsControlFlow {
			s.ControlFlowLines++
		}
		if c.IsFunction {
			s.FunctionLines++
		}
		if c.IsLoop {
			s.LoopLines++
		}
		if c.IsConditional {
			s.ConditionalLines++
		}
	}
	return s
}

// Height returns the diagram height needed to show every node, or 0 when the
// result is empty.
func (r ParseResult) Height() int {
	if len(r.Nodes) == 0 {
		return 0
	}
	return r.Nodes[len(r.Nodes)-1].Position.Y + RowSpacing
}

// Node returns the node with the given ID.
func (r ParseResult) Node(id string) (FlowNode, bool) {
	for _, n := range r.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return FlowNode{}, false
}
