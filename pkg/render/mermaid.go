package render

import (
	"fmt"
	"strings"

	"github.com/l3aro/flowstruct/pkg/flow"
)

// Mermaid produces a Mermaid "graph TD" diagram. Node IDs are rewritten to
// N<index> since Mermaid IDs must be alphanumeric.
func Mermaid(result flow.ParseResult) string {
	ids := make(map[string]string, len(result.Nodes))

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, n := range result.Nodes {
		id := fmt.Sprintf("N%d", n.Index)
		ids[n.ID] = id
		sb.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", id, mermaidLabel(n.Content)))
	}

	for _, c := range result.Connections {
		sb.WriteString(fmt.Sprintf("  %s --> %s\n", ids[c.From], ids[c.To]))
	}

	var classes []string
	for _, n := range result.Nodes {
		if cls := nodeClass(n); cls != "" {
			classes = append(classes, fmt.Sprintf("  class %s %s\n", ids[n.ID], cls))
		}
	}
	if len(classes) > 0 {
		sb.WriteString("  classDef function fill:#a3be8c,stroke:#5e81ac\n")
		sb.WriteString("  classDef loop fill:#ebcb8b,stroke:#5e81ac\n")
		sb.WriteString("  classDef conditional fill:#d08770,stroke:#5e81ac\n")
		sb.WriteString("  classDef controlflow fill:#88c0d0,stroke:#5e81ac\n")
		for _, c := range classes {
			sb.WriteString(c)
		}
	}

	return sb.String()
}

// nodeClass picks one Mermaid class per node; function wins over loop, loop
// over conditional.
func nodeClass(n flow.FlowNode) string {
	if b := badges(n.Characteristics); len(b) > 0 {
		return b[0]
	}
	if n.Type == flow.CategoryControlFlow {
		return "controlflow"
	}
	return ""
}

var mermaidEscaper = strings.NewReplacer(
	`"`, "#quot;",
	"<", "#lt;",
	">", "#gt;",
)

func mermaidLabel(s string) string {
	return mermaidEscaper.Replace(s)
}
