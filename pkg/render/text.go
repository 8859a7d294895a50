package render

import (
	"fmt"
	"strings"

	"github.com/l3aro/flowstruct/pkg/flow"
)

// Text lists the nodes top to bottom with their category and traits,
// followed by the code statistics.
func Text(result flow.ParseResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Language: %s\n", strings.ToUpper(string(result.Language)))

	if len(result.Nodes) == 0 {
		sb.WriteString("No flow nodes\n")
		return sb.String()
	}

	sb.WriteString("\n")
	for i, n := range result.Nodes {
		fmt.Fprintf(&sb, "%-8s %-12s %s", n.ID, "["+string(n.Type)+"]", n.Content)
		if b := badges(n.Characteristics); len(b) > 0 {
			fmt.Fprintf(&sb, "  (%s)", strings.Join(b, ", "))
		}
		sb.WriteString("\n")
		if i < len(result.Nodes)-1 {
			sb.WriteString("   |\n   v\n")
		}
	}

	s := result.Stats()
	sb.WriteString("\nCode Statistics\n")
	fmt.Fprintf(&sb, "  Total Lines:        %d\n", s.TotalLines)
	fmt.Fprintf(&sb, "  Control Flow Lines: %d\n", s.ControlFlowLines)
	fmt.Fprintf(&sb, "  Function Lines:     %d\n", s.FunctionLines)
	return sb.String()
}
