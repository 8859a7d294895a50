package render

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/l3aro/flowstruct/pkg/flow"
)

// Node box size in diagram units.
const (
	NodeWidth  = 250
	NodeHeight = 50
)

const (
	strokeColor = "#5e81ac"
	canvasWidth = flow.RightColumnX + NodeWidth + flow.LeftColumnX
)

// SVG draws the diagram with every node at its layout position and a dashed
// arrow per connection. The whole drawing is scaled by the clamped zoom.
func SVG(result flow.ParseResult, opts Options) []byte {
	zoom := ClampZoom(opts.Zoom)
	height := result.Height()
	if height == 0 {
		height = flow.RowSpacing
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %d %d">`+"\n",
		scaled(canvasWidth, zoom), scaled(height, zoom), canvasWidth, height)
	sb.WriteString(`  <defs>` + "\n")
	fmt.Fprintf(&sb, `    <marker id="arrowhead" markerWidth="10" markerHeight="7" refX="5" refY="3.5" orient="auto"><path d="M0,0 L10,3.5 L0,7" fill="%s"/></marker>`+"\n", strokeColor)
	sb.WriteString(`  </defs>` + "\n")
	sb.WriteString(`  <rect width="100%" height="100%" fill="#ffffff"/>` + "\n")

	for _, c := range result.Connections {
		from, ok := result.Node(c.From)
		if !ok {
			continue
		}
		to, ok := result.Node(c.To)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, `  <path class="flow-connection" d="%s" fill="none" stroke="%s" stroke-width="2" stroke-dasharray="5" marker-end="url(#arrowhead)"/>`+"\n",
			ConnectionPath(from.Position, to.Position), strokeColor)
	}

	for _, n := range result.Nodes {
		fmt.Fprintf(&sb, `  <g class="%s" transform="translate(%d,%d)">`+"\n", nodeClasses(n), n.Position.X, n.Position.Y)
		fmt.Fprintf(&sb, `    <rect width="%d" height="%d" rx="8" fill="%s" stroke="%s"/>`+"\n", NodeWidth, NodeHeight, fillFor(n), strokeColor)
		// EscapeText also swaps characters XML cannot carry for U+FFFD.
		sb.WriteString(`    <text x="12" y="30" font-family="monospace" font-size="13">`)
		_ = xml.EscapeText(&sb, []byte(n.Content))
		sb.WriteString("</text>\n")
		sb.WriteString("  </g>\n")
	}

	sb.WriteString("</svg>\n")
	return []byte(sb.String())
}

// ConnectionPath returns the SVG path between two node positions. The line
// leaves the right edge of a left-column node (or the left side of a
// right-column node) and lands on the opposite side of the next one.
func ConnectionPath(from, to flow.Position) string {
	startOffset, endOffset := -50, NodeWidth
	if from.X < to.X {
		startOffset, endOffset = NodeWidth, -50
	}
	return fmt.Sprintf("M%d %d L%d %d",
		from.X+startOffset, from.Y+NodeHeight/2,
		to.X+endOffset, to.Y+NodeHeight/2)
}

func nodeClasses(n flow.FlowNode) string {
	classes := []string{"flow-node", string(n.Type)}
	for _, b := range badges(n.Characteristics) {
		classes = append(classes, b+"-node")
	}
	return strings.Join(classes, " ")
}

func fillFor(n flow.FlowNode) string {
	switch nodeClass(n) {
	case "function":
		return "#a3be8c"
	case "loop":
		return "#ebcb8b"
	case "conditional":
		return "#d08770"
	case "controlflow":
		return "#88c0d0"
	default:
		return "#eceff4"
	}
}

func scaled(v int, zoom float64) string {
	return fmt.Sprintf("%g", float64(v)*zoom)
}
