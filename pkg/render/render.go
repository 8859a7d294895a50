// Package render draws a flow.ParseResult as text, JSON, Mermaid or SVG.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/l3aro/flowstruct/pkg/flow"
)

// ErrUnknownFormat is returned by Render and ParseFormat for an unsupported
// output format.
var ErrUnknownFormat = errors.New("unknown output format")

// Format names an output format.
type Format string

const (
	FormatText    Format = "text"
	FormatJSON    Format = "json"
	FormatMermaid Format = "mermaid"
	FormatSVG     Format = "svg"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatJSON, FormatMermaid, FormatSVG}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Zoom bounds and step, matching the diagram controls.
const (
	MinZoom     = 0.5
	MaxZoom     = 2.0
	ZoomStep    = 0.2
	DefaultZoom = 1.0
)

// ClampZoom limits z to [MinZoom, MaxZoom]. Non-finite or zero values reset
// to DefaultZoom.
func ClampZoom(z float64) float64 {
	if z == 0 || math.IsNaN(z) || math.IsInf(z, 0) {
		return DefaultZoom
	}
	return math.Min(math.Max(z, MinZoom), MaxZoom)
}

// ZoomIn returns the next zoom level up.
func ZoomIn(z float64) float64 { return ClampZoom(z + ZoomStep) }

// ZoomOut returns the next zoom level down.
func ZoomOut(z float64) float64 { return ClampZoom(z - ZoomStep) }

// Options tune rendering.
type Options struct {
	// Zoom scales the SVG output. Zero means DefaultZoom.
	Zoom float64

	// Pretty indents JSON output.
	Pretty bool
}

// Render draws result in the given format.
func Render(format Format, result flow.ParseResult, opts Options) ([]byte, error) {
	switch format {
	case FormatText:
		return []byte(Text(result)), nil
	case FormatJSON:
		if opts.Pretty {
			return json.MarshalIndent(result, "", "  ")
		}
		return json.Marshal(result)
	case FormatMermaid:
		return []byte(Mermaid(result)), nil
	case FormatSVG:
		return SVG(result, opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ContentType returns the MIME type of a rendered format.
func ContentType(format Format) string {
	switch format {
	case FormatJSON:
		return "application/json"
	case FormatSVG:
		return "image/svg+xml"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension returns the file extension used when saving a format.
func Extension(format Format) string {
	switch format {
	case FormatJSON:
		return ".json"
	case FormatMermaid:
		return ".mmd"
	case FormatSVG:
		return ".svg"
	default:
		return ".txt"
	}
}

// badges lists the trait names set on a node, in a fixed order.
func badges(c flow.Characteristics) []string {
	var out []string
	if c.IsFunction {
		out = append(out, "function")
	}
	if c.IsLoop {
		out = append(out, "loop")
	}
	if c.IsConditional {
		out = append(out, "conditional")
	}
	return out
}
