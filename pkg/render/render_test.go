package render

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/l3aro/flowstruct/pkg/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pySnippet = "def foo():\n    for x in y:\n        print(\"<x>\")\n"

func TestConnectionPath(t *testing.T) {
	t.Run("left to right", func(t *testing.T) {
		got := ConnectionPath(flow.PositionFor(0), flow.PositionFor(1))
		assert.Equal(t, "M300 25 L300 175", got)
	})

	t.Run("right to left", func(t *testing.T) {
		got := ConnectionPath(flow.PositionFor(1), flow.PositionFor(2))
		assert.Equal(t, "M300 175 L300 325", got)
	})
}

func TestZoom(t *testing.T) {
	assert.Equal(t, DefaultZoom, ClampZoom(0))
	assert.Equal(t, MinZoom, ClampZoom(0.1))
	assert.Equal(t, MaxZoom, ClampZoom(5))
	assert.InDelta(t, 1.2, ZoomIn(1), 1e-9)
	assert.InDelta(t, 0.8, ZoomOut(1), 1e-9)
	assert.Equal(t, MaxZoom, ZoomIn(1.9))
	assert.Equal(t, MinZoom, ZoomOut(0.6))
}

func TestMermaid(t *testing.T) {
	out := Mermaid(flow.ParseAs(pySnippet, flow.Python))

	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, `N0["def foo():"]`)
	assert.Contains(t, out, `N2["print(#quot;#lt;x#gt;#quot;)"]`)
	assert.Contains(t, out, "N0 --> N1")
	assert.Contains(t, out, "N1 --> N2")
	assert.Contains(t, out, "class N0 function")
	assert.Contains(t, out, "class N1 loop")
	assert.NotContains(t, out, "class N2")
}

func TestMermaid_Empty(t *testing.T) {
	assert.Equal(t, "graph TD\n", Mermaid(flow.ParseAs("", flow.Python)))
}

func TestSVG(t *testing.T) {
	result := flow.ParseAs(pySnippet, flow.Python)

	t.Run("draws every node and connection", func(t *testing.T) {
		out := string(SVG(result, Options{}))

		assert.True(t, strings.HasPrefix(out, "<svg"))
		assert.Equal(t, 3, strings.Count(out, `<g class="flow-node`))
		assert.Equal(t, 2, strings.Count(out, `class="flow-connection"`))
		assert.Contains(t, out, `translate(350,150)`)
		assert.Contains(t, out, "print(&#34;&lt;x&gt;&#34;)")
		assert.Contains(t, out, "function-node")
		assert.Contains(t, out, "loop-node")
	})

	t.Run("zoom scales the outer size only", func(t *testing.T) {
		out := string(SVG(result, Options{Zoom: 2}))
		assert.Contains(t, out, `width="1300" height="900" viewBox="0 0 650 450"`)
	})

	t.Run("empty result still renders a canvas", func(t *testing.T) {
		out := string(SVG(flow.ParseResult{}, Options{}))
		assert.Contains(t, out, `viewBox="0 0 650 150"`)
		assert.NotContains(t, out, "flow-node")
	})
}

func TestSVG_ControlCharactersStayWellFormed(t *testing.T) {
	result := flow.ParseAs("x = \"a\x01b\"\n", flow.JavaScript)
	require.Len(t, result.Nodes, 1)

	out := SVG(result, Options{Zoom: 1})
	assert.NotContains(t, string(out), "\x01")

	dec := xml.NewDecoder(bytes.NewReader(out))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
}

func TestText(t *testing.T) {
	out := Text(flow.ParseAs(pySnippet, flow.Python))

	assert.Contains(t, out, "Language: PYTHON")
	assert.Contains(t, out, "def foo():  (function)")
	assert.Contains(t, out, "Total Lines:        3")
	assert.Contains(t, out, "Control Flow Lines: 2")
	assert.Contains(t, out, "Function Lines:     1")

	assert.Contains(t, Text(flow.ParseAs("", flow.Ruby)), "No flow nodes")
}

func TestRender(t *testing.T) {
	result := flow.ParseAs(pySnippet, flow.Python)

	for _, f := range Formats {
		t.Run(string(f), func(t *testing.T) {
			out, err := Render(f, result, Options{Pretty: true})
			require.NoError(t, err)
			assert.NotEmpty(t, out)
		})
	}

	t.Run("json round-trips the result", func(t *testing.T) {
		out, err := Render(FormatJSON, result, Options{})
		require.NoError(t, err)

		var decoded flow.ParseResult
		require.NoError(t, json.Unmarshal(out, &decoded))
		assert.Equal(t, result, decoded)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := Render("png", result, Options{})
		assert.True(t, errors.Is(err, ErrUnknownFormat))
	})
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("svg")
	require.NoError(t, err)
	assert.Equal(t, FormatSVG, f)
	assert.Equal(t, ".svg", Extension(f))
	assert.Equal(t, "image/svg+xml", ContentType(f))

	_, err = ParseFormat("png")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
