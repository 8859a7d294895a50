package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/l3aro/flowstruct/internal/server"
	"github.com/l3aro/flowstruct/pkg/flow"
	"github.com/l3aro/flowstruct/pkg/render"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pythonSnippet = "def greet(name):\n    if name:\n        return name\n"

// resetFlags restores every flag to its default so tests sharing RootCmd
// do not leak state into each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var out, errOut bytes.Buffer
	RootCmd.SetIn(strings.NewReader(stdin))
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&errOut)
	RootCmd.SetArgs(args)
	t.Cleanup(func() {
		resetFlags(RootCmd)
		RootCmd.SetIn(nil)
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetArgs(nil)
	})

	err := RootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDetectCommand(t *testing.T) {
	t.Run("stdin", func(t *testing.T) {
		out, err := execute(t, pythonSnippet, "detect")
		require.NoError(t, err)
		assert.Equal(t, "python\n", out)
	})

	t.Run("with scores", func(t *testing.T) {
		out, err := execute(t, "console.log('hi')\nconst x = 1", "detect", "-", "--scores")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 6)
		assert.Equal(t, "javascript", lines[0])
		assert.Contains(t, lines[2], "javascript")
	})

	t.Run("json from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "snippet.txt")
		writeFile(t, path, "puts 'hello'\nend")

		out, err := execute(t, "", "detect", path, "--json")
		require.NoError(t, err)

		var got DetectOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, path, got.Input)
		assert.Equal(t, flow.Ruby, got.Language)
		assert.Len(t, got.Scores, 5)
	})
}

func TestParseCommand(t *testing.T) {
	t.Run("single stdin input as json", func(t *testing.T) {
		out, err := execute(t, pythonSnippet, "parse", "--json")
		require.NoError(t, err)

		var result flow.ParseResult
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Equal(t, flow.Python, result.Language)
		assert.Len(t, result.Nodes, 3)
		assert.Len(t, result.Connections, 2)
	})

	t.Run("text is the default format", func(t *testing.T) {
		out, err := execute(t, pythonSnippet, "parse")
		require.NoError(t, err)
		assert.Contains(t, out, "Language: PYTHON")
		assert.Contains(t, out, "Code Statistics")
	})

	t.Run("mermaid format", func(t *testing.T) {
		out, err := execute(t, pythonSnippet, "parse", "--format", "mermaid")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "graph TD"))
	})

	t.Run("directory batch", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.py"), pythonSnippet)
		writeFile(t, filepath.Join(dir, "lib", "b.rb"), "def hello\n  puts 'hi'\nend\n")
		writeFile(t, filepath.Join(dir, "notes.md"), "# not code")

		out, err := execute(t, "", "parse", dir, "--json")
		require.NoError(t, err)

		var outputs []ParseOutput
		require.NoError(t, json.Unmarshal([]byte(out), &outputs))
		require.Len(t, outputs, 2)
		assert.Equal(t, filepath.Join(dir, "a.py"), filepath.Clean(outputs[0].Input))
		assert.Equal(t, flow.Python, outputs[0].Result.Language)
		assert.Equal(t, flow.Ruby, outputs[1].Result.Language)
		assert.Equal(t, 3, outputs[0].Stats.TotalLines)
	})

	t.Run("multiple files in text mode get headers", func(t *testing.T) {
		dir := t.TempDir()
		a := filepath.Join(dir, "a.py")
		b := filepath.Join(dir, "b.js")
		writeFile(t, a, "x = 1\n")
		writeFile(t, b, "const y = 2;\n")

		out, err := execute(t, "", "parse", a, b)
		require.NoError(t, err)
		assert.Contains(t, out, "==> "+a+" <==")
		assert.Contains(t, out, "==> "+b+" <==")
		assert.Less(t, strings.Index(out, a), strings.Index(out, b))
	})

	t.Run("forced language", func(t *testing.T) {
		out, err := execute(t, "import os\nx = 1\n", "parse", "--language", "js", "--json")
		require.NoError(t, err)

		var result flow.ParseResult
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Equal(t, flow.JavaScript, result.Language)
		require.Len(t, result.Nodes, 1)
	})

	t.Run("forced language is case insensitive", func(t *testing.T) {
		out, err := execute(t, "import os\nx = 1\n", "parse", "--language", "Python", "--json")
		require.NoError(t, err)

		var result flow.ParseResult
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Equal(t, flow.Python, result.Language)
		require.Len(t, result.Nodes, 1)
		assert.Equal(t, "x = 1", result.Nodes[0].Content)
	})

	t.Run("unknown language", func(t *testing.T) {
		_, err := execute(t, "x", "parse", "--language", "cobol")
		assert.Error(t, err)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := execute(t, "x", "parse", "--format", "png")
		assert.ErrorIs(t, err, render.ErrUnknownFormat)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, "", "parse", filepath.Join(t.TempDir(), "nope.py"))
		assert.Error(t, err)
	})
}

func TestParseCommand_InputLimit(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, "max_input_bytes: 8\n")

	_, err := execute(t, strings.Repeat("x = 1\n", 10), "parse", "--config", cfgPath)
	require.Error(t, err)
	assert.True(t, errors.Is(err, server.ErrInputTooLarge))
}

func TestParseCommand_PersistsCache(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "cache", "results.msgpack")
	cfgPath := filepath.Join(dir, "config.yaml")
	writeFile(t, cfgPath, "cache_path: "+cachePath+"\n")

	_, err := execute(t, pythonSnippet, "parse", "--config", cfgPath)
	require.NoError(t, err)

	info, err := os.Stat(cachePath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRenderCommand(t *testing.T) {
	t.Run("svg to stdout", func(t *testing.T) {
		out, err := execute(t, pythonSnippet, "render")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "<svg"))
		assert.Contains(t, out, `width="650" height="450"`)
	})

	t.Run("zoom", func(t *testing.T) {
		out, err := execute(t, pythonSnippet, "render", "--zoom", "2")
		require.NoError(t, err)
		assert.Contains(t, out, `width="1300" height="900"`)
	})

	t.Run("zoom is clamped", func(t *testing.T) {
		out, err := execute(t, pythonSnippet, "render", "--zoom", "5")
		require.NoError(t, err)
		assert.Contains(t, out, `width="1300" height="900"`)
	})

	t.Run("output directory gets export name", func(t *testing.T) {
		dir := t.TempDir()
		out, err := execute(t, pythonSnippet, "render", "-o", dir)
		require.NoError(t, err)

		path := strings.TrimSpace(out)
		assert.Equal(t, dir, filepath.Dir(path))
		assert.True(t, strings.HasPrefix(filepath.Base(path), "code_flow_chart_"))
		assert.Equal(t, ".svg", filepath.Ext(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "<svg"))
	})

	t.Run("output file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "flow.mmd")
		_, err := execute(t, pythonSnippet, "render", "--format", "mermaid", "-o", path)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "graph TD"))
	})
}

func TestStatsCommand(t *testing.T) {
	out, err := execute(t, "for i in range(3):\n    if i:\n        print(i)\n", "stats", "--json")
	require.NoError(t, err)

	var got StatsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, flow.Python, got.Language)
	assert.Equal(t, 3, got.TotalLines)
	assert.Equal(t, 2, got.ControlFlowLines)
	assert.Equal(t, 1, got.LoopLines)
	assert.Equal(t, 1, got.ConditionalLines)

	out, err = execute(t, "for i in range(3):\n    pass\n", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Lines:   2")
	assert.Contains(t, out, "Loops:         1")
}

func TestExportName(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 30, 45, 123_000_000, time.UTC)
	assert.Equal(t, "code_flow_chart_2024-05-01T12-30-45-123Z.svg", ExportName(ts, render.FormatSVG))
	assert.Equal(t, "code_flow_chart_2024-05-01T12-30-45-123Z.mmd", ExportName(ts, render.FormatMermaid))
}

func TestInitAnswers(t *testing.T) {
	t.Run("defaults build a valid config", func(t *testing.T) {
		cfg, err := defaultAnswers().buildConfig()
		require.NoError(t, err)
		assert.Equal(t, "text", cfg.OutputFormat)
		assert.Equal(t, 1.0, cfg.Zoom)
	})

	t.Run("custom answers", func(t *testing.T) {
		a := defaultAnswers()
		a.OutputFormat = "svg"
		a.Zoom = "1.4"
		a.CachePath = "/tmp/flow.cache"
		a.LogLevel = "debug"

		cfg, err := a.buildConfig()
		require.NoError(t, err)
		assert.Equal(t, "svg", cfg.OutputFormat)
		assert.Equal(t, 1.4, cfg.Zoom)
		assert.Equal(t, "/tmp/flow.cache", cfg.CachePath)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("invalid zoom", func(t *testing.T) {
		a := defaultAnswers()
		a.Zoom = "huge"
		_, err := a.buildConfig()
		assert.Error(t, err)

		assert.Error(t, validateZoom("3"))
		assert.Error(t, validateZoom("abc"))
		assert.NoError(t, validateZoom("0.5"))
	})

	t.Run("scope paths", func(t *testing.T) {
		p, err := configPathForScope("project")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(".flowstruct", "config.yaml"), p)

		p, err = configPathForScope("global")
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(p, filepath.Join(".flowstruct", "config.yaml")))

		_, err = configPathForScope("team")
		assert.Error(t, err)
	})
}
