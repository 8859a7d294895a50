// Package main implements the flowstruct CLI.
// It detects the language of a code snippet, turns it into a chain of flow
// nodes and renders the result as text, JSON, Mermaid or SVG.
package main

import (
	"os"

	"github.com/l3aro/flowstruct/cmd/flowstruct/commands"
)

var (
	version   = "dev"
	buildTime = ""
)

func main() {
	commands.SetVersion(version, buildTime)

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
