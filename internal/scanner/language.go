package scanner

import (
	"path/filepath"
	"strings"

	"github.com/l3aro/flowstruct/pkg/flow"
)

// extensions maps file extensions to the languages flowstruct can parse.
var extensions = map[string]flow.Language{
	".py":  flow.Python,
	".pyw": flow.Python,
	".pyi": flow.Python,

	".js":  flow.JavaScript,
	".jsx": flow.JavaScript,
	".mjs": flow.JavaScript,
	".cjs": flow.JavaScript,

	".java": flow.Java,

	".rb":      flow.Ruby,
	".rake":    flow.Ruby,
	".gemspec": flow.Ruby,

	".cpp": flow.Cpp,
	".cc":  flow.Cpp,
	".cxx": flow.Cpp,
	".hpp": flow.Cpp,
	".hh":  flow.Cpp,
	".hxx": flow.Cpp,
	".h":   flow.Cpp,
}

// DetectLanguage returns the language for a file path based on its
// extension, and false when the extension is not supported.
func DetectLanguage(path string) (flow.Language, bool) {
	lang, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}
