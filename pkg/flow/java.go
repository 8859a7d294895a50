package flow

import "regexp"

type javaRules struct{}

func (javaRules) Language() Language { return Java }

func (javaRules) Keep(line string) bool {
	return keepLine(line, "//", "import", "package")
}

func (javaRules) Classify(line string) Characteristics {
	return Characteristics{
		IsControlFlow: containsAll(line, "public ", "(") ||
			containsAny(line, "if ", "for ", "while ", "class "),
		IsFunction:    containsAll(line, "public ", "(", "{"),
		IsLoop:        isLoopLine(line),
		IsConditional: containsAny(line, "if ", "else"),
	}
}

// Signals run against lowercased input, so the println pattern is lowercase.
var (
	javaPrintlnRe = regexp.MustCompile(`system\.out\.println\s*\(["']`)
	javaMainRe    = regexp.MustCompile(`\bpublic\s+(static\s+)?void\s+main`)
	javaClassRe   = regexp.MustCompile(`\bclass\s+\w+\s*\{`)
	javaImportRe  = regexp.MustCompile(`\bimport\s+\w+\.`)
)

var javaSignals = []signal{
	javaPrintlnRe.MatchString,
	javaMainRe.MatchString,
	javaClassRe.MatchString,
	javaImportRe.MatchString,
}
