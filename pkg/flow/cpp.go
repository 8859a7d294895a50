package flow

import (
	"regexp"
	"strings"
)

type cppRules struct{}

func (cppRules) Language() Language { return Cpp }

func (cppRules) Keep(line string) bool {
	return keepLine(line, "//", "#include", "#define")
}

func (cppRules) Classify(line string) Characteristics {
	hasVoid := strings.Contains(line, "void ")
	return Characteristics{
		IsControlFlow: hasVoid ||
			containsAll(line, "int ", "(") ||
			containsAny(line, "if ", "for ", "while ", "class "),
		IsFunction:    hasVoid || containsAll(line, "int ", "(", "{"),
		IsLoop:        isLoopLine(line),
		IsConditional: containsAny(line, "if ", "else"),
	}
}

var (
	cppCoutRe    = regexp.MustCompile(`\bstd::cout\s*<<\s*["']`)
	cppMainRe    = regexp.MustCompile(`\bint\s+main\s*\(\)`)
	cppIncludeRe = regexp.MustCompile(`#include\s*<\w+>`)
	cppStdRe     = regexp.MustCompile(`\bstd::\w+`)
)

var cppSignals = []signal{
	cppCoutRe.MatchString,
	cppMainRe.MatchString,
	cppIncludeRe.MatchString,
	cppStdRe.MatchString,
}
